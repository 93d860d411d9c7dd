package entities

import (
	"time"

	"yalla-business/pkg/types"
)

const (
	InvoiceTypeTopUp = "TOP_UP"
	InvoiceTypeAct   = "ACT"

	InvoiceStatusPending   = "PENDING"
	InvoiceStatusPaid      = "PAID"
	InvoiceStatusCancelled = "CANCELLED"
)

type Invoice struct {
	ID          uint64     `json:"id"`
	CompanyID   uint64     `json:"company_id"`
	Number      string     `json:"number"`
	InvoiceType string     `json:"invoice_type"`
	Amount      int64      `json:"amount"`
	Status      string     `json:"status"`
	PeriodStart *time.Time `json:"period_start,omitempty"`
	PeriodEnd   *time.Time `json:"period_end,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	Comment     *string    `json:"comment,omitempty"`
	CreatedBy   *uint64    `json:"created_by,omitempty"`

	CompanyName string `json:"company_name,omitempty"`

	types.BaseEntity
}
