package entities

import "time"

type LedgerType string

const (
	LedgerSubscriptionPayment LedgerType = "SUBSCRIPTION_PAYMENT"
	LedgerGuestOrder          LedgerType = "GUEST_ORDER"
	LedgerRefund              LedgerType = "REFUND"
	LedgerCompensation        LedgerType = "COMPENSATION"
	LedgerTopUp               LedgerType = "TOP_UP"
)

// LedgerEntry - движение по балансу компании. Amount со знаком:
// списания отрицательные, пополнения и возвраты положительные.
type LedgerEntry struct {
	ID             uint64     `json:"id"`
	CompanyID      uint64     `json:"company_id"`
	EntryType      LedgerType `json:"type"`
	Amount         int64      `json:"amount"`
	BalanceAfter   int64      `json:"balance_after"`
	OrderID        *uint64    `json:"order_id,omitempty"`
	SubscriptionID *uint64    `json:"subscription_id,omitempty"`
	InvoiceID      *uint64    `json:"invoice_id,omitempty"`
	CompensationID *uint64    `json:"compensation_id,omitempty"`
	Comment        *string    `json:"comment,omitempty"`
	CreatedBy      *uint64    `json:"created_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
