package entities

import "time"

type CompensationTransaction struct {
	ID              uint64    `json:"id"`
	CompanyID       uint64    `json:"company_id"`
	ProjectID       uint64    `json:"project_id"`
	EmployeeID      uint64    `json:"employee_id"`
	Amount          int64     `json:"amount"`
	Restaurant      string    `json:"restaurant"`
	Description     *string   `json:"description,omitempty"`
	TransactionDate time.Time `json:"transaction_date"`
	CreatedBy       *uint64   `json:"created_by,omitempty"`
	CreatedAt       time.Time `json:"created_at"`

	EmployeeName string `json:"employee_name,omitempty"`
}
