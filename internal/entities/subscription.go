package entities

import "time"

type Subscription struct {
	ID         uint64    `json:"id"`
	CompanyID  uint64    `json:"company_id"`
	ProjectID  uint64    `json:"project_id"`
	EmployeeID uint64    `json:"employee_id"`
	ComboType  string    `json:"combo_type"`
	Price      int64     `json:"price"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Status     Status    `json:"status"`
	CreatedBy  *uint64   `json:"created_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	EmployeeName string `json:"employee_name,omitempty"`
}
