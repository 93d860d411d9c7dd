package dto

type CreateCompensationDTO struct {
	EmployeeID  uint64  `json:"employee_id" validate:"required"`
	Amount      int64   `json:"amount" validate:"required,gt=0"`
	Restaurant  string  `json:"restaurant" validate:"required,max=200"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Date        string  `json:"date" validate:"required,date"`
}

type CompensationDTO struct {
	ID           uint64  `json:"id"`
	CompanyID    uint64  `json:"company_id"`
	ProjectID    uint64  `json:"project_id"`
	EmployeeID   uint64  `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	Amount       int64   `json:"amount"`
	Restaurant   string  `json:"restaurant"`
	Description  *string `json:"description"`
	Date         string  `json:"date"`
	CreatedAt    string  `json:"created_at"`
}

type CompensationSummaryDTO struct {
	EmployeeID uint64 `json:"employee_id"`
	Month      string `json:"month"`
	Limit      int64  `json:"limit"`
	Spent      int64  `json:"spent"`
	Remaining  int64  `json:"remaining"`
}
