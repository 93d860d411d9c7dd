package dto

type CreateInvoiceDTO struct {
	CompanyID uint64  `json:"company_id" validate:"omitempty"`
	Amount    int64   `json:"amount" validate:"required,gt=0"`
	DueDate   *string `json:"due_date" validate:"omitempty,date"`
	Comment   *string `json:"comment" validate:"omitempty,max=500"`
}

type GenerateStatementDTO struct {
	CompanyID uint64 `json:"company_id" validate:"omitempty"`
	Month     string `json:"month" validate:"required,month"`
}

type InvoiceDTO struct {
	ID          uint64  `json:"id"`
	CompanyID   uint64  `json:"company_id"`
	CompanyName string  `json:"company_name"`
	Number      string  `json:"number"`
	Type        string  `json:"type"`
	Amount      int64   `json:"amount"`
	Status      string  `json:"status"`
	PeriodStart *string `json:"period_start"`
	PeriodEnd   *string `json:"period_end"`
	DueDate     *string `json:"due_date"`
	PaidAt      *string `json:"paid_at"`
	Comment     *string `json:"comment"`
	CreatedAt   string  `json:"created_at"`
}
