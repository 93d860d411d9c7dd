package dto

type TopUpDTO struct {
	CompanyID uint64  `json:"company_id" validate:"required"`
	Amount    int64   `json:"amount" validate:"required,gt=0"`
	Comment   *string `json:"comment" validate:"omitempty,max=500"`
}

type LedgerEntryDTO struct {
	ID             uint64  `json:"id"`
	CompanyID      uint64  `json:"company_id"`
	Type           string  `json:"type"`
	Amount         int64   `json:"amount"`
	BalanceAfter   int64   `json:"balance_after"`
	OrderID        *uint64 `json:"order_id"`
	SubscriptionID *uint64 `json:"subscription_id"`
	InvoiceID      *uint64 `json:"invoice_id"`
	CompensationID *uint64 `json:"compensation_id"`
	Comment        *string `json:"comment"`
	CreatedAt      string  `json:"created_at"`
}

// BalanceDTO - Available равен nil, если овердрафт без лимита.
type BalanceDTO struct {
	CompanyID      uint64           `json:"company_id"`
	Balance        int64            `json:"balance"`
	AllowOverdraft bool             `json:"allow_overdraft"`
	OverdraftLimit int64            `json:"overdraft_limit"`
	Available      *int64           `json:"available"`
	MonthSpend     map[string]int64 `json:"month_totals"`
}
