package dto

type CreateSubscriptionDTO struct {
	EmployeeIDs []uint64 `json:"employee_ids" validate:"required,min=1,max=500,unique,dive,gt=0"`
	ComboType   string   `json:"combo_type" validate:"required,max=100"`
	StartDate   string   `json:"start_date" validate:"required,date"`
	EndDate     string   `json:"end_date" validate:"required,date"`
}

// PauseSubscriptionDTO - если from_date не указан, пауза с первого доступного дня.
type PauseSubscriptionDTO struct {
	FromDate *string `json:"from_date" validate:"omitempty,date"`
}

type UpdateComboDTO struct {
	ComboType string `json:"combo_type" validate:"required,max=100"`
}

type SubscriptionDTO struct {
	ID          uint64           `json:"id"`
	CompanyID   uint64           `json:"company_id"`
	ProjectID   uint64           `json:"project_id"`
	Employee    ShortEmployeeDTO `json:"employee"`
	ComboType   string           `json:"combo_type"`
	Price       int64            `json:"price"`
	StartDate   string           `json:"start_date"`
	EndDate     string           `json:"end_date"`
	Status      string           `json:"status"`
	OrderCounts map[string]int   `json:"order_counts,omitempty"`
	CreatedAt   string           `json:"created_at"`
	UpdatedAt   string           `json:"updated_at"`
}

type CreateSubscriptionsResultDTO struct {
	Subscriptions []SubscriptionDTO `json:"subscriptions"`
	OrdersCreated int64             `json:"orders_created"`
	TotalCharged  int64             `json:"total_charged"`
	BalanceAfter  int64             `json:"balance_after"`
}

// SubscriptionChangeDTO - итог операции над подпиской: сколько заказов затронуто и сколько денег ушло/вернулось.
type SubscriptionChangeDTO struct {
	Subscription  SubscriptionDTO `json:"subscription"`
	OrdersChanged int64           `json:"orders_changed"`
	Amount        int64           `json:"amount"`
}
