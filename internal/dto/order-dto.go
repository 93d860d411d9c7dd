package dto

type FreezeOrderDTO struct {
	Reason *string `json:"reason" validate:"omitempty,max=300"`
}

type CreateGuestOrderDTO struct {
	ProjectID uint64 `json:"project_id" validate:"required"`
	GuestName string `json:"guest_name" validate:"required,max=200"`
	ComboType string `json:"combo_type" validate:"required,max=100"`
	Date      string `json:"date" validate:"required,date"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=100"`
}

type OrderDTO struct {
	ID             uint64  `json:"id"`
	CompanyID      uint64  `json:"company_id"`
	ProjectID      uint64  `json:"project_id"`
	ProjectName    string  `json:"project_name"`
	EmployeeID     *uint64 `json:"employee_id"`
	EmployeeName   *string `json:"employee_name"`
	SubscriptionID *uint64 `json:"subscription_id"`
	Type           string  `json:"type"`
	GuestName      *string `json:"guest_name"`
	Quantity       int     `json:"quantity"`
	Date           string  `json:"date"`
	ComboType      string  `json:"combo_type"`
	Price          int64   `json:"price"`
	Total          int64   `json:"total"`
	Status         string  `json:"status"`
	IsReplacement  bool    `json:"is_replacement"`
	FreezeReason   *string `json:"freeze_reason"`
	FrozenAt       *string `json:"frozen_at"`
	CreatedAt      string  `json:"created_at"`
}

type FreezeResultDTO struct {
	Order            OrderDTO  `json:"order"`
	ReplacementOrder *OrderDTO `json:"replacement_order,omitempty"`
	SubscriptionEnd  string    `json:"subscription_end_date"`
	FreezesUsed      int       `json:"freezes_used"`
	FreezesLeft      int       `json:"freezes_left"`
}

type UnfreezeResultDTO struct {
	Order           OrderDTO `json:"order"`
	RemovedOrderID  *uint64  `json:"removed_order_id,omitempty"`
	SubscriptionEnd string   `json:"subscription_end_date"`
}

type FreezeInfoDTO struct {
	EmployeeID uint64 `json:"employee_id"`
	WeekStart  string `json:"week_start"`
	WeekEnd    string `json:"week_end"`
	Used       int    `json:"used"`
	Max        int    `json:"max"`
	Remaining  int    `json:"remaining"`
	CanFreeze  bool   `json:"can_freeze"`
}

type CompleteOrdersResultDTO struct {
	OrdersCompleted        int64 `json:"orders_completed"`
	SubscriptionsCompleted int64 `json:"subscriptions_completed"`
	PausedDaysCancelled    int64 `json:"paused_days_cancelled"`
	Refunded               int64 `json:"refunded"`
}
