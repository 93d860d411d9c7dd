package entities

import "time"

type OrderType string

const (
	OrderTypeSubscription OrderType = "SUBSCRIPTION"
	OrderTypeGuest        OrderType = "GUEST"
)

type Order struct {
	ID             uint64     `json:"id"`
	CompanyID      uint64     `json:"company_id"`
	ProjectID      uint64     `json:"project_id"`
	EmployeeID     *uint64    `json:"employee_id,omitempty"`
	SubscriptionID *uint64    `json:"subscription_id,omitempty"`
	OrderType      OrderType  `json:"order_type"`
	GuestName      *string    `json:"guest_name,omitempty"`
	Quantity       int        `json:"quantity"`
	OrderDate      time.Time  `json:"order_date"`
	ComboType      string     `json:"combo_type"`
	Price          int64      `json:"price"`
	Status         Status     `json:"status"`
	IsReplacement  bool       `json:"is_replacement"`
	FreezeReason   *string    `json:"freeze_reason,omitempty"`
	FrozenAt       *time.Time `json:"frozen_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	EmployeeName *string `json:"employee_name,omitempty"`
	ProjectName  string  `json:"project_name,omitempty"`
}

// Total - стоимость заказа с учётом количества порций.
func (o *Order) Total() int64 {
	q := o.Quantity
	if q < 1 {
		q = 1
	}
	return o.Price * int64(q)
}
