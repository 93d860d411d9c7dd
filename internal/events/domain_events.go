package events

import "yalla-business/internal/entities"

const (
	NameSubscriptionsCreated = "subscription.created"
	NameSubscriptionChanged  = "subscription.changed"
	NameOrderFrozen          = "order.frozen"
	NameOrderUnfrozen        = "order.unfrozen"
	NameOrderCancelled       = "order.cancelled"
	NameGuestOrderCreated    = "order.guest_created"
	NameOrdersCompleted      = "order.completed"
	NameBalanceChanged       = "ledger.balance_changed"
	NameEmployeeChanged      = "employee.changed"
	NameConfigUpdated        = "business_config.updated"
)

// CompanyEvent - событие, относящееся к одной компании. По нему сбрасывается кеш дашборда.
type CompanyEvent interface {
	Name() string
	Company() uint64
}

type SubscriptionsCreatedEvent struct {
	CompanyID     uint64
	ProjectIDs    []uint64
	Subscriptions int
	Orders        int64
	Amount        int64
}

func (e SubscriptionsCreatedEvent) Name() string    { return NameSubscriptionsCreated }
func (e SubscriptionsCreatedEvent) Company() uint64 { return e.CompanyID }

// SubscriptionChangedEvent - пауза, возобновление, отмена или смена комбо.
type SubscriptionChangedEvent struct {
	CompanyID      uint64
	ProjectID      uint64
	SubscriptionID uint64
	Action         string
	From           entities.Status
	To             entities.Status
}

func (e SubscriptionChangedEvent) Name() string    { return NameSubscriptionChanged }
func (e SubscriptionChangedEvent) Company() uint64 { return e.CompanyID }

type OrderFrozenEvent struct {
	CompanyID     uint64
	ProjectID     uint64
	OrderID       uint64
	EmployeeID    uint64
	ReplacementID uint64
}

func (e OrderFrozenEvent) Name() string    { return NameOrderFrozen }
func (e OrderFrozenEvent) Company() uint64 { return e.CompanyID }

type OrderUnfrozenEvent struct {
	CompanyID  uint64
	ProjectID  uint64
	OrderID    uint64
	EmployeeID uint64
}

func (e OrderUnfrozenEvent) Name() string    { return NameOrderUnfrozen }
func (e OrderUnfrozenEvent) Company() uint64 { return e.CompanyID }

type OrderCancelledEvent struct {
	CompanyID uint64
	ProjectID uint64
	OrderID   uint64
	Refund    int64
}

func (e OrderCancelledEvent) Name() string    { return NameOrderCancelled }
func (e OrderCancelledEvent) Company() uint64 { return e.CompanyID }

type GuestOrderCreatedEvent struct {
	CompanyID uint64
	ProjectID uint64
	OrderID   uint64
	Quantity  int
	Amount    int64
}

func (e GuestOrderCreatedEvent) Name() string    { return NameGuestOrderCreated }
func (e GuestOrderCreatedEvent) Company() uint64 { return e.CompanyID }

// OrdersCompletedEvent публикует ночная задача, затрагивает все компании.
type OrdersCompletedEvent struct {
	Orders        int64
	Subscriptions int64
}

func (e OrdersCompletedEvent) Name() string { return NameOrdersCompleted }

// BalanceChangedEvent - на каждую запись в журнале операций.
type BalanceChangedEvent struct {
	CompanyID    uint64
	EntryType    entities.LedgerType
	Amount       int64
	BalanceAfter int64
}

func (e BalanceChangedEvent) Name() string    { return NameBalanceChanged }
func (e BalanceChangedEvent) Company() uint64 { return e.CompanyID }

type EmployeeChangedEvent struct {
	CompanyID  uint64
	ProjectID  uint64
	EmployeeID uint64
	Action     string
}

func (e EmployeeChangedEvent) Name() string    { return NameEmployeeChanged }
func (e EmployeeChangedEvent) Company() uint64 { return e.CompanyID }

type ConfigUpdatedEvent struct {
	Key string
}

func (e ConfigUpdatedEvent) Name() string { return NameConfigUpdated }
