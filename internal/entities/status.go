package entities

// Status - статус подписки и заказа. В БД хранится русская метка,
// её же показывает фронтенд.
type Status string

const (
	StatusActive    Status = "Активен"
	StatusPaused    Status = "Приостановлен"
	StatusFrozen    Status = "Заморожен"
	StatusCancelled Status = "Отменён"
	StatusCompleted Status = "Выполнен"
)

func (s Status) String() string { return string(s) }

// IsFinal - из отменённого и выполненного статуса переходов нет.
func (s Status) IsFinal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusFrozen, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// OpenSubscriptionStatuses - подписки в этих статусах занимают даты сотрудника.
var OpenSubscriptionStatuses = []Status{StatusActive, StatusPaused, StatusFrozen}
