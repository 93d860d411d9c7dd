package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"yalla-business/internal/entities"
	"yalla-business/internal/events"
	"yalla-business/pkg/constants"
	apperrors "yalla-business/pkg/errors"
	"yalla-business/pkg/utils"
)

type employeeFixture struct {
	svc       *EmployeeService
	employees *fakeEmployeeRepo
	subs      *fakeSubscriptionRepo
	orders    *fakeOrderRepo
	ledger    *fakeLedgerRepo
	bus       *recordingBus
}

func subscriptionOrder(id, subID uint64, day string, price int64, status entities.Status) *entities.Order {
	return &entities.Order{
		ID: id, CompanyID: 1, ProjectID: 7, EmployeeID: utils.ToPtr(uint64(5)), SubscriptionID: utils.ToPtr(subID),
		OrderType: entities.OrderTypeSubscription, Quantity: 1, OrderDate: date(day),
		ComboType: "Комбо 25", Price: price, Status: status,
	}
}

// newEmployeeFixture: у сотрудника #5 активная подписка #10, приостановленная #11
// и уже отменённая #12. Сейчас вторник 10.03.2026, до отсечки.
func newEmployeeFixture() *employeeFixture {
	f := &employeeFixture{
		employees: newFakeEmployeeRepo(
			entities.Employee{ID: 5, CompanyID: 1, ProjectID: 7, FullName: "Асель", WorkingDays: []int32{1, 2, 3, 4, 5}, ServiceType: constants.ServiceLunch, IsActive: true},
		),
		subs: newFakeSubscriptionRepo(
			entities.Subscription{ID: 10, CompanyID: 1, ProjectID: 7, EmployeeID: 5, ComboType: "Комбо 25", Price: 250,
				StartDate: date("2026-03-09"), EndDate: date("2026-03-13"), Status: entities.StatusActive},
			entities.Subscription{ID: 11, CompanyID: 1, ProjectID: 7, EmployeeID: 5, ComboType: "Комбо 25", Price: 250,
				StartDate: date("2026-03-16"), EndDate: date("2026-03-17"), Status: entities.StatusPaused},
			entities.Subscription{ID: 12, CompanyID: 1, ProjectID: 7, EmployeeID: 5, ComboType: "Комбо 25", Price: 250,
				StartDate: date("2026-03-02"), EndDate: date("2026-03-06"), Status: entities.StatusCancelled},
		),
		orders: newFakeOrderRepo(),
		ledger: &fakeLedgerRepo{balance: 1000},
		bus:    &recordingBus{},
	}
	for _, o := range []*entities.Order{
		subscriptionOrder(1, 10, "2026-03-09", 250, entities.StatusActive),
		subscriptionOrder(2, 10, "2026-03-10", 250, entities.StatusActive),
		subscriptionOrder(3, 10, "2026-03-11", 250, entities.StatusFrozen),
		subscriptionOrder(4, 10, "2026-03-12", 250, entities.StatusActive),
		subscriptionOrder(5, 11, "2026-03-16", 250, entities.StatusPaused),
		subscriptionOrder(6, 11, "2026-03-17", 250, entities.StatusPaused),
		subscriptionOrder(7, 12, "2026-03-02", 250, entities.StatusCancelled),
	} {
		f.orders.orders[o.ID] = o
	}
	f.svc = NewEmployeeService(
		fakeTxManager{},
		f.employees,
		newFakeProjectRepo(entities.Project{ID: 7, CompanyID: 1, Name: "Офис", ServiceType: constants.ServiceLunch}),
		f.subs,
		f.orders,
		f.ledger,
		testSettings(),
		f.bus,
		zap.NewNop(),
	)
	f.svc.now = fixedNow("2026-03-10 09:00")
	return f
}

func TestEmployeeService_DeactivateCancelsSubscriptions(t *testing.T) {
	f := newEmployeeFixture()

	res, err := f.svc.Deactivate(adminCtx(1), 5)
	require.NoError(t, err)

	assert.False(t, res.IsActive)
	assert.False(t, f.employees.employees[5].IsActive)

	assert.Equal(t, entities.StatusCancelled, f.subs.subs[10].Status)
	assert.Equal(t, entities.StatusCancelled, f.subs.subs[11].Status)
	assert.Equal(t, entities.StatusActive, f.orders.orders[1].Status, "прошедший день остаётся")
	assert.Equal(t,
		[]entities.Status{entities.StatusCancelled, entities.StatusCancelled, entities.StatusCancelled, entities.StatusCancelled, entities.StatusCancelled},
		f.orders.statuses(2, 3, 4, 5, 6))

	// подписка #10: вт и чт, замороженная среда без возврата; подписка #11: два дня паузы
	require.Len(t, f.ledger.entries, 2)
	assert.Equal(t, int64(500), f.ledger.entries[0].Amount)
	assert.Equal(t, int64(500), f.ledger.entries[1].Amount)
	for _, e := range f.ledger.entries {
		assert.Equal(t, entities.LedgerRefund, e.EntryType)
	}
	assert.Equal(t, int64(2000), f.ledger.balance)

	assert.Equal(t, []string{
		events.NameSubscriptionChanged, events.NameBalanceChanged,
		events.NameSubscriptionChanged, events.NameBalanceChanged,
		events.NameEmployeeChanged,
	}, f.bus.names())
}

func TestEmployeeService_DeactivateAfterCutoff(t *testing.T) {
	f := newEmployeeFixture()
	f.svc.now = fixedNow("2026-03-10 10:30")

	_, err := f.svc.Deactivate(adminCtx(1), 5)
	require.NoError(t, err)

	assert.Equal(t, entities.StatusActive, f.orders.orders[2].Status, "сегодняшний заказ уже ушёл на кухню")
	assert.Equal(t, int64(250), f.ledger.entries[0].Amount)
}

func TestEmployeeService_DeactivateInactiveIsNoop(t *testing.T) {
	f := newEmployeeFixture()
	f.employees.employees[5].IsActive = false

	res, err := f.svc.Deactivate(adminCtx(1), 5)
	require.NoError(t, err)

	assert.False(t, res.IsActive)
	assert.Equal(t, entities.StatusActive, f.subs.subs[10].Status)
	assert.Empty(t, f.ledger.entries)
	assert.Empty(t, f.bus.names())
}

func TestEmployeeService_DeactivateOtherCompany(t *testing.T) {
	f := newEmployeeFixture()

	_, err := f.svc.Deactivate(adminCtx(2), 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.True(t, f.employees.employees[5].IsActive)
	assert.Empty(t, f.ledger.entries)
}
