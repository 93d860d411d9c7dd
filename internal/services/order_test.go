package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"yalla-business/internal/dto"
	"yalla-business/internal/entities"
	"yalla-business/internal/events"
	"yalla-business/pkg/constants"
	apperrors "yalla-business/pkg/errors"
	"yalla-business/pkg/utils"
)

type orderFixture struct {
	svc       *OrderService
	orders    *fakeOrderRepo
	subs      *fakeSubscriptionRepo
	ledger    *fakeLedgerRepo
	bus       *recordingBus
	companyID uint64
}

// newOrderFixture: подписка #10 сотрудника #5 на неделю 09.03-13.03.2026 (пн-пт),
// заказ #1 на вторник 10.03, остальные дни - заказы #2-#5.
func newOrderFixture(now string) *orderFixture {
	const companyID = 1
	employee := entities.Employee{
		ID: 5, CompanyID: companyID, ProjectID: 7, FullName: "Асель",
		WorkingDays: []int32{1, 2, 3, 4, 5}, ServiceType: constants.ServiceLunch, IsActive: true,
	}
	sub := entities.Subscription{
		ID: 10, CompanyID: companyID, ProjectID: 7, EmployeeID: 5, ComboType: "Комбо 25", Price: 250,
		StartDate: date("2026-03-09"), EndDate: date("2026-03-13"), Status: entities.StatusActive,
	}
	order := entities.Order{
		ID: 1, CompanyID: companyID, ProjectID: 7, EmployeeID: utils.ToPtr(uint64(5)), SubscriptionID: utils.ToPtr(uint64(10)),
		OrderType: entities.OrderTypeSubscription, Quantity: 1, OrderDate: date("2026-03-10"),
		ComboType: "Комбо 25", Price: 250, Status: entities.StatusActive,
	}

	week := []entities.Order{order}
	for i, d := range []string{"2026-03-09", "2026-03-11", "2026-03-12", "2026-03-13"} {
		o := order
		o.ID = uint64(i + 2)
		o.OrderDate = date(d)
		week = append(week, o)
	}

	f := &orderFixture{
		orders:    newFakeOrderRepo(week...),
		subs:      newFakeSubscriptionRepo(sub),
		ledger:    &fakeLedgerRepo{balance: 10000},
		bus:       &recordingBus{},
		companyID: companyID,
	}
	f.svc = NewOrderService(
		fakeTxManager{},
		f.orders,
		f.subs,
		newFakeEmployeeRepo(employee),
		newFakeProjectRepo(entities.Project{ID: 7, CompanyID: companyID, Name: "Офис", ServiceType: constants.ServiceLunch}),
		newFakeCompanyRepo(entities.Company{ID: companyID, Name: "ТОО Тест", Balance: 10000, Status: entities.CompanyStatusActive}),
		f.ledger,
		testSettings(),
		f.bus,
		zap.NewNop(),
	)
	f.svc.now = fixedNow(now)
	return f
}

func TestOrderService_Freeze(t *testing.T) {
	f := newOrderFixture("2026-03-09 09:00")
	ctx := adminCtx(f.companyID)

	res, err := f.svc.Freeze(ctx, 1, dto.FreezeOrderDTO{Reason: utils.ToPtr("Больничный")})
	require.NoError(t, err)

	assert.Equal(t, entities.StatusFrozen.String(), res.Order.Status)
	require.NotNil(t, res.ReplacementOrder)
	assert.True(t, res.ReplacementOrder.IsReplacement)
	// подписка кончалась в пятницу, замена уходит на понедельник
	assert.Equal(t, "2026-03-16", res.ReplacementOrder.Date)
	assert.Equal(t, "2026-03-16", res.SubscriptionEnd)
	assert.Equal(t, 1, res.FreezesUsed)
	assert.Equal(t, 1, res.FreezesLeft)

	assert.Equal(t, date("2026-03-16"), f.subs.subs[10].EndDate)
	assert.Empty(t, f.ledger.entries, "заморозка не двигает баланс")
	assert.Contains(t, f.bus.names(), events.NameOrderFrozen)
}

func TestOrderService_Freeze_LimitExceeded(t *testing.T) {
	f := newOrderFixture("2026-03-09 09:00")
	f.orders.orders[3].Status = entities.StatusFrozen
	f.orders.orders[4].Status = entities.StatusFrozen

	_, err := f.svc.Freeze(adminCtx(f.companyID), 1, dto.FreezeOrderDTO{})
	require.Error(t, err)
	assert.Equal(t, CodeFreezeLimitExceeded, apperrors.Code(err))
	assert.Equal(t, entities.StatusActive, f.orders.orders[1].Status)
	assert.Equal(t, date("2026-03-13"), f.subs.subs[10].EndDate)
}

func TestOrderService_Freeze_CutoffPassed(t *testing.T) {
	f := newOrderFixture("2026-03-10 10:30")

	_, err := f.svc.Freeze(adminCtx(f.companyID), 1, dto.FreezeOrderDTO{})
	require.Error(t, err)
	assert.Equal(t, CodeCutoffPassed, apperrors.Code(err))
}

func TestOrderService_Freeze_AlreadyFrozen(t *testing.T) {
	f := newOrderFixture("2026-03-09 09:00")
	f.orders.orders[1].Status = entities.StatusFrozen

	_, err := f.svc.Freeze(adminCtx(f.companyID), 1, dto.FreezeOrderDTO{})
	require.Error(t, err)
	assert.Equal(t, CodeInvalidTransition, apperrors.Code(err))
}

func TestOrderService_Freeze_OtherCompanyHidden(t *testing.T) {
	f := newOrderFixture("2026-03-09 09:00")

	_, err := f.svc.Freeze(adminCtx(99), 1, dto.FreezeOrderDTO{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOrderService_UnfreezeRemovesReplacement(t *testing.T) {
	f := newOrderFixture("2026-03-09 09:00")
	ctx := adminCtx(f.companyID)

	frozen, err := f.svc.Freeze(ctx, 1, dto.FreezeOrderDTO{})
	require.NoError(t, err)
	replacementID := frozen.ReplacementOrder.ID

	res, err := f.svc.Unfreeze(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, entities.StatusActive.String(), res.Order.Status)
	require.NotNil(t, res.RemovedOrderID)
	assert.Equal(t, replacementID, *res.RemovedOrderID)
	assert.NotContains(t, f.orders.orders, replacementID)
	assert.Equal(t, "2026-03-13", res.SubscriptionEnd)
	assert.Empty(t, f.ledger.entries)
}

func TestOrderService_UnfreezeWithoutReplacementCharges(t *testing.T) {
	f := newOrderFixture("2026-03-09 09:00")
	f.orders.orders[1].Status = entities.StatusFrozen

	res, err := f.svc.Unfreeze(adminCtx(f.companyID), 1)
	require.NoError(t, err)

	assert.Nil(t, res.RemovedOrderID)
	require.Len(t, f.ledger.entries, 1)
	assert.Equal(t, int64(-250), f.ledger.entries[0].Amount)
	assert.Equal(t, int64(9750), f.ledger.balance)
}

func TestOrderService_Freeze_CountsOnlySameWeek(t *testing.T) {
	f := newOrderFixture("2026-03-09 09:00")
	ctx := adminCtx(f.companyID)

	// две заморозки на прошлой неделе и одна у другого сотрудника не мешают
	for id, d := range map[uint64]string{50: "2026-03-05", 51: "2026-03-06"} {
		f.orders.orders[id] = &entities.Order{
			ID: id, CompanyID: f.companyID, ProjectID: 7, EmployeeID: utils.ToPtr(uint64(5)),
			OrderDate: date(d), Status: entities.StatusFrozen,
		}
	}
	f.orders.orders[52] = &entities.Order{
		ID: 52, CompanyID: f.companyID, ProjectID: 7, EmployeeID: utils.ToPtr(uint64(9)),
		OrderDate: date("2026-03-11"), Status: entities.StatusFrozen,
	}

	first, err := f.svc.Freeze(ctx, 1, dto.FreezeOrderDTO{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.FreezesUsed)

	second, err := f.svc.Freeze(ctx, 3, dto.FreezeOrderDTO{})
	require.NoError(t, err)
	assert.Equal(t, 2, second.FreezesUsed)
	assert.Equal(t, 0, second.FreezesLeft)

	_, err = f.svc.Freeze(ctx, 4, dto.FreezeOrderDTO{})
	require.Error(t, err)
	assert.Equal(t, CodeFreezeLimitExceeded, apperrors.Code(err))

	info, err := f.svc.GetFreezeInfo(ctx, 5, "2026-03-12")
	require.NoError(t, err)
	assert.Equal(t, 2, info.Used)
	assert.False(t, info.CanFreeze)
}

func TestOrderService_UnfreezeReplacementKeepsItself(t *testing.T) {
	f := newOrderFixture("2026-03-09 09:00")
	ctx := adminCtx(f.companyID)

	first, err := f.svc.Freeze(ctx, 1, dto.FreezeOrderDTO{})
	require.NoError(t, err)
	r1 := first.ReplacementOrder.ID

	second, err := f.svc.Freeze(ctx, r1, dto.FreezeOrderDTO{})
	require.NoError(t, err)
	r2 := second.ReplacementOrder.ID
	f.orders.orders[r2].Status = entities.StatusCancelled

	res, err := f.svc.Unfreeze(ctx, r1)
	require.NoError(t, err)

	require.Contains(t, f.orders.orders, r1)
	assert.Equal(t, r1, res.Order.ID)
	assert.Equal(t, entities.StatusActive.String(), res.Order.Status)
	assert.Nil(t, res.RemovedOrderID)
	assert.Equal(t, "2026-03-16", res.SubscriptionEnd)
	require.Len(t, f.ledger.entries, 1)
	assert.Equal(t, int64(-250), f.ledger.entries[0].Amount)
}

func TestOrderService_UnfreezeSecondFreezeRemovesLatest(t *testing.T) {
	f := newOrderFixture("2026-03-09 09:00")
	ctx := adminCtx(f.companyID)

	first, err := f.svc.Freeze(ctx, 1, dto.FreezeOrderDTO{})
	require.NoError(t, err)
	second, err := f.svc.Freeze(ctx, 3, dto.FreezeOrderDTO{})
	require.NoError(t, err)

	res, err := f.svc.Unfreeze(ctx, 1)
	require.NoError(t, err)

	require.NotNil(t, res.RemovedOrderID)
	assert.Equal(t, second.ReplacementOrder.ID, *res.RemovedOrderID)
	assert.Contains(t, f.orders.orders, first.ReplacementOrder.ID)
	assert.Equal(t, "2026-03-16", res.SubscriptionEnd)
	assert.Empty(t, f.ledger.entries)
}

func TestOrderService_CreateGuestOrder(t *testing.T) {
	f := newOrderFixture("2026-03-10 09:00")

	res, err := f.svc.CreateGuestOrder(adminCtx(f.companyID), dto.CreateGuestOrderDTO{
		ProjectID: 7, GuestName: " Гость из банка ", ComboType: "Комбо 35", Date: "2026-03-10", Quantity: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, string(entities.OrderTypeGuest), res.Type)
	assert.Equal(t, entities.StatusActive.String(), res.Status)
	require.Len(t, f.ledger.entries, 1)
	assert.Equal(t, entities.LedgerGuestOrder, f.ledger.entries[0].EntryType)
	assert.Equal(t, int64(-1050), f.ledger.entries[0].Amount)
	assert.Equal(t, "Гость из банка", *f.orders.orders[res.ID].GuestName)
	assert.Contains(t, f.bus.names(), events.NameBalanceChanged)
}

func TestOrderService_CreateGuestOrder_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		now      string
		date     string
		combo    string
		balance  int64
		wantCode string
	}{
		{name: "после отсечки на сегодня", now: "2026-03-10 10:30", date: "2026-03-10", combo: "Комбо 25", balance: 10000, wantCode: CodeCutoffPassed},
		{name: "прошедший день", now: "2026-03-10 09:00", date: "2026-03-09", combo: "Комбо 25", balance: 10000, wantCode: CodeDateInPast},
		{name: "неизвестное комбо", now: "2026-03-10 09:00", date: "2026-03-11", combo: "Комбо 99", balance: 10000, wantCode: CodeUnknownCombo},
		{name: "не хватает баланса", now: "2026-03-10 09:00", date: "2026-03-11", combo: "Комбо 25", balance: 100, wantCode: CodeInsufficientBudget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(tt.now)
			f.ledger.balance = tt.balance

			_, err := f.svc.CreateGuestOrder(adminCtx(f.companyID), dto.CreateGuestOrderDTO{
				ProjectID: 7, GuestName: "Гость", ComboType: tt.combo, Date: tt.date, Quantity: 1,
			})
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperrors.Code(err))
			assert.Empty(t, f.ledger.entries)
		})
	}
}

func TestOrderService_CancelOrder(t *testing.T) {
	f := newOrderFixture("2026-03-10 09:00")

	res, err := f.svc.CancelOrder(adminCtx(f.companyID), 3)
	require.NoError(t, err)

	assert.Equal(t, entities.StatusCancelled.String(), res.Status)
	require.Len(t, f.ledger.entries, 1)
	assert.Equal(t, entities.LedgerRefund, f.ledger.entries[0].EntryType)
	assert.Equal(t, int64(250), f.ledger.entries[0].Amount)
	assert.Equal(t, int64(10250), f.ledger.balance)
	assert.Contains(t, f.bus.names(), events.NameOrderCancelled)
}

func TestOrderService_CancelOrder_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		now      string
		id       uint64
		prepare  func(f *orderFixture)
		wantCode string
	}{
		{name: "прошедший день", now: "2026-03-10 09:00", id: 2, wantCode: CodeDateInPast},
		{name: "сегодня после отсечки", now: "2026-03-10 10:00", id: 1, wantCode: CodeCutoffPassed},
		{
			name: "уже заморожен", now: "2026-03-10 09:00", id: 4,
			prepare:  func(f *orderFixture) { f.orders.orders[4].Status = entities.StatusFrozen },
			wantCode: CodeInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(tt.now)
			if tt.prepare != nil {
				tt.prepare(f)
			}

			_, err := f.svc.CancelOrder(adminCtx(f.companyID), tt.id)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperrors.Code(err))
			assert.Empty(t, f.ledger.entries)
		})
	}
}

func TestOrderService_CompleteDueOrders(t *testing.T) {
	f := newOrderFixture("2026-03-12 01:00")

	// #11 приостановлена и кончилась в среду, #12 активна и кончилась во вторник
	f.subs.subs[11] = &entities.Subscription{
		ID: 11, CompanyID: f.companyID, ProjectID: 7, EmployeeID: 6, ComboType: "Комбо 35", Price: 350,
		StartDate: date("2026-03-09"), EndDate: date("2026-03-11"), Status: entities.StatusPaused,
	}
	f.subs.subs[12] = &entities.Subscription{
		ID: 12, CompanyID: f.companyID, ProjectID: 7, EmployeeID: 7, ComboType: "Комбо 25", Price: 250,
		StartDate: date("2026-03-03"), EndDate: date("2026-03-10"), Status: entities.StatusActive,
	}
	for id, d := range map[uint64]string{21: "2026-03-10", 22: "2026-03-11"} {
		f.orders.orders[id] = &entities.Order{
			ID: id, CompanyID: f.companyID, ProjectID: 7, EmployeeID: utils.ToPtr(uint64(6)), SubscriptionID: utils.ToPtr(uint64(11)),
			OrderType: entities.OrderTypeSubscription, Quantity: 1, OrderDate: date(d),
			ComboType: "Комбо 35", Price: 350, Status: entities.StatusPaused,
		}
	}
	f.orders.orders[20] = &entities.Order{
		ID: 20, CompanyID: f.companyID, ProjectID: 7, EmployeeID: utils.ToPtr(uint64(6)), SubscriptionID: utils.ToPtr(uint64(11)),
		OrderType: entities.OrderTypeSubscription, Quantity: 1, OrderDate: date("2026-03-09"),
		ComboType: "Комбо 35", Price: 350, Status: entities.StatusActive,
	}

	res, err := f.svc.CompleteDueOrders(context.Background())
	require.NoError(t, err)

	// пн-ср подписки #10 и понедельник #11
	assert.Equal(t, int64(4), res.OrdersCompleted)
	assert.Equal(t, int64(2), res.SubscriptionsCompleted)
	assert.Equal(t, int64(2), res.PausedDaysCancelled)
	assert.Equal(t, int64(700), res.Refunded)

	assert.Equal(t,
		[]entities.Status{entities.StatusCompleted, entities.StatusCompleted, entities.StatusCompleted, entities.StatusActive, entities.StatusActive},
		f.orders.statuses(2, 1, 3, 4, 5))
	assert.Equal(t, []entities.Status{entities.StatusCompleted, entities.StatusCancelled, entities.StatusCancelled}, f.orders.statuses(20, 21, 22))
	assert.Equal(t, entities.StatusActive, f.subs.subs[10].Status)
	assert.Equal(t, entities.StatusCompleted, f.subs.subs[11].Status)
	assert.Equal(t, entities.StatusCompleted, f.subs.subs[12].Status)

	require.Len(t, f.ledger.entries, 1)
	assert.Equal(t, entities.LedgerRefund, f.ledger.entries[0].EntryType)
	assert.Equal(t, uint64(11), *f.ledger.entries[0].SubscriptionID)
	assert.Equal(t, []string{events.NameOrdersCompleted, events.NameBalanceChanged}, f.bus.names())
}

func TestOrderService_CompleteDueOrders_NothingDue(t *testing.T) {
	f := newOrderFixture("2026-03-09 01:00")

	res, err := f.svc.CompleteDueOrders(context.Background())
	require.NoError(t, err)

	assert.Zero(t, res.OrdersCompleted)
	assert.Zero(t, res.SubscriptionsCompleted)
	assert.Empty(t, f.bus.names())
}
