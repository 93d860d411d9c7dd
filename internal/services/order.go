package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"yalla-business/internal/dto"
	"yalla-business/internal/entities"
	"yalla-business/internal/events"
	"yalla-business/internal/repositories"
	"yalla-business/pkg/constants"
	apperrors "yalla-business/pkg/errors"
	"yalla-business/pkg/eventbus"
	"yalla-business/pkg/types"
	"yalla-business/pkg/utils"
)

type OrderServiceInterface interface {
	GetAll(ctx context.Context, filter types.Filter) (*PaginatedResult[dto.OrderDTO], error)
	GetByID(ctx context.Context, id uint64) (*dto.OrderDTO, error)
	GetToday(ctx context.Context, filter types.Filter) (*PaginatedResult[dto.OrderDTO], error)
	Freeze(ctx context.Context, id uint64, payload dto.FreezeOrderDTO) (*dto.FreezeResultDTO, error)
	Unfreeze(ctx context.Context, id uint64) (*dto.UnfreezeResultDTO, error)
	GetFreezeInfo(ctx context.Context, employeeID uint64, date string) (*dto.FreezeInfoDTO, error)
	CreateGuestOrder(ctx context.Context, payload dto.CreateGuestOrderDTO) (*dto.OrderDTO, error)
	CancelOrder(ctx context.Context, id uint64) (*dto.OrderDTO, error)
	CompleteDueOrders(ctx context.Context) (*dto.CompleteOrdersResultDTO, error)
}

type OrderService struct {
	txManager    repositories.TxManagerInterface
	orderRepo    repositories.OrderRepositoryInterface
	subRepo      repositories.SubscriptionRepositoryInterface
	employeeRepo repositories.EmployeeRepositoryInterface
	projectRepo  repositories.ProjectRepositoryInterface
	companyRepo  repositories.CompanyRepositoryInterface
	ledgerRepo   repositories.LedgerRepositoryInterface
	settings     SettingsProvider
	bus          EventPublisher
	logger       *zap.Logger
	now          func() time.Time
}

func NewOrderService(
	txManager repositories.TxManagerInterface,
	orderRepo repositories.OrderRepositoryInterface,
	subRepo repositories.SubscriptionRepositoryInterface,
	employeeRepo repositories.EmployeeRepositoryInterface,
	projectRepo repositories.ProjectRepositoryInterface,
	companyRepo repositories.CompanyRepositoryInterface,
	ledgerRepo repositories.LedgerRepositoryInterface,
	settings SettingsProvider,
	bus EventPublisher,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		txManager:    txManager,
		orderRepo:    orderRepo,
		subRepo:      subRepo,
		employeeRepo: employeeRepo,
		projectRepo:  projectRepo,
		companyRepo:  companyRepo,
		ledgerRepo:   ledgerRepo,
		settings:     settings,
		bus:          bus,
		logger:       logger,
		now:          time.Now,
	}
}

func orderEntityToDTO(o *entities.Order) *dto.OrderDTO {
	return &dto.OrderDTO{
		ID:             o.ID,
		CompanyID:      o.CompanyID,
		ProjectID:      o.ProjectID,
		ProjectName:    o.ProjectName,
		EmployeeID:     o.EmployeeID,
		EmployeeName:   o.EmployeeName,
		SubscriptionID: o.SubscriptionID,
		Type:           string(o.OrderType),
		GuestName:      o.GuestName,
		Quantity:       o.Quantity,
		Date:           dto.FormatDate(o.OrderDate),
		ComboType:      o.ComboType,
		Price:          o.Price,
		Total:          o.Total(),
		Status:         o.Status.String(),
		IsReplacement:  o.IsReplacement,
		FreezeReason:   o.FreezeReason,
		FrozenAt:       dto.FormatDateTimePtr(o.FrozenAt),
		CreatedAt:      dto.FormatDateTime(o.CreatedAt),
	}
}

func (s *OrderService) GetAll(ctx context.Context, filter types.Filter) (*PaginatedResult[dto.OrderDTO], error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	orders, total, err := s.orderRepo.GetAll(ctx, repositories.ScopeFromPrincipal(p), filter)
	if err != nil {
		return nil, err
	}
	list := make([]dto.OrderDTO, 0, len(orders))
	for i := range orders {
		list = append(list, *orderEntityToDTO(&orders[i]))
	}
	return &PaginatedResult[dto.OrderDTO]{List: list, Total: total}, nil
}

func (s *OrderService) GetByID(ctx context.Context, id uint64) (*dto.OrderDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Заказ не найден")
	}
	if err := checkAccess(p, order.CompanyID, order.ProjectID); err != nil {
		return nil, err
	}
	return orderEntityToDTO(order), nil
}

// GetToday - заказы на сегодняшнюю дату в часовом поясе бизнеса.
func (s *OrderService) GetToday(ctx context.Context, filter types.Filter) (*PaginatedResult[dto.OrderDTO], error) {
	settings, err := s.settings.Settings(ctx)
	if err != nil {
		return nil, err
	}
	if filter.Filter == nil {
		filter.Filter = make(map[string]interface{})
	}
	filter.Filter["order_date"] = dto.FormatDate(DateOf(s.now(), settings.Location()))
	filter.DateFrom, filter.DateTo = nil, nil
	return s.GetAll(ctx, filter)
}

// lockedOrder - заказ подписки со всеми связанными записями под блокировкой.
// Порядок блокировок: сотрудник, подписка, заказ. Так же блокируют оформление и отмена подписок.
type lockedOrder struct {
	order    *entities.Order
	sub      *entities.Subscription
	employee *entities.Employee
	window   EditWindow
}

func (s *OrderService) lockSubscriptionOrder(ctx context.Context, tx pgx.Tx, p types.Principal, id uint64, settings entities.BusinessSettings) (*lockedOrder, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Заказ не найден")
	}
	if err := checkAccess(p, order.CompanyID, order.ProjectID); err != nil {
		return nil, err
	}
	if order.OrderType != entities.OrderTypeSubscription || order.EmployeeID == nil || order.SubscriptionID == nil {
		return nil, apperrors.NewBadRequestError("Заморозка доступна только для заказов по подписке")
	}

	employee, err := s.employeeRepo.LockForUpdate(ctx, tx, *order.EmployeeID)
	if err != nil {
		return nil, notFound(err, "Сотрудник не найден")
	}
	sub, err := s.subRepo.FindForUpdate(ctx, tx, *order.SubscriptionID)
	if err != nil {
		return nil, notFound(err, "Подписка не найдена")
	}
	// перечитываем под блокировкой: статус мог измениться
	order, err = s.orderRepo.FindForUpdate(ctx, tx, id)
	if err != nil {
		return nil, notFound(err, "Заказ не найден")
	}
	project, err := s.projectRepo.FindByID(ctx, order.ProjectID)
	if err != nil {
		return nil, notFound(err, "Проект не найден")
	}
	return &lockedOrder{
		order:    order,
		sub:      sub,
		employee: employee,
		window:   NewEditWindow(s.now(), settings, project.CutoffTime),
	}, nil
}

// Freeze замораживает день и продлевает подписку на один рабочий день: в конец
// добавляется заменяющий заказ. Баланс не меняется.
func (s *OrderService) Freeze(ctx context.Context, id uint64, payload dto.FreezeOrderDTO) (*dto.FreezeResultDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Settings(ctx)
	if err != nil {
		return nil, err
	}

	var (
		locked        *lockedOrder
		replacementID uint64
		newEnd        time.Time
		used          int
	)
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		locked, err = s.lockSubscriptionOrder(ctx, tx, p, id, settings)
		if err != nil {
			return err
		}
		order, sub := locked.order, locked.sub
		if order.Status != entities.StatusActive {
			return errInvalidTransition(order.Status, entities.StatusFrozen)
		}
		if sub.Status != entities.StatusActive {
			return errInvalidTransition(sub.Status, entities.StatusFrozen)
		}
		if err := locked.window.Check(order.OrderDate); err != nil {
			return err
		}

		weekStart, weekEnd := ISOWeekBounds(order.OrderDate)
		used, err = s.orderRepo.CountFrozenInRange(ctx, tx, locked.employee.ID, weekStart, weekEnd)
		if err != nil {
			return err
		}
		if used >= settings.MaxFreezesPerWeek {
			return errFreezeLimit(settings.MaxFreezesPerWeek)
		}

		reason := payload.Reason
		if reason != nil && strings.TrimSpace(*reason) == "" {
			reason = nil
		}
		if err := s.orderRepo.Freeze(ctx, tx, order.ID, reason, s.now()); err != nil {
			return err
		}

		newEnd = NextWorkingDay(sub.EndDate, locked.employee)
		replacementID, err = s.orderRepo.Create(ctx, tx, &entities.Order{
			CompanyID:      order.CompanyID,
			ProjectID:      order.ProjectID,
			EmployeeID:     order.EmployeeID,
			SubscriptionID: order.SubscriptionID,
			OrderType:      entities.OrderTypeSubscription,
			Quantity:       order.Quantity,
			OrderDate:      newEnd,
			ComboType:      sub.ComboType,
			Price:          order.Price,
			Status:         entities.StatusActive,
			IsReplacement:  true,
		})
		if err != nil {
			return err
		}
		used++
		return s.subRepo.UpdateEndDate(ctx, tx, sub.ID, newEnd)
	})
	if err != nil {
		return nil, err
	}

	order := locked.order
	s.logger.Info("Заказ заморожен",
		zap.Uint64("order_id", id),
		zap.Uint64("employee_id", locked.employee.ID),
		zap.Uint64("replacement_id", replacementID),
		zap.String("new_end_date", dto.FormatDate(newEnd)))
	publish(ctx, s.bus, events.OrderFrozenEvent{
		CompanyID: order.CompanyID, ProjectID: order.ProjectID, OrderID: id,
		EmployeeID: locked.employee.ID, ReplacementID: replacementID,
	})

	frozen, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	replacement, err := s.orderRepo.FindByID(ctx, replacementID)
	if err != nil {
		return nil, err
	}
	left := settings.MaxFreezesPerWeek - used
	if left < 0 {
		left = 0
	}
	return &dto.FreezeResultDTO{
		Order:            *orderEntityToDTO(frozen),
		ReplacementOrder: orderEntityToDTO(replacement),
		SubscriptionEnd:  dto.FormatDate(newEnd),
		FreezesUsed:      used,
		FreezesLeft:      left,
	}, nil
}

// Unfreeze возвращает день в работу и снимает последний заменяющий заказ подписки.
// Если заменяющего уже нет, день оплачивается заново.
func (s *OrderService) Unfreeze(ctx context.Context, id uint64) (*dto.UnfreezeResultDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Settings(ctx)
	if err != nil {
		return nil, err
	}

	var (
		locked  *lockedOrder
		removed *uint64
		newEnd  time.Time
		entry   *entities.LedgerEntry
	)
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		locked, err = s.lockSubscriptionOrder(ctx, tx, p, id, settings)
		if err != nil {
			return err
		}
		order, sub := locked.order, locked.sub
		if order.Status != entities.StatusFrozen {
			return errInvalidTransition(order.Status, entities.StatusActive)
		}
		if sub.Status != entities.StatusActive {
			return errInvalidTransition(sub.Status, entities.StatusActive)
		}
		if err := locked.window.Check(order.OrderDate); err != nil {
			return err
		}

		if err := s.orderRepo.Unfreeze(ctx, tx, order.ID); err != nil {
			return err
		}

		replacement, err := s.orderRepo.FindLatestReplacement(ctx, tx, sub.ID, order.ID)
		switch {
		case err == nil:
			if err := s.orderRepo.Delete(ctx, tx, replacement.ID); err != nil {
				return err
			}
			removed = &replacement.ID
		case isNotFound(err):
			company, err := s.companyRepo.FindByIDTx(ctx, tx, order.CompanyID)
			if err != nil {
				return notFound(err, "Компания не найдена")
			}
			comment := fmt.Sprintf("Разморозка заказа #%d", order.ID)
			entry, err = s.ledgerRepo.Apply(ctx, tx, &entities.LedgerEntry{
				CompanyID:      order.CompanyID,
				EntryType:      entities.LedgerSubscriptionPayment,
				Amount:         -order.Total(),
				OrderID:        &order.ID,
				SubscriptionID: &sub.ID,
				Comment:        &comment,
				CreatedBy:      &p.UserID,
			}, company.BalanceFloor(settings.AllowNegativeBalance))
			if err != nil {
				return ledgerError(err, order.Total())
			}
		default:
			return err
		}

		newEnd = sub.EndDate
		last, err := s.orderRepo.MaxOrderDate(ctx, tx, sub.ID)
		if err != nil {
			return err
		}
		if last != nil && !last.Equal(sub.EndDate) {
			newEnd = *last
			return s.subRepo.UpdateEndDate(ctx, tx, sub.ID, newEnd)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order := locked.order
	s.logger.Info("Заказ разморожен",
		zap.Uint64("order_id", id),
		zap.Uint64("employee_id", locked.employee.ID),
		zap.Bool("replacement_removed", removed != nil))
	out := []eventbus.Event{events.OrderUnfrozenEvent{
		CompanyID: order.CompanyID, ProjectID: order.ProjectID, OrderID: id, EmployeeID: locked.employee.ID,
	}}
	if entry != nil {
		out = append(out, balanceChanged(entry))
	}
	publish(ctx, s.bus, out...)

	updated, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.UnfreezeResultDTO{
		Order:           *orderEntityToDTO(updated),
		RemovedOrderID:  removed,
		SubscriptionEnd: dto.FormatDate(newEnd),
	}, nil
}

func (s *OrderService) GetFreezeInfo(ctx context.Context, employeeID uint64, date string) (*dto.FreezeInfoDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	employee, err := s.employeeRepo.FindByID(ctx, employeeID)
	if err != nil {
		return nil, notFound(err, "Сотрудник не найден")
	}
	if err := checkAccess(p, employee.CompanyID, employee.ProjectID); err != nil {
		return nil, err
	}
	settings, err := s.settings.Settings(ctx)
	if err != nil {
		return nil, err
	}

	target := DateOf(s.now(), settings.Location())
	if date != "" {
		if target, err = utils.ParseDate(date); err != nil {
			return nil, apperrors.NewBadRequestError("Неверный формат даты")
		}
	}
	weekStart, weekEnd := ISOWeekBounds(target)
	used, err := s.orderRepo.CountFrozenInRange(ctx, nil, employeeID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	remaining := settings.MaxFreezesPerWeek - used
	if remaining < 0 {
		remaining = 0
	}
	return &dto.FreezeInfoDTO{
		EmployeeID: employeeID,
		WeekStart:  dto.FormatDate(weekStart),
		WeekEnd:    dto.FormatDate(weekEnd.Add(-day)),
		Used:       used,
		Max:        settings.MaxFreezesPerWeek,
		Remaining:  remaining,
		CanFreeze:  remaining > 0,
	}, nil
}

// CreateGuestOrder - разовый заказ для гостя проекта, оплачивается сразу.
func (s *OrderService) CreateGuestOrder(ctx context.Context, payload dto.CreateGuestOrderDTO) (*dto.OrderDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	project, err := s.projectRepo.FindByID(ctx, payload.ProjectID)
	if err != nil {
		return nil, notFound(err, "Проект не найден")
	}
	if err := checkAccess(p, project.CompanyID, project.ID); err != nil {
		return nil, apperrors.NewNotFoundError("Проект не найден")
	}
	if project.ServiceType != constants.ServiceLunch {
		return nil, apperrors.NewBusinessError(CodeServiceTypeMismatch, "Гостевые заказы доступны только в проектах с питанием")
	}

	date, err := utils.ParseDate(payload.Date)
	if err != nil {
		return nil, apperrors.NewBadRequestError("Неверный формат даты")
	}
	settings, err := s.settings.Settings(ctx)
	if err != nil {
		return nil, err
	}
	if err := NewEditWindow(s.now(), settings, project.CutoffTime).Check(date); err != nil {
		return nil, err
	}
	price, err := comboPrice(settings, payload.ComboType)
	if err != nil {
		return nil, err
	}

	order := &entities.Order{
		CompanyID: project.CompanyID,
		ProjectID: project.ID,
		OrderType: entities.OrderTypeGuest,
		GuestName: utils.ToPtr(strings.TrimSpace(payload.GuestName)),
		Quantity:  payload.Quantity,
		OrderDate: date,
		ComboType: payload.ComboType,
		Price:     price,
		Status:    entities.StatusActive,
	}
	var (
		id    uint64
		entry *entities.LedgerEntry
	)
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		company, err := s.companyRepo.FindByIDTx(ctx, tx, project.CompanyID)
		if err != nil {
			return notFound(err, "Компания не найдена")
		}
		if company.Status == entities.CompanyStatusBlocked {
			return errCompanyBlocked()
		}
		id, err = s.orderRepo.Create(ctx, tx, order)
		if err != nil {
			return err
		}
		comment := fmt.Sprintf("Гостевой заказ: %s x%d", *order.GuestName, order.Quantity)
		entry, err = s.ledgerRepo.Apply(ctx, tx, &entities.LedgerEntry{
			CompanyID: project.CompanyID,
			EntryType: entities.LedgerGuestOrder,
			Amount:    -order.Total(),
			OrderID:   &id,
			Comment:   &comment,
			CreatedBy: &p.UserID,
		}, company.BalanceFloor(settings.AllowNegativeBalance))
		if err != nil {
			return ledgerError(err, order.Total())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Гостевой заказ создан", zap.Uint64("id", id), zap.Uint64("project_id", project.ID), zap.Int64("amount", order.Total()))
	publish(ctx, s.bus,
		events.GuestOrderCreatedEvent{CompanyID: project.CompanyID, ProjectID: project.ID, OrderID: id, Quantity: order.Quantity, Amount: order.Total()},
		balanceChanged(entry),
	)
	return s.GetByID(ctx, id)
}

// CancelOrder отменяет один активный заказ и возвращает его стоимость.
func (s *OrderService) CancelOrder(ctx context.Context, id uint64) (*dto.OrderDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Settings(ctx)
	if err != nil {
		return nil, err
	}
	current, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Заказ не найден")
	}
	if err := checkAccess(p, current.CompanyID, current.ProjectID); err != nil {
		return nil, err
	}
	project, err := s.projectRepo.FindByID(ctx, current.ProjectID)
	if err != nil {
		return nil, notFound(err, "Проект не найден")
	}
	window := NewEditWindow(s.now(), settings, project.CutoffTime)

	var entry *entities.LedgerEntry
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if current.SubscriptionID != nil {
			if _, err := s.subRepo.FindForUpdate(ctx, tx, *current.SubscriptionID); err != nil {
				return notFound(err, "Подписка не найдена")
			}
		}
		order, err := s.orderRepo.FindForUpdate(ctx, tx, id)
		if err != nil {
			return notFound(err, "Заказ не найден")
		}
		if order.Status != entities.StatusActive {
			return errInvalidTransition(order.Status, entities.StatusCancelled)
		}
		if err := window.Check(order.OrderDate); err != nil {
			return err
		}
		if _, err := s.orderRepo.UpdateStatus(ctx, tx, []uint64{order.ID}, entities.StatusCancelled); err != nil {
			return err
		}
		comment := fmt.Sprintf("Отмена заказа #%d", order.ID)
		entry, err = s.ledgerRepo.Apply(ctx, tx, &entities.LedgerEntry{
			CompanyID:      order.CompanyID,
			EntryType:      entities.LedgerRefund,
			Amount:         order.Total(),
			OrderID:        &order.ID,
			SubscriptionID: order.SubscriptionID,
			Comment:        &comment,
			CreatedBy:      &p.UserID,
		}, nil)
		if err != nil {
			return ledgerError(err, 0)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Заказ отменён", zap.Uint64("id", id), zap.Int64("refund", entry.Amount))
	publish(ctx, s.bus,
		events.OrderCancelledEvent{CompanyID: current.CompanyID, ProjectID: current.ProjectID, OrderID: id, Refund: entry.Amount},
		balanceChanged(entry),
	)
	return s.GetByID(ctx, id)
}

// CompleteDueOrders закрывает прошедшие дни: активные заказы до сегодняшнего дня становятся
// выполненными, как и подписки, чей срок закончился. У приостановленной подписки с истёкшим
// сроком дни паузы отменяются с возвратом денег. Запускается по расписанию.
func (s *OrderService) CompleteDueOrders(ctx context.Context) (*dto.CompleteOrdersResultDTO, error) {
	settings, err := s.settings.Settings(ctx)
	if err != nil {
		return nil, err
	}
	today := DateOf(s.now(), settings.Location())

	result := &dto.CompleteOrdersResultDTO{}
	var entries []*entities.LedgerEntry
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		if result.OrdersCompleted, err = s.orderRepo.CompleteDue(ctx, tx, today); err != nil {
			return err
		}
		if result.SubscriptionsCompleted, err = s.subRepo.CompleteExpired(ctx, tx, today); err != nil {
			return err
		}

		paused, err := s.subRepo.ListExpiredPaused(ctx, tx, today)
		if err != nil {
			return err
		}
		for i := range paused {
			entry, cancelled, err := s.closePaused(ctx, tx, &paused[i])
			if err != nil {
				return err
			}
			result.SubscriptionsCompleted++
			result.PausedDaysCancelled += cancelled
			if entry != nil {
				result.Refunded += entry.Amount
				entries = append(entries, entry)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Прошедшие заказы закрыты",
		zap.String("today", dto.FormatDate(today)),
		zap.Int64("orders", result.OrdersCompleted),
		zap.Int64("subscriptions", result.SubscriptionsCompleted),
		zap.Int64("paused_days_cancelled", result.PausedDaysCancelled),
		zap.Int64("refunded", result.Refunded))
	out := make([]eventbus.Event, 0, len(entries)+1)
	if result.OrdersCompleted > 0 || result.SubscriptionsCompleted > 0 {
		out = append(out, events.OrdersCompletedEvent{Orders: result.OrdersCompleted, Subscriptions: result.SubscriptionsCompleted})
	}
	for _, e := range entries {
		out = append(out, balanceChanged(e))
	}
	publish(ctx, s.bus, out...)
	return result, nil
}

// closePaused отменяет дни паузы истёкшей подписки, возвращает их стоимость
// и переводит подписку в выполненные.
func (s *OrderService) closePaused(ctx context.Context, tx pgx.Tx, sub *entities.Subscription) (*entities.LedgerEntry, int64, error) {
	orders, err := s.orderRepo.ListBySubscription(ctx, tx, sub.ID, sub.StartDate, []entities.Status{entities.StatusPaused})
	if err != nil {
		return nil, 0, err
	}
	var refund int64
	for i := range orders {
		refund += orders[i].Total()
	}
	cancelled, err := s.orderRepo.UpdateStatus(ctx, tx, orderIDs(orders), entities.StatusCancelled)
	if err != nil {
		return nil, 0, err
	}
	if err := s.subRepo.UpdateStatus(ctx, tx, sub.ID, entities.StatusCompleted); err != nil {
		return nil, 0, err
	}
	if refund == 0 {
		return nil, cancelled, nil
	}
	comment := fmt.Sprintf("Пауза до конца срока: подписка #%d", sub.ID)
	entry, err := s.ledgerRepo.Apply(ctx, tx, &entities.LedgerEntry{
		CompanyID:      sub.CompanyID,
		EntryType:      entities.LedgerRefund,
		Amount:         refund,
		SubscriptionID: &sub.ID,
		Comment:        &comment,
	}, nil)
	if err != nil {
		return nil, 0, ledgerError(err, 0)
	}
	return entry, cancelled, nil
}
