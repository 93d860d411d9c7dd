package services

import (
	"context"
	"fmt"
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

type SubscriptionServiceInterface interface {
	GetAll(ctx context.Context, filter types.Filter) (*PaginatedResult[dto.SubscriptionDTO], error)
	GetByID(ctx context.Context, id uint64) (*dto.SubscriptionDTO, error)
	Create(ctx context.Context, payload dto.CreateSubscriptionDTO) (*dto.CreateSubscriptionsResultDTO, error)
	Pause(ctx context.Context, id uint64, payload dto.PauseSubscriptionDTO) (*dto.SubscriptionChangeDTO, error)
	Resume(ctx context.Context, id uint64) (*dto.SubscriptionChangeDTO, error)
	Cancel(ctx context.Context, id uint64) (*dto.SubscriptionChangeDTO, error)
	UpdateCombo(ctx context.Context, id uint64, payload dto.UpdateComboDTO) (*dto.SubscriptionChangeDTO, error)
}

type SubscriptionService struct {
	txManager    repositories.TxManagerInterface
	subRepo      repositories.SubscriptionRepositoryInterface
	orderRepo    repositories.OrderRepositoryInterface
	employeeRepo repositories.EmployeeRepositoryInterface
	projectRepo  repositories.ProjectRepositoryInterface
	companyRepo  repositories.CompanyRepositoryInterface
	ledgerRepo   repositories.LedgerRepositoryInterface
	canceller    *subscriptionCanceller
	settings     SettingsProvider
	bus          EventPublisher
	logger       *zap.Logger
	now          func() time.Time
}

func NewSubscriptionService(
	txManager repositories.TxManagerInterface,
	subRepo repositories.SubscriptionRepositoryInterface,
	orderRepo repositories.OrderRepositoryInterface,
	employeeRepo repositories.EmployeeRepositoryInterface,
	projectRepo repositories.ProjectRepositoryInterface,
	companyRepo repositories.CompanyRepositoryInterface,
	ledgerRepo repositories.LedgerRepositoryInterface,
	settings SettingsProvider,
	bus EventPublisher,
	logger *zap.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		txManager:    txManager,
		subRepo:      subRepo,
		orderRepo:    orderRepo,
		employeeRepo: employeeRepo,
		projectRepo:  projectRepo,
		companyRepo:  companyRepo,
		ledgerRepo:   ledgerRepo,
		canceller:    &subscriptionCanceller{subRepo: subRepo, orderRepo: orderRepo, ledgerRepo: ledgerRepo},
		settings:     settings,
		bus:          bus,
		logger:       logger,
		now:          time.Now,
	}
}

func subscriptionEntityToDTO(s *entities.Subscription) *dto.SubscriptionDTO {
	return &dto.SubscriptionDTO{
		ID:        s.ID,
		CompanyID: s.CompanyID,
		ProjectID: s.ProjectID,
		Employee:  dto.ShortEmployeeDTO{ID: s.EmployeeID, FullName: s.EmployeeName},
		ComboType: s.ComboType,
		Price:     s.Price,
		StartDate: dto.FormatDate(s.StartDate),
		EndDate:   dto.FormatDate(s.EndDate),
		Status:    s.Status.String(),
		CreatedAt: dto.FormatDateTime(s.CreatedAt),
		UpdatedAt: dto.FormatDateTime(s.UpdatedAt),
	}
}

func comboPrice(settings entities.BusinessSettings, combo string) (int64, error) {
	price, ok := settings.ComboPrice(combo)
	if !ok {
		return 0, errUnknownCombo(combo)
	}
	return price, nil
}

func (s *SubscriptionService) GetAll(ctx context.Context, filter types.Filter) (*PaginatedResult[dto.SubscriptionDTO], error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	subs, total, err := s.subRepo.GetAll(ctx, repositories.ScopeFromPrincipal(p), filter)
	if err != nil {
		return nil, err
	}
	list := make([]dto.SubscriptionDTO, 0, len(subs))
	for i := range subs {
		list = append(list, *subscriptionEntityToDTO(&subs[i]))
	}
	return &PaginatedResult[dto.SubscriptionDTO]{List: list, Total: total}, nil
}

func (s *SubscriptionService) GetByID(ctx context.Context, id uint64) (*dto.SubscriptionDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	sub, err := s.subRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Подписка не найдена")
	}
	if err := checkAccess(p, sub.CompanyID, sub.ProjectID); err != nil {
		return nil, err
	}

	counts, err := s.subRepo.CountOrdersByStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	result := subscriptionEntityToDTO(sub)
	result.OrderCounts = make(map[string]int, len(counts))
	for status, n := range counts {
		result.OrderCounts[status.String()] = n
	}
	return result, nil
}

// Create оформляет подписки сразу на несколько сотрудников. Либо создаются все, либо ни одной.
func (s *SubscriptionService) Create(ctx context.Context, payload dto.CreateSubscriptionDTO) (*dto.CreateSubscriptionsResultDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	start, err := utils.ParseDate(payload.StartDate)
	if err != nil {
		return nil, apperrors.NewBadRequestError("Неверная дата начала")
	}
	end, err := utils.ParseDate(payload.EndDate)
	if err != nil {
		return nil, apperrors.NewBadRequestError("Неверная дата окончания")
	}
	if end.Before(start) {
		return nil, apperrors.NewBadRequestError("Дата окончания раньше даты начала")
	}

	settings, err := s.settings.Settings(ctx)
	if err != nil {
		return nil, err
	}
	if days := DaysInclusive(start, end); days < settings.MinSubscriptionDays {
		return nil, errSubscriptionTooShort(settings.MinSubscriptionDays, days)
	}
	price, err := comboPrice(settings, payload.ComboType)
	if err != nil {
		return nil, err
	}

	employees, err := s.employeeRepo.FindByIDs(ctx, payload.EmployeeIDs)
	if err != nil {
		return nil, err
	}
	if len(employees) != len(payload.EmployeeIDs) {
		return nil, apperrors.NewNotFoundError("Не все сотрудники найдены")
	}

	companyID := employees[0].CompanyID
	projects := make(map[uint64]*entities.Project)
	now := s.now()
	for i := range employees {
		e := &employees[i]
		if e.CompanyID != companyID {
			return nil, apperrors.NewBadRequestError("Сотрудники должны принадлежать одной компании")
		}
		if err := checkAccess(p, e.CompanyID, e.ProjectID); err != nil {
			return nil, apperrors.NewNotFoundError("Не все сотрудники найдены")
		}
		if !e.IsActive {
			return nil, apperrors.NewBusinessError(CodeEmployeeInactive, fmt.Sprintf("Сотрудник %s деактивирован", e.FullName)).
				WithDetails(map[string]interface{}{"employee_id": e.ID})
		}
		if e.ServiceType != constants.ServiceLunch {
			return nil, apperrors.NewBusinessError(CodeServiceTypeMismatch, fmt.Sprintf("Сотрудник %s не на питании", e.FullName)).
				WithDetails(map[string]interface{}{"employee_id": e.ID})
		}
		if _, ok := projects[e.ProjectID]; !ok {
			project, err := s.projectRepo.FindByID(ctx, e.ProjectID)
			if err != nil {
				return nil, notFound(err, "Проект не найден")
			}
			if err := NewEditWindow(now, settings, project.CutoffTime).Check(start); err != nil {
				return nil, err
			}
			projects[e.ProjectID] = project
		}
	}

	var (
		created    []uint64
		orders     int64
		total      int64
		lastEntry  *entities.LedgerEntry
		projectIDs = make([]uint64, 0, len(projects))
	)
	for id := range projects {
		projectIDs = append(projectIDs, id)
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		company, err := s.companyRepo.FindByIDTx(ctx, tx, companyID)
		if err != nil {
			return notFound(err, "Компания не найдена")
		}
		if company.Status == entities.CompanyStatusBlocked {
			return errCompanyBlocked()
		}
		floor := company.BalanceFloor(settings.AllowNegativeBalance)

		for i := range employees {
			e := &employees[i]
			// блокировка сотрудника сериализует параллельные оформления на одни даты
			if _, err := s.employeeRepo.LockForUpdate(ctx, tx, e.ID); err != nil {
				return notFound(err, "Сотрудник не найден")
			}
			overlap, err := s.subRepo.HasOverlap(ctx, tx, e.ID, start, end)
			if err != nil {
				return err
			}
			if overlap {
				return errSubscriptionOverlap(e.ID, e.FullName)
			}
			dates := WorkingDates(e, start, end)
			if len(dates) == 0 {
				return errNoWorkingDays(e.ID)
			}

			sub := &entities.Subscription{
				CompanyID:  e.CompanyID,
				ProjectID:  e.ProjectID,
				EmployeeID: e.ID,
				ComboType:  payload.ComboType,
				Price:      price,
				StartDate:  start,
				EndDate:    end,
				Status:     entities.StatusActive,
				CreatedBy:  &p.UserID,
			}
			subID, err := s.subRepo.Create(ctx, tx, sub)
			if err != nil {
				return err
			}

			batch := make([]entities.Order, 0, len(dates))
			for _, d := range dates {
				batch = append(batch, entities.Order{
					CompanyID:      e.CompanyID,
					ProjectID:      e.ProjectID,
					EmployeeID:     utils.ToPtr(e.ID),
					SubscriptionID: utils.ToPtr(subID),
					OrderType:      entities.OrderTypeSubscription,
					Quantity:       1,
					OrderDate:      d,
					ComboType:      payload.ComboType,
					Price:          price,
					Status:         entities.StatusActive,
				})
			}
			n, err := s.orderRepo.CreateBatch(ctx, tx, batch)
			if err != nil {
				return err
			}

			amount := price * int64(len(dates))
			comment := fmt.Sprintf("Подписка #%d: %s, %d дн.", subID, e.FullName, len(dates))
			lastEntry, err = s.ledgerRepo.Apply(ctx, tx, &entities.LedgerEntry{
				CompanyID:      companyID,
				EntryType:      entities.LedgerSubscriptionPayment,
				Amount:         -amount,
				SubscriptionID: utils.ToPtr(subID),
				Comment:        &comment,
				CreatedBy:      &p.UserID,
			}, floor)
			if err != nil {
				return ledgerError(err, total+amount)
			}

			created = append(created, subID)
			orders += n
			total += amount
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Подписки оформлены",
		zap.Uint64("company_id", companyID),
		zap.Int("subscriptions", len(created)),
		zap.Int64("orders", orders),
		zap.Int64("amount", total))
	publish(ctx, s.bus,
		events.SubscriptionsCreatedEvent{CompanyID: companyID, ProjectIDs: projectIDs, Subscriptions: len(created), Orders: orders, Amount: total},
		balanceChanged(lastEntry),
	)

	result := &dto.CreateSubscriptionsResultDTO{
		Subscriptions: make([]dto.SubscriptionDTO, 0, len(created)),
		OrdersCreated: orders,
		TotalCharged:  total,
		BalanceAfter:  lastEntry.BalanceAfter,
	}
	for _, id := range created {
		sub, err := s.subRepo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		result.Subscriptions = append(result.Subscriptions, *subscriptionEntityToDTO(sub))
	}
	return result, nil
}

// change - общий каркас операций над одной подпиской: блокировка, проверка доступа, окно редактирования.
func (s *SubscriptionService) change(
	ctx context.Context,
	id uint64,
	action string,
	to entities.Status,
	fn func(tx pgx.Tx, sub *entities.Subscription, window EditWindow, p types.Principal, settings entities.BusinessSettings) (int64, *entities.LedgerEntry, error),
) (*dto.SubscriptionChangeDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Settings(ctx)
	if err != nil {
		return nil, err
	}

	var (
		from    entities.Status
		sub     *entities.Subscription
		changed int64
		entry   *entities.LedgerEntry
	)
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		sub, err = s.subRepo.FindForUpdate(ctx, tx, id)
		if err != nil {
			return notFound(err, "Подписка не найдена")
		}
		if err := checkAccess(p, sub.CompanyID, sub.ProjectID); err != nil {
			return err
		}
		if to == "" {
			to = sub.Status
		}
		if sub.Status.IsFinal() {
			return errInvalidTransition(sub.Status, to)
		}
		project, err := s.projectRepo.FindByID(ctx, sub.ProjectID)
		if err != nil {
			return notFound(err, "Проект не найден")
		}
		from = sub.Status
		changed, entry, err = fn(tx, sub, NewEditWindow(s.now(), settings, project.CutoffTime), p, settings)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Подписка изменена",
		zap.Uint64("id", id),
		zap.String("action", action),
		zap.Int64("orders", changed))

	out := []eventbus.Event{events.SubscriptionChangedEvent{
		CompanyID: sub.CompanyID, ProjectID: sub.ProjectID, SubscriptionID: id, Action: action, From: from, To: to,
	}}
	var amount int64
	if entry != nil {
		amount = entry.Amount
		out = append(out, balanceChanged(entry))
	}
	publish(ctx, s.bus, out...)

	result, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.SubscriptionChangeDTO{Subscription: *result, OrdersChanged: changed, Amount: amount}, nil
}

// Pause: заказы с первого доступного дня (или с from_date, если он позже) ставятся на паузу.
// Деньги за них остаются списанными, при возобновлении заказы снова активны.
func (s *SubscriptionService) Pause(ctx context.Context, id uint64, payload dto.PauseSubscriptionDTO) (*dto.SubscriptionChangeDTO, error) {
	var requested *time.Time
	if payload.FromDate != nil {
		d, err := utils.ParseDate(*payload.FromDate)
		if err != nil {
			return nil, apperrors.NewBadRequestError("Неверная дата паузы")
		}
		requested = &d
	}

	return s.change(ctx, id, "paused", entities.StatusPaused,
		func(tx pgx.Tx, sub *entities.Subscription, window EditWindow, _ types.Principal, _ entities.BusinessSettings) (int64, *entities.LedgerEntry, error) {
			if sub.Status != entities.StatusActive {
				return 0, nil, errInvalidTransition(sub.Status, entities.StatusPaused)
			}
			from := window.FirstEditable()
			if requested != nil {
				if err := window.Check(*requested); err != nil {
					return 0, nil, err
				}
				from = *requested
			}
			orders, err := s.orderRepo.ListBySubscription(ctx, tx, sub.ID, from, []entities.Status{entities.StatusActive})
			if err != nil {
				return 0, nil, err
			}
			n, err := s.orderRepo.UpdateStatus(ctx, tx, orderIDs(orders), entities.StatusPaused)
			if err != nil {
				return 0, nil, err
			}
			return n, nil, s.subRepo.UpdateStatus(ctx, tx, sub.ID, entities.StatusPaused)
		})
}

// Resume возвращает в работу приостановленные заказы, которые ещё можно изменить.
// Приостановленные дни, которые уже прошли, отменяются с возвратом денег.
func (s *SubscriptionService) Resume(ctx context.Context, id uint64) (*dto.SubscriptionChangeDTO, error) {
	return s.change(ctx, id, "resumed", entities.StatusActive,
		func(tx pgx.Tx, sub *entities.Subscription, window EditWindow, p types.Principal, _ entities.BusinessSettings) (int64, *entities.LedgerEntry, error) {
			if sub.Status != entities.StatusPaused {
				return 0, nil, errInvalidTransition(sub.Status, entities.StatusActive)
			}
			paused, err := s.orderRepo.ListBySubscription(ctx, tx, sub.ID, sub.StartDate, []entities.Status{entities.StatusPaused})
			if err != nil {
				return 0, nil, err
			}
			firstEditable := window.FirstEditable()
			var (
				resume, missed []uint64
				refund         int64
			)
			for i := range paused {
				if paused[i].OrderDate.Before(firstEditable) {
					missed = append(missed, paused[i].ID)
					refund += paused[i].Total()
					continue
				}
				resume = append(resume, paused[i].ID)
			}

			n, err := s.orderRepo.UpdateStatus(ctx, tx, resume, entities.StatusActive)
			if err != nil {
				return 0, nil, err
			}
			if _, err := s.orderRepo.UpdateStatus(ctx, tx, missed, entities.StatusCancelled); err != nil {
				return 0, nil, err
			}
			var entry *entities.LedgerEntry
			if refund > 0 {
				comment := fmt.Sprintf("Пропущенные дни паузы: подписка #%d", sub.ID)
				entry, err = s.ledgerRepo.Apply(ctx, tx, &entities.LedgerEntry{
					CompanyID:      sub.CompanyID,
					EntryType:      entities.LedgerRefund,
					Amount:         refund,
					SubscriptionID: &sub.ID,
					Comment:        &comment,
					CreatedBy:      &p.UserID,
				}, nil)
				if err != nil {
					return 0, nil, ledgerError(err, 0)
				}
			}
			return n, entry, s.subRepo.UpdateStatus(ctx, tx, sub.ID, entities.StatusActive)
		})
}

func (s *SubscriptionService) Cancel(ctx context.Context, id uint64) (*dto.SubscriptionChangeDTO, error) {
	return s.change(ctx, id, "cancelled", entities.StatusCancelled,
		func(tx pgx.Tx, sub *entities.Subscription, window EditWindow, p types.Principal, _ entities.BusinessSettings) (int64, *entities.LedgerEntry, error) {
			res, err := s.canceller.cancel(ctx, tx, sub, window.FirstEditable(), p.UserID, "Отмена")
			if err != nil {
				return 0, nil, err
			}
			return res.OrdersCancelled, res.Entry, nil
		})
}

// UpdateCombo меняет комбо у будущих заказов. Разница в цене доплачивается или возвращается.
func (s *SubscriptionService) UpdateCombo(ctx context.Context, id uint64, payload dto.UpdateComboDTO) (*dto.SubscriptionChangeDTO, error) {
	return s.change(ctx, id, "combo_changed", "",
		func(tx pgx.Tx, sub *entities.Subscription, window EditWindow, p types.Principal, settings entities.BusinessSettings) (int64, *entities.LedgerEntry, error) {
			price, err := comboPrice(settings, payload.ComboType)
			if err != nil {
				return 0, nil, err
			}
			orders, err := s.orderRepo.ListBySubscription(ctx, tx, sub.ID, window.FirstEditable(),
				[]entities.Status{entities.StatusActive, entities.StatusPaused})
			if err != nil {
				return 0, nil, err
			}
			var delta int64
			for i := range orders {
				delta += (price - orders[i].Price) * int64(orders[i].Quantity)
			}

			n, err := s.orderRepo.UpdateCombo(ctx, tx, orderIDs(orders), payload.ComboType, price)
			if err != nil {
				return 0, nil, err
			}
			if err := s.subRepo.UpdateCombo(ctx, tx, sub.ID, payload.ComboType, price); err != nil {
				return 0, nil, err
			}
			if delta == 0 {
				return n, nil, nil
			}

			entry := &entities.LedgerEntry{
				CompanyID:      sub.CompanyID,
				Amount:         -delta,
				SubscriptionID: &sub.ID,
				Comment:        utils.ToPtr(fmt.Sprintf("Смена комбо на %s: подписка #%d", payload.ComboType, sub.ID)),
				CreatedBy:      &p.UserID,
			}
			var floor *int64
			if delta > 0 {
				entry.EntryType = entities.LedgerSubscriptionPayment
				company, err := s.companyRepo.FindByIDTx(ctx, tx, sub.CompanyID)
				if err != nil {
					return 0, nil, notFound(err, "Компания не найдена")
				}
				floor = company.BalanceFloor(settings.AllowNegativeBalance)
			} else {
				entry.EntryType = entities.LedgerRefund
			}
			applied, err := s.ledgerRepo.Apply(ctx, tx, entry, floor)
			if err != nil {
				return 0, nil, ledgerError(err, delta)
			}
			return n, applied, nil
		})
}

func orderIDs(orders []entities.Order) []uint64 {
	ids := make([]uint64, 0, len(orders))
	for i := range orders {
		ids = append(ids, orders[i].ID)
	}
	return ids
}
