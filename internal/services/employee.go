package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
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

type EmployeeServiceInterface interface {
	GetAll(ctx context.Context, filter types.Filter) (*PaginatedResult[dto.EmployeeDTO], error)
	GetByID(ctx context.Context, id uint64) (*dto.EmployeeDTO, error)
	Create(ctx context.Context, payload dto.CreateEmployeeDTO) (*dto.EmployeeDTO, error)
	Update(ctx context.Context, id uint64, payload dto.UpdateEmployeeDTO) (*dto.EmployeeDTO, error)
	Deactivate(ctx context.Context, id uint64) (*dto.EmployeeDTO, error)
	Activate(ctx context.Context, id uint64) (*dto.EmployeeDTO, error)
	GetEmployeeOrders(ctx context.Context, id uint64, filter types.Filter) (*PaginatedResult[dto.OrderDTO], error)
}

type EmployeeService struct {
	txManager    repositories.TxManagerInterface
	employeeRepo repositories.EmployeeRepositoryInterface
	projectRepo  repositories.ProjectRepositoryInterface
	orderRepo    repositories.OrderRepositoryInterface
	canceller    *subscriptionCanceller
	settings     SettingsProvider
	bus          EventPublisher
	logger       *zap.Logger
	now          func() time.Time
}

func NewEmployeeService(
	txManager repositories.TxManagerInterface,
	employeeRepo repositories.EmployeeRepositoryInterface,
	projectRepo repositories.ProjectRepositoryInterface,
	subscriptionRepo repositories.SubscriptionRepositoryInterface,
	orderRepo repositories.OrderRepositoryInterface,
	ledgerRepo repositories.LedgerRepositoryInterface,
	settings SettingsProvider,
	bus EventPublisher,
	logger *zap.Logger,
) *EmployeeService {
	return &EmployeeService{
		txManager:    txManager,
		employeeRepo: employeeRepo,
		projectRepo:  projectRepo,
		orderRepo:    orderRepo,
		canceller:    &subscriptionCanceller{subRepo: subscriptionRepo, orderRepo: orderRepo, ledgerRepo: ledgerRepo},
		settings:     settings,
		bus:          bus,
		logger:       logger,
		now:          time.Now,
	}
}

func employeeEntityToDTO(e *entities.Employee) *dto.EmployeeDTO {
	days := e.WorkingDays
	if days == nil {
		days = []int32{}
	}
	return &dto.EmployeeDTO{
		ID:          e.ID,
		CompanyID:   e.CompanyID,
		FullName:    e.FullName,
		Phone:       e.Phone,
		Position:    e.Position,
		Project:     dto.ShortProjectDTO{ID: e.ProjectID, Name: e.ProjectName},
		ShiftType:   e.ShiftType,
		WorkingDays: days,
		ServiceType: string(e.ServiceType),
		Budget:      e.Budget,
		IsActive:    e.IsActive,
		CreatedAt:   dto.FormatDateTime(e.CreatedAt),
		UpdatedAt:   dto.FormatDateTime(e.UpdatedAt),
	}
}

// normalizeWorkingDays сортирует дни недели и убирает повторы.
func normalizeWorkingDays(days []int32) []int32 {
	seen := make(map[int32]struct{}, len(days))
	out := make([]int32, 0, len(days))
	for _, d := range days {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *EmployeeService) GetAll(ctx context.Context, filter types.Filter) (*PaginatedResult[dto.EmployeeDTO], error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	// status=active|inactive удобнее фронтенду, чем is_active
	if status, ok := filter.Filter["status"].(string); ok {
		delete(filter.Filter, "status")
		switch strings.ToLower(status) {
		case "active":
			filter.Filter["is_active"] = true
		case "inactive":
			filter.Filter["is_active"] = false
		}
	}

	employees, total, err := s.employeeRepo.GetAll(ctx, repositories.ScopeFromPrincipal(p), filter)
	if err != nil {
		return nil, err
	}
	list := make([]dto.EmployeeDTO, 0, len(employees))
	for i := range employees {
		list = append(list, *employeeEntityToDTO(&employees[i]))
	}
	return &PaginatedResult[dto.EmployeeDTO]{List: list, Total: total}, nil
}

func (s *EmployeeService) load(ctx context.Context, p types.Principal, id uint64) (*entities.Employee, error) {
	employee, err := s.employeeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Сотрудник не найден")
	}
	if err := checkAccess(p, employee.CompanyID, employee.ProjectID); err != nil {
		return nil, err
	}
	return employee, nil
}

func (s *EmployeeService) GetByID(ctx context.Context, id uint64) (*dto.EmployeeDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	employee, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return employeeEntityToDTO(employee), nil
}

// loadProject - проект должен быть доступен пользователю.
func (s *EmployeeService) loadProject(ctx context.Context, p types.Principal, projectID uint64) (*entities.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, notFound(err, "Проект не найден")
	}
	if err := checkAccess(p, project.CompanyID, project.ID); err != nil {
		return nil, apperrors.NewNotFoundError("Проект не найден")
	}
	return project, nil
}

func (s *EmployeeService) Create(ctx context.Context, payload dto.CreateEmployeeDTO) (*dto.EmployeeDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	project, err := s.loadProject(ctx, p, payload.ProjectID)
	if err != nil {
		return nil, err
	}
	if constants.ServiceType(payload.ServiceType) != project.ServiceType {
		return nil, apperrors.NewBusinessError(CodeServiceTypeMismatch, "Тип обслуживания сотрудника должен совпадать с типом проекта").
			WithDetails(map[string]interface{}{"project_service_type": project.ServiceType})
	}

	phone := utils.NormalizePhone(payload.Phone)
	if exists, err := s.employeeRepo.ExistsByPhone(ctx, project.CompanyID, phone, 0); err != nil {
		return nil, err
	} else if exists {
		return nil, errEmployeePhoneExists(phone)
	}

	employee := &entities.Employee{
		CompanyID:   project.CompanyID,
		ProjectID:   project.ID,
		FullName:    strings.TrimSpace(payload.FullName),
		Phone:       phone,
		Position:    payload.Position,
		ShiftType:   payload.ShiftType,
		WorkingDays: normalizeWorkingDays(payload.WorkingDays),
		ServiceType: project.ServiceType,
		Budget:      payload.Budget,
		IsActive:    true,
	}
	id, err := s.employeeRepo.Create(ctx, employee)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicatePhone) {
			return nil, errEmployeePhoneExists(phone)
		}
		return nil, err
	}

	s.logger.Info("Сотрудник создан", zap.Uint64("id", id), zap.Uint64("project_id", project.ID))
	publish(ctx, s.bus, events.EmployeeChangedEvent{CompanyID: project.CompanyID, ProjectID: project.ID, EmployeeID: id, Action: "created"})
	return s.GetByID(ctx, id)
}

func (s *EmployeeService) Update(ctx context.Context, id uint64, payload dto.UpdateEmployeeDTO) (*dto.EmployeeDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	employee, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}

	if payload.ProjectID.Valid && payload.ProjectID.Uint64 != employee.ProjectID {
		project, err := s.loadProject(ctx, p, payload.ProjectID.Uint64)
		if err != nil {
			return nil, err
		}
		if project.CompanyID != employee.CompanyID {
			return nil, apperrors.NewNotFoundError("Проект не найден")
		}
		if project.ServiceType != employee.ServiceType {
			return nil, apperrors.NewBusinessError(CodeServiceTypeMismatch, "Тип обслуживания нового проекта не совпадает с типом сотрудника")
		}
		employee.ProjectID = project.ID
	}
	if payload.Phone.Valid {
		phone := utils.NormalizePhone(payload.Phone.String)
		if phone != employee.Phone {
			exists, err := s.employeeRepo.ExistsByPhone(ctx, employee.CompanyID, phone, employee.ID)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, errEmployeePhoneExists(phone)
			}
			employee.Phone = phone
		}
	}
	if payload.FullName.Valid {
		employee.FullName = strings.TrimSpace(payload.FullName.String)
	}
	if payload.Position.Valid {
		employee.Position = utils.ToPtr(payload.Position.String)
	}
	if payload.ShiftType.Valid {
		employee.ShiftType = payload.ShiftType.String
	}
	if payload.WorkingDays != nil {
		employee.WorkingDays = normalizeWorkingDays(payload.WorkingDays)
	}
	if payload.Budget.Valid {
		employee.Budget = payload.Budget.Int64
	}

	if err := s.employeeRepo.Update(ctx, employee); err != nil {
		if errors.Is(err, repositories.ErrDuplicatePhone) {
			return nil, errEmployeePhoneExists(employee.Phone)
		}
		return nil, notFound(err, "Сотрудник не найден")
	}
	publish(ctx, s.bus, events.EmployeeChangedEvent{CompanyID: employee.CompanyID, ProjectID: employee.ProjectID, EmployeeID: id, Action: "updated"})
	return s.GetByID(ctx, id)
}

// Deactivate выключает сотрудника: открытые подписки отменяются, будущие заказы
// отменяются с возвратом денег на баланс компании.
func (s *EmployeeService) Deactivate(ctx context.Context, id uint64) (*dto.EmployeeDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	employee, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !employee.IsActive {
		return employeeEntityToDTO(employee), nil
	}
	settings, err := s.settings.Settings(ctx)
	if err != nil {
		return nil, err
	}
	project, err := s.projectRepo.FindByID(ctx, employee.ProjectID)
	if err != nil {
		return nil, notFound(err, "Проект не найден")
	}
	window := NewEditWindow(s.now(), settings, project.CutoffTime)

	var published []eventbus.Event
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := s.employeeRepo.LockForUpdate(ctx, tx, id); err != nil {
			return notFound(err, "Сотрудник не найден")
		}
		subs, err := s.canceller.subRepo.ListOpenByEmployee(ctx, tx, id)
		if err != nil {
			return err
		}
		for i := range subs {
			sub := &subs[i]
			res, err := s.canceller.cancel(ctx, tx, sub, window.FirstEditable(), p.UserID, "Деактивация сотрудника")
			if err != nil {
				return err
			}
			published = append(published, events.SubscriptionChangedEvent{
				CompanyID: sub.CompanyID, ProjectID: sub.ProjectID, SubscriptionID: sub.ID,
				Action: "cancelled", From: sub.Status, To: entities.StatusCancelled,
			})
			if res.Entry != nil {
				published = append(published, balanceChanged(res.Entry))
			}
		}
		return s.employeeRepo.SetActive(ctx, tx, id, false)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Сотрудник деактивирован", zap.Uint64("id", id), zap.Int("cancelled_events", len(published)))
	published = append(published, events.EmployeeChangedEvent{CompanyID: employee.CompanyID, ProjectID: employee.ProjectID, EmployeeID: id, Action: "deactivated"})
	publish(ctx, s.bus, published...)
	return s.GetByID(ctx, id)
}

func (s *EmployeeService) Activate(ctx context.Context, id uint64) (*dto.EmployeeDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	employee, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if employee.IsActive {
		return employeeEntityToDTO(employee), nil
	}
	if err := s.employeeRepo.SetActive(ctx, nil, id, true); err != nil {
		return nil, notFound(err, "Сотрудник не найден")
	}
	publish(ctx, s.bus, events.EmployeeChangedEvent{CompanyID: employee.CompanyID, ProjectID: employee.ProjectID, EmployeeID: id, Action: "activated"})
	return s.GetByID(ctx, id)
}

// GetEmployeeOrders - заказы сотрудника за период date_from..date_to.
func (s *EmployeeService) GetEmployeeOrders(ctx context.Context, id uint64, filter types.Filter) (*PaginatedResult[dto.OrderDTO], error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	employee, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if filter.Filter == nil {
		filter.Filter = make(map[string]interface{})
	}
	filter.Filter["employee_id"] = fmt.Sprint(employee.ID)

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
