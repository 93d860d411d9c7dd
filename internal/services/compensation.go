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
	"yalla-business/internal/repositories"
	"yalla-business/pkg/constants"
	apperrors "yalla-business/pkg/errors"
	"yalla-business/pkg/types"
	"yalla-business/pkg/utils"
)

type CompensationServiceInterface interface {
	Create(ctx context.Context, payload dto.CreateCompensationDTO) (*dto.CompensationDTO, error)
	GetAll(ctx context.Context, filter types.Filter) (*PaginatedResult[dto.CompensationDTO], error)
	GetEmployeeSummary(ctx context.Context, employeeID uint64, month string) (*dto.CompensationSummaryDTO, error)
}

type CompensationService struct {
	txManager        repositories.TxManagerInterface
	compensationRepo repositories.CompensationRepositoryInterface
	employeeRepo     repositories.EmployeeRepositoryInterface
	projectRepo      repositories.ProjectRepositoryInterface
	companyRepo      repositories.CompanyRepositoryInterface
	ledgerRepo       repositories.LedgerRepositoryInterface
	settings         SettingsProvider
	bus              EventPublisher
	logger           *zap.Logger
	now              func() time.Time
}

func NewCompensationService(
	txManager repositories.TxManagerInterface,
	compensationRepo repositories.CompensationRepositoryInterface,
	employeeRepo repositories.EmployeeRepositoryInterface,
	projectRepo repositories.ProjectRepositoryInterface,
	companyRepo repositories.CompanyRepositoryInterface,
	ledgerRepo repositories.LedgerRepositoryInterface,
	settings SettingsProvider,
	bus EventPublisher,
	logger *zap.Logger,
) *CompensationService {
	return &CompensationService{
		txManager:        txManager,
		compensationRepo: compensationRepo,
		employeeRepo:     employeeRepo,
		projectRepo:      projectRepo,
		companyRepo:      companyRepo,
		ledgerRepo:       ledgerRepo,
		settings:         settings,
		bus:              bus,
		logger:           logger,
		now:              time.Now,
	}
}

func compensationEntityToDTO(t *entities.CompensationTransaction) *dto.CompensationDTO {
	return &dto.CompensationDTO{
		ID:           t.ID,
		CompanyID:    t.CompanyID,
		ProjectID:    t.ProjectID,
		EmployeeID:   t.EmployeeID,
		EmployeeName: t.EmployeeName,
		Amount:       t.Amount,
		Restaurant:   t.Restaurant,
		Description:  t.Description,
		Date:         dto.FormatDate(t.TransactionDate),
		CreatedAt:    dto.FormatDateTime(t.CreatedAt),
	}
}

// monthlyLimit - бюджет сотрудника, а если он не задан, лимит проекта. 0 - без лимита.
func (s *CompensationService) monthlyLimit(ctx context.Context, employee *entities.Employee) (int64, error) {
	if employee.Budget > 0 {
		return employee.Budget, nil
	}
	project, err := s.projectRepo.FindByID(ctx, employee.ProjectID)
	if err != nil {
		return 0, notFound(err, "Проект не найден")
	}
	return project.CompensationLimit, nil
}

func (s *CompensationService) Create(ctx context.Context, payload dto.CreateCompensationDTO) (*dto.CompensationDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	employee, err := s.employeeRepo.FindByID(ctx, payload.EmployeeID)
	if err != nil {
		return nil, notFound(err, "Сотрудник не найден")
	}
	if err := checkAccess(p, employee.CompanyID, employee.ProjectID); err != nil {
		return nil, err
	}
	if !employee.IsActive {
		return nil, apperrors.NewBusinessError(CodeEmployeeInactive, "Сотрудник деактивирован")
	}
	if employee.ServiceType != constants.ServiceCompensation {
		return nil, apperrors.NewBusinessError(CodeServiceTypeMismatch, "Сотрудник не на компенсации")
	}

	settings, err := s.settings.Settings(ctx)
	if err != nil {
		return nil, err
	}
	date, err := utils.ParseDate(payload.Date)
	if err != nil {
		return nil, apperrors.NewBadRequestError("Неверный формат даты")
	}
	if date.After(DateOf(s.now(), settings.Location())) {
		return nil, apperrors.NewBadRequestError("Дата компенсации не может быть в будущем")
	}
	limit, err := s.monthlyLimit(ctx, employee)
	if err != nil {
		return nil, err
	}
	monthStart, monthEnd := MonthBounds(date)

	tr := &entities.CompensationTransaction{
		CompanyID:       employee.CompanyID,
		ProjectID:       employee.ProjectID,
		EmployeeID:      employee.ID,
		Amount:          payload.Amount,
		Restaurant:      strings.TrimSpace(payload.Restaurant),
		Description:     payload.Description,
		TransactionDate: date,
		CreatedBy:       &p.UserID,
	}
	var (
		id    uint64
		entry *entities.LedgerEntry
	)
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		// блокировка сотрудника не даёт двум параллельным компенсациям вместе превысить лимит
		if _, err := s.employeeRepo.LockForUpdate(ctx, tx, employee.ID); err != nil {
			return notFound(err, "Сотрудник не найден")
		}
		if limit > 0 {
			spent, err := s.compensationRepo.SumForEmployee(ctx, tx, employee.ID, monthStart, monthEnd)
			if err != nil {
				return err
			}
			if spent+payload.Amount > limit {
				return errCompensationLimit(limit, spent)
			}
		}

		company, err := s.companyRepo.FindByIDTx(ctx, tx, employee.CompanyID)
		if err != nil {
			return notFound(err, "Компания не найдена")
		}
		if company.Status == entities.CompanyStatusBlocked {
			return errCompanyBlocked()
		}
		id, err = s.compensationRepo.Create(ctx, tx, tr)
		if err != nil {
			return err
		}
		comment := fmt.Sprintf("Компенсация: %s, %s", employee.FullName, tr.Restaurant)
		entry, err = s.ledgerRepo.Apply(ctx, tx, &entities.LedgerEntry{
			CompanyID:      employee.CompanyID,
			EntryType:      entities.LedgerCompensation,
			Amount:         -payload.Amount,
			CompensationID: &id,
			Comment:        &comment,
			CreatedBy:      &p.UserID,
		}, company.BalanceFloor(settings.AllowNegativeBalance))
		if err != nil {
			return ledgerError(err, payload.Amount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Компенсация проведена", zap.Uint64("id", id), zap.Uint64("employee_id", employee.ID), zap.Int64("amount", payload.Amount))
	publish(ctx, s.bus, balanceChanged(entry))

	tr.ID = id
	tr.EmployeeName = employee.FullName
	tr.CreatedAt = s.now()
	return compensationEntityToDTO(tr), nil
}

func (s *CompensationService) GetAll(ctx context.Context, filter types.Filter) (*PaginatedResult[dto.CompensationDTO], error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	items, total, err := s.compensationRepo.GetAll(ctx, repositories.ScopeFromPrincipal(p), filter)
	if err != nil {
		return nil, err
	}
	list := make([]dto.CompensationDTO, 0, len(items))
	for i := range items {
		list = append(list, *compensationEntityToDTO(&items[i]))
	}
	return &PaginatedResult[dto.CompensationDTO]{List: list, Total: total}, nil
}

// GetEmployeeSummary - лимит, потрачено и остаток за месяц (ГГГГ-ММ, по умолчанию текущий).
func (s *CompensationService) GetEmployeeSummary(ctx context.Context, employeeID uint64, month string) (*dto.CompensationSummaryDTO, error) {
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

	var ref time.Time
	if month == "" {
		settings, err := s.settings.Settings(ctx)
		if err != nil {
			return nil, err
		}
		ref = DateOf(s.now(), settings.Location())
	} else if ref, err = time.Parse(dto.MonthLayout, month); err != nil {
		return nil, apperrors.NewBadRequestError("Месяц должен быть в формате ГГГГ-ММ")
	}
	from, to := MonthBounds(ref)

	limit, err := s.monthlyLimit(ctx, employee)
	if err != nil {
		return nil, err
	}
	spent, err := s.compensationRepo.SumForEmployee(ctx, nil, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	remaining := limit - spent
	if remaining < 0 {
		remaining = 0
	}
	return &dto.CompensationSummaryDTO{
		EmployeeID: employeeID,
		Month:      from.Format(dto.MonthLayout),
		Limit:      limit,
		Spent:      spent,
		Remaining:  remaining,
	}, nil
}
