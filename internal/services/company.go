package services

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"yalla-business/internal/dto"
	"yalla-business/internal/entities"
	"yalla-business/internal/events"
	"yalla-business/internal/repositories"
	apperrors "yalla-business/pkg/errors"
	"yalla-business/pkg/eventbus"
	"yalla-business/pkg/types"
	"yalla-business/pkg/utils"
)

type CompanyServiceInterface interface {
	GetAll(ctx context.Context, filter types.Filter) (*PaginatedResult[dto.CompanyDTO], error)
	GetByID(ctx context.Context, id uint64) (*dto.CompanyDTO, error)
	GetCurrent(ctx context.Context) (*dto.CompanyDTO, error)
	Create(ctx context.Context, payload dto.CreateCompanyDTO) (*dto.CompanyDTO, error)
	Update(ctx context.Context, id uint64, payload dto.UpdateCompanyDTO) (*dto.CompanyDTO, error)
	UpdateStatus(ctx context.Context, id uint64, payload dto.UpdateCompanyStatusDTO) (*dto.CompanyDTO, error)
	Delete(ctx context.Context, id uint64) error
}

type CompanyService struct {
	txManager   repositories.TxManagerInterface
	companyRepo repositories.CompanyRepositoryInterface
	ledgerRepo  repositories.LedgerRepositoryInterface
	bus         EventPublisher
	logger      *zap.Logger
}

func NewCompanyService(
	txManager repositories.TxManagerInterface,
	companyRepo repositories.CompanyRepositoryInterface,
	ledgerRepo repositories.LedgerRepositoryInterface,
	bus EventPublisher,
	logger *zap.Logger,
) *CompanyService {
	return &CompanyService{
		txManager:   txManager,
		companyRepo: companyRepo,
		ledgerRepo:  ledgerRepo,
		bus:         bus,
		logger:      logger,
	}
}

func companyEntityToDTO(c *entities.Company) *dto.CompanyDTO {
	return &dto.CompanyDTO{
		ID:             c.ID,
		Name:           c.Name,
		BIN:            c.BIN,
		Phone:          c.Phone,
		Email:          c.Email,
		Address:        c.Address,
		Balance:        c.Balance,
		AllowOverdraft: c.AllowOverdraft,
		OverdraftLimit: c.OverdraftLimit,
		Status:         c.Status,
		CreatedAt:      dto.FormatDateTime(c.CreatedAt),
		UpdatedAt:      dto.FormatDateTime(c.UpdatedAt),
	}
}

func (s *CompanyService) GetAll(ctx context.Context, filter types.Filter) (*PaginatedResult[dto.CompanyDTO], error) {
	companies, total, err := s.companyRepo.GetAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	list := make([]dto.CompanyDTO, 0, len(companies))
	for i := range companies {
		list = append(list, *companyEntityToDTO(&companies[i]))
	}
	return &PaginatedResult[dto.CompanyDTO]{List: list, Total: total}, nil
}

func (s *CompanyService) GetByID(ctx context.Context, id uint64) (*dto.CompanyDTO, error) {
	company, err := s.companyRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Компания не найдена")
	}
	return companyEntityToDTO(company), nil
}

func (s *CompanyService) GetCurrent(ctx context.Context) (*dto.CompanyDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if p.CompanyID == nil {
		return nil, apperrors.NewNotFoundError("Пользователь не привязан к компании")
	}
	return s.GetByID(ctx, *p.CompanyID)
}

// Create заводит компанию; стартовый бюджет проводится как пополнение, чтобы баланс сходился с журналом.
func (s *CompanyService) Create(ctx context.Context, payload dto.CreateCompanyDTO) (*dto.CompanyDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	company := &entities.Company{
		Name:           strings.TrimSpace(payload.Name),
		BIN:            payload.BIN,
		Email:          payload.Email,
		Address:        payload.Address,
		AllowOverdraft: payload.AllowOverdraft,
		OverdraftLimit: payload.OverdraftLimit,
		Status:         entities.CompanyStatusActive,
	}
	if payload.Phone != nil {
		company.Phone = utils.ToPtr(utils.NormalizePhone(*payload.Phone))
	}

	var (
		id    uint64
		entry *entities.LedgerEntry
	)
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		id, err = s.companyRepo.Create(ctx, tx, company)
		if err != nil {
			return err
		}
		if payload.Budget > 0 {
			comment := "Начальный бюджет"
			entry, err = s.ledgerRepo.Apply(ctx, tx, &entities.LedgerEntry{
				CompanyID: id,
				EntryType: entities.LedgerTopUp,
				Amount:    payload.Budget,
				Comment:   &comment,
				CreatedBy: &p.UserID,
			}, nil)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Компания создана", zap.Uint64("id", id), zap.String("name", company.Name), zap.Int64("budget", payload.Budget))
	if entry != nil {
		publish(ctx, s.bus, balanceChanged(entry))
	}
	return s.GetByID(ctx, id)
}

func (s *CompanyService) Update(ctx context.Context, id uint64, payload dto.UpdateCompanyDTO) (*dto.CompanyDTO, error) {
	company, err := s.companyRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Компания не найдена")
	}

	if payload.Name.Valid {
		company.Name = strings.TrimSpace(payload.Name.String)
	}
	if payload.BIN.Valid {
		company.BIN = utils.ToPtr(payload.BIN.String)
	}
	if payload.Phone.Valid {
		company.Phone = utils.ToPtr(utils.NormalizePhone(payload.Phone.String))
	}
	if payload.Email.Valid {
		company.Email = utils.ToPtr(payload.Email.String)
	}
	if payload.Address.Valid {
		company.Address = utils.ToPtr(payload.Address.String)
	}
	if payload.AllowOverdraft.Valid {
		company.AllowOverdraft = payload.AllowOverdraft.Bool
	}
	if payload.OverdraftLimit.Valid {
		company.OverdraftLimit = payload.OverdraftLimit.Int64
	}

	if err := s.companyRepo.Update(ctx, company); err != nil {
		return nil, notFound(err, "Компания не найдена")
	}
	return s.GetByID(ctx, id)
}

func (s *CompanyService) UpdateStatus(ctx context.Context, id uint64, payload dto.UpdateCompanyStatusDTO) (*dto.CompanyDTO, error) {
	if err := s.companyRepo.UpdateStatus(ctx, id, payload.Status); err != nil {
		return nil, notFound(err, "Компания не найдена")
	}
	s.logger.Info("Статус компании изменён", zap.Uint64("id", id), zap.String("status", payload.Status))
	return s.GetByID(ctx, id)
}

func (s *CompanyService) Delete(ctx context.Context, id uint64) error {
	if err := s.companyRepo.Delete(ctx, id); err != nil {
		return notFound(err, "Компания не найдена")
	}
	s.logger.Info("Компания удалена", zap.Uint64("id", id))
	return nil
}

func balanceChanged(entry *entities.LedgerEntry) eventbus.Event {
	return events.BalanceChangedEvent{
		CompanyID:    entry.CompanyID,
		EntryType:    entry.EntryType,
		Amount:       entry.Amount,
		BalanceAfter: entry.BalanceAfter,
	}
}
