package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"yalla-business/internal/dto"
	"yalla-business/internal/entities"
	"yalla-business/internal/repositories"
	"yalla-business/pkg/types"
)

type TransactionServiceInterface interface {
	GetAll(ctx context.Context, filter types.Filter) (*PaginatedResult[dto.LedgerEntryDTO], error)
	GetBalance(ctx context.Context, companyID uint64) (*dto.BalanceDTO, error)
	TopUp(ctx context.Context, payload dto.TopUpDTO) (*dto.LedgerEntryDTO, error)
}

type TransactionService struct {
	txManager   repositories.TxManagerInterface
	ledgerRepo  repositories.LedgerRepositoryInterface
	companyRepo repositories.CompanyRepositoryInterface
	settings    SettingsProvider
	bus         EventPublisher
	logger      *zap.Logger
	now         func() time.Time
}

func NewTransactionService(
	txManager repositories.TxManagerInterface,
	ledgerRepo repositories.LedgerRepositoryInterface,
	companyRepo repositories.CompanyRepositoryInterface,
	settings SettingsProvider,
	bus EventPublisher,
	logger *zap.Logger,
) *TransactionService {
	return &TransactionService{
		txManager:   txManager,
		ledgerRepo:  ledgerRepo,
		companyRepo: companyRepo,
		settings:    settings,
		bus:         bus,
		logger:      logger,
		now:         time.Now,
	}
}

func ledgerEntryToDTO(e *entities.LedgerEntry) *dto.LedgerEntryDTO {
	return &dto.LedgerEntryDTO{
		ID:             e.ID,
		CompanyID:      e.CompanyID,
		Type:           string(e.EntryType),
		Amount:         e.Amount,
		BalanceAfter:   e.BalanceAfter,
		OrderID:        e.OrderID,
		SubscriptionID: e.SubscriptionID,
		InvoiceID:      e.InvoiceID,
		CompensationID: e.CompensationID,
		Comment:        e.Comment,
		CreatedAt:      dto.FormatDateTime(e.CreatedAt),
	}
}

func (s *TransactionService) GetAll(ctx context.Context, filter types.Filter) (*PaginatedResult[dto.LedgerEntryDTO], error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	entries, total, err := s.ledgerRepo.GetAll(ctx, repositories.ScopeFromPrincipal(p), filter)
	if err != nil {
		return nil, err
	}
	list := make([]dto.LedgerEntryDTO, 0, len(entries))
	for i := range entries {
		list = append(list, *ledgerEntryToDTO(&entries[i]))
	}
	return &PaginatedResult[dto.LedgerEntryDTO]{List: list, Total: total}, nil
}

// GetBalance - баланс, доступный остаток с учётом овердрафта и обороты текущего месяца по типам.
func (s *TransactionService) GetBalance(ctx context.Context, requested uint64) (*dto.BalanceDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	companyID, err := resolveCompanyID(p, requested)
	if err != nil {
		return nil, err
	}
	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, notFound(err, "Компания не найдена")
	}
	settings, err := s.settings.Settings(ctx)
	if err != nil {
		return nil, err
	}

	result := &dto.BalanceDTO{
		CompanyID:      company.ID,
		Balance:        company.Balance,
		AllowOverdraft: company.AllowOverdraft,
		OverdraftLimit: company.OverdraftLimit,
		MonthSpend:     make(map[string]int64),
	}
	if floor := company.BalanceFloor(settings.AllowNegativeBalance); floor != nil {
		available := company.Balance - *floor
		result.Available = &available
	}

	from, to := MonthBounds(DateOf(s.now(), settings.Location()))
	sums, err := s.ledgerRepo.SumByType(ctx, companyID, from, to)
	if err != nil {
		return nil, err
	}
	for t, sum := range sums {
		result.MonthSpend[string(t)] = sum
	}
	return result, nil
}

func (s *TransactionService) TopUp(ctx context.Context, payload dto.TopUpDTO) (*dto.LedgerEntryDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.companyRepo.FindByID(ctx, payload.CompanyID); err != nil {
		return nil, notFound(err, "Компания не найдена")
	}

	var entry *entities.LedgerEntry
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		entry, err = s.ledgerRepo.Apply(ctx, tx, &entities.LedgerEntry{
			CompanyID: payload.CompanyID,
			EntryType: entities.LedgerTopUp,
			Amount:    payload.Amount,
			Comment:   payload.Comment,
			CreatedBy: &p.UserID,
		}, nil)
		if err != nil {
			return ledgerError(err, 0)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Баланс пополнен",
		zap.Uint64("company_id", payload.CompanyID),
		zap.Int64("amount", payload.Amount),
		zap.Int64("balance_after", entry.BalanceAfter))
	publish(ctx, s.bus, balanceChanged(entry))
	return ledgerEntryToDTO(entry), nil
}
