package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"yalla-business/internal/dto"
	"yalla-business/internal/entities"
	"yalla-business/internal/repositories"
	apperrors "yalla-business/pkg/errors"
	"yalla-business/pkg/types"
	"yalla-business/pkg/utils"
)

type InvoiceServiceInterface interface {
	GetAll(ctx context.Context, filter types.Filter) (*PaginatedResult[dto.InvoiceDTO], error)
	GetByID(ctx context.Context, id uint64) (*dto.InvoiceDTO, error)
	Create(ctx context.Context, payload dto.CreateInvoiceDTO) (*dto.InvoiceDTO, error)
	MarkPaid(ctx context.Context, id uint64) (*dto.InvoiceDTO, error)
	Cancel(ctx context.Context, id uint64) (*dto.InvoiceDTO, error)
	GenerateMonthlyStatement(ctx context.Context, payload dto.GenerateStatementDTO) (*dto.InvoiceDTO, error)
}

type InvoiceService struct {
	txManager   repositories.TxManagerInterface
	invoiceRepo repositories.InvoiceRepositoryInterface
	companyRepo repositories.CompanyRepositoryInterface
	ledgerRepo  repositories.LedgerRepositoryInterface
	bus         EventPublisher
	logger      *zap.Logger
	now         func() time.Time
}

func NewInvoiceService(
	txManager repositories.TxManagerInterface,
	invoiceRepo repositories.InvoiceRepositoryInterface,
	companyRepo repositories.CompanyRepositoryInterface,
	ledgerRepo repositories.LedgerRepositoryInterface,
	bus EventPublisher,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		txManager:   txManager,
		invoiceRepo: invoiceRepo,
		companyRepo: companyRepo,
		ledgerRepo:  ledgerRepo,
		bus:         bus,
		logger:      logger,
		now:         time.Now,
	}
}

func invoiceEntityToDTO(i *entities.Invoice) *dto.InvoiceDTO {
	return &dto.InvoiceDTO{
		ID:          i.ID,
		CompanyID:   i.CompanyID,
		CompanyName: i.CompanyName,
		Number:      i.Number,
		Type:        i.InvoiceType,
		Amount:      i.Amount,
		Status:      i.Status,
		PeriodStart: dto.FormatDatePtr(i.PeriodStart),
		PeriodEnd:   dto.FormatDatePtr(i.PeriodEnd),
		DueDate:     dto.FormatDatePtr(i.DueDate),
		PaidAt:      dto.FormatDateTimePtr(i.PaidAt),
		Comment:     i.Comment,
		CreatedAt:   dto.FormatDateTime(i.CreatedAt),
	}
}

func (s *InvoiceService) GetAll(ctx context.Context, filter types.Filter) (*PaginatedResult[dto.InvoiceDTO], error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	invoices, total, err := s.invoiceRepo.GetAll(ctx, repositories.ScopeFromPrincipal(p), filter)
	if err != nil {
		return nil, err
	}
	list := make([]dto.InvoiceDTO, 0, len(invoices))
	for i := range invoices {
		list = append(list, *invoiceEntityToDTO(&invoices[i]))
	}
	return &PaginatedResult[dto.InvoiceDTO]{List: list, Total: total}, nil
}

func (s *InvoiceService) GetByID(ctx context.Context, id uint64) (*dto.InvoiceDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Счёт не найден")
	}
	if err := checkAccess(p, invoice.CompanyID, 0); err != nil {
		return nil, err
	}
	return invoiceEntityToDTO(invoice), nil
}

// Create - счёт на пополнение баланса. Баланс меняется только после оплаты.
func (s *InvoiceService) Create(ctx context.Context, payload dto.CreateInvoiceDTO) (*dto.InvoiceDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	companyID, err := resolveCompanyID(p, payload.CompanyID)
	if err != nil {
		return nil, err
	}
	if _, err := s.companyRepo.FindByID(ctx, companyID); err != nil {
		return nil, notFound(err, "Компания не найдена")
	}

	invoice := &entities.Invoice{
		CompanyID:   companyID,
		InvoiceType: entities.InvoiceTypeTopUp,
		Amount:      payload.Amount,
		Status:      entities.InvoiceStatusPending,
		Comment:     payload.Comment,
		CreatedBy:   &p.UserID,
	}
	if payload.DueDate != nil {
		due, err := utils.ParseDate(*payload.DueDate)
		if err != nil {
			return nil, apperrors.NewBadRequestError("Неверная дата оплаты")
		}
		invoice.DueDate = &due
	}

	var id uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		id, err = s.invoiceRepo.Create(ctx, tx, invoice)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Счёт выставлен", zap.Uint64("id", id), zap.Uint64("company_id", companyID), zap.Int64("amount", payload.Amount))
	return s.GetByID(ctx, id)
}

// MarkPaid фиксирует оплату и зачисляет сумму на баланс.
func (s *InvoiceService) MarkPaid(ctx context.Context, id uint64) (*dto.InvoiceDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	var entry *entities.LedgerEntry
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		invoice, err := s.invoiceRepo.FindForUpdate(ctx, tx, id)
		if err != nil {
			return notFound(err, "Счёт не найден")
		}
		if invoice.InvoiceType != entities.InvoiceTypeTopUp {
			return apperrors.NewBadRequestError("Акт сверки не оплачивается")
		}
		if invoice.Status != entities.InvoiceStatusPending {
			return errInvoiceNotPending(invoice.Status)
		}
		paidAt := s.now()
		if err := s.invoiceRepo.UpdateStatus(ctx, tx, id, entities.InvoiceStatusPaid, &paidAt); err != nil {
			return err
		}
		comment := fmt.Sprintf("Оплата счёта %s", invoice.Number)
		entry, err = s.ledgerRepo.Apply(ctx, tx, &entities.LedgerEntry{
			CompanyID: invoice.CompanyID,
			EntryType: entities.LedgerTopUp,
			Amount:    invoice.Amount,
			InvoiceID: &invoice.ID,
			Comment:   &comment,
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

	s.logger.Info("Счёт оплачен", zap.Uint64("id", id), zap.Int64("amount", entry.Amount), zap.Int64("balance_after", entry.BalanceAfter))
	publish(ctx, s.bus, balanceChanged(entry))
	return s.GetByID(ctx, id)
}

func (s *InvoiceService) Cancel(ctx context.Context, id uint64) (*dto.InvoiceDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		invoice, err := s.invoiceRepo.FindForUpdate(ctx, tx, id)
		if err != nil {
			return notFound(err, "Счёт не найден")
		}
		if err := checkAccess(p, invoice.CompanyID, 0); err != nil {
			return err
		}
		if invoice.Status != entities.InvoiceStatusPending {
			return errInvoiceNotPending(invoice.Status)
		}
		return s.invoiceRepo.UpdateStatus(ctx, tx, id, entities.InvoiceStatusCancelled, nil)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Счёт отменён", zap.Uint64("id", id), zap.Uint64("by", p.UserID))
	return s.GetByID(ctx, id)
}

// GenerateMonthlyStatement формирует акт за месяц: чистые расходы по журналу
// (подписки, гостевые заказы, компенсации минус возвраты). Акт уже оплачен из баланса.
func (s *InvoiceService) GenerateMonthlyStatement(ctx context.Context, payload dto.GenerateStatementDTO) (*dto.InvoiceDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	companyID, err := resolveCompanyID(p, payload.CompanyID)
	if err != nil {
		return nil, err
	}
	month, err := time.Parse(dto.MonthLayout, payload.Month)
	if err != nil {
		return nil, apperrors.NewBadRequestError("Месяц должен быть в формате ГГГГ-ММ")
	}
	from, to := MonthBounds(month)

	sums, err := s.ledgerRepo.SumByType(ctx, companyID, from, to)
	if err != nil {
		return nil, err
	}
	spend := -(sums[entities.LedgerSubscriptionPayment] + sums[entities.LedgerGuestOrder] +
		sums[entities.LedgerCompensation] + sums[entities.LedgerRefund])
	if spend <= 0 {
		return nil, apperrors.NewBadRequestError("За выбранный месяц нет расходов")
	}

	periodEnd := to.Add(-day)
	paidAt := s.now()
	comment := fmt.Sprintf("Акт за %s", payload.Month)
	invoice := &entities.Invoice{
		CompanyID:   companyID,
		InvoiceType: entities.InvoiceTypeAct,
		Amount:      spend,
		Status:      entities.InvoiceStatusPaid,
		PeriodStart: &from,
		PeriodEnd:   &periodEnd,
		PaidAt:      &paidAt,
		Comment:     &comment,
		CreatedBy:   &p.UserID,
	}
	var id uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		id, err = s.invoiceRepo.Create(ctx, tx, invoice)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Сформирован акт за месяц", zap.Uint64("id", id), zap.Uint64("company_id", companyID), zap.String("month", payload.Month), zap.Int64("amount", spend))
	return s.GetByID(ctx, id)
}

func errInvoiceNotPending(status string) error {
	return apperrors.NewConflictError(CodeInvalidTransition, "Счёт уже обработан").
		WithDetails(map[string]interface{}{"status": status})
}
