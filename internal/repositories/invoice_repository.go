package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"yalla-business/internal/entities"
	db "yalla-business/internal/infrastructure/bd"
	apperrors "yalla-business/pkg/errors"
	"yalla-business/pkg/types"
)

const invoiceSelectFields = `i.id, i.company_id, i.number, i.invoice_type, i.amount, i.status, i.period_start, i.period_end,
	i.due_date, i.paid_at, i.comment, i.created_by, c.name, i.created_at, i.updated_at`

const invoiceFrom = "invoices i JOIN companies c ON c.id = i.company_id"

var invoiceAllowedFields = map[string]string{
	"id":           "i.id",
	"status":       "i.status",
	"invoice_type": "i.invoice_type",
	"type":         "i.invoice_type",
	"company_id":   "i.company_id",
	"amount":       "i.amount",
	"due_date":     "i.due_date",
	"created_at":   "i.created_at",
}

type InvoiceRepositoryInterface interface {
	GetAll(ctx context.Context, scope Scope, filter types.Filter) ([]entities.Invoice, uint64, error)
	FindByID(ctx context.Context, id uint64) (*entities.Invoice, error)
	FindForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Invoice, error)
	Create(ctx context.Context, tx pgx.Tx, invoice *entities.Invoice) (uint64, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uint64, status string, paidAt *time.Time) error
}

type InvoiceRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewInvoiceRepository(storage *pgxpool.Pool, logger *zap.Logger) InvoiceRepositoryInterface {
	return &InvoiceRepository{storage: storage, logger: logger}
}

func scanInvoice(row pgx.Row) (*entities.Invoice, error) {
	var i entities.Invoice
	err := row.Scan(
		&i.ID, &i.CompanyID, &i.Number, &i.InvoiceType, &i.Amount, &i.Status, &i.PeriodStart, &i.PeriodEnd,
		&i.DueDate, &i.PaidAt, &i.Comment, &i.CreatedBy, &i.CompanyName, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &i, nil
}

func (r *InvoiceRepository) GetAll(ctx context.Context, scope Scope, filter types.Filter) ([]entities.Invoice, uint64, error) {
	base := psql.Select().From(invoiceFrom)
	base = applyScope(base, scope, "i.company_id", "")
	base = db.ApplySearch(base, filter.Search, "i.number", "c.name")
	base = db.ApplyDateRange(base, filter, "i.created_at")

	countBuilder := db.ApplyListParams(base.Columns("COUNT(i.id)"), filter.WithoutPagination(), invoiceAllowedFields)
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта счетов: %w", err)
	}
	if total == 0 {
		return []entities.Invoice{}, 0, nil
	}

	selectBuilder := db.ApplyListParams(base.Columns(invoiceSelectFields), filter, invoiceAllowedFields)
	if len(filter.Sort) == 0 {
		selectBuilder = selectBuilder.OrderBy("i.created_at DESC", "i.id DESC")
	}
	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения счетов: %w", err)
	}
	defer rows.Close()

	invoices := make([]entities.Invoice, 0)
	for rows.Next() {
		i, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		invoices = append(invoices, *i)
	}
	return invoices, total, rows.Err()
}

func (r *InvoiceRepository) FindByID(ctx context.Context, id uint64) (*entities.Invoice, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE i.id = $1", invoiceSelectFields, invoiceFrom)
	return scanInvoice(r.storage.QueryRow(ctx, query, id))
}

func (r *InvoiceRepository) FindForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Invoice, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE i.id = $1 FOR UPDATE OF i", invoiceSelectFields, invoiceFrom)
	return scanInvoice(tx.QueryRow(ctx, query, id))
}

// Create сохраняет счёт и присваивает номер INV-ГГГГММ-<id>.
func (r *InvoiceRepository) Create(ctx context.Context, tx pgx.Tx, i *entities.Invoice) (uint64, error) {
	query := `
		INSERT INTO invoices (company_id, invoice_type, amount, status, period_start, period_end, due_date, paid_at, comment, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	var id uint64
	err := tx.QueryRow(ctx, query,
		i.CompanyID, i.InvoiceType, i.Amount, i.Status, i.PeriodStart, i.PeriodEnd, i.DueDate, i.PaidAt, i.Comment, i.CreatedBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания счёта: %w", err)
	}

	_, err = tx.Exec(ctx,
		"UPDATE invoices SET number = 'INV-' || to_char(created_at, 'YYYYMM') || '-' || id::text WHERE id = $1", id)
	if err != nil {
		return 0, fmt.Errorf("ошибка присвоения номера счёта: %w", err)
	}
	return id, nil
}

func (r *InvoiceRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uint64, status string, paidAt *time.Time) error {
	return execOne(ctx, pick(tx, r.storage),
		"UPDATE invoices SET status = $1, paid_at = COALESCE($2, paid_at), updated_at = NOW() WHERE id = $3",
		status, paidAt, id)
}
