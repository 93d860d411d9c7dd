package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"yalla-business/internal/entities"
	db "yalla-business/internal/infrastructure/bd"
	apperrors "yalla-business/pkg/errors"
	"yalla-business/pkg/types"
)

const ledgerSelectFields = `l.id, l.company_id, l.entry_type, l.amount, l.balance_after, l.order_id, l.subscription_id,
	l.invoice_id, l.compensation_id, l.comment, l.created_by, l.created_at`

var ledgerAllowedFields = map[string]string{
	"id":              "l.id",
	"type":            "l.entry_type",
	"entry_type":      "l.entry_type",
	"company_id":      "l.company_id",
	"subscription_id": "l.subscription_id",
	"amount":          "l.amount",
	"created_at":      "l.created_at",
}

type LedgerRepositoryInterface interface {
	Apply(ctx context.Context, tx pgx.Tx, entry *entities.LedgerEntry, floor *int64) (*entities.LedgerEntry, error)
	GetAll(ctx context.Context, scope Scope, filter types.Filter) ([]entities.LedgerEntry, uint64, error)
	SumByType(ctx context.Context, companyID uint64, from, to time.Time) (map[entities.LedgerType]int64, error)
}

type LedgerRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewLedgerRepository(storage *pgxpool.Pool, logger *zap.Logger) LedgerRepositoryInterface {
	return &LedgerRepository{storage: storage, logger: logger}
}

func scanLedgerEntry(row pgx.Row) (*entities.LedgerEntry, error) {
	var l entities.LedgerEntry
	err := row.Scan(
		&l.ID, &l.CompanyID, &l.EntryType, &l.Amount, &l.BalanceAfter, &l.OrderID, &l.SubscriptionID,
		&l.InvoiceID, &l.CompensationID, &l.Comment, &l.CreatedBy, &l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// Apply меняет баланс компании на entry.Amount и пишет запись в журнал.
// Списание проходит одним условным UPDATE: если баланс после операции окажется
// ниже floor, строка не обновится и вернётся ErrInsufficientFunds. floor == nil
// снимает проверку. Вызывать только внутри транзакции.
func (r *LedgerRepository) Apply(ctx context.Context, tx pgx.Tx, entry *entities.LedgerEntry, floor *int64) (*entities.LedgerEntry, error) {
	var balance int64
	err := tx.QueryRow(ctx, `
		UPDATE companies SET balance = balance + $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL AND ($3::bigint IS NULL OR balance + $1 >= $3)
		RETURNING balance`,
		entry.Amount, entry.CompanyID, floor,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM companies WHERE id = $1 AND deleted_at IS NULL)", entry.CompanyID).Scan(&exists); err != nil {
				return nil, err
			}
			if !exists {
				return nil, apperrors.ErrNotFound
			}
			return nil, apperrors.ErrInsufficientFunds
		}
		return nil, fmt.Errorf("ошибка изменения баланса: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO ledger_entries AS l (company_id, entry_type, amount, balance_after, order_id, subscription_id,
			invoice_id, compensation_id, comment, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING %s`, ledgerSelectFields)
	saved, err := scanLedgerEntry(tx.QueryRow(ctx, query,
		entry.CompanyID, entry.EntryType, entry.Amount, balance, entry.OrderID, entry.SubscriptionID,
		entry.InvoiceID, entry.CompensationID, entry.Comment, entry.CreatedBy,
	))
	if err != nil {
		return nil, fmt.Errorf("ошибка записи в журнал операций: %w", err)
	}
	return saved, nil
}

func (r *LedgerRepository) GetAll(ctx context.Context, scope Scope, filter types.Filter) ([]entities.LedgerEntry, uint64, error) {
	base := psql.Select().From("ledger_entries l")
	base = applyScope(base, scope, "l.company_id", "")
	base = db.ApplyDateRange(base, filter, "l.created_at")
	if filter.Search != "" {
		base = base.Where(sq.ILike{"l.comment": "%" + filter.Search + "%"})
	}

	countBuilder := db.ApplyListParams(base.Columns("COUNT(l.id)"), filter.WithoutPagination(), ledgerAllowedFields)
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта операций: %w", err)
	}
	if total == 0 {
		return []entities.LedgerEntry{}, 0, nil
	}

	selectBuilder := db.ApplyListParams(base.Columns(ledgerSelectFields), filter, ledgerAllowedFields)
	if len(filter.Sort) == 0 {
		selectBuilder = selectBuilder.OrderBy("l.created_at DESC", "l.id DESC")
	}
	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения операций: %w", err)
	}
	defer rows.Close()

	entries := make([]entities.LedgerEntry, 0)
	for rows.Next() {
		l, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, *l)
	}
	return entries, total, rows.Err()
}

// SumByType - суммы операций компании за [from, to) в разрезе типа.
func (r *LedgerRepository) SumByType(ctx context.Context, companyID uint64, from, to time.Time) (map[entities.LedgerType]int64, error) {
	rows, err := r.storage.Query(ctx, `
		SELECT entry_type, COALESCE(SUM(amount), 0) FROM ledger_entries
		WHERE company_id = $1 AND created_at >= $2 AND created_at < $3
		GROUP BY entry_type`, companyID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sums := make(map[entities.LedgerType]int64)
	for rows.Next() {
		var t entities.LedgerType
		var sum int64
		if err := rows.Scan(&t, &sum); err != nil {
			return nil, err
		}
		sums[t] = sum
	}
	return sums, rows.Err()
}
