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

const subscriptionSelectFields = `s.id, s.company_id, s.project_id, s.employee_id, s.combo_type, s.price, s.start_date, s.end_date,
	s.status, s.created_by, s.created_at, s.updated_at, e.full_name`

const subscriptionFrom = "subscriptions s JOIN employees e ON e.id = s.employee_id"

var subscriptionAllowedFields = map[string]string{
	"id":          "s.id",
	"status":      "s.status",
	"employee_id": "s.employee_id",
	"project_id":  "s.project_id",
	"combo_type":  "s.combo_type",
	"start_date":  "s.start_date",
	"end_date":    "s.end_date",
	"created_at":  "s.created_at",
}

type SubscriptionRepositoryInterface interface {
	GetAll(ctx context.Context, scope Scope, filter types.Filter) ([]entities.Subscription, uint64, error)
	FindByID(ctx context.Context, id uint64) (*entities.Subscription, error)
	FindForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Subscription, error)
	ListOpenByEmployee(ctx context.Context, tx pgx.Tx, employeeID uint64) ([]entities.Subscription, error)
	HasOverlap(ctx context.Context, tx pgx.Tx, employeeID uint64, start, end time.Time) (bool, error)
	Create(ctx context.Context, tx pgx.Tx, sub *entities.Subscription) (uint64, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uint64, status entities.Status) error
	UpdateEndDate(ctx context.Context, tx pgx.Tx, id uint64, endDate time.Time) error
	UpdateCombo(ctx context.Context, tx pgx.Tx, id uint64, combo string, price int64) error
	CountOrdersByStatus(ctx context.Context, id uint64) (map[entities.Status]int, error)
	CompleteExpired(ctx context.Context, tx pgx.Tx, before time.Time) (int64, error)
	ListExpiredPaused(ctx context.Context, tx pgx.Tx, before time.Time) ([]entities.Subscription, error)
}

type SubscriptionRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewSubscriptionRepository(storage *pgxpool.Pool, logger *zap.Logger) SubscriptionRepositoryInterface {
	return &SubscriptionRepository{storage: storage, logger: logger}
}

func scanSubscription(row pgx.Row) (*entities.Subscription, error) {
	var s entities.Subscription
	err := row.Scan(
		&s.ID, &s.CompanyID, &s.ProjectID, &s.EmployeeID, &s.ComboType, &s.Price, &s.StartDate, &s.EndDate,
		&s.Status, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt, &s.EmployeeName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func collectSubscriptions(rows pgx.Rows) ([]entities.Subscription, error) {
	defer rows.Close()
	subs := make([]entities.Subscription, 0)
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *s)
	}
	return subs, rows.Err()
}

func (r *SubscriptionRepository) GetAll(ctx context.Context, scope Scope, filter types.Filter) ([]entities.Subscription, uint64, error) {
	base := psql.Select().From(subscriptionFrom)
	base = applyScope(base, scope, "s.company_id", "s.project_id")
	base = db.ApplySearch(base, filter.Search, "e.full_name", "s.combo_type")
	// подписка попадает в период, если пересекается с ним
	if filter.DateFrom != nil {
		base = base.Where(sq.GtOrEq{"s.end_date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		base = base.Where(sq.LtOrEq{"s.start_date": *filter.DateTo})
	}

	countBuilder := db.ApplyListParams(base.Columns("COUNT(s.id)"), filter.WithoutPagination(), subscriptionAllowedFields)
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта подписок: %w", err)
	}
	if total == 0 {
		return []entities.Subscription{}, 0, nil
	}

	selectBuilder := db.ApplyListParams(base.Columns(subscriptionSelectFields), filter, subscriptionAllowedFields)
	if len(filter.Sort) == 0 {
		selectBuilder = selectBuilder.OrderBy("s.start_date DESC", "s.id DESC")
	}
	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения подписок: %w", err)
	}
	subs, err := collectSubscriptions(rows)
	return subs, total, err
}

func (r *SubscriptionRepository) FindByID(ctx context.Context, id uint64) (*entities.Subscription, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE s.id = $1", subscriptionSelectFields, subscriptionFrom)
	return scanSubscription(r.storage.QueryRow(ctx, query, id))
}

func (r *SubscriptionRepository) FindForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Subscription, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE s.id = $1 FOR UPDATE OF s", subscriptionSelectFields, subscriptionFrom)
	return scanSubscription(tx.QueryRow(ctx, query, id))
}

func (r *SubscriptionRepository) ListOpenByEmployee(ctx context.Context, tx pgx.Tx, employeeID uint64) ([]entities.Subscription, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE s.employee_id = $1 AND s.status = ANY($2) ORDER BY s.id FOR UPDATE OF s",
		subscriptionSelectFields, subscriptionFrom)
	rows, err := pick(tx, r.storage).Query(ctx, query, employeeID, statusStrings(entities.OpenSubscriptionStatuses))
	if err != nil {
		return nil, err
	}
	return collectSubscriptions(rows)
}

func (r *SubscriptionRepository) HasOverlap(ctx context.Context, tx pgx.Tx, employeeID uint64, start, end time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM subscriptions
			WHERE employee_id = $1 AND status = ANY($2) AND start_date <= $4 AND end_date >= $3
		)`
	var exists bool
	err := pick(tx, r.storage).QueryRow(ctx, query, employeeID, statusStrings(entities.OpenSubscriptionStatuses), start, end).Scan(&exists)
	return exists, err
}

func (r *SubscriptionRepository) Create(ctx context.Context, tx pgx.Tx, s *entities.Subscription) (uint64, error) {
	query := `
		INSERT INTO subscriptions (company_id, project_id, employee_id, combo_type, price, start_date, end_date, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	var id uint64
	err := tx.QueryRow(ctx, query,
		s.CompanyID, s.ProjectID, s.EmployeeID, s.ComboType, s.Price, s.StartDate, s.EndDate, s.Status, s.CreatedBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания подписки: %w", err)
	}
	return id, nil
}

func (r *SubscriptionRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uint64, status entities.Status) error {
	return execOne(ctx, tx, "UPDATE subscriptions SET status = $1, updated_at = NOW() WHERE id = $2", status, id)
}

func (r *SubscriptionRepository) UpdateEndDate(ctx context.Context, tx pgx.Tx, id uint64, endDate time.Time) error {
	return execOne(ctx, tx, "UPDATE subscriptions SET end_date = $1, updated_at = NOW() WHERE id = $2", endDate, id)
}

func (r *SubscriptionRepository) UpdateCombo(ctx context.Context, tx pgx.Tx, id uint64, combo string, price int64) error {
	return execOne(ctx, tx, "UPDATE subscriptions SET combo_type = $1, price = $2, updated_at = NOW() WHERE id = $3", combo, price, id)
}

func (r *SubscriptionRepository) CountOrdersByStatus(ctx context.Context, id uint64) (map[entities.Status]int, error) {
	rows, err := r.storage.Query(ctx, "SELECT status, COUNT(*) FROM orders WHERE subscription_id = $1 GROUP BY status", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[entities.Status]int)
	for rows.Next() {
		var status entities.Status
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// CompleteExpired закрывает активные подписки, у которых end_date раньше before.
func (r *SubscriptionRepository) CompleteExpired(ctx context.Context, tx pgx.Tx, before time.Time) (int64, error) {
	result, err := tx.Exec(ctx,
		"UPDATE subscriptions SET status = $1, updated_at = NOW() WHERE status = $2 AND end_date < $3",
		entities.StatusCompleted, entities.StatusActive, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// ListExpiredPaused - приостановленные подписки, срок которых закончился до before.
func (r *SubscriptionRepository) ListExpiredPaused(ctx context.Context, tx pgx.Tx, before time.Time) ([]entities.Subscription, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE s.status = $1 AND s.end_date < $2 ORDER BY s.id FOR UPDATE OF s",
		subscriptionSelectFields, subscriptionFrom)
	rows, err := pick(tx, r.storage).Query(ctx, query, entities.StatusPaused, before)
	if err != nil {
		return nil, err
	}
	return collectSubscriptions(rows)
}

func execOne(ctx context.Context, q querier, query string, args ...interface{}) error {
	result, err := q.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func statusStrings(statuses []entities.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
