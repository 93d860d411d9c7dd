package repositories

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"yalla-business/internal/entities"
)

// Статусы заказов, которые считаются расходом компании.
var spendStatuses = []entities.Status{entities.StatusActive, entities.StatusCompleted}

type DashboardRepositoryInterface interface {
	GetEmployeeCounts(ctx context.Context, scope Scope) (*entities.EmployeeCounts, error)
	CountActiveSubscriptions(ctx context.Context, scope Scope) (int, error)
	CountOrdersByStatus(ctx context.Context, scope Scope, date time.Time) (map[entities.Status]int, error)
	CountGuestPortions(ctx context.Context, scope Scope, date time.Time) (int, error)
	CountFrozen(ctx context.Context, scope Scope, from, to time.Time) (int, error)
	SpendByDay(ctx context.Context, scope Scope, from, to time.Time) ([]entities.DailyAmount, error)
}

type DashboardRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewDashboardRepository(storage *pgxpool.Pool, logger *zap.Logger) DashboardRepositoryInterface {
	return &DashboardRepository{storage: storage, logger: logger}
}

func (r *DashboardRepository) GetEmployeeCounts(ctx context.Context, scope Scope) (*entities.EmployeeCounts, error) {
	b := psql.Select("COUNT(*)", "COUNT(*) FILTER (WHERE is_active)").From("employees").Where(sq.Eq{"deleted_at": nil})
	b = applyScope(b, scope, "company_id", "project_id")
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	counts := &entities.EmployeeCounts{}
	err = r.storage.QueryRow(ctx, query, args...).Scan(&counts.Total, &counts.Active)
	return counts, err
}

func (r *DashboardRepository) CountActiveSubscriptions(ctx context.Context, scope Scope) (int, error) {
	b := psql.Select("COUNT(*)").From("subscriptions").Where(sq.Eq{"status": string(entities.StatusActive)})
	b = applyScope(b, scope, "company_id", "project_id")
	return r.count(ctx, b)
}

func (r *DashboardRepository) CountOrdersByStatus(ctx context.Context, scope Scope, date time.Time) (map[entities.Status]int, error) {
	b := psql.Select("status", "COUNT(*)").From("orders").
		Where(sq.Eq{"order_date": date, "order_type": string(entities.OrderTypeSubscription)}).
		GroupBy("status")
	b = applyScope(b, scope, "company_id", "project_id")
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
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

func (r *DashboardRepository) CountGuestPortions(ctx context.Context, scope Scope, date time.Time) (int, error) {
	b := psql.Select("COALESCE(SUM(quantity), 0)").From("orders").
		Where(sq.Eq{"order_date": date, "order_type": string(entities.OrderTypeGuest)}).
		Where(sq.NotEq{"status": string(entities.StatusCancelled)})
	b = applyScope(b, scope, "company_id", "project_id")
	return r.count(ctx, b)
}

func (r *DashboardRepository) CountFrozen(ctx context.Context, scope Scope, from, to time.Time) (int, error) {
	b := psql.Select("COUNT(*)").From("orders").
		Where(sq.Eq{"status": string(entities.StatusFrozen)}).
		Where(sq.GtOrEq{"order_date": from}).
		Where(sq.Lt{"order_date": to})
	b = applyScope(b, scope, "company_id", "project_id")
	return r.count(ctx, b)
}

// SpendByDay - расход по дням за [from, to): питание по заказам плюс компенсации.
// Дни без расхода в ответ не попадают, нули добивает сервис.
func (r *DashboardRepository) SpendByDay(ctx context.Context, scope Scope, from, to time.Time) ([]entities.DailyAmount, error) {
	ordersPart := psql.Select("order_date AS day", "price * quantity AS amount").From("orders").
		Where(sq.Eq{"status": statusStrings(spendStatuses)}).
		Where(sq.GtOrEq{"order_date": from}).
		Where(sq.Lt{"order_date": to})
	ordersPart = applyScope(ordersPart, scope, "company_id", "project_id")

	compPart := sq.Select("transaction_date AS day", "amount").From("compensation_transactions").
		Where(sq.GtOrEq{"transaction_date": from}).
		Where(sq.Lt{"transaction_date": to})
	compPart = applyScope(compPart, scope, "company_id", "project_id")

	compSQL, compArgs, err := compPart.ToSql()
	if err != nil {
		return nil, err
	}

	union := ordersPart.Suffix("UNION ALL "+compSQL, compArgs...)
	query, args, err := psql.Select("day", "SUM(amount)").
		FromSelect(union, "spend").
		GroupBy("day").
		OrderBy("day").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]entities.DailyAmount, 0)
	for rows.Next() {
		var d entities.DailyAmount
		if err := rows.Scan(&d.Date, &d.Amount); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (r *DashboardRepository) count(ctx context.Context, b sq.SelectBuilder) (int, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	err = r.storage.QueryRow(ctx, query, args...).Scan(&n)
	return n, err
}
