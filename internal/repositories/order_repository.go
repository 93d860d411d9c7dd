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

const orderSelectFields = `o.id, o.company_id, o.project_id, o.employee_id, o.subscription_id, o.order_type, o.guest_name,
	o.quantity, o.order_date, o.combo_type, o.price, o.status, o.is_replacement, o.freeze_reason, o.frozen_at,
	o.created_at, o.updated_at, e.full_name, p.name`

const orderFrom = "orders o LEFT JOIN employees e ON e.id = o.employee_id JOIN projects p ON p.id = o.project_id"

var orderAllowedFields = map[string]string{
	"id":              "o.id",
	"status":          "o.status",
	"order_type":      "o.order_type",
	"type":            "o.order_type",
	"project_id":      "o.project_id",
	"employee_id":     "o.employee_id",
	"subscription_id": "o.subscription_id",
	"combo_type":      "o.combo_type",
	"order_date":      "o.order_date",
	"date":            "o.order_date",
	"is_replacement":  "o.is_replacement",
	"created_at":      "o.created_at",
}

var orderCopyColumns = []string{
	"company_id", "project_id", "employee_id", "subscription_id", "order_type", "guest_name",
	"quantity", "order_date", "combo_type", "price", "status", "is_replacement",
}

type OrderRepositoryInterface interface {
	GetAll(ctx context.Context, scope Scope, filter types.Filter) ([]entities.Order, uint64, error)
	FindByID(ctx context.Context, id uint64) (*entities.Order, error)
	FindForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Order, error)
	Create(ctx context.Context, tx pgx.Tx, order *entities.Order) (uint64, error)
	CreateBatch(ctx context.Context, tx pgx.Tx, orders []entities.Order) (int64, error)
	ListBySubscription(ctx context.Context, tx pgx.Tx, subscriptionID uint64, from time.Time, statuses []entities.Status) ([]entities.Order, error)
	CountFrozenInRange(ctx context.Context, tx pgx.Tx, employeeID uint64, from, to time.Time) (int, error)
	FindLatestReplacement(ctx context.Context, tx pgx.Tx, subscriptionID, excludeID uint64) (*entities.Order, error)
	MaxOrderDate(ctx context.Context, tx pgx.Tx, subscriptionID uint64) (*time.Time, error)
	Freeze(ctx context.Context, tx pgx.Tx, id uint64, reason *string, at time.Time) error
	Unfreeze(ctx context.Context, tx pgx.Tx, id uint64) error
	UpdateStatus(ctx context.Context, tx pgx.Tx, ids []uint64, status entities.Status) (int64, error)
	UpdateCombo(ctx context.Context, tx pgx.Tx, ids []uint64, combo string, price int64) (int64, error)
	Delete(ctx context.Context, tx pgx.Tx, id uint64) error
	CompleteDue(ctx context.Context, tx pgx.Tx, before time.Time) (int64, error)
}

type OrderRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewOrderRepository(storage *pgxpool.Pool, logger *zap.Logger) OrderRepositoryInterface {
	return &OrderRepository{storage: storage, logger: logger}
}

func scanOrder(row pgx.Row) (*entities.Order, error) {
	var o entities.Order
	err := row.Scan(
		&o.ID, &o.CompanyID, &o.ProjectID, &o.EmployeeID, &o.SubscriptionID, &o.OrderType, &o.GuestName,
		&o.Quantity, &o.OrderDate, &o.ComboType, &o.Price, &o.Status, &o.IsReplacement, &o.FreezeReason, &o.FrozenAt,
		&o.CreatedAt, &o.UpdatedAt, &o.EmployeeName, &o.ProjectName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]entities.Order, error) {
	defer rows.Close()
	orders := make([]entities.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *OrderRepository) GetAll(ctx context.Context, scope Scope, filter types.Filter) ([]entities.Order, uint64, error) {
	base := psql.Select().From(orderFrom)
	base = applyScope(base, scope, "o.company_id", "o.project_id")
	base = db.ApplySearch(base, filter.Search, "e.full_name", "o.guest_name", "o.combo_type")
	base = db.ApplyDateRange(base, filter, "o.order_date")

	countBuilder := db.ApplyListParams(base.Columns("COUNT(o.id)"), filter.WithoutPagination(), orderAllowedFields)
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта заказов: %w", err)
	}
	if total == 0 {
		return []entities.Order{}, 0, nil
	}

	selectBuilder := db.ApplyListParams(base.Columns(orderSelectFields), filter, orderAllowedFields)
	if len(filter.Sort) == 0 {
		selectBuilder = selectBuilder.OrderBy("o.order_date DESC", "o.id DESC")
	}
	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	r.logger.Debug("Запрос списка заказов", zap.String("query", query), zap.Any("args", args))
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения заказов: %w", err)
	}
	orders, err := collectOrders(rows)
	return orders, total, err
}

func (r *OrderRepository) FindByID(ctx context.Context, id uint64) (*entities.Order, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE o.id = $1", orderSelectFields, orderFrom)
	return scanOrder(r.storage.QueryRow(ctx, query, id))
}

func (r *OrderRepository) FindForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Order, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE o.id = $1 FOR UPDATE OF o", orderSelectFields, orderFrom)
	return scanOrder(tx.QueryRow(ctx, query, id))
}

func (r *OrderRepository) Create(ctx context.Context, tx pgx.Tx, o *entities.Order) (uint64, error) {
	query := `
		INSERT INTO orders (company_id, project_id, employee_id, subscription_id, order_type, guest_name,
			quantity, order_date, combo_type, price, status, is_replacement)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	var id uint64
	err := tx.QueryRow(ctx, query,
		o.CompanyID, o.ProjectID, o.EmployeeID, o.SubscriptionID, o.OrderType, o.GuestName,
		o.Quantity, o.OrderDate, o.ComboType, o.Price, o.Status, o.IsReplacement,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания заказа: %w", err)
	}
	return id, nil
}

// CreateBatch вставляет заказы подписки через COPY.
func (r *OrderRepository) CreateBatch(ctx context.Context, tx pgx.Tx, orders []entities.Order) (int64, error) {
	if len(orders) == 0 {
		return 0, nil
	}
	rows := make([][]interface{}, len(orders))
	for i, o := range orders {
		rows[i] = []interface{}{
			o.CompanyID, o.ProjectID, o.EmployeeID, o.SubscriptionID, string(o.OrderType), o.GuestName,
			o.Quantity, o.OrderDate, o.ComboType, o.Price, string(o.Status), o.IsReplacement,
		}
	}
	n, err := tx.CopyFrom(ctx, pgx.Identifier{"orders"}, orderCopyColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("ошибка создания заказов: %w", err)
	}
	return n, nil
}

// ListBySubscription - заказы подписки начиная с даты from в указанных статусах, по возрастанию даты.
func (r *OrderRepository) ListBySubscription(ctx context.Context, tx pgx.Tx, subscriptionID uint64, from time.Time, statuses []entities.Status) ([]entities.Order, error) {
	b := psql.Select(orderSelectFields).From(orderFrom).
		Where(sq.Eq{"o.subscription_id": subscriptionID}).
		Where(sq.GtOrEq{"o.order_date": from}).
		OrderBy("o.order_date ASC")
	if len(statuses) > 0 {
		b = b.Where(sq.Eq{"o.status": statusStrings(statuses)})
	}
	query, args, err := b.Suffix("FOR UPDATE OF o").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := pick(tx, r.storage).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// CountFrozenInRange - сколько заказов сотрудника заморожено на даты [from, to).
func (r *OrderRepository) CountFrozenInRange(ctx context.Context, tx pgx.Tx, employeeID uint64, from, to time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM orders WHERE employee_id = $1 AND status = $2 AND order_date >= $3 AND order_date < $4`
	var n int
	err := pick(tx, r.storage).QueryRow(ctx, query, employeeID, entities.StatusFrozen, from, to).Scan(&n)
	return n, err
}

// FindLatestReplacement - последний активный заменяющий заказ подписки, кроме excludeID.
func (r *OrderRepository) FindLatestReplacement(ctx context.Context, tx pgx.Tx, subscriptionID, excludeID uint64) (*entities.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE o.subscription_id = $1 AND o.is_replacement AND o.status = $2 AND o.id <> $3
		ORDER BY o.order_date DESC, o.id DESC LIMIT 1 FOR UPDATE OF o`, orderSelectFields, orderFrom)
	return scanOrder(tx.QueryRow(ctx, query, subscriptionID, entities.StatusActive, excludeID))
}

// MaxOrderDate - последняя дата заказа подписки без учёта отменённых. nil, если заказов нет.
func (r *OrderRepository) MaxOrderDate(ctx context.Context, tx pgx.Tx, subscriptionID uint64) (*time.Time, error) {
	var max *time.Time
	err := pick(tx, r.storage).QueryRow(ctx,
		"SELECT MAX(order_date) FROM orders WHERE subscription_id = $1 AND status <> $2",
		subscriptionID, entities.StatusCancelled).Scan(&max)
	return max, err
}

func (r *OrderRepository) Freeze(ctx context.Context, tx pgx.Tx, id uint64, reason *string, at time.Time) error {
	return execOne(ctx, tx,
		"UPDATE orders SET status = $1, freeze_reason = $2, frozen_at = $3, updated_at = NOW() WHERE id = $4",
		entities.StatusFrozen, reason, at, id)
}

func (r *OrderRepository) Unfreeze(ctx context.Context, tx pgx.Tx, id uint64) error {
	return execOne(ctx, tx,
		"UPDATE orders SET status = $1, freeze_reason = NULL, frozen_at = NULL, updated_at = NOW() WHERE id = $2",
		entities.StatusActive, id)
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, ids []uint64, status entities.Status) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := tx.Exec(ctx, "UPDATE orders SET status = $1, updated_at = NOW() WHERE id = ANY($2)", status, ids)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

func (r *OrderRepository) UpdateCombo(ctx context.Context, tx pgx.Tx, ids []uint64, combo string, price int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := tx.Exec(ctx, "UPDATE orders SET combo_type = $1, price = $2, updated_at = NOW() WHERE id = ANY($3)", combo, price, ids)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

func (r *OrderRepository) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	return execOne(ctx, tx, "DELETE FROM orders WHERE id = $1", id)
}

// CompleteDue переводит активные заказы с датой раньше before в "Выполнен".
func (r *OrderRepository) CompleteDue(ctx context.Context, tx pgx.Tx, before time.Time) (int64, error) {
	result, err := tx.Exec(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE status = $2 AND order_date < $3",
		entities.StatusCompleted, entities.StatusActive, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
