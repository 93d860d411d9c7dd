package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"yalla-business/internal/entities"
	db "yalla-business/internal/infrastructure/bd"
	"yalla-business/pkg/types"
)

const compensationSelectFields = `c.id, c.company_id, c.project_id, c.employee_id, c.amount, c.restaurant, c.description,
	c.transaction_date, c.created_by, c.created_at, e.full_name`

const compensationFrom = "compensation_transactions c JOIN employees e ON e.id = c.employee_id"

var compensationAllowedFields = map[string]string{
	"id":               "c.id",
	"employee_id":      "c.employee_id",
	"project_id":       "c.project_id",
	"amount":           "c.amount",
	"restaurant":       "c.restaurant",
	"transaction_date": "c.transaction_date",
	"created_at":       "c.created_at",
}

type CompensationRepositoryInterface interface {
	Create(ctx context.Context, tx pgx.Tx, t *entities.CompensationTransaction) (uint64, error)
	GetAll(ctx context.Context, scope Scope, filter types.Filter) ([]entities.CompensationTransaction, uint64, error)
	SumForEmployee(ctx context.Context, tx pgx.Tx, employeeID uint64, from, to time.Time) (int64, error)
}

type CompensationRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewCompensationRepository(storage *pgxpool.Pool, logger *zap.Logger) CompensationRepositoryInterface {
	return &CompensationRepository{storage: storage, logger: logger}
}

func (r *CompensationRepository) Create(ctx context.Context, tx pgx.Tx, t *entities.CompensationTransaction) (uint64, error) {
	query := `
		INSERT INTO compensation_transactions (company_id, project_id, employee_id, amount, restaurant, description, transaction_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	var id uint64
	err := tx.QueryRow(ctx, query,
		t.CompanyID, t.ProjectID, t.EmployeeID, t.Amount, t.Restaurant, t.Description, t.TransactionDate, t.CreatedBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания компенсации: %w", err)
	}
	return id, nil
}

func (r *CompensationRepository) GetAll(ctx context.Context, scope Scope, filter types.Filter) ([]entities.CompensationTransaction, uint64, error) {
	base := psql.Select().From(compensationFrom)
	base = applyScope(base, scope, "c.company_id", "c.project_id")
	base = db.ApplySearch(base, filter.Search, "e.full_name", "c.restaurant")
	base = db.ApplyDateRange(base, filter, "c.transaction_date")

	countBuilder := db.ApplyListParams(base.Columns("COUNT(c.id)"), filter.WithoutPagination(), compensationAllowedFields)
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта компенсаций: %w", err)
	}
	if total == 0 {
		return []entities.CompensationTransaction{}, 0, nil
	}

	selectBuilder := db.ApplyListParams(base.Columns(compensationSelectFields), filter, compensationAllowedFields)
	if len(filter.Sort) == 0 {
		selectBuilder = selectBuilder.OrderBy("c.transaction_date DESC", "c.id DESC")
	}
	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения компенсаций: %w", err)
	}
	defer rows.Close()

	list := make([]entities.CompensationTransaction, 0)
	for rows.Next() {
		var t entities.CompensationTransaction
		if err := rows.Scan(
			&t.ID, &t.CompanyID, &t.ProjectID, &t.EmployeeID, &t.Amount, &t.Restaurant, &t.Description,
			&t.TransactionDate, &t.CreatedBy, &t.CreatedAt, &t.EmployeeName,
		); err != nil {
			return nil, 0, err
		}
		list = append(list, t)
	}
	return list, total, rows.Err()
}

// SumForEmployee - потрачено сотрудником за [from, to).
func (r *CompensationRepository) SumForEmployee(ctx context.Context, tx pgx.Tx, employeeID uint64, from, to time.Time) (int64, error) {
	var sum int64
	err := pick(tx, r.storage).QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM compensation_transactions
		WHERE employee_id = $1 AND transaction_date >= $2 AND transaction_date < $3`,
		employeeID, from, to).Scan(&sum)
	return sum, err
}
