package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"yalla-business/internal/entities"
	db "yalla-business/internal/infrastructure/bd"
	apperrors "yalla-business/pkg/errors"
	"yalla-business/pkg/types"
)

const employeeSelectFields = `e.id, e.company_id, e.project_id, e.full_name, e.phone, e.position, e.shift_type, e.working_days,
	e.service_type, e.budget, e.is_active, p.name, e.created_at, e.updated_at, e.deleted_at`

const employeeFrom = "employees e JOIN projects p ON p.id = e.project_id"

var employeeAllowedFields = map[string]string{
	"id":           "e.id",
	"full_name":    "e.full_name",
	"project_id":   "e.project_id",
	"service_type": "e.service_type",
	"shift_type":   "e.shift_type",
	"is_active":    "e.is_active",
	"company_id":   "e.company_id",
	"budget":       "e.budget",
	"created_at":   "e.created_at",
}

// ErrDuplicatePhone - телефон уже занят другим сотрудником компании.
var ErrDuplicatePhone = errors.New("телефон сотрудника уже используется")

type EmployeeRepositoryInterface interface {
	GetAll(ctx context.Context, scope Scope, filter types.Filter) ([]entities.Employee, uint64, error)
	FindByID(ctx context.Context, id uint64) (*entities.Employee, error)
	FindByIDs(ctx context.Context, ids []uint64) ([]entities.Employee, error)
	LockForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Employee, error)
	ExistsByPhone(ctx context.Context, companyID uint64, phone string, excludeID uint64) (bool, error)
	Create(ctx context.Context, employee *entities.Employee) (uint64, error)
	Update(ctx context.Context, employee *entities.Employee) error
	SetActive(ctx context.Context, tx pgx.Tx, id uint64, active bool) error
}

type EmployeeRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewEmployeeRepository(storage *pgxpool.Pool, logger *zap.Logger) EmployeeRepositoryInterface {
	return &EmployeeRepository{storage: storage, logger: logger}
}

func scanEmployee(row pgx.Row) (*entities.Employee, error) {
	var e entities.Employee
	err := row.Scan(
		&e.ID, &e.CompanyID, &e.ProjectID, &e.FullName, &e.Phone, &e.Position, &e.ShiftType, &e.WorkingDays,
		&e.ServiceType, &e.Budget, &e.IsActive, &e.ProjectName, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *EmployeeRepository) GetAll(ctx context.Context, scope Scope, filter types.Filter) ([]entities.Employee, uint64, error) {
	base := psql.Select().From(employeeFrom).Where(sq.Eq{"e.deleted_at": nil})
	base = applyScope(base, scope, "e.company_id", "e.project_id")
	base = db.ApplySearch(base, filter.Search, "e.full_name", "e.phone", "e.position")

	countFilter := filter.WithoutPagination()
	countBuilder := db.ApplyListParams(base.Columns("COUNT(e.id)"), countFilter, employeeAllowedFields)
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта сотрудников: %w", err)
	}
	if total == 0 {
		return []entities.Employee{}, 0, nil
	}

	selectBuilder := db.ApplyListParams(base.Columns(employeeSelectFields), filter, employeeAllowedFields)
	if len(filter.Sort) == 0 {
		selectBuilder = selectBuilder.OrderBy("e.full_name ASC")
	}
	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	r.logger.Debug("Запрос списка сотрудников", zap.String("query", query), zap.Any("args", args))
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения сотрудников: %w", err)
	}
	defer rows.Close()

	employees := make([]entities.Employee, 0)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, err
		}
		employees = append(employees, *e)
	}
	return employees, total, rows.Err()
}

func (r *EmployeeRepository) FindByID(ctx context.Context, id uint64) (*entities.Employee, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE e.id = $1 AND e.deleted_at IS NULL", employeeSelectFields, employeeFrom)
	return scanEmployee(r.storage.QueryRow(ctx, query, id))
}

func (r *EmployeeRepository) FindByIDs(ctx context.Context, ids []uint64) ([]entities.Employee, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE e.id = ANY($1) AND e.deleted_at IS NULL ORDER BY e.id", employeeSelectFields, employeeFrom)
	rows, err := r.storage.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]entities.Employee, 0, len(ids))
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *e)
	}
	return employees, rows.Err()
}

// LockForUpdate блокирует строку сотрудника до конца транзакции. Все изменения
// заказов сотрудника (заморозка, отмена, новая подписка) идут через эту блокировку,
// поэтому параллельные запросы выполняются по очереди.
func (r *EmployeeRepository) LockForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Employee, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE e.id = $1 AND e.deleted_at IS NULL FOR UPDATE OF e", employeeSelectFields, employeeFrom)
	return scanEmployee(tx.QueryRow(ctx, query, id))
}

func (r *EmployeeRepository) ExistsByPhone(ctx context.Context, companyID uint64, phone string, excludeID uint64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM employees WHERE company_id = $1 AND phone = $2 AND id <> $3 AND deleted_at IS NULL)`
	var exists bool
	if err := r.storage.QueryRow(ctx, query, companyID, phone, excludeID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *EmployeeRepository) Create(ctx context.Context, e *entities.Employee) (uint64, error) {
	query := `
		INSERT INTO employees (company_id, project_id, full_name, phone, position, shift_type, working_days, service_type, budget, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	var id uint64
	err := r.storage.QueryRow(ctx, query,
		e.CompanyID, e.ProjectID, e.FullName, e.Phone, e.Position, e.ShiftType, e.WorkingDays, e.ServiceType, e.Budget, e.IsActive,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicatePhone
		}
		return 0, fmt.Errorf("ошибка создания сотрудника: %w", err)
	}
	return id, nil
}

func (r *EmployeeRepository) Update(ctx context.Context, e *entities.Employee) error {
	query := `
		UPDATE employees SET project_id = $1, full_name = $2, phone = $3, position = $4, shift_type = $5,
			working_days = $6, service_type = $7, budget = $8, updated_at = NOW()
		WHERE id = $9 AND deleted_at IS NULL`
	result, err := r.storage.Exec(ctx, query,
		e.ProjectID, e.FullName, e.Phone, e.Position, e.ShiftType, e.WorkingDays, e.ServiceType, e.Budget, e.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicatePhone
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *EmployeeRepository) SetActive(ctx context.Context, tx pgx.Tx, id uint64, active bool) error {
	result, err := pick(tx, r.storage).Exec(ctx,
		"UPDATE employees SET is_active = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL", active, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
