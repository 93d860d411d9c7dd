package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"yalla-business/internal/entities"
	db "yalla-business/internal/infrastructure/bd"
	apperrors "yalla-business/pkg/errors"
	"yalla-business/pkg/types"
)

const projectSelectFields = `p.id, p.company_id, p.name, p.address, p.service_type, p.cutoff_time, p.compensation_limit,
	(SELECT COUNT(*) FROM employees e WHERE e.project_id = p.id AND e.deleted_at IS NULL AND e.is_active) AS employees_count,
	p.created_at, p.updated_at, p.deleted_at`

var projectAllowedFields = map[string]string{
	"id":           "p.id",
	"name":         "p.name",
	"service_type": "p.service_type",
	"company_id":   "p.company_id",
	"created_at":   "p.created_at",
}

type ProjectRepositoryInterface interface {
	GetAll(ctx context.Context, scope Scope, filter types.Filter) ([]entities.Project, uint64, error)
	FindByID(ctx context.Context, id uint64) (*entities.Project, error)
	Create(ctx context.Context, project *entities.Project) (uint64, error)
	Update(ctx context.Context, project *entities.Project) error
	Delete(ctx context.Context, id uint64) error
	CountEmployees(ctx context.Context, projectID uint64, onlyActive bool) (int, error)
}

type ProjectRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewProjectRepository(storage *pgxpool.Pool, logger *zap.Logger) ProjectRepositoryInterface {
	return &ProjectRepository{storage: storage, logger: logger}
}

func scanProject(row pgx.Row) (*entities.Project, error) {
	var p entities.Project
	err := row.Scan(
		&p.ID, &p.CompanyID, &p.Name, &p.Address, &p.ServiceType, &p.CutoffTime, &p.CompensationLimit,
		&p.EmployeesCount, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepository) GetAll(ctx context.Context, scope Scope, filter types.Filter) ([]entities.Project, uint64, error) {
	base := psql.Select().From("projects p").Where(sq.Eq{"p.deleted_at": nil})
	base = applyScope(base, scope, "p.company_id", "p.id")
	base = db.ApplySearch(base, filter.Search, "p.name", "p.address")

	countQuery, countArgs, err := base.Columns("COUNT(p.id)").ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта проектов: %w", err)
	}
	if total == 0 {
		return []entities.Project{}, 0, nil
	}

	selectBuilder := db.ApplyListParams(base.Columns(projectSelectFields), filter, projectAllowedFields)
	if len(filter.Sort) == 0 {
		selectBuilder = selectBuilder.OrderBy("p.name ASC")
	}
	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения проектов: %w", err)
	}
	defer rows.Close()

	projects := make([]entities.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		projects = append(projects, *p)
	}
	return projects, total, rows.Err()
}

func (r *ProjectRepository) FindByID(ctx context.Context, id uint64) (*entities.Project, error) {
	query := fmt.Sprintf("SELECT %s FROM projects p WHERE p.id = $1 AND p.deleted_at IS NULL", projectSelectFields)
	return scanProject(r.storage.QueryRow(ctx, query, id))
}

func (r *ProjectRepository) Create(ctx context.Context, p *entities.Project) (uint64, error) {
	query := `
		INSERT INTO projects (company_id, name, address, service_type, cutoff_time, compensation_limit)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	var id uint64
	err := r.storage.QueryRow(ctx, query,
		p.CompanyID, p.Name, p.Address, p.ServiceType, p.CutoffTime, p.CompensationLimit,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания проекта: %w", err)
	}
	return id, nil
}

// Update не трогает адрес: после создания он не меняется.
func (r *ProjectRepository) Update(ctx context.Context, p *entities.Project) error {
	query := `
		UPDATE projects SET name = $1, service_type = $2, cutoff_time = $3, compensation_limit = $4, updated_at = NOW()
		WHERE id = $5 AND deleted_at IS NULL`
	result, err := r.storage.Exec(ctx, query, p.Name, p.ServiceType, p.CutoffTime, p.CompensationLimit, p.ID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id uint64) error {
	result, err := r.storage.Exec(ctx, "UPDATE projects SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL", id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *ProjectRepository) CountEmployees(ctx context.Context, projectID uint64, onlyActive bool) (int, error) {
	b := psql.Select("COUNT(*)").From("employees").
		Where(sq.Eq{"project_id": projectID, "deleted_at": nil})
	if onlyActive {
		b = b.Where(sq.Eq{"is_active": true})
	}
	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.storage.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
