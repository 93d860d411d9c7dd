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

const companySelectFields = "c.id, c.name, c.bin, c.phone, c.email, c.address, c.balance, c.allow_overdraft, c.overdraft_limit, c.status, c.created_at, c.updated_at, c.deleted_at"

var companyAllowedFields = map[string]string{
	"id":         "c.id",
	"name":       "c.name",
	"status":     "c.status",
	"balance":    "c.balance",
	"created_at": "c.created_at",
}

type CompanyRepositoryInterface interface {
	GetAll(ctx context.Context, filter types.Filter) ([]entities.Company, uint64, error)
	FindByID(ctx context.Context, id uint64) (*entities.Company, error)
	FindByIDTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Company, error)
	ListActiveIDs(ctx context.Context) ([]uint64, error)
	Create(ctx context.Context, tx pgx.Tx, company *entities.Company) (uint64, error)
	Update(ctx context.Context, company *entities.Company) error
	UpdateStatus(ctx context.Context, id uint64, status string) error
	Delete(ctx context.Context, id uint64) error
}

type CompanyRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewCompanyRepository(storage *pgxpool.Pool, logger *zap.Logger) CompanyRepositoryInterface {
	return &CompanyRepository{storage: storage, logger: logger}
}

func scanCompany(row pgx.Row) (*entities.Company, error) {
	var c entities.Company
	err := row.Scan(
		&c.ID, &c.Name, &c.BIN, &c.Phone, &c.Email, &c.Address,
		&c.Balance, &c.AllowOverdraft, &c.OverdraftLimit, &c.Status,
		&c.CreatedAt, &c.UpdatedAt, &c.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CompanyRepository) GetAll(ctx context.Context, filter types.Filter) ([]entities.Company, uint64, error) {
	base := psql.Select().From("companies c").Where(sq.Eq{"c.deleted_at": nil})
	base = db.ApplySearch(base, filter.Search, "c.name", "c.bin", "c.phone", "c.email")

	countQuery, countArgs, err := base.Columns("COUNT(c.id)").ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта компаний: %w", err)
	}
	if total == 0 {
		return []entities.Company{}, 0, nil
	}

	selectBuilder := db.ApplyListParams(base.Columns(companySelectFields), filter, companyAllowedFields)
	if len(filter.Sort) == 0 {
		selectBuilder = selectBuilder.OrderBy("c.id DESC")
	}
	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения компаний: %w", err)
	}
	defer rows.Close()

	companies := make([]entities.Company, 0)
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, 0, err
		}
		companies = append(companies, *c)
	}
	return companies, total, rows.Err()
}

func (r *CompanyRepository) FindByID(ctx context.Context, id uint64) (*entities.Company, error) {
	return r.FindByIDTx(ctx, nil, id)
}

func (r *CompanyRepository) FindByIDTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Company, error) {
	query := fmt.Sprintf("SELECT %s FROM companies c WHERE c.id = $1 AND c.deleted_at IS NULL", companySelectFields)
	return scanCompany(pick(tx, r.storage).QueryRow(ctx, query, id))
}

func (r *CompanyRepository) ListActiveIDs(ctx context.Context) ([]uint64, error) {
	rows, err := r.storage.Query(ctx, "SELECT id FROM companies WHERE deleted_at IS NULL AND status = $1 ORDER BY id", entities.CompanyStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Create создаёт компанию с нулевым балансом. Начальный бюджет зачисляется
// отдельной записью в журнале в той же транзакции.
func (r *CompanyRepository) Create(ctx context.Context, tx pgx.Tx, c *entities.Company) (uint64, error) {
	query := `
		INSERT INTO companies (name, bin, phone, email, address, allow_overdraft, overdraft_limit, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	var id uint64
	err := pick(tx, r.storage).QueryRow(ctx, query,
		c.Name, c.BIN, c.Phone, c.Email, c.Address, c.AllowOverdraft, c.OverdraftLimit, c.Status,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания компании: %w", err)
	}
	return id, nil
}

func (r *CompanyRepository) Update(ctx context.Context, c *entities.Company) error {
	query := `
		UPDATE companies SET name = $1, bin = $2, phone = $3, email = $4, address = $5,
			allow_overdraft = $6, overdraft_limit = $7, updated_at = NOW()
		WHERE id = $8 AND deleted_at IS NULL`
	result, err := r.storage.Exec(ctx, query,
		c.Name, c.BIN, c.Phone, c.Email, c.Address, c.AllowOverdraft, c.OverdraftLimit, c.ID,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *CompanyRepository) UpdateStatus(ctx context.Context, id uint64, status string) error {
	result, err := r.storage.Exec(ctx, "UPDATE companies SET status = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL", status, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *CompanyRepository) Delete(ctx context.Context, id uint64) error {
	result, err := r.storage.Exec(ctx, "UPDATE companies SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL", id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
