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

const userSelectFields = `u.id, u.company_id, u.project_id, u.full_name, u.phone, u.email, u.password_hash, u.role,
	u.is_active, u.last_login_at, c.name, u.created_at, u.updated_at, u.deleted_at`

const userFrom = "users u LEFT JOIN companies c ON c.id = u.company_id"

var userAllowedFields = map[string]string{
	"id":         "u.id",
	"full_name":  "u.full_name",
	"role":       "u.role",
	"company_id": "u.company_id",
	"project_id": "u.project_id",
	"is_active":  "u.is_active",
	"created_at": "u.created_at",
}

// ErrDuplicateLogin - телефон или email уже заняты.
var ErrDuplicateLogin = errors.New("телефон или email уже используется")

type UserRepositoryInterface interface {
	GetAll(ctx context.Context, scope Scope, filter types.Filter) ([]entities.User, uint64, error)
	FindByID(ctx context.Context, id uint64) (*entities.User, error)
	FindByLogin(ctx context.Context, login string) (*entities.User, error)
	Create(ctx context.Context, user *entities.User) (uint64, error)
	Update(ctx context.Context, user *entities.User) error
	UpdatePassword(ctx context.Context, id uint64, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id uint64, at time.Time) error
	Delete(ctx context.Context, id uint64) error
}

type UserRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUserRepository(storage *pgxpool.Pool, logger *zap.Logger) UserRepositoryInterface {
	return &UserRepository{storage: storage, logger: logger}
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var u entities.User
	err := row.Scan(
		&u.ID, &u.CompanyID, &u.ProjectID, &u.FullName, &u.Phone, &u.Email, &u.PasswordHash, &u.Role,
		&u.IsActive, &u.LastLoginAt, &u.CompanyName, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetAll(ctx context.Context, scope Scope, filter types.Filter) ([]entities.User, uint64, error) {
	base := psql.Select().From(userFrom).Where(sq.Eq{"u.deleted_at": nil})
	base = applyScope(base, scope, "u.company_id", "u.project_id")
	base = db.ApplySearch(base, filter.Search, "u.full_name", "u.phone", "u.email")

	countBuilder := db.ApplyListParams(base.Columns("COUNT(u.id)"), filter.WithoutPagination(), userAllowedFields)
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта пользователей: %w", err)
	}
	if total == 0 {
		return []entities.User{}, 0, nil
	}

	selectBuilder := db.ApplyListParams(base.Columns(userSelectFields), filter, userAllowedFields)
	if len(filter.Sort) == 0 {
		selectBuilder = selectBuilder.OrderBy("u.id DESC")
	}
	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения пользователей: %w", err)
	}
	defer rows.Close()

	users := make([]entities.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*entities.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE u.id = $1 AND u.deleted_at IS NULL", userSelectFields, userFrom)
	return scanUser(r.storage.QueryRow(ctx, query, id))
}

// FindByLogin ищет по телефону или email.
func (r *UserRepository) FindByLogin(ctx context.Context, login string) (*entities.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE (u.phone = $1 OR LOWER(u.email) = LOWER($1)) AND u.deleted_at IS NULL LIMIT 1",
		userSelectFields, userFrom)
	return scanUser(r.storage.QueryRow(ctx, query, login))
}

func (r *UserRepository) Create(ctx context.Context, u *entities.User) (uint64, error) {
	query := `
		INSERT INTO users (company_id, project_id, full_name, phone, email, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	var id uint64
	err := r.storage.QueryRow(ctx, query,
		u.CompanyID, u.ProjectID, u.FullName, u.Phone, u.Email, u.PasswordHash, u.Role, u.IsActive,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateLogin
		}
		return 0, fmt.Errorf("ошибка создания пользователя: %w", err)
	}
	return id, nil
}

func (r *UserRepository) Update(ctx context.Context, u *entities.User) error {
	query := `
		UPDATE users SET project_id = $1, full_name = $2, phone = $3, email = $4, role = $5, is_active = $6, updated_at = NOW()
		WHERE id = $7 AND deleted_at IS NULL`
	result, err := r.storage.Exec(ctx, query, u.ProjectID, u.FullName, u.Phone, u.Email, u.Role, u.IsActive, u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateLogin
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	return execOne(ctx, r.storage, "UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL", passwordHash, id)
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uint64, at time.Time) error {
	return execOne(ctx, r.storage, "UPDATE users SET last_login_at = $1 WHERE id = $2", at, id)
}

// Delete - мягкое удаление; телефон и email освобождаются для новых пользователей.
func (r *UserRepository) Delete(ctx context.Context, id uint64) error {
	return execOne(ctx, r.storage, `
		UPDATE users SET deleted_at = NOW(), updated_at = NOW(), is_active = FALSE,
			phone = phone || '#deleted-' || id::text, email = NULL
		WHERE id = $1 AND deleted_at IS NULL`, id)
}
