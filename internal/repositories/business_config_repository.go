package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"yalla-business/internal/entities"
	apperrors "yalla-business/pkg/errors"
)

type BusinessConfigRepositoryInterface interface {
	GetAll(ctx context.Context) ([]entities.ConfigEntry, error)
	Get(ctx context.Context, key string) (*entities.ConfigEntry, error)
	Upsert(ctx context.Context, entry *entities.ConfigEntry) error
	// InsertMissing добавляет только отсутствующие ключи, существующие значения не трогает.
	InsertMissing(ctx context.Context, entries []entities.ConfigEntry) (int64, error)
}

type BusinessConfigRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewBusinessConfigRepository(storage *pgxpool.Pool, logger *zap.Logger) BusinessConfigRepositoryInterface {
	return &BusinessConfigRepository{storage: storage, logger: logger}
}

func scanConfigEntry(row pgx.Row) (*entities.ConfigEntry, error) {
	var e entities.ConfigEntry
	if err := row.Scan(&e.Key, &e.Value, &e.Description, &e.UpdatedBy, &e.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *BusinessConfigRepository) GetAll(ctx context.Context) ([]entities.ConfigEntry, error) {
	rows, err := r.storage.Query(ctx, "SELECT key, value, description, updated_by, updated_at FROM business_config ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения настроек: %w", err)
	}
	defer rows.Close()

	entries := make([]entities.ConfigEntry, 0)
	for rows.Next() {
		e, err := scanConfigEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (r *BusinessConfigRepository) Get(ctx context.Context, key string) (*entities.ConfigEntry, error) {
	return scanConfigEntry(r.storage.QueryRow(ctx,
		"SELECT key, value, description, updated_by, updated_at FROM business_config WHERE key = $1", key))
}

func (r *BusinessConfigRepository) Upsert(ctx context.Context, e *entities.ConfigEntry) error {
	_, err := r.storage.Exec(ctx, `
		INSERT INTO business_config (key, value, description, updated_by, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value,
			description = COALESCE(EXCLUDED.description, business_config.description),
			updated_by = EXCLUDED.updated_by, updated_at = NOW()`,
		e.Key, e.Value, e.Description, e.UpdatedBy)
	return err
}

func (r *BusinessConfigRepository) InsertMissing(ctx context.Context, entries []entities.ConfigEntry) (int64, error) {
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`INSERT INTO business_config (key, value, description) VALUES ($1, $2, $3) ON CONFLICT (key) DO NOTHING`,
			e.Key, e.Value, e.Description)
	}
	results := r.storage.SendBatch(ctx, batch)
	defer results.Close()

	var inserted int64
	for range entries {
		tag, err := results.Exec()
		if err != nil {
			return inserted, err
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}
