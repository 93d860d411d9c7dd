package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"yalla-business/internal/entities"
	db "yalla-business/internal/infrastructure/bd"
	apperrors "yalla-business/pkg/errors"
	"yalla-business/pkg/types"
)

const documentSelectFields = "d.id, d.company_id, d.name, d.file_path, d.mime_type, d.size_bytes, d.uploaded_by, d.created_at"

var documentAllowedFields = map[string]string{
	"id":         "d.id",
	"name":       "d.name",
	"mime_type":  "d.mime_type",
	"created_at": "d.created_at",
}

type DocumentRepositoryInterface interface {
	GetAll(ctx context.Context, scope Scope, filter types.Filter) ([]entities.Document, uint64, error)
	FindByID(ctx context.Context, id uint64) (*entities.Document, error)
	Create(ctx context.Context, doc *entities.Document) (uint64, error)
	Delete(ctx context.Context, id uint64) error
}

type DocumentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewDocumentRepository(storage *pgxpool.Pool, logger *zap.Logger) DocumentRepositoryInterface {
	return &DocumentRepository{storage: storage, logger: logger}
}

func scanDocument(row pgx.Row) (*entities.Document, error) {
	var d entities.Document
	if err := row.Scan(&d.ID, &d.CompanyID, &d.Name, &d.FilePath, &d.MimeType, &d.SizeBytes, &d.UploadedBy, &d.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *DocumentRepository) GetAll(ctx context.Context, scope Scope, filter types.Filter) ([]entities.Document, uint64, error) {
	base := psql.Select().From("documents d")
	base = applyScope(base, scope, "d.company_id", "")
	base = db.ApplySearch(base, filter.Search, "d.name")

	countQuery, countArgs, err := base.Columns("COUNT(d.id)").ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта документов: %w", err)
	}
	if total == 0 {
		return []entities.Document{}, 0, nil
	}

	selectBuilder := db.ApplyListParams(base.Columns(documentSelectFields), filter, documentAllowedFields)
	if len(filter.Sort) == 0 {
		selectBuilder = selectBuilder.OrderBy("d.created_at DESC")
	}
	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения документов: %w", err)
	}
	defer rows.Close()

	docs := make([]entities.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, *d)
	}
	return docs, total, rows.Err()
}

func (r *DocumentRepository) FindByID(ctx context.Context, id uint64) (*entities.Document, error) {
	query := fmt.Sprintf("SELECT %s FROM documents d WHERE d.id = $1", documentSelectFields)
	return scanDocument(r.storage.QueryRow(ctx, query, id))
}

func (r *DocumentRepository) Create(ctx context.Context, d *entities.Document) (uint64, error) {
	var id uint64
	err := r.storage.QueryRow(ctx, `
		INSERT INTO documents (company_id, name, file_path, mime_type, size_bytes, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		d.CompanyID, d.Name, d.FilePath, d.MimeType, d.SizeBytes, d.UploadedBy).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка сохранения документа: %w", err)
	}
	return id, nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id uint64) error {
	return execOne(ctx, r.storage, "DELETE FROM documents WHERE id = $1", id)
}
