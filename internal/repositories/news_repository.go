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

// is_read считается для конкретного пользователя, поэтому userID всегда первый аргумент.
const newsSelectFields = `n.id, n.title, n.content, n.image_path, n.is_published, n.published_at, n.author_id,
	EXISTS(SELECT 1 FROM news_reads nr WHERE nr.news_id = n.id AND nr.user_id = ?) AS is_read,
	n.created_at, n.updated_at`

var newsAllowedFields = map[string]string{
	"id":           "n.id",
	"title":        "n.title",
	"is_published": "n.is_published",
	"published_at": "n.published_at",
	"created_at":   "n.created_at",
}

type NewsRepositoryInterface interface {
	GetAll(ctx context.Context, userID uint64, publishedOnly bool, filter types.Filter) ([]entities.News, uint64, error)
	FindByID(ctx context.Context, userID, id uint64) (*entities.News, error)
	Create(ctx context.Context, news *entities.News) (uint64, error)
	Update(ctx context.Context, news *entities.News) error
	Delete(ctx context.Context, id uint64) error
	MarkRead(ctx context.Context, newsID, userID uint64) error
	CountUnread(ctx context.Context, userID uint64) (int, error)
}

type NewsRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewNewsRepository(storage *pgxpool.Pool, logger *zap.Logger) NewsRepositoryInterface {
	return &NewsRepository{storage: storage, logger: logger}
}

func scanNews(row pgx.Row) (*entities.News, error) {
	var n entities.News
	err := row.Scan(
		&n.ID, &n.Title, &n.Content, &n.ImagePath, &n.IsPublished, &n.PublishedAt, &n.AuthorID,
		&n.IsRead, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

func (r *NewsRepository) GetAll(ctx context.Context, userID uint64, publishedOnly bool, filter types.Filter) ([]entities.News, uint64, error) {
	base := psql.Select().From("news n")
	if publishedOnly {
		base = base.Where(sq.Eq{"n.is_published": true})
	}
	base = db.ApplySearch(base, filter.Search, "n.title", "n.content")

	countBuilder := db.ApplyListParams(base.Columns("COUNT(n.id)"), filter.WithoutPagination(), newsAllowedFields)
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта новостей: %w", err)
	}
	if total == 0 {
		return []entities.News{}, 0, nil
	}

	selectBuilder := psql.Select().Column(newsSelectFields, userID).From("news n")
	if publishedOnly {
		selectBuilder = selectBuilder.Where(sq.Eq{"n.is_published": true})
	}
	selectBuilder = db.ApplySearch(selectBuilder, filter.Search, "n.title", "n.content")
	selectBuilder = db.ApplyListParams(selectBuilder, filter, newsAllowedFields)
	if len(filter.Sort) == 0 {
		selectBuilder = selectBuilder.OrderBy("COALESCE(n.published_at, n.created_at) DESC")
	}
	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения новостей: %w", err)
	}
	defer rows.Close()

	list := make([]entities.News, 0)
	for rows.Next() {
		n, err := scanNews(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *n)
	}
	return list, total, rows.Err()
}

func (r *NewsRepository) FindByID(ctx context.Context, userID, id uint64) (*entities.News, error) {
	query, args, err := psql.Select().Column(newsSelectFields, userID).From("news n").Where(sq.Eq{"n.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanNews(r.storage.QueryRow(ctx, query, args...))
}

func (r *NewsRepository) Create(ctx context.Context, n *entities.News) (uint64, error) {
	query := `
		INSERT INTO news (title, content, image_path, is_published, published_at, author_id)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	var id uint64
	err := r.storage.QueryRow(ctx, query, n.Title, n.Content, n.ImagePath, n.IsPublished, n.PublishedAt, n.AuthorID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания новости: %w", err)
	}
	return id, nil
}

func (r *NewsRepository) Update(ctx context.Context, n *entities.News) error {
	return execOne(ctx, r.storage, `
		UPDATE news SET title = $1, content = $2, image_path = $3, is_published = $4, published_at = $5, updated_at = NOW()
		WHERE id = $6`, n.Title, n.Content, n.ImagePath, n.IsPublished, n.PublishedAt, n.ID)
}

func (r *NewsRepository) Delete(ctx context.Context, id uint64) error {
	return execOne(ctx, r.storage, "DELETE FROM news WHERE id = $1", id)
}

func (r *NewsRepository) MarkRead(ctx context.Context, newsID, userID uint64) error {
	_, err := r.storage.Exec(ctx,
		"INSERT INTO news_reads (news_id, user_id) VALUES ($1, $2) ON CONFLICT (news_id, user_id) DO NOTHING", newsID, userID)
	return err
}

func (r *NewsRepository) CountUnread(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.storage.QueryRow(ctx, `
		SELECT COUNT(*) FROM news n
		WHERE n.is_published AND NOT EXISTS (SELECT 1 FROM news_reads nr WHERE nr.news_id = n.id AND nr.user_id = $1)`,
		userID).Scan(&n)
	return n, err
}
