package services

import (
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"yalla-business/internal/dto"
	"yalla-business/internal/entities"
	"yalla-business/internal/repositories"
	apperrors "yalla-business/pkg/errors"
	"yalla-business/pkg/filestorage"
	"yalla-business/pkg/types"
)

type NewsServiceInterface interface {
	GetAll(ctx context.Context, filter types.Filter) (*PaginatedResult[dto.NewsDTO], error)
	GetByID(ctx context.Context, id uint64) (*dto.NewsDTO, error)
	Create(ctx context.Context, payload dto.CreateNewsDTO) (*dto.NewsDTO, error)
	Update(ctx context.Context, id uint64, payload dto.UpdateNewsDTO) (*dto.NewsDTO, error)
	Delete(ctx context.Context, id uint64) error
	UploadImage(ctx context.Context, id uint64, fileHeader *multipart.FileHeader) (*dto.NewsDTO, error)
	OpenImage(ctx context.Context, id uint64) (*DownloadFile, error)
	MarkRead(ctx context.Context, id uint64) error
	UnreadCount(ctx context.Context) (*dto.UnreadCountDTO, error)
}

type NewsService struct {
	newsRepo repositories.NewsRepositoryInterface
	storage  filestorage.FileStorageInterface
	logger   *zap.Logger
	now      func() time.Time
}

func NewNewsService(newsRepo repositories.NewsRepositoryInterface, storage filestorage.FileStorageInterface, logger *zap.Logger) *NewsService {
	return &NewsService{newsRepo: newsRepo, storage: storage, logger: logger, now: time.Now}
}

func newsEntityToDTO(n *entities.News) *dto.NewsDTO {
	result := &dto.NewsDTO{
		ID:          n.ID,
		Title:       n.Title,
		Content:     n.Content,
		IsPublished: n.IsPublished,
		PublishedAt: dto.FormatDateTimePtr(n.PublishedAt),
		IsRead:      n.IsRead,
		CreatedAt:   dto.FormatDateTime(n.CreatedAt),
	}
	if n.ImagePath != nil {
		url := fmt.Sprintf("/api/v1/news/%d/image", n.ID)
		result.ImageURL = &url
	}
	return result
}

func (s *NewsService) GetAll(ctx context.Context, filter types.Filter) (*PaginatedResult[dto.NewsDTO], error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	items, total, err := s.newsRepo.GetAll(ctx, p.UserID, !p.IsSuperAdmin(), filter)
	if err != nil {
		return nil, err
	}
	list := make([]dto.NewsDTO, 0, len(items))
	for i := range items {
		list = append(list, *newsEntityToDTO(&items[i]))
	}
	return &PaginatedResult[dto.NewsDTO]{List: list, Total: total}, nil
}

// load - черновики видит только супер-админ.
func (s *NewsService) load(ctx context.Context, id uint64) (*entities.News, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	news, err := s.newsRepo.FindByID(ctx, p.UserID, id)
	if err != nil {
		return nil, notFound(err, "Новость не найдена")
	}
	if !news.IsPublished && !p.IsSuperAdmin() {
		return nil, apperrors.NewNotFoundError("Новость не найдена")
	}
	return news, nil
}

func (s *NewsService) GetByID(ctx context.Context, id uint64) (*dto.NewsDTO, error) {
	news, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return newsEntityToDTO(news), nil
}

func (s *NewsService) Create(ctx context.Context, payload dto.CreateNewsDTO) (*dto.NewsDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	news := &entities.News{
		Title:       strings.TrimSpace(payload.Title),
		Content:     payload.Content,
		IsPublished: payload.IsPublished,
		AuthorID:    &p.UserID,
	}
	if news.IsPublished {
		now := s.now()
		news.PublishedAt = &now
	}
	id, err := s.newsRepo.Create(ctx, news)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Новость создана", zap.Uint64("id", id), zap.Bool("published", news.IsPublished))
	return s.GetByID(ctx, id)
}

func (s *NewsService) Update(ctx context.Context, id uint64, payload dto.UpdateNewsDTO) (*dto.NewsDTO, error) {
	news, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if payload.Title.Valid {
		news.Title = strings.TrimSpace(payload.Title.String)
	}
	if payload.Content.Valid {
		news.Content = payload.Content.String
	}
	if payload.IsPublished.Valid {
		news.IsPublished = payload.IsPublished.Bool
		// дата публикации ставится один раз
		if news.IsPublished && news.PublishedAt == nil {
			now := s.now()
			news.PublishedAt = &now
		}
	}
	if err := s.newsRepo.Update(ctx, news); err != nil {
		return nil, notFound(err, "Новость не найдена")
	}
	return s.GetByID(ctx, id)
}

func (s *NewsService) Delete(ctx context.Context, id uint64) error {
	news, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.newsRepo.Delete(ctx, id); err != nil {
		return notFound(err, "Новость не найдена")
	}
	if news.ImagePath != nil {
		if err := s.storage.Delete(ctx, *news.ImagePath); err != nil {
			s.logger.Warn("Картинка новости не удалена", zap.String("path", *news.ImagePath), zap.Error(err))
		}
	}
	s.logger.Info("Новость удалена", zap.Uint64("id", id))
	return nil
}

// UploadImage заменяет картинку новости, старый файл удаляется.
func (s *NewsService) UploadImage(ctx context.Context, id uint64, fileHeader *multipart.FileHeader) (*dto.NewsDTO, error) {
	news, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	saved, err := saveUpload(ctx, s.storage, fileHeader, "news_image")
	if err != nil {
		return nil, err
	}
	old := news.ImagePath
	news.ImagePath = &saved.Path
	if err := s.newsRepo.Update(ctx, news); err != nil {
		_ = s.storage.Delete(ctx, saved.Path)
		return nil, notFound(err, "Новость не найдена")
	}
	if old != nil {
		if err := s.storage.Delete(ctx, *old); err != nil {
			s.logger.Warn("Старая картинка новости не удалена", zap.String("path", *old), zap.Error(err))
		}
	}
	return s.GetByID(ctx, id)
}

func (s *NewsService) OpenImage(ctx context.Context, id uint64) (*DownloadFile, error) {
	news, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if news.ImagePath == nil {
		return nil, apperrors.NewNotFoundError("У новости нет картинки")
	}
	reader, err := s.storage.Open(ctx, *news.ImagePath)
	if err != nil {
		return nil, apperrors.NewNotFoundError("Картинка не найдена")
	}
	name := filepath.Base(*news.ImagePath)
	mimeType := mime.TypeByExtension(filepath.Ext(name))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return &DownloadFile{Name: name, MimeType: mimeType, Reader: reader}, nil
}

func (s *NewsService) MarkRead(ctx context.Context, id uint64) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	return s.newsRepo.MarkRead(ctx, id, p.UserID)
}

func (s *NewsService) UnreadCount(ctx context.Context) (*dto.UnreadCountDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	n, err := s.newsRepo.CountUnread(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	return &dto.UnreadCountDTO{Unread: n}, nil
}
