package services

import (
	"context"
	"io"
	"mime/multipart"
	"path/filepath"

	"go.uber.org/zap"

	"yalla-business/internal/dto"
	"yalla-business/internal/entities"
	"yalla-business/internal/repositories"
	"yalla-business/pkg/config"
	apperrors "yalla-business/pkg/errors"
	"yalla-business/pkg/filestorage"
	"yalla-business/pkg/types"
	"yalla-business/pkg/validation"
)

type DocumentServiceInterface interface {
	GetAll(ctx context.Context, filter types.Filter) (*PaginatedResult[dto.DocumentDTO], error)
	Upload(ctx context.Context, companyID uint64, fileHeader *multipart.FileHeader) (*dto.DocumentDTO, error)
	Download(ctx context.Context, id uint64) (*DownloadFile, error)
	Delete(ctx context.Context, id uint64) error
}

// DownloadFile - содержимое файла для отдачи клиенту. Reader закрывает вызывающий.
type DownloadFile struct {
	Name     string
	MimeType string
	Reader   io.ReadCloser
}

type DocumentService struct {
	documentRepo repositories.DocumentRepositoryInterface
	storage      filestorage.FileStorageInterface
	logger       *zap.Logger
}

func NewDocumentService(
	documentRepo repositories.DocumentRepositoryInterface,
	storage filestorage.FileStorageInterface,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{documentRepo: documentRepo, storage: storage, logger: logger}
}

type savedUpload struct {
	Path     string
	MimeType string
	Size     int64
}

// saveUpload проверяет файл по правилам контекста и кладёт его в хранилище.
func saveUpload(ctx context.Context, storage filestorage.FileStorageInterface, fileHeader *multipart.FileHeader, contextName string) (*savedUpload, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, apperrors.NewBadRequestError("Не удалось прочитать файл")
	}
	defer file.Close()

	mimeType, err := validation.ValidateFile(fileHeader, file, contextName)
	if err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}
	path, err := storage.Save(ctx, file, filepath.Base(fileHeader.Filename), config.UploadContexts[contextName].PathPrefix)
	if err != nil {
		return nil, apperrors.NewInternalError("Не удалось сохранить файл", err)
	}
	return &savedUpload{Path: path, MimeType: mimeType, Size: fileHeader.Size}, nil
}

func documentEntityToDTO(d *entities.Document) *dto.DocumentDTO {
	return &dto.DocumentDTO{
		ID:        d.ID,
		CompanyID: d.CompanyID,
		Name:      d.Name,
		MimeType:  d.MimeType,
		SizeBytes: d.SizeBytes,
		CreatedAt: dto.FormatDateTime(d.CreatedAt),
	}
}

func (s *DocumentService) GetAll(ctx context.Context, filter types.Filter) (*PaginatedResult[dto.DocumentDTO], error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	docs, total, err := s.documentRepo.GetAll(ctx, repositories.ScopeFromPrincipal(p), filter)
	if err != nil {
		return nil, err
	}
	list := make([]dto.DocumentDTO, 0, len(docs))
	for i := range docs {
		list = append(list, *documentEntityToDTO(&docs[i]))
	}
	return &PaginatedResult[dto.DocumentDTO]{List: list, Total: total}, nil
}

func (s *DocumentService) Upload(ctx context.Context, requested uint64, fileHeader *multipart.FileHeader) (*dto.DocumentDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	companyID, err := resolveCompanyID(p, requested)
	if err != nil {
		return nil, err
	}

	saved, err := saveUpload(ctx, s.storage, fileHeader, "company_document")
	if err != nil {
		return nil, err
	}
	doc := &entities.Document{
		CompanyID:  companyID,
		Name:       filepath.Base(fileHeader.Filename),
		FilePath:   saved.Path,
		MimeType:   saved.MimeType,
		SizeBytes:  saved.Size,
		UploadedBy: &p.UserID,
	}
	id, err := s.documentRepo.Create(ctx, doc)
	if err != nil {
		// файл без записи в БД никому не нужен
		if delErr := s.storage.Delete(ctx, saved.Path); delErr != nil {
			s.logger.Warn("Не удалось удалить файл после ошибки", zap.String("path", saved.Path), zap.Error(delErr))
		}
		return nil, err
	}

	s.logger.Info("Документ загружен", zap.Uint64("id", id), zap.Uint64("company_id", companyID), zap.String("mime", saved.MimeType))
	created, err := s.documentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return documentEntityToDTO(created), nil
}

func (s *DocumentService) load(ctx context.Context, id uint64) (*entities.Document, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := s.documentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Документ не найден")
	}
	if err := checkAccess(p, doc.CompanyID, 0); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) Download(ctx context.Context, id uint64) (*DownloadFile, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	reader, err := s.storage.Open(ctx, doc.FilePath)
	if err != nil {
		return nil, apperrors.NewNotFoundError("Файл документа не найден")
	}
	return &DownloadFile{Name: doc.Name, MimeType: doc.MimeType, Reader: reader}, nil
}

func (s *DocumentService) Delete(ctx context.Context, id uint64) error {
	doc, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.documentRepo.Delete(ctx, id); err != nil {
		return notFound(err, "Документ не найден")
	}
	if err := s.storage.Delete(ctx, doc.FilePath); err != nil {
		s.logger.Warn("Файл документа не удалён из хранилища", zap.String("path", doc.FilePath), zap.Error(err))
	}
	s.logger.Info("Документ удалён", zap.Uint64("id", id))
	return nil
}
