package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"yalla-business/internal/entities"
	"yalla-business/internal/repositories"
	apperrors "yalla-business/pkg/errors"
	"yalla-business/pkg/eventbus"
	"yalla-business/pkg/types"
	"yalla-business/pkg/utils"
)

// EventPublisher - то, что нужно сервисам от шины событий.
type EventPublisher interface {
	Publish(ctx context.Context, event eventbus.Event)
}

// SettingsProvider отдаёт актуальные бизнес-настройки (с кешем).
type SettingsProvider interface {
	Settings(ctx context.Context) (entities.BusinessSettings, error)
}

// PaginatedResult - список и общее количество для пагинации.
type PaginatedResult[T any] struct {
	List  []T
	Total uint64
}

func publish(ctx context.Context, bus EventPublisher, events ...eventbus.Event) {
	if bus == nil {
		return
	}
	for _, e := range events {
		bus.Publish(ctx, e)
	}
}

// cacheGet читает JSON из кеша. Любая ошибка кеша считается промахом.
func cacheGet(ctx context.Context, cache repositories.CacheRepositoryInterface, key string, dest interface{}) bool {
	if cache == nil {
		return false
	}
	cached, err := cache.Get(ctx, key)
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(cached), dest) == nil
}

func cacheSet(ctx context.Context, cache repositories.CacheRepositoryInterface, key string, data interface{}, ttl time.Duration, logger *zap.Logger) {
	if cache == nil {
		return
	}
	serialized, err := json.Marshal(data)
	if err != nil {
		logger.Warn("Не удалось сериализовать данные для кеша", zap.String("key", key), zap.Error(err))
		return
	}
	if err := cache.Set(ctx, key, serialized, ttl); err != nil {
		logger.Warn("Не удалось записать в кеш", zap.String("key", key), zap.Error(err))
	}
}

func principal(ctx context.Context) (types.Principal, error) {
	return utils.PrincipalFromCtx(ctx)
}

// resolveCompanyID - компания, над которой работает запрос. Супер-админ указывает её явно,
// остальные всегда работают со своей.
func resolveCompanyID(p types.Principal, requested uint64) (uint64, error) {
	if p.IsSuperAdmin() {
		if requested == 0 {
			return 0, apperrors.NewBadRequestError("Укажите компанию (company_id)")
		}
		return requested, nil
	}
	if p.CompanyID == nil {
		return 0, apperrors.NewForbiddenError("Пользователь не привязан к компании")
	}
	if requested != 0 && requested != *p.CompanyID {
		return 0, apperrors.NewForbiddenError("Нет доступа к другой компании")
	}
	return *p.CompanyID, nil
}

// checkAccess проверяет, что запись компании/проекта видна пользователю.
// Чужие записи отдаются как 404, чтобы не раскрывать их существование.
func checkAccess(p types.Principal, companyID, projectID uint64) error {
	if p.IsSuperAdmin() {
		return nil
	}
	if p.CompanyIDOrZero() != companyID {
		return apperrors.NewNotFoundError("Запись не найдена")
	}
	if p.IsManager() && projectID != 0 && p.ProjectIDOrZero() != projectID {
		return apperrors.NewNotFoundError("Запись не найдена")
	}
	return nil
}

// notFound превращает ErrNotFound репозитория в понятную пользователю ошибку.
func notFound(err error, message string) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NewNotFoundError(message)
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}
