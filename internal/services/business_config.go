package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"yalla-business/internal/dto"
	"yalla-business/internal/entities"
	"yalla-business/internal/events"
	"yalla-business/internal/repositories"
	"yalla-business/pkg/constants"
	apperrors "yalla-business/pkg/errors"
)

const businessConfigCacheTTL = 10 * time.Minute

var configDescriptions = map[string]string{
	entities.ConfigCutoffTime:           "Время отсечки изменений на текущий день (ЧЧ:ММ)",
	entities.ConfigMinSubscriptionDays:  "Минимальный срок подписки в днях",
	entities.ConfigMaxFreezesPerWeek:    "Максимум заморозок на сотрудника в неделю",
	entities.ConfigAllowNegativeBalance: "Разрешить уход баланса в минус для всех компаний",
	entities.ConfigComboPrices:          "Цены комбо (JSON: название -> цена)",
	entities.ConfigTimezone:             "Часовой пояс бизнеса",
}

type BusinessConfigServiceInterface interface {
	Settings(ctx context.Context) (entities.BusinessSettings, error)
	GetAll(ctx context.Context) ([]dto.ConfigEntryDTO, error)
	Get(ctx context.Context, key string) (*dto.ConfigEntryDTO, error)
	Update(ctx context.Context, key string, payload dto.UpdateConfigDTO) (*dto.ConfigEntryDTO, error)
	ClearCache(ctx context.Context) error
	EnsureDefaults(ctx context.Context, r io.Reader) (int64, error)
}

type BusinessConfigService struct {
	repo      repositories.BusinessConfigRepositoryInterface
	cacheRepo repositories.CacheRepositoryInterface
	bus       EventPublisher
	logger    *zap.Logger
}

func NewBusinessConfigService(
	repo repositories.BusinessConfigRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	bus EventPublisher,
	logger *zap.Logger,
) *BusinessConfigService {
	return &BusinessConfigService{repo: repo, cacheRepo: cacheRepo, bus: bus, logger: logger}
}

// Settings - типизированные настройки. Берутся из Redis, при промахе собираются из таблицы.
// Отсутствующие или битые значения заменяются значениями по умолчанию.
func (s *BusinessConfigService) Settings(ctx context.Context) (entities.BusinessSettings, error) {
	var settings entities.BusinessSettings
	if cacheGet(ctx, s.cacheRepo, constants.CacheKeyBusinessConfig, &settings) {
		return settings, nil
	}

	entries, err := s.repo.GetAll(ctx)
	if err != nil {
		return entities.BusinessSettings{}, fmt.Errorf("не удалось загрузить настройки: %w", err)
	}
	settings = s.buildSettings(entries)
	cacheSet(ctx, s.cacheRepo, constants.CacheKeyBusinessConfig, settings, businessConfigCacheTTL, s.logger)
	return settings, nil
}

func (s *BusinessConfigService) buildSettings(entries []entities.ConfigEntry) entities.BusinessSettings {
	settings := entities.DefaultBusinessSettings()
	for _, e := range entries {
		if err := applySetting(&settings, e.Key, e.Value); err != nil {
			s.logger.Warn("Некорректное значение настройки, используется значение по умолчанию",
				zap.String("key", e.Key), zap.String("value", e.Value), zap.Error(err))
		}
	}
	return settings
}

func (s *BusinessConfigService) GetAll(ctx context.Context) ([]dto.ConfigEntryDTO, error) {
	entries, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]dto.ConfigEntryDTO, 0, len(entries))
	for i := range entries {
		result = append(result, configEntryToDTO(&entries[i]))
	}
	return result, nil
}

func (s *BusinessConfigService) Get(ctx context.Context, key string) (*dto.ConfigEntryDTO, error) {
	entry, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, notFound(err, "Настройка не найдена")
	}
	res := configEntryToDTO(entry)
	return &res, nil
}

func (s *BusinessConfigService) Update(ctx context.Context, key string, payload dto.UpdateConfigDTO) (*dto.ConfigEntryDTO, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	value, err := NormalizeConfigValue(key, payload.Value)
	if err != nil {
		return nil, err
	}

	entry := &entities.ConfigEntry{Key: key, Value: value, UpdatedBy: &p.UserID}
	if desc, ok := configDescriptions[key]; ok {
		entry.Description = &desc
	}
	if err := s.repo.Upsert(ctx, entry); err != nil {
		return nil, err
	}
	if err := s.ClearCache(ctx); err != nil {
		s.logger.Warn("Не удалось сбросить кеш настроек", zap.Error(err))
	}
	s.logger.Info("Настройка изменена", zap.String("key", key), zap.String("value", value), zap.Uint64("user_id", p.UserID))
	publish(ctx, s.bus, events.ConfigUpdatedEvent{Key: key})

	return s.Get(ctx, key)
}

func (s *BusinessConfigService) ClearCache(ctx context.Context) error {
	return s.cacheRepo.Del(ctx, constants.CacheKeyBusinessConfig)
}

// EnsureDefaults читает YAML со значениями по умолчанию и дописывает в таблицу отсутствующие ключи.
func (s *BusinessConfigService) EnsureDefaults(ctx context.Context, r io.Reader) (int64, error) {
	entries, err := LoadConfigDefaults(r)
	if err != nil {
		return 0, err
	}
	inserted, err := s.repo.InsertMissing(ctx, entries)
	if err != nil {
		return 0, err
	}
	if inserted > 0 {
		_ = s.ClearCache(ctx)
	}
	return inserted, nil
}

// LoadConfigDefaults разбирает YAML вида key: value. Вложенные карты (combo_prices)
// сохраняются как JSON. Каждое значение проходит ту же проверку, что и через API.
func LoadConfigDefaults(r io.Reader) ([]entities.ConfigEntry, error) {
	raw := make(map[string]interface{})
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && err != io.EOF {
		return nil, fmt.Errorf("не удалось разобрать файл настроек: %w", err)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]entities.ConfigEntry, 0, len(keys))
	for _, key := range keys {
		var value string
		switch v := raw[key].(type) {
		case map[string]interface{}:
			b, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("настройка %s: %w", key, err)
			}
			value = string(b)
		default:
			value = fmt.Sprint(v)
		}

		normalized, err := NormalizeConfigValue(key, value)
		if err != nil {
			return nil, fmt.Errorf("настройка %s: %w", key, err)
		}
		entry := entities.ConfigEntry{Key: key, Value: normalized}
		if desc, ok := configDescriptions[key]; ok {
			entry.Description = &desc
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// NormalizeConfigValue проверяет значение под тип ключа и приводит к каноническому виду.
func NormalizeConfigValue(key, value string) (string, error) {
	if _, ok := configDescriptions[key]; !ok {
		return "", apperrors.NewBusinessError(CodeUnknownConfigKey, fmt.Sprintf("Неизвестная настройка: %s", key))
	}
	candidate := entities.DefaultBusinessSettings()
	if err := applySetting(&candidate, key, strings.TrimSpace(value)); err != nil {
		return "", apperrors.NewBusinessError(CodeInvalidConfigValue, err.Error()).
			WithDetails(map[string]interface{}{"key": key})
	}

	switch key {
	case entities.ConfigCutoffTime:
		return candidate.CutoffTime, nil
	case entities.ConfigMinSubscriptionDays:
		return strconv.Itoa(candidate.MinSubscriptionDays), nil
	case entities.ConfigMaxFreezesPerWeek:
		return strconv.Itoa(candidate.MaxFreezesPerWeek), nil
	case entities.ConfigAllowNegativeBalance:
		return strconv.FormatBool(candidate.AllowNegativeBalance), nil
	case entities.ConfigComboPrices:
		b, _ := json.Marshal(candidate.ComboPrices)
		return string(b), nil
	case entities.ConfigTimezone:
		return candidate.Timezone, nil
	}
	return value, nil
}

func applySetting(s *entities.BusinessSettings, key, value string) error {
	switch key {
	case entities.ConfigCutoffTime:
		h, m, err := ParseCutoff(value)
		if err != nil {
			return fmt.Errorf("время отсечки должно быть в формате ЧЧ:ММ")
		}
		s.CutoffTime = fmt.Sprintf("%02d:%02d", h, m)
	case entities.ConfigMinSubscriptionDays:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 365 {
			return fmt.Errorf("минимальный срок подписки должен быть числом от 1 до 365")
		}
		s.MinSubscriptionDays = n
	case entities.ConfigMaxFreezesPerWeek:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 || n > 7 {
			return fmt.Errorf("лимит заморозок должен быть числом от 0 до 7")
		}
		s.MaxFreezesPerWeek = n
	case entities.ConfigAllowNegativeBalance:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("ожидается true или false")
		}
		s.AllowNegativeBalance = b
	case entities.ConfigComboPrices:
		prices := make(map[string]int64)
		if err := json.Unmarshal([]byte(value), &prices); err != nil {
			return fmt.Errorf("цены комбо должны быть JSON-объектом {\"название\": цена}")
		}
		if len(prices) == 0 {
			return fmt.Errorf("нужна хотя бы одна цена комбо")
		}
		for name, price := range prices {
			if strings.TrimSpace(name) == "" || price <= 0 {
				return fmt.Errorf("некорректная цена для комбо %q", name)
			}
		}
		s.ComboPrices = prices
	case entities.ConfigTimezone:
		if _, err := time.LoadLocation(value); err != nil || value == "" {
			return fmt.Errorf("неизвестный часовой пояс %q", value)
		}
		s.Timezone = value
	default:
		return fmt.Errorf("неизвестная настройка %q", key)
	}
	return nil
}

func configEntryToDTO(e *entities.ConfigEntry) dto.ConfigEntryDTO {
	return dto.ConfigEntryDTO{
		Key:         e.Key,
		Value:       e.Value,
		Description: e.Description,
		UpdatedAt:   dto.FormatDateTime(e.UpdatedAt),
	}
}
