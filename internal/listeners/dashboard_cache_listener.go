package listeners

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"yalla-business/internal/events"
	"yalla-business/internal/repositories"
	"yalla-business/pkg/eventbus"
)

// DashboardCacheListener сбрасывает кеш дашборда после изменений, которые влияют на цифры.
type DashboardCacheListener struct {
	cacheRepo repositories.CacheRepositoryInterface
	logger    *zap.Logger
}

func NewDashboardCacheListener(cacheRepo repositories.CacheRepositoryInterface, logger *zap.Logger) *DashboardCacheListener {
	return &DashboardCacheListener{cacheRepo: cacheRepo, logger: logger}
}

func (l *DashboardCacheListener) Register(bus *eventbus.Bus) {
	for _, name := range []string{
		events.NameSubscriptionsCreated,
		events.NameSubscriptionChanged,
		events.NameOrderFrozen,
		events.NameOrderUnfrozen,
		events.NameOrderCancelled,
		events.NameGuestOrderCreated,
		events.NameBalanceChanged,
		events.NameEmployeeChanged,
	} {
		bus.Subscribe(name, l.handleCompanyEvent)
	}
	bus.Subscribe(events.NameOrdersCompleted, l.handleGlobalEvent)
	bus.Subscribe(events.NameConfigUpdated, l.handleGlobalEvent)
}

func (l *DashboardCacheListener) handleCompanyEvent(ctx context.Context, event eventbus.Event) error {
	ce, ok := event.(events.CompanyEvent)
	if !ok {
		return l.handleGlobalEvent(ctx, event)
	}
	// ключ с нулевой компанией - сводный дашборд супер-админа
	for _, pattern := range []string{
		fmt.Sprintf("dashboard:%d:*", ce.Company()),
		"dashboard:0:*",
	} {
		if err := l.cacheRepo.DelByPattern(ctx, pattern); err != nil {
			l.logger.Warn("Не удалось сбросить кеш дашборда",
				zap.String("event", event.Name()),
				zap.String("pattern", pattern),
				zap.Error(err),
			)
			return err
		}
	}
	return nil
}

func (l *DashboardCacheListener) handleGlobalEvent(ctx context.Context, event eventbus.Event) error {
	if err := l.cacheRepo.DelByPattern(ctx, "dashboard:*"); err != nil {
		l.logger.Warn("Не удалось сбросить кеш дашборда", zap.String("event", event.Name()), zap.Error(err))
		return err
	}
	return nil
}
