package listeners

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"yalla-business/internal/entities"
	"yalla-business/internal/events"
	"yalla-business/internal/repositories"
	"yalla-business/pkg/eventbus"
	"yalla-business/pkg/metrics"
)

type patternCache struct {
	repositories.CacheRepositoryInterface
	mu       sync.Mutex
	patterns []string
	err      error
}

func (c *patternCache) DelByPattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.patterns = append(c.patterns, pattern)
	return c.err
}

func TestDashboardCacheListener(t *testing.T) {
	tests := []struct {
		name  string
		event eventbus.Event
		want  []string
	}{
		{
			name:  "событие компании",
			event: events.OrderFrozenEvent{CompanyID: 3},
			want:  []string{"dashboard:3:*", "dashboard:0:*"},
		},
		{
			name:  "движение баланса",
			event: events.BalanceChangedEvent{CompanyID: 8, EntryType: entities.LedgerTopUp, Amount: 100},
			want:  []string{"dashboard:8:*", "dashboard:0:*"},
		},
		{
			name:  "ночное закрытие заказов",
			event: events.OrdersCompletedEvent{Orders: 10},
			want:  []string{"dashboard:*"},
		},
		{
			name:  "изменение настроек",
			event: events.ConfigUpdatedEvent{Key: "cutoff_time"},
			want:  []string{"dashboard:*"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := &patternCache{}
			bus := eventbus.New(zap.NewNop())
			NewDashboardCacheListener(cache, zap.NewNop()).Register(bus)

			bus.Publish(context.Background(), tt.event)
			bus.Wait()

			assert.Equal(t, tt.want, cache.patterns)
		})
	}
}

func TestDashboardCacheListener_StopsOnError(t *testing.T) {
	cache := &patternCache{err: errors.New("redis недоступен")}
	l := NewDashboardCacheListener(cache, zap.NewNop())

	err := l.handleCompanyEvent(context.Background(), events.EmployeeChangedEvent{CompanyID: 2})
	assert.Error(t, err)
	assert.Equal(t, []string{"dashboard:2:*"}, cache.patterns)
}

func TestMetricsListener(t *testing.T) {
	bus := eventbus.New(zap.NewNop())
	NewMetricsListener().Register(bus)

	frozenBefore := testutil.ToFloat64(metrics.DomainEvents.WithLabelValues(events.NameOrderFrozen))
	refundBefore := testutil.ToFloat64(metrics.LedgerAmount.WithLabelValues(string(entities.LedgerRefund)))

	bus.Publish(context.Background(), events.OrderFrozenEvent{CompanyID: 1})
	bus.Publish(context.Background(), events.BalanceChangedEvent{CompanyID: 1, EntryType: entities.LedgerRefund, Amount: 250})
	bus.Publish(context.Background(), events.BalanceChangedEvent{CompanyID: 1, EntryType: entities.LedgerRefund, Amount: -50})
	bus.Wait()

	assert.Equal(t, frozenBefore+1, testutil.ToFloat64(metrics.DomainEvents.WithLabelValues(events.NameOrderFrozen)))
	assert.Equal(t, refundBefore+300, testutil.ToFloat64(metrics.LedgerAmount.WithLabelValues(string(entities.LedgerRefund))))
}
