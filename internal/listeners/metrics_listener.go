package listeners

import (
	"context"

	"yalla-business/internal/events"
	"yalla-business/pkg/eventbus"
	"yalla-business/pkg/metrics"
)

// MetricsListener переводит бизнес-события в счётчики Prometheus.
type MetricsListener struct{}

func NewMetricsListener() *MetricsListener {
	return &MetricsListener{}
}

func (l *MetricsListener) Register(bus *eventbus.Bus) {
	for _, name := range []string{
		events.NameSubscriptionsCreated,
		events.NameSubscriptionChanged,
		events.NameOrderFrozen,
		events.NameOrderUnfrozen,
		events.NameOrderCancelled,
		events.NameGuestOrderCreated,
		events.NameOrdersCompleted,
		events.NameBalanceChanged,
		events.NameEmployeeChanged,
		events.NameConfigUpdated,
	} {
		bus.Subscribe(name, l.handle)
	}
}

func (l *MetricsListener) handle(_ context.Context, event eventbus.Event) error {
	metrics.DomainEvents.WithLabelValues(event.Name()).Inc()

	if e, ok := event.(events.BalanceChangedEvent); ok {
		amount := e.Amount
		if amount < 0 {
			amount = -amount
		}
		metrics.LedgerAmount.WithLabelValues(string(e.EntryType)).Add(float64(amount))
	}
	return nil
}
