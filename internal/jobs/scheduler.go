package jobs

import (
	"context"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"yalla-business/internal/dto"
	"yalla-business/pkg/metrics"
)

const jobCompleteOrders = "complete_due_orders"

// OrderCompleter - часть OrderService, которая нужна ночной задаче.
type OrderCompleter interface {
	CompleteDueOrders(ctx context.Context) (*dto.CompleteOrdersResultDTO, error)
}

// Scheduler запускает фоновые задачи по расписанию в часовом поясе бизнеса.
type Scheduler struct {
	cron    *cron.Cron
	orders  OrderCompleter
	timeout time.Duration
	logger  *zap.Logger
}

func NewScheduler(orders OrderCompleter, loc *time.Location, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger})),
		),
		orders:  orders,
		timeout: 10 * time.Minute,
		logger:  logger,
	}
}

// AddOrderCompletion регистрирует закрытие прошедших заказов по cron-выражению ("5 0 * * *").
func (s *Scheduler) AddOrderCompletion(expr string) error {
	_, err := s.cron.AddFunc(expr, s.CompleteOrders)
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Планировщик запущен", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop останавливает планировщик и ждёт завершения текущих задач.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("Планировщик остановлен, не дождавшись задач")
	}
}

func (s *Scheduler) CompleteOrders() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	started := time.Now()
	res, err := s.orders.CompleteDueOrders(ctx)
	metrics.CronRuns.WithLabelValues(jobCompleteOrders, strconv.FormatBool(err == nil)).Inc()
	if err != nil {
		s.logger.Error("Ошибка закрытия заказов", zap.Error(err))
		return
	}
	s.logger.Info("Прошедшие заказы закрыты",
		zap.Int64("orders", res.OrdersCompleted),
		zap.Int64("subscriptions", res.SubscriptionsCompleted),
		zap.Int64("paused_days_cancelled", res.PausedDaysCancelled),
		zap.Int64("refunded", res.Refunded),
		zap.Duration("took", time.Since(started)),
	)
}

// cronLogger - адаптер zap под cron.Logger.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
