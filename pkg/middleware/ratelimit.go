package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"yalla-business/pkg/api"
	apperrors "yalla-business/pkg/errors"
	"yalla-business/pkg/metrics"
	"yalla-business/pkg/utils"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter - token bucket на ключ: id пользователя, если он известен, иначе IP.
type RateLimiter struct {
	name     string
	limiters map[string]*limiterEntry
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	idleTTL  time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewRateLimiter(name string, requestsPerSecond float64, burst int, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		name:     name,
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		idleTTL:  10 * time.Minute,
		logger:   logger,
		now:      time.Now,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.limiters[key]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = rl.now()
	return entry.limiter
}

func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := "ip:" + c.RealIP()
			if p, err := utils.PrincipalFromCtx(c.Request().Context()); err == nil {
				key = "user:" + strconv.FormatUint(p.UserID, 10)
			}

			limiter := rl.getLimiter(key)
			reservation := limiter.ReserveN(rl.now(), 1)
			if !reservation.OK() {
				return rl.reject(c, key, time.Second)
			}
			if delay := reservation.DelayFrom(rl.now()); delay > 0 {
				reservation.CancelAt(rl.now())
				return rl.reject(c, key, delay)
			}
			return next(c)
		}
	}
}

func (rl *RateLimiter) reject(c echo.Context, key string, retryAfter time.Duration) error {
	metrics.RateLimited.WithLabelValues(rl.name).Inc()
	utils.LoggerFromEcho(c, rl.logger).Warn("Превышен лимит запросов",
		zap.String("limiter", rl.name),
		zap.String("key", key),
		zap.String("path", c.Request().URL.Path),
	)

	seconds := int(math.Ceil(retryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
	return c.JSON(http.StatusTooManyRequests, api.ErrorEnvelope{
		Success: false,
		Error: api.ErrorBody{
			Code:    "RATE_LIMIT_EXCEEDED",
			Message: "Слишком много запросов, повторите позже",
			Type:    apperrors.TypeRateLimit,
			Action:  "RETRY_LATER",
		},
	})
}

// Cleanup удаляет лимитеры, которые давно не использовались.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	threshold := rl.now().Add(-rl.idleTTL)
	for key, entry := range rl.limiters {
		if entry.lastSeen.Before(threshold) {
			delete(rl.limiters, key)
		}
	}
}

// StartCleanup периодически чистит лимитеры, пока не закрыт done.
func (rl *RateLimiter) StartCleanup(interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.Cleanup()
			case <-done:
				return
			}
		}
	}()
}
