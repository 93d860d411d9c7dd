// pkg/middleware/logger.go

package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"yalla-business/pkg/contextkeys"
	"yalla-business/pkg/utils"
)

// InjectLogger выдаёт запросу correlation id и кладёт в echo-контекст логгер с ним.
// После обработки пишет строку access-лога.
func InjectLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			reqLogger := logger.With(zap.String("request_id", requestID))
			c.Set(contextkeys.EchoLoggerKey, reqLogger)

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", c.RealIP()),
			}
			// после Auth логгер в контексте уже содержит user_id и company_id
			l := utils.LoggerFromEcho(c, reqLogger)
			switch {
			case c.Response().Status >= 500:
				l.Error("HTTP запрос", fields...)
			case c.Response().Status >= 400:
				l.Warn("HTTP запрос", fields...)
			default:
				l.Info("HTTP запрос", fields...)
			}
			return nil
		}
	}
}
