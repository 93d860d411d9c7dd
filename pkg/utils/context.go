package utils

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"yalla-business/pkg/contextkeys"
	apperrors "yalla-business/pkg/errors"
	"yalla-business/pkg/types"
)

func WithPrincipal(ctx context.Context, p types.Principal) context.Context {
	return context.WithValue(ctx, contextkeys.ClaimsKey, p)
}

func PrincipalFromCtx(ctx context.Context) (types.Principal, error) {
	p, ok := ctx.Value(contextkeys.ClaimsKey).(types.Principal)
	if !ok || p.UserID == 0 {
		return types.Principal{}, apperrors.ErrUnauthorized
	}
	return p, nil
}

// LoggerFromEcho возвращает логгер запроса (с request_id), если его положил middleware.
func LoggerFromEcho(c echo.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := c.Get(contextkeys.EchoLoggerKey).(*zap.Logger); ok && l != nil {
		return l
	}
	return fallback
}
