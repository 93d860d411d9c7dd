package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"yalla-business/pkg/constants"
	"yalla-business/pkg/contextkeys"
	apperrors "yalla-business/pkg/errors"
	"yalla-business/pkg/service"
	"yalla-business/pkg/utils"
)

type AuthMiddleware struct {
	jwtService service.JWTService
	logger     *zap.Logger
}

func NewAuthMiddleware(jwtSvc service.JWTService, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtSvc,
		logger:     logger,
	}
}

// Auth проверяет access-токен из заголовка Authorization или cookie X-Access-Token
// и кладёт данные пользователя в контекст запроса.
func (m *AuthMiddleware) Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		logger := utils.LoggerFromEcho(c, m.logger)

		tokenString, err := extractToken(c)
		if err != nil {
			logger.Debug("AuthMiddleware: токен не передан", zap.Error(err))
			return err
		}

		claims, err := m.jwtService.ValidateToken(tokenString)
		if err != nil {
			logger.Warn("AuthMiddleware: ошибка валидации токена", zap.Error(err))
			return err
		}

		if claims.IsRefreshToken() {
			logger.Warn("AuthMiddleware: попытка доступа с refresh-токеном", zap.Uint64("user_id", claims.UserID))
			return apperrors.ErrTokenIsNotAccess
		}

		principal := claims.Principal()
		if !principal.Role.Valid() {
			return apperrors.ErrInvalidToken
		}

		c.SetRequest(c.Request().WithContext(utils.WithPrincipal(c.Request().Context(), principal)))
		c.Set(contextkeys.EchoClaimsKey, principal)
		c.Set(contextkeys.EchoLoggerKey, logger.With(
			zap.Uint64("user_id", principal.UserID),
			zap.Uint64("company_id", principal.CompanyIDOrZero()),
		))

		return next(c)
	}
}

// RequireRoles пропускает только перечисленные роли. Вызывать после Auth.
func RequireRoles(roles ...constants.Role) echo.MiddlewareFunc {
	allowed := make(map[constants.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, err := utils.PrincipalFromCtx(c.Request().Context())
			if err != nil {
				return err
			}
			if _, ok := allowed[principal.Role]; !ok {
				return apperrors.NewForbiddenError("Недостаточно прав для выполнения операции")
			}
			return next(c)
		}
	}
}

func extractToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader != "" {
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", apperrors.ErrInvalidAuthHeader
		}
		return parts[1], nil
	}

	cookie, err := c.Cookie(constants.CookieAccessToken)
	if err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	return "", apperrors.ErrEmptyAuthHeader
}
