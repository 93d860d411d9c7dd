package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "yalla-business/pkg/errors"
)

const (
	HeaderAPIVersion = "X-Api-Version"
	QueryAPIVersion  = "api-version"
)

// APIVersion проверяет версию из заголовка или query-параметра.
// Версия из URL (/api/v1) приоритетнее, без версии считается текущая.
func APIVersion(supported ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(supported))
	for _, v := range supported {
		allowed[normalizeVersion(v)] = struct{}{}
	}
	current := ""
	if len(supported) > 0 {
		current = normalizeVersion(supported[len(supported)-1])
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requested := c.Request().Header.Get(HeaderAPIVersion)
			if requested == "" {
				requested = c.QueryParam(QueryAPIVersion)
			}
			if requested == "" {
				c.Response().Header().Set(HeaderAPIVersion, current)
				return next(c)
			}

			v := normalizeVersion(requested)
			if _, ok := allowed[v]; !ok {
				return apperrors.NewBadRequestError("Неподдерживаемая версия API: " + requested).
					WithDetails(map[string]interface{}{"supported": supported})
			}
			c.Response().Header().Set(HeaderAPIVersion, v)
			return next(c)
		}
	}
}

// normalizeVersion приводит "v1", "1", "1.0" к "1.0".
func normalizeVersion(v string) string {
	v = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(v)), "v")
	if v != "" && !strings.Contains(v, ".") {
		v += ".0"
	}
	return v
}
