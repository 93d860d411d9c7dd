package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"yalla-business/pkg/api"
	"yalla-business/pkg/constants"
	"yalla-business/pkg/service"
	"yalla-business/pkg/types"
	"yalla-business/pkg/utils"
)

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = api.NewHTTPErrorHandler(zap.NewNop())
	return e
}

func okHandler(c echo.Context) error {
	p, err := utils.PrincipalFromCtx(c.Request().Context())
	if err != nil {
		return err
	}
	return c.String(http.StatusOK, p.Role.String())
}

func TestAuth(t *testing.T) {
	jwtSvc := service.NewJWTService("test-secret", time.Minute, time.Hour)
	companyID := uint64(5)
	pair, err := jwtSvc.GenerateTokens(types.Principal{UserID: 1, CompanyID: &companyID, Role: constants.RoleAdmin})
	require.NoError(t, err)

	e := newTestEcho()
	auth := NewAuthMiddleware(jwtSvc, zap.NewNop())
	e.GET("/me", okHandler, auth.Auth)
	e.GET("/super", okHandler, auth.Auth, RequireRoles(constants.RoleSuperAdmin))

	tests := []struct {
		name   string
		path   string
		setup  func(r *http.Request)
		status int
	}{
		{
			name:   "bearer header",
			path:   "/me",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+pair.AccessToken) },
			status: http.StatusOK,
		},
		{
			name: "cookie",
			path: "/me",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: constants.CookieAccessToken, Value: pair.AccessToken})
			},
			status: http.StatusOK,
		},
		{
			name:   "no token",
			path:   "/me",
			setup:  func(r *http.Request) {},
			status: http.StatusUnauthorized,
		},
		{
			name:   "malformed header",
			path:   "/me",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Token abc") },
			status: http.StatusUnauthorized,
		},
		{
			name:   "refresh token rejected",
			path:   "/me",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+pair.RefreshToken) },
			status: http.StatusUnauthorized,
		},
		{
			name:   "role guard",
			path:   "/super",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+pair.AccessToken) },
			status: http.StatusForbidden,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			tc.setup(req)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestRateLimiter(t *testing.T) {
	e := newTestEcho()
	rl := NewRateLimiter("test", 1, 2, zap.NewNop())
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, rl.Middleware())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.NotEmpty(t, rec.Header().Get("Retry-After"))
			assert.Contains(t, rec.Body.String(), "RATE_LIMIT_EXCEEDED")
		}
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	// другой IP получает свой бакет
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter("test", 1, 1, zap.NewNop())
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.getLimiter("ip:1")
	now = now.Add(time.Hour)
	rl.getLimiter("ip:2")
	rl.Cleanup()

	assert.Len(t, rl.limiters, 1)
	assert.Contains(t, rl.limiters, "ip:2")
}

func TestAPIVersion(t *testing.T) {
	e := newTestEcho()
	e.GET("/v", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, APIVersion("1.0"))

	tests := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{name: "no version", status: http.StatusNoContent},
		{name: "header v1", header: "v1", status: http.StatusNoContent},
		{name: "query 1.0", query: "1.0", status: http.StatusNoContent},
		{name: "unsupported", header: "2", status: http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			target := "/v"
			if tc.query != "" {
				target += "?api-version=" + tc.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tc.header != "" {
				req.Header.Set(HeaderAPIVersion, tc.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestInjectLogger_SetsRequestID(t *testing.T) {
	e := newTestEcho()
	e.Use(InjectLogger(zap.NewNop()))
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(echo.HeaderXRequestID, "abc-123")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(echo.HeaderXRequestID))
}
