package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"yalla-business/internal/dto"
	"yalla-business/internal/services"
	"yalla-business/pkg/api"
	"yalla-business/pkg/constants"
	apperrors "yalla-business/pkg/errors"
	"yalla-business/pkg/service"
	"yalla-business/pkg/types"
	"yalla-business/pkg/utils"
	"yalla-business/pkg/validation"
)

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = api.NewHTTPErrorHandler(zap.NewNop())
	e.Validator = validation.New()
	return e
}

type stubAuthService struct {
	services.AuthServiceInterface
	loginErr      error
	revokedTokens []string
}

func (s *stubAuthService) Login(_ context.Context, payload dto.LoginDTO) (*services.AuthResult, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &services.AuthResult{
		Tokens: &service.TokenPair{
			AccessToken:      "access-" + payload.Login,
			RefreshToken:     "refresh-" + payload.Login,
			AccessExpiresAt:  time.Date(2026, 3, 10, 12, 15, 0, 0, time.UTC),
			RefreshExpiresAt: time.Date(2026, 4, 9, 12, 0, 0, 0, time.UTC),
		},
		User: &dto.UserDTO{ID: 42, FullName: "Админ", Role: string(constants.RoleAdmin)},
	}, nil
}

func (s *stubAuthService) Logout(_ context.Context, refreshToken string) error {
	s.revokedTokens = append(s.revokedTokens, refreshToken)
	return nil
}

func cookiesByName(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	res := make(map[string]*http.Cookie)
	for _, c := range rec.Result().Cookies() {
		res[c.Name] = c
	}
	return res
}

func TestAuthController_LoginSetsCookies(t *testing.T) {
	e := newTestEcho()
	ctrl := NewAuthController(&stubAuthService{}, true, zap.NewNop())
	e.POST("/login", ctrl.Login)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"login":"admin@example.com","password":"secret123"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	cookies := cookiesByName(rec)
	require.Contains(t, cookies, constants.CookieAccessToken)
	require.Contains(t, cookies, constants.CookieRefreshToken)
	access := cookies[constants.CookieAccessToken]
	assert.Equal(t, "access-admin@example.com", access.Value)
	assert.True(t, access.HttpOnly)
	assert.True(t, access.Secure)

	var body api.Response[dto.AuthResponseDTO]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "refresh-admin@example.com", body.Data.RefreshToken)
	assert.Equal(t, "2026-03-10T12:15:00Z", body.Data.AccessExpiresAt)
	assert.Equal(t, uint64(42), body.Data.User.ID)
}

func TestAuthController_LoginValidation(t *testing.T) {
	e := newTestEcho()
	ctrl := NewAuthController(&stubAuthService{}, false, zap.NewNop())
	e.POST("/login", ctrl.Login)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"login":"admin@example.com"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestAuthController_LoginLocked(t *testing.T) {
	e := newTestEcho()
	locked := apperrors.NewAppError(http.StatusTooManyRequests, "ACCOUNT_LOCKED", apperrors.TypeRateLimit, "Учётная запись заблокирована", apperrors.ErrAccountLocked)
	ctrl := NewAuthController(&stubAuthService{loginErr: locked}, false, zap.NewNop())
	e.POST("/login", ctrl.Login)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"login":"admin@example.com","password":"wrong"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	var body api.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "ACCOUNT_LOCKED", body.Error.Code)
}

func TestAuthController_LogoutClearsCookies(t *testing.T) {
	e := newTestEcho()
	authSvc := &stubAuthService{}
	ctrl := NewAuthController(authSvc, false, zap.NewNop())
	e.POST("/logout", ctrl.Logout)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: constants.CookieRefreshToken, Value: "refresh-1"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"refresh-1"}, authSvc.revokedTokens)
	for _, c := range rec.Result().Cookies() {
		assert.Empty(t, c.Value)
		assert.Less(t, c.MaxAge, 0)
	}
}

type stubExportService struct {
	services.ExportServiceInterface
	filter types.Filter
}

func (s *stubExportService) ExportOrders(_ context.Context, filter types.Filter) (*services.ExportTable, error) {
	s.filter = filter
	return &services.ExportTable{
		Name:    "Заказы",
		Headers: []string{"ID", "Комбо"},
		Rows:    [][]interface{}{{1, "Комбо 25"}},
	}, nil
}

func TestExportController_Orders(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		contentType string
		fileName    string
	}{
		{name: "csv по умолчанию", query: "", contentType: "text/csv; charset=utf-8", fileName: "orders_2026-03-10.csv"},
		{name: "xlsx", query: "?format=XLSX", contentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", fileName: "orders_2026-03-10.xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho()
			ctrl := NewExportController(&stubExportService{}, zap.NewNop())
			ctrl.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }
			e.GET("/export/orders", ctrl.Orders)

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export/orders"+tt.query, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.contentType, rec.Header().Get(echo.HeaderContentType))
			assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), tt.fileName)
			assert.NotZero(t, rec.Body.Len())
		})
	}
}

func TestExportController_PassesFilter(t *testing.T) {
	e := newTestEcho()
	exportSvc := &stubExportService{}
	ctrl := NewExportController(exportSvc, zap.NewNop())
	e.GET("/export/orders", ctrl.Orders)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export/orders?filter%5Bproject_id%5D=7&search=Asel", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Asel", exportSvc.filter.Search)
}

func TestRequestDeduplicator(t *testing.T) {
	d := NewRequestDeduplicator()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }

	release, ok := d.TryAcquire(1, "POST /subscriptions", time.Second)
	require.True(t, ok)
	_, ok = d.TryAcquire(1, "POST /subscriptions", time.Second)
	assert.False(t, ok)
	_, ok = d.TryAcquire(2, "POST /subscriptions", time.Second)
	assert.True(t, ok, "другой пользователь не блокируется")

	release()
	_, ok = d.TryAcquire(1, "POST /subscriptions", time.Second)
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok = d.TryAcquire(1, "POST /subscriptions", time.Second)
	assert.True(t, ok, "после ttl блокировка снимается")
}

func TestRequestDeduplicator_StaleReleaseKeepsNewerLock(t *testing.T) {
	d := NewRequestDeduplicator()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }

	staleRelease, ok := d.TryAcquire(1, "POST /orders/guest", time.Second)
	require.True(t, ok)

	// первый запрос завис дольше ttl, второй занял ключ заново
	now = now.Add(2 * time.Second)
	_, ok = d.TryAcquire(1, "POST /orders/guest", time.Minute)
	require.True(t, ok)

	staleRelease()
	_, ok = d.TryAcquire(1, "POST /orders/guest", time.Minute)
	assert.False(t, ok, "завершение старого запроса не снимает новый захват")
}

func TestRequestDeduplicator_ConcurrentAcquire(t *testing.T) {
	for _, expired := range []bool{false, true} {
		d := NewRequestDeduplicator()
		now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
		if expired {
			d.locks.Store("1_POST /subscriptions", &dedupLock{expires: now.Add(-time.Second)})
		}
		d.now = func() time.Time { return now }

		const workers = 64
		var (
			wg       sync.WaitGroup
			acquired atomic.Int32
		)
		start := make(chan struct{})
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				if _, ok := d.TryAcquire(1, "POST /subscriptions", time.Minute); ok {
					acquired.Add(1)
				}
			}()
		}
		close(start)
		wg.Wait()

		assert.Equal(t, int32(1), acquired.Load(), "просроченный захват: %v", expired)
	}
}

func TestRequestDeduplicator_Guard(t *testing.T) {
	e := newTestEcho()
	d := NewRequestDeduplicator()

	release := make(chan struct{})
	entered := make(chan struct{})
	withPrincipal := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := utils.WithPrincipal(c.Request().Context(), types.Principal{UserID: 7, Role: constants.RoleAdmin})
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
	e.POST("/subscriptions", func(c echo.Context) error {
		close(entered)
		<-release
		return c.NoContent(http.StatusCreated)
	}, withPrincipal, d.Guard(time.Minute))

	first := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		e.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/subscriptions", nil))
		close(done)
	}()
	<-entered

	second := httptest.NewRecorder()
	e.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/subscriptions", nil))
	assert.Equal(t, http.StatusConflict, second.Code)
	assert.Contains(t, second.Body.String(), CodeDuplicateRequest)

	close(release)
	<-done
	assert.Equal(t, http.StatusCreated, first.Code)
}

func TestParseID(t *testing.T) {
	e := newTestEcho()
	var got uint64
	e.GET("/items/:id", func(c echo.Context) error {
		id, err := parseID(c, "id")
		if err != nil {
			return err
		}
		got = id
		return c.NoContent(http.StatusOK)
	})

	for path, status := range map[string]int{"/items/15": http.StatusOK, "/items/0": http.StatusBadRequest, "/items/x": http.StatusBadRequest} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, status, rec.Code, path)
	}
	assert.Equal(t, uint64(15), got)
}
