package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"yalla-business/internal/controllers"
	"yalla-business/internal/dto"
	"yalla-business/pkg/api"
	"yalla-business/pkg/constants"
	"yalla-business/pkg/middleware"
	"yalla-business/pkg/service"
	"yalla-business/pkg/types"
	"yalla-business/pkg/validation"
)

type stubDashboard struct {
	calls int
}

func (s *stubDashboard) GetStats(_ context.Context, companyID, projectID uint64) (*dto.DashboardStatsDTO, error) {
	s.calls++
	return &dto.DashboardStatsDTO{}, nil
}

type routerFixture struct {
	e         *echo.Echo
	jwt       service.JWTService
	dashboard *stubDashboard
}

// newRouterFixture собирает маршруты без БД: сервисы, кроме дашборда, не вызываются,
// потому что запросы отсекаются раньше.
func newRouterFixture() *routerFixture {
	logger := zap.NewNop()
	jwtSvc := service.NewJWTService("test-secret", time.Minute, time.Hour)
	dashboard := &stubDashboard{}

	e := echo.New()
	e.HTTPErrorHandler = api.NewHTTPErrorHandler(logger)
	e.Validator = validation.New()

	h := handlers{
		auth:         controllers.NewAuthController(nil, false, logger),
		company:      controllers.NewCompanyController(nil, logger),
		project:      controllers.NewProjectController(nil, logger),
		user:         controllers.NewUserController(nil, logger),
		employee:     controllers.NewEmployeeController(nil, logger),
		subscription: controllers.NewSubscriptionController(nil, logger),
		order:        controllers.NewOrderController(nil, logger),
		compensation: controllers.NewCompensationController(nil, logger),
		transaction:  controllers.NewTransactionController(nil, logger),
		invoice:      controllers.NewInvoiceController(nil, logger),
		document:     controllers.NewDocumentController(nil, logger),
		news:         controllers.NewNewsController(nil, logger),
		config:       controllers.NewBusinessConfigController(nil, logger),
		dashboard:    controllers.NewDashboardController(dashboard, logger),
		export:       controllers.NewExportController(nil, logger),
		authMW:       middleware.NewAuthMiddleware(jwtSvc, logger),
		dedup:        controllers.NewRequestDeduplicator(),
		loginLimiter: middleware.NewRateLimiter("login", 100, 100, logger),
		apiLimiter:   middleware.NewRateLimiter("api", 100, 100, logger),
	}
	for _, prefix := range []string{"/api/v1", "/api"} {
		h.mount(e.Group(prefix, middleware.APIVersion(apiVersion)))
	}
	return &routerFixture{e: e, jwt: jwtSvc, dashboard: dashboard}
}

func (f *routerFixture) token(t *testing.T, role constants.Role) string {
	t.Helper()
	companyID, projectID := uint64(1), uint64(7)
	p := types.Principal{UserID: 10, CompanyID: &companyID, Role: role}
	if role == constants.RoleManager {
		p.ProjectID = &projectID
	}
	if role == constants.RoleSuperAdmin {
		p.CompanyID = nil
	}
	pair, err := f.jwt.GenerateTokens(p)
	require.NoError(t, err)
	return pair.AccessToken
}

func (f *routerFixture) do(method, path, token string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Guards(t *testing.T) {
	f := newRouterFixture()

	tests := []struct {
		name   string
		method string
		path   string
		role   constants.Role
		status int
	}{
		{name: "без токена", method: http.MethodGet, path: "/api/v1/employees", status: http.StatusUnauthorized},
		{name: "менеджер не видит компании", method: http.MethodGet, path: "/api/v1/companies", role: constants.RoleManager, status: http.StatusForbidden},
		{name: "админ не пополняет баланс", method: http.MethodPost, path: "/api/v1/transactions/top-up", role: constants.RoleAdmin, status: http.StatusForbidden},
		{name: "менеджер не управляет пользователями", method: http.MethodGet, path: "/api/v1/users", role: constants.RoleManager, status: http.StatusForbidden},
		{name: "админ не меняет настройки", method: http.MethodPut, path: "/api/v1/config/cutoff_time", role: constants.RoleAdmin, status: http.StatusForbidden},
		{name: "админ не публикует новости", method: http.MethodPost, path: "/api/v1/news", role: constants.RoleAdmin, status: http.StatusForbidden},
		{name: "менеджер не отмечает оплату счёта", method: http.MethodPost, path: "/api/v1/invoices/3/pay", role: constants.RoleManager, status: http.StatusForbidden},
		{name: "некорректный id", method: http.MethodGet, path: "/api/v1/orders/abc", role: constants.RoleAdmin, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := ""
			if tt.role != "" {
				token = f.token(t, tt.role)
			}
			rec := f.do(tt.method, tt.path, token, nil)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_VersionAndAlias(t *testing.T) {
	f := newRouterFixture()
	token := f.token(t, constants.RoleAdmin)

	rec := f.do(http.MethodGet, "/api/v1/dashboard/stats", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1.0", rec.Header().Get(middleware.HeaderAPIVersion))

	rec = f.do(http.MethodGet, "/api/dashboard/stats", token, map[string]string{middleware.HeaderAPIVersion: "1"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/api/dashboard/stats", token, map[string]string{middleware.HeaderAPIVersion: "2.0"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, 2, f.dashboard.calls)
}
