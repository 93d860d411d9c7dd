package routes

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"yalla-business/internal/controllers"
	"yalla-business/internal/repositories"
	"yalla-business/internal/services"
	"yalla-business/pkg/config"
	"yalla-business/pkg/constants"
	"yalla-business/pkg/eventbus"
	"yalla-business/pkg/filestorage"
	"yalla-business/pkg/middleware"
	"yalla-business/pkg/service"
)

const (
	apiVersion = "1.0"
	// окно, в котором повтор денежной операции считается двойным нажатием
	duplicateWindow = 10 * time.Second
)

type Dependencies struct {
	DB      *pgxpool.Pool
	Redis   *redis.Client
	JWT     service.JWTService
	Storage filestorage.FileStorageInterface
	Bus     *eventbus.Bus
	Config  *config.Config
	Logger  *zap.Logger
	// Done закрывается при остановке сервера, по нему гаснут фоновые очистки.
	Done <-chan struct{}
}

// App - то, что нужно main после сборки маршрутов: крон, слушатели, сидер.
type App struct {
	Orders    services.OrderServiceInterface
	Config    services.BusinessConfigServiceInterface
	CacheRepo repositories.CacheRepositoryInterface
}

var (
	superAdminOnly = []constants.Role{constants.RoleSuperAdmin}
	adminRoles     = []constants.Role{constants.RoleSuperAdmin, constants.RoleAdmin}
)

func InitRouter(e *echo.Echo, deps Dependencies) *App {
	logger := deps.Logger
	logger.Info("InitRouter: Начало создания маршрутов")

	txManager := repositories.NewTxManager(deps.DB)
	cacheRepo := repositories.NewRedisCacheRepository(deps.Redis)

	// --- 1. РЕПОЗИТОРИИ ---
	companyRepo := repositories.NewCompanyRepository(deps.DB, logger)
	projectRepo := repositories.NewProjectRepository(deps.DB, logger)
	userRepo := repositories.NewUserRepository(deps.DB, logger)
	employeeRepo := repositories.NewEmployeeRepository(deps.DB, logger)
	subscriptionRepo := repositories.NewSubscriptionRepository(deps.DB, logger)
	orderRepo := repositories.NewOrderRepository(deps.DB, logger)
	ledgerRepo := repositories.NewLedgerRepository(deps.DB, logger)
	compensationRepo := repositories.NewCompensationRepository(deps.DB, logger)
	invoiceRepo := repositories.NewInvoiceRepository(deps.DB, logger)
	documentRepo := repositories.NewDocumentRepository(deps.DB, logger)
	newsRepo := repositories.NewNewsRepository(deps.DB, logger)
	configRepo := repositories.NewBusinessConfigRepository(deps.DB, logger)
	dashboardRepo := repositories.NewDashboardRepository(deps.DB, logger)

	// --- 2. СЕРВИСЫ ---
	configService := services.NewBusinessConfigService(configRepo, cacheRepo, deps.Bus, logger)
	authService := services.NewAuthService(userRepo, companyRepo, cacheRepo, deps.JWT, deps.Config.Auth, logger)
	companyService := services.NewCompanyService(txManager, companyRepo, ledgerRepo, deps.Bus, logger)
	projectService := services.NewProjectService(projectRepo, logger)
	userService := services.NewUserService(userRepo, projectRepo, logger)
	employeeService := services.NewEmployeeService(
		txManager, employeeRepo, projectRepo, subscriptionRepo, orderRepo, ledgerRepo, configService, deps.Bus, logger,
	)
	subscriptionService := services.NewSubscriptionService(
		txManager, subscriptionRepo, orderRepo, employeeRepo, projectRepo, companyRepo, ledgerRepo, configService, deps.Bus, logger,
	)
	orderService := services.NewOrderService(
		txManager, orderRepo, subscriptionRepo, employeeRepo, projectRepo, companyRepo, ledgerRepo, configService, deps.Bus, logger,
	)
	compensationService := services.NewCompensationService(
		txManager, compensationRepo, employeeRepo, projectRepo, companyRepo, ledgerRepo, configService, deps.Bus, logger,
	)
	transactionService := services.NewTransactionService(txManager, ledgerRepo, companyRepo, configService, deps.Bus, logger)
	invoiceService := services.NewInvoiceService(txManager, invoiceRepo, companyRepo, ledgerRepo, deps.Bus, logger)
	documentService := services.NewDocumentService(documentRepo, deps.Storage, logger)
	newsService := services.NewNewsService(newsRepo, deps.Storage, logger)
	dashboardService := services.NewDashboardService(dashboardRepo, companyRepo, cacheRepo, configService, logger)
	exportService := services.NewExportService(employeeRepo, orderRepo, ledgerRepo, logger)

	// --- 3. КОНТРОЛЛЕРЫ ---
	h := handlers{
		auth:         controllers.NewAuthController(authService, deps.Config.Auth.CookieSecure, logger),
		company:      controllers.NewCompanyController(companyService, logger),
		project:      controllers.NewProjectController(projectService, logger),
		user:         controllers.NewUserController(userService, logger),
		employee:     controllers.NewEmployeeController(employeeService, logger),
		subscription: controllers.NewSubscriptionController(subscriptionService, logger),
		order:        controllers.NewOrderController(orderService, logger),
		compensation: controllers.NewCompensationController(compensationService, logger),
		transaction:  controllers.NewTransactionController(transactionService, logger),
		invoice:      controllers.NewInvoiceController(invoiceService, logger),
		document:     controllers.NewDocumentController(documentService, logger),
		news:         controllers.NewNewsController(newsService, logger),
		config:       controllers.NewBusinessConfigController(configService, logger),
		dashboard:    controllers.NewDashboardController(dashboardService, logger),
		export:       controllers.NewExportController(exportService, logger),
		authMW:       middleware.NewAuthMiddleware(deps.JWT, logger),
		dedup:        controllers.NewRequestDeduplicator(),
	}

	health := controllers.NewHealthController(map[string]controllers.Pinger{
		"postgres": deps.DB,
		"redis": controllers.PingFunc(func(ctx context.Context) error {
			return deps.Redis.Ping(ctx).Err()
		}),
	}, logger)
	e.GET("/health", health.Health)

	// --- 4. ЛИМИТЫ ---
	rl := deps.Config.RateLimit
	h.loginLimiter = middleware.NewRateLimiter("login", rl.AuthRPS, rl.AuthBurst, logger)
	h.apiLimiter = middleware.NewRateLimiter("api", rl.RPS, rl.Burst, logger)
	if deps.Done != nil {
		h.loginLimiter.StartCleanup(5*time.Minute, deps.Done)
		h.apiLimiter.StartCleanup(5*time.Minute, deps.Done)
		go h.dedup.Cleanup(doneContext(deps.Done), time.Minute)
	}

	// --- 5. РОУТЕРЫ ---
	// /api/v1 - основной путь, /api - алиас без версии для старых клиентов
	for _, prefix := range []string{"/api/v1", "/api"} {
		api := e.Group(prefix, middleware.APIVersion(apiVersion))
		h.mount(api)
	}

	logger.Info("InitRouter: Создание маршрутов завершено")
	return &App{Orders: orderService, Config: configService, CacheRepo: cacheRepo}
}

type handlers struct {
	auth         *controllers.AuthController
	company      *controllers.CompanyController
	project      *controllers.ProjectController
	user         *controllers.UserController
	employee     *controllers.EmployeeController
	subscription *controllers.SubscriptionController
	order        *controllers.OrderController
	compensation *controllers.CompensationController
	transaction  *controllers.TransactionController
	invoice      *controllers.InvoiceController
	document     *controllers.DocumentController
	news         *controllers.NewsController
	config       *controllers.BusinessConfigController
	dashboard    *controllers.DashboardController
	export       *controllers.ExportController

	authMW       *middleware.AuthMiddleware
	dedup        *controllers.RequestDeduplicator
	loginLimiter *middleware.RateLimiter
	apiLimiter   *middleware.RateLimiter
}

func (h *handlers) mount(api *echo.Group) {
	runAuthRouter(api, h.auth, h.authMW, h.loginLimiter)

	secureGroup := api.Group("", h.authMW.Auth, h.apiLimiter.Middleware())

	runCompanyRouter(secureGroup, h.company)
	runProjectRouter(secureGroup, h.project)
	runUserRouter(secureGroup, h.user)
	runEmployeeRouter(secureGroup, h.employee)
	runSubscriptionRouter(secureGroup, h.subscription, h.dedup)
	runOrderRouter(secureGroup, h.order, h.dedup)
	runCompensationRouter(secureGroup, h.compensation, h.dedup)
	runTransactionRouter(secureGroup, h.transaction)
	runInvoiceRouter(secureGroup, h.invoice)
	runDocumentRouter(secureGroup, h.document)
	runNewsRouter(secureGroup, h.news)
	runBusinessConfigRouter(secureGroup, h.config)
	runReportRouter(secureGroup, h.dashboard, h.export)
}

func doneContext(done <-chan struct{}) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-done
		cancel()
	}()
	return ctx
}
