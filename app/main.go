package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"yalla-business/internal/jobs"
	"yalla-business/internal/listeners"
	"yalla-business/internal/migrations"
	"yalla-business/internal/routes"
	"yalla-business/pkg/api"
	"yalla-business/pkg/config"
	"yalla-business/pkg/database/postgresql"
	"yalla-business/pkg/eventbus"
	"yalla-business/pkg/filestorage"
	applogger "yalla-business/pkg/logger"
	"yalla-business/pkg/metrics"
	"yalla-business/pkg/middleware"
	"yalla-business/pkg/service"
	"yalla-business/pkg/validation"
)

func main() {
	// 1. Конфиг и логгер
	cfg := config.New()
	logger := applogger.NewLogger(cfg.Log.Level, cfg.Log.File)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Echo и middleware
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.NewHTTPErrorHandler(logger)
	e.Validator = validation.New()

	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("!!! ОБНАРУЖЕНА ПАНИКА (PANIC) !!!",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.String("stack", string(stack)),
			)
			return err
		},
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.Server.FrontendURLs,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, middleware.HeaderAPIVersion},
		AllowCredentials: true,
		ExposeHeaders:    []string{echo.HeaderContentDisposition, middleware.HeaderAPIVersion, "Retry-After"},
	}))
	e.Use(metrics.Middleware())
	e.Use(middleware.InjectLogger(logger))

	// 3. Postgres + миграции
	dbConn, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal("не удалось подключиться к PostgreSQL", zap.Error(err))
	}
	defer dbConn.Close()

	if cfg.Postgres.MigrateOnStart {
		if err := migrations.Up(ctx, dbConn); err != nil {
			logger.Fatal("ошибка миграций", zap.Error(err))
		}
		logger.Info("Миграции применены")
	}

	// 4. Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		logger.Fatal("не удалось подключиться к Redis", zap.Error(err), zap.String("address", cfg.Redis.Address))
	}

	// 5. Файловое хранилище: Supabase, если настроен, иначе локальный диск
	storage, err := newFileStorage(cfg)
	if err != nil {
		logger.Fatal("не удалось создать файловое хранилище", zap.Error(err))
	}

	// 6. Шина событий, JWT, маршруты
	bus := eventbus.New(logger)
	jwtSvc := service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)

	done := make(chan struct{})
	app := routes.InitRouter(e, routes.Dependencies{
		DB:      dbConn,
		Redis:   redisClient,
		JWT:     jwtSvc,
		Storage: storage,
		Bus:     bus,
		Config:  cfg,
		Logger:  logger,
		Done:    done,
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	listeners.NewDashboardCacheListener(app.CacheRepo, logger).Register(bus)
	listeners.NewMetricsListener().Register(bus)

	// 7. Настройки по умолчанию: только недостающие ключи
	if f, err := os.Open(cfg.Seed.BusinessDefaultsFile); err != nil {
		logger.Warn("Файл настроек по умолчанию не найден", zap.String("file", cfg.Seed.BusinessDefaultsFile), zap.Error(err))
	} else {
		inserted, err := app.Config.EnsureDefaults(ctx, f)
		_ = f.Close()
		if err != nil {
			logger.Fatal("не удалось загрузить настройки по умолчанию", zap.Error(err))
		}
		logger.Info("Настройки по умолчанию проверены", zap.Int64("inserted", inserted))
	}

	// 8. Крон
	scheduler := jobs.NewScheduler(app.Orders, cfg.Scheduler.Location(), logger)
	if err := scheduler.AddOrderCompletion(cfg.Scheduler.OrderCompletionSpec); err != nil {
		logger.Fatal("неверное расписание закрытия заказов",
			zap.String("spec", cfg.Scheduler.OrderCompletionSpec), zap.Error(err))
	}
	scheduler.Start()

	// 9. Сервер
	go func() {
		logger.Info("Сервер запущен", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Ошибка запуска сервера", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Остановка сервера...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	close(done)
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка остановки HTTP-сервера", zap.Error(err))
	}
	scheduler.Stop(shutdownCtx)
	bus.Wait()
	logger.Info("Сервер остановлен")
}

func newFileStorage(cfg *config.Config) (filestorage.FileStorageInterface, error) {
	if cfg.Storage.SupabaseURL != "" {
		return filestorage.NewSupabaseFileStorage(cfg.Storage.SupabaseURL, cfg.Storage.SupabaseKey, cfg.Storage.SupabaseBucket)
	}
	return filestorage.NewLocalFileStorage(cfg.Server.UploadDir)
}
