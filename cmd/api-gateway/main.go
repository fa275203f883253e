package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/luckydraw-admin-api/api/swagger"
	"github.com/noah-isme/luckydraw-admin-api/internal/handler"
	"github.com/noah-isme/luckydraw-admin-api/internal/middleware"
	"github.com/noah-isme/luckydraw-admin-api/internal/models"
	"github.com/noah-isme/luckydraw-admin-api/internal/repository"
	"github.com/noah-isme/luckydraw-admin-api/internal/service"
	"github.com/noah-isme/luckydraw-admin-api/pkg/cache"
	"github.com/noah-isme/luckydraw-admin-api/pkg/config"
	"github.com/noah-isme/luckydraw-admin-api/pkg/database"
	"github.com/noah-isme/luckydraw-admin-api/pkg/jobs"
	"github.com/noah-isme/luckydraw-admin-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/luckydraw-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/luckydraw-admin-api/pkg/middleware/requestid"
	"github.com/noah-isme/luckydraw-admin-api/pkg/storage"
)

const shutdownTimeout = 30 * time.Second

// @title Lucky Draw Admin API
// @version 1.0.0
// @description Back-office API for lucky draw programs: draw history, extra numbers, customers and exports.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		// History still works uncached; view state is simply not remembered.
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
	}

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		defer redisClient.Close() //nolint:errcheck
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.History.CacheTTL, logr, cacheRepo != nil)

	historyRepo := repository.NewHistoryRepository(db, repository.DefaultHistoryRowLimit, logr)
	programRepo := repository.NewProgramRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	exportRepo := repository.NewExportJobRepository(db)

	location := cfg.History.Location()
	historySvc := service.NewHistoryService(historyRepo, programRepo, cacheSvc, metricsSvc, logr, service.HistoryServiceConfig{
		CacheTTL:        cfg.History.CacheTTL,
		ViewStateTTL:    cfg.History.ViewStateTTL,
		DefaultPageSize: cfg.History.DefaultPageSize,
		MaxPageSize:     cfg.History.MaxPageSize,
		Location:        location,
	})
	programSvc := service.NewProgramService(programRepo, historySvc, validate, logr)
	customerSvc := service.NewCustomerService(customerRepo, programRepo, historySvc, metricsSvc, validate, logr, service.CustomerServiceConfig{
		BulkConcurrency: cfg.Bulk.Concurrency,
	})
	tokenSvc := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	var exportHandler *handler.ExportHandler
	if cfg.Exports.Enabled {
		exportJobSvc, queue, err := buildExports(cfg, exportRepo, historySvc, metricsSvc, validate, location, logr)
		if err != nil {
			logr.Fatal("failed to initialise exports", zap.Error(err))
		}
		queue.Start(ctx)
		defer queue.Stop()
		exportJobSvc.RecoverPendingJobs(ctx)
		exportJobSvc.StartCleanup(ctx)
		exportHandler = handler.NewExportHandler(exportJobSvc)
	}

	router := newRouter(cfg, logr, routes{
		tokens:    tokenSvc,
		metrics:   metricsSvc,
		history:   handler.NewHistoryHandler(historySvc),
		programs:  handler.NewProgramHandler(programSvc, historySvc),
		customers: handler.NewCustomerHandler(customerSvc, cfg.Imports.MaxFileSizeBytes),
		exports:   exportHandler,
		health:    handler.NewMetricsHandler(metricsSvc, readinessChecks(db, redisClient)),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildExports(cfg *config.Config, repo *repository.ExportJobRepository, history *service.HistoryService, metrics *service.MetricsService, validate *validator.Validate, location *time.Location, logr *zap.Logger) (*service.ExportJobService, *jobs.Queue, error) {
	store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return nil, nil, fmt.Errorf("export storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exporter := service.NewExportService(history, store, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
		Location:  location,
	}, logr)

	worker := service.NewExportWorker(repo, exporter, metrics, logr)
	var jobSvc *service.ExportJobService
	queue := jobs.NewQueue("history-exports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
		OnGiveUp: func(ctx context.Context, job jobs.Job, cause error) {
			jobSvc.MarkFailed(ctx, job, cause)
		},
	})
	jobSvc = service.NewExportJobService(repo, queue, exporter, history, metrics, validate, logr, service.ExportJobServiceConfig{
		CleanupInterval: cfg.Exports.CleanupInterval,
	})
	return jobSvc, queue, nil
}

func readinessChecks(db *sqlx.DB, client *redis.Client) map[string]handler.ReadinessCheck {
	checks := map[string]handler.ReadinessCheck{
		"postgres": db.PingContext,
	}
	if client != nil {
		checks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
	}
	return checks
}

type routes struct {
	tokens    middleware.TokenValidator
	metrics   *service.MetricsService
	history   *handler.HistoryHandler
	programs  *handler.ProgramHandler
	customers *handler.CustomerHandler
	exports   *handler.ExportHandler
	health    *handler.MetricsHandler
}

type routeLimiters struct {
	imports    *middleware.RateLimiter
	bulkDelete *middleware.RateLimiter
}

func newRouteLimiters(cfg *config.Config) routeLimiters {
	return routeLimiters{
		imports:    middleware.NewRateLimiter(cfg.Imports.RatePerMinute, cfg.Imports.Burst),
		bulkDelete: middleware.NewRateLimiter(cfg.Bulk.RatePerMinute, cfg.Bulk.Burst),
	}
}

func newRouter(cfg *config.Config, logr *zap.Logger, h routes) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(h.metrics, "/health", "/ready", "/metrics"))

	r.GET("/health", h.health.Health)
	r.GET("/ready", h.health.Ready)
	r.GET("/metrics", h.health.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())

	// The signed token is the credential for downloads.
	if h.exports != nil {
		api.GET("/export/:token", h.exports.Download)
	}

	writers := middleware.RequireRoles(models.RoleAdmin, models.RoleOperator)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	limits := newRouteLimiters(cfg)

	secured := api.Group("")
	secured.Use(middleware.JWT(h.tokens))

	history := secured.Group("/history")
	history.GET("", h.history.List)
	history.PATCH("/view", h.history.UpdateView)
	if h.exports != nil {
		history.POST("/exports", h.exports.Create)
		secured.GET("/exports/:id", h.exports.Status)
	}

	programs := secured.Group("/programs")
	programs.GET("", h.programs.List)
	programs.POST("", adminOnly, h.programs.Create)
	programs.GET("/:id", h.programs.Get)
	programs.PUT("/:id", adminOnly, h.programs.Update)
	programs.GET("/:id/prizes", h.programs.Prizes)
	programs.GET("/:id/dashboard", h.programs.Dashboard)
	programs.GET("/:id/extra-numbers", h.programs.ExtraNumbers)
	programs.PUT("/:id/extra-numbers", writers, h.programs.SaveExtraNumbers)
	programs.DELETE("/:id/extra-numbers/:number", writers, h.programs.RemoveExtraNumber)
	programs.GET("/:id/customers", h.customers.List)
	programs.POST("/:id/customers", writers, h.customers.Register)
	programs.POST("/:id/customers/import", writers, limits.imports.Middleware(), h.customers.Import)

	secured.POST("/customers/bulk-delete", adminOnly, limits.bulkDelete.Middleware(), h.customers.BulkDelete)
	secured.GET("/system/metrics", adminOnly, h.health.Summary)

	return r
}
