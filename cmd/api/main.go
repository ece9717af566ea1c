package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/triumph-atlantic/matrix-api/docs"
	"github.com/triumph-atlantic/matrix-api/internal/access"
	"github.com/triumph-atlantic/matrix-api/internal/auth"
	"github.com/triumph-atlantic/matrix-api/internal/cache"
	"github.com/triumph-atlantic/matrix-api/internal/config"
	"github.com/triumph-atlantic/matrix-api/internal/database"
	"github.com/triumph-atlantic/matrix-api/internal/datawarehouse"
	"github.com/triumph-atlantic/matrix-api/internal/http/handler"
	"github.com/triumph-atlantic/matrix-api/internal/http/middleware"
	"github.com/triumph-atlantic/matrix-api/internal/http/router"
	"github.com/triumph-atlantic/matrix-api/internal/jobs"
	"github.com/triumph-atlantic/matrix-api/internal/logger"
	"github.com/triumph-atlantic/matrix-api/internal/repository"
	"github.com/triumph-atlantic/matrix-api/internal/service"
	"github.com/triumph-atlantic/matrix-api/internal/tradeswap"
	"go.uber.org/zap"
)

const (
	warehouseSyncTimeout    = 10 * time.Minute
	tradeSwapRefreshTimeout = 2 * time.Minute
)

// @title Contractor Matrix API
// @version 1.0
// @description Relationship matrix shared by contractor organizations. Every organization sees only the client companies it works with; the oversight organization sees everything.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token carrying an org claim

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description API key for integrations, sent with X-Organization

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)

	// In development secrets come from the environment, elsewhere from Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.Database.Driver == "sqlite" {
		// Local runs have no migration step
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to migrate sqlite database: %w", err)
		}
	}

	cacheStore, err := newCacheStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cacheStore.Close()

	// The warehouse is optional; the API runs without it
	dwClient, err := datawarehouse.NewClient(&cfg.Warehouse, log)
	if err != nil {
		log.Warn("Warehouse connection failed, continuing without it", zap.Error(err))
		dwClient = nil
	}

	policy := access.NewPolicy(cfg.Organizations.Oversight)
	store := repository.NewStore(db)
	analyzer := tradeswap.NewAnalyzer(tradeswap.Options{
		CanonicalPairs: cfg.Analytics.CanonicalPairs,
		PreferLatest:   cfg.Analytics.PreferLatest,
	})

	// Services
	visibilityService := service.NewVisibilityService(store, store.ChangeLog, policy, log)
	tradeSwapService := service.NewTradeSwapService(visibilityService, analyzer, cacheStore, cfg.Analytics.CacheTTLDuration(), log)
	recordService := service.NewRecordService(store, visibilityService, tradeSwapService, log)
	changeLogService := service.NewChangeLogService(store.ChangeLog, log)

	var importService *service.ProjectImportService
	if dwClient.IsEnabled() {
		importService = service.NewProjectImportService(dwClient, store.Projects, tradeSwapService, log)
	}

	// Middleware
	authMiddleware := auth.NewMiddleware(&cfg.Auth, log)
	orgFilter := middleware.NewOrgFilterMiddleware(policy, &cfg.Organizations, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)
	auditMiddleware := middleware.NewAuditMiddleware(changeLogService, nil, log)

	rt := router.NewRouter(
		cfg,
		log,
		router.Dependencies{DB: db, Warehouse: dwClient, Cache: cacheStore},
		authMiddleware,
		orgFilter,
		rateLimiter,
		auditMiddleware,
		router.Handlers{
			Organization: handler.NewOrganizationHandler(&cfg.Organizations),
			Visibility:   handler.NewVisibilityHandler(visibilityService, log),
			Company:      handler.NewCompanyHandler(recordService, visibilityService, tradeSwapService, log),
			Record:       handler.NewRecordHandler(recordService, log),
			TradeSwap:    handler.NewTradeSwapHandler(tradeSwapService, log),
			Import:       handler.NewImportHandler(importService, policy, log),
		},
	)

	scheduler, err := startScheduler(cfg, tradeSwapService, importService, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			<-scheduler.Stop().Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if err := dwClient.Close(); err != nil {
			log.Warn("Error closing warehouse connection", zap.Error(err))
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}

func newCacheStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (cache.Store, error) {
	if cfg.Cache.Driver != "redis" {
		log.Info("Using in-memory analytics cache")
		return cache.NewMemoryStore(), nil
	}
	store, err := cache.NewRedisStore(ctx, cache.RedisConfig{
		Addr:      cfg.Cache.RedisAddr,
		Password:  cfg.Cache.RedisPassword,
		DB:        cfg.Cache.RedisDB,
		KeyPrefix: cfg.Cache.KeyPrefix,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return store, nil
}

// startScheduler registers the background jobs. Returns a nil scheduler when
// jobs are disabled.
func startScheduler(cfg *config.Config, warmer jobs.CandidateWarmer, importer *service.ProjectImportService, log *zap.Logger) (*jobs.Scheduler, error) {
	if !cfg.Jobs.Enabled {
		log.Info("Background jobs disabled")
		return nil, nil
	}

	scheduler := jobs.NewScheduler(log)

	if cfg.Analytics.CacheTTL > 0 && cfg.Jobs.TradeSwapRefreshCron != "" {
		if err := jobs.RegisterTradeSwapRefreshJob(
			scheduler,
			warmer,
			cfg.Organizations.Names,
			log,
			cfg.Jobs.TradeSwapRefreshCron,
			tradeSwapRefreshTimeout,
		); err != nil {
			return nil, fmt.Errorf("failed to register trade-swap refresh job: %w", err)
		}
	}

	if importer != nil && cfg.Jobs.WarehouseSyncCron != "" {
		// A full import runs at startup, in the background
		if err := jobs.RegisterWarehouseSyncJob(
			scheduler,
			importer,
			log,
			cfg.Jobs.WarehouseSyncCron,
			warehouseSyncTimeout,
			true,
		); err != nil {
			return nil, fmt.Errorf("failed to register warehouse sync job: %w", err)
		}
	} else {
		log.Info("Warehouse sync disabled", zap.Bool("warehouse_available", importer != nil))
	}

	scheduler.Start()
	log.Info("Scheduler started", zap.Strings("jobs", scheduler.GetJobNames()))
	return scheduler, nil
}
