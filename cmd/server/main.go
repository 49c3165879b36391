// Package main is the entry point for the tourdesk financial reporting API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"tourdesk/internal/config"
	"tourdesk/internal/domain/finance"
	"tourdesk/internal/infrastructure/cache"
	v1 "tourdesk/internal/infrastructure/http/v1"
	"tourdesk/internal/infrastructure/observability"
	"tourdesk/internal/infrastructure/storage/postgres"
	"tourdesk/internal/infrastructure/storage/postgres/finance_repo"
	"tourdesk/pkg/logger"
)

const poolStatsInterval = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg.Logger())
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)

	log.Infow("starting tourdesk reporting server", "env", cfg.AppEnv, "version", cfg.AppVersion)

	// --- Database ---
	pool, err := postgres.NewPool(ctx, cfg.Pool())
	if err != nil {
		logger.Fatal(ctx, "failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool, cfg.TxOptions())
	repo := finance_repo.NewFinanceRepo(txManager)

	// --- Metrics ---
	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	// --- Finance service ---
	opts := []finance.Option{finance.WithLocation(cfg.Location())}
	if metrics != nil {
		opts = append(opts, finance.WithRecorder(metrics))
	}
	if cfg.ReportSnapshot {
		opts = append(opts, finance.WithSnapshot(txManager))
		log.Info("reports read from a single snapshot transaction")
	}
	var reporter finance.Reporter = finance.NewService(repo.Repositories(), opts...)

	// --- Report cache ---
	if cfg.CacheEnabled() {
		redisClient, err := cache.New(ctx, cfg.Redis())
		if err != nil {
			logger.Fatal(ctx, "failed to connect to redis", "error", err)
		}
		defer func() { _ = redisClient.Close() }()

		var observer cache.Observer
		if metrics != nil {
			observer = metrics
		}
		reportCache := cache.NewReportCache(redisClient, cfg.ReportCacheTTL, observer)
		if err := reportCache.ListenForInvalidation(ctx); err != nil {
			log.Warnw("report cache invalidation listener not started", "error", err)
		}
		reporter = finance.NewCachedReporter(reporter, reportCache, cfg.Location())
		log.Infow("report cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.ReportCacheTTL)
	}

	// --- Router ---
	routerCfg := v1.RouterConfig{
		Logger:         log,
		Finance:        reporter,
		Health:         pool,
		RequestTimeout: cfg.RequestTimeout,
		Location:       cfg.Location(),
		Version:        cfg.AppVersion,
		Production:     cfg.IsProduction(),
		CORSOrigins:    cfg.CORSAllowedOrigins,
	}
	if metrics != nil {
		routerCfg.Metrics = metrics
	}
	router := v1.NewRouter(routerCfg)

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("server starting", "addr", server.Addr, "timezone", cfg.TimeZone)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	go logPoolStats(ctx, pool)

	// --- Graceful shutdown ---
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		log.Errorw("server failed", "error", err)
	}

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func logPoolStats(ctx context.Context, pool *postgres.Pool) {
	ticker := time.NewTicker(poolStatsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pool.LogStats(ctx)
		}
	}
}
