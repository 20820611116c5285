package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/irfndi/cryptogap-go/internal/api"
	"github.com/irfndi/cryptogap-go/internal/api/handlers"
	"github.com/irfndi/cryptogap-go/internal/arbitrage"
	"github.com/irfndi/cryptogap-go/internal/cache"
	"github.com/irfndi/cryptogap-go/internal/config"
	"github.com/irfndi/cryptogap-go/internal/database"
	"github.com/irfndi/cryptogap-go/internal/exchange"
	"github.com/irfndi/cryptogap-go/internal/llm"
	"github.com/irfndi/cryptogap-go/internal/logging"
	"github.com/irfndi/cryptogap-go/internal/services"
	"github.com/irfndi/cryptogap-go/internal/telemetry"
	"github.com/irfndi/cryptogap-go/pkg/ccxt"
)

// main serves as the entry point for the application.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

// run loads configuration, wires every component, serves HTTP and shuts
// down gracefully on SIGINT or SIGTERM.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logOpts := logging.Options{Level: cfg.LogLevel, Environment: cfg.Environment, File: cfg.LogFile}
	logger := logging.NewStandardOTLPLogger(logging.OTLPConfig{
		Options:        logOpts,
		Enabled:        cfg.Telemetry.Enabled,
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
	})
	defer func() { _ = logger.Close(context.Background()) }()
	logging.ConfigureLogrus(logOpts)

	provider, err := telemetry.Init(ctx, cfg.Telemetry, cfg.Environment)
	if err != nil {
		logger.WithError(err).Warn("Tracing disabled")
	} else {
		defer func() { _ = provider.Shutdown(context.Background()) }()
	}

	healthDeps := handlers.HealthDeps{Version: cfg.Telemetry.ServiceVersion}
	var calcOpts []arbitrage.Option

	if cfg.Database.Enabled {
		db, err := database.NewPostgresConnection(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		snapshots := database.NewSnapshotRepository(database.NewTracedPool(db.Pool))
		if err := snapshots.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("failed to prepare database schema: %w", err)
		}
		calcOpts = append(calcOpts, arbitrage.WithSnapshotStore(snapshots))
		healthDeps.Database = db
	}

	var priceCache *cache.PriceCache
	if cfg.Redis.Enabled {
		redisClient, err := database.NewRedisConnection(ctx, cfg.Redis)
		if err != nil {
			logger.WithError(err).Error("Failed to connect to Redis - continuing without cache")
		} else {
			defer redisClient.Close()
			priceCache = cache.NewPriceCache(redisClient.Client, cfg.Arbitrage.PriceCacheTTL, logger.WithComponent("price_cache"))
			healthDeps.Redis = redisClient
		}
	}

	ccxtClient := ccxt.NewClient(&cfg.CCXT)
	defer func() { _ = ccxtClient.Close() }()
	healthDeps.CCXT = ccxtClient

	fetchers := buildFetchers(cfg.Arbitrage, ccxtClient, priceCache, logger.WithComponent("exchange"))
	calculator := arbitrage.NewCalculator(fetchers, calculatorSettings(cfg.Arbitrage), logger.Logger(), calcOpts...)
	if err := calculator.RestoreLastOpportunity(ctx); err != nil {
		logger.WithError(err).Warn("Failed to restore last opportunity")
	}

	notifier, err := services.NewNotificationService(cfg.Telegram, logger.Logger())
	if err != nil {
		return err
	}
	healthDeps.Notifications = notifier.Enabled()

	poller := services.NewArbitrageService(calculator, notifier, services.ArbitrageServiceConfigFrom(cfg.Arbitrage), logger.Logger())
	if err := poller.Start(ctx); err != nil {
		return fmt.Errorf("failed to start arbitrage service: %w", err)
	}
	defer poller.Stop()
	healthDeps.Poller = poller

	analyzer := llm.NewAnalyzer(cfg.LLM, logger.Logger())
	healthDeps.Analysis = analyzer.Enabled()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(cfg.Telemetry.ServiceName, cfg.Server.AllowedOrigins, logger)
	api.SetupRoutes(router, api.Dependencies{
		Calculator: calculator,
		Coins:      services.NewCoinService(ccxtClient, cfg.Arbitrage, logger.Logger()),
		Analyst:    analyzer,
		Health:     healthDeps,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       15 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.LogStartup(cfg.Telemetry.ServiceName, cfg.Telemetry.ServiceVersion, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.LogShutdown(cfg.Telemetry.ServiceName, "signal received")
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	if priceCache != nil {
		priceCache.LogStats()
	}
	logger.Logger().Info("Server exited gracefully")
	return nil
}

// buildFetchers creates one rate-limited adapter per configured exchange
// behind a circuit breaker, wrapped in the Redis price cache when one is
// available.
func buildFetchers(cfg config.ArbitrageConfig, source exchange.TickerSource, priceCache *cache.PriceCache, logger *slog.Logger) []exchange.Fetcher {
	fetchers := make([]exchange.Fetcher, 0, len(cfg.Exchanges))
	for _, ex := range cfg.Exchanges {
		var f exchange.Fetcher = exchange.NewGuardedFetcher(
			exchange.NewAdapter(ex, source, cfg.RequestsPerSecond, logger),
			exchange.BreakerConfig{FailureThreshold: cfg.BreakerFailures, Cooldown: cfg.BreakerCooldown},
			logger,
		)
		if priceCache != nil {
			f = cache.NewCachedFetcher(f, priceCache)
		}
		fetchers = append(fetchers, f)
	}
	return fetchers
}

func calculatorSettings(cfg config.ArbitrageConfig) arbitrage.Settings {
	return arbitrage.Settings{
		Symbols:           cfg.Symbols,
		Markets:           cfg.Markets,
		LowPriceThreshold: decimal.NewFromFloat(cfg.LowPriceThreshold),
	}
}
