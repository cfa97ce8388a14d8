package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/votetripling/ambassador-api/internal/adapter"
	"github.com/votetripling/ambassador-api/internal/config"
	"github.com/votetripling/ambassador-api/internal/logger"
	"github.com/votetripling/ambassador-api/internal/messages"
	"github.com/votetripling/ambassador-api/internal/notify"
	"github.com/votetripling/ambassador-api/internal/providers/twilio"
	"github.com/votetripling/ambassador-api/internal/ratelimit"
	"github.com/votetripling/ambassador-api/internal/store"
	"github.com/votetripling/ambassador-api/internal/sweeper"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadSweeperConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Service:         "ambassador-sweeper",
		Environment:     cfg.Environment,
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Sweeper")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	dataStore := store.NewPGStore(db)
	clock := adapter.NewClock()
	httpClient := adapter.NewHTTPClient(cfg.Providers.HTTPTimeout, 2*cfg.Providers.HTTPTimeout)

	// The upgrade sms goes out through Twilio; without credentials it is only logged
	var smsSender notify.SMSSender = notify.NewLogSender()
	if cfg.Providers.Twilio.AccountSID != "" && cfg.Providers.Twilio.AuthToken != "" {
		twilioHTTP := ratelimit.NewHTTPClient(httpClient, "twilio", cfg.Providers.RateLimits["twilio"])
		smsSender = twilio.NewClient(twilioHTTP, twilio.Config{
			AccountSID: cfg.Providers.Twilio.AccountSID,
			AuthToken:  cfg.Providers.Twilio.AuthToken,
			FromNumber: cfg.Providers.Twilio.FromNumber,
			APIURL:     cfg.Providers.Twilio.APIURL,
			LookupURL:  cfg.Providers.Twilio.LookupURL,
		}, adapter.NewJSON())
	} else {
		logger.WarnCtx(ctx, "Twilio not configured, upgrade SMS will only be logged")
	}
	notifier := notify.New(smsSender, notify.NewLogSender())

	renderer, err := messages.NewRenderer(cfg.Program, cfg.Messages)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to load message templates", zap.Error(err))
	}

	upgradeSweeper := sweeper.NewUpgradeSweeper(sweeper.UpgradeSweeperConfig{
		Interval:       cfg.UpgradeSweeper.Interval,
		BatchSize:      cfg.UpgradeSweeper.BatchSize,
		WorkerPoolSize: cfg.UpgradeSweeper.Worker.WorkerPoolSize,
	}, dataStore, notifier, renderer, clock)

	logger.InfoCtx(ctx, "Initialized upgrade sweeper",
		zap.Duration("interval", cfg.UpgradeSweeper.Interval),
		zap.Int("batch_size", cfg.UpgradeSweeper.BatchSize),
		zap.Int("worker_pool_size", cfg.UpgradeSweeper.Worker.WorkerPoolSize),
	)

	// Start the sweeper in a goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := upgradeSweeper.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.ErrorCtx(ctx, err)
	}

	// Give the sweeper time to finish the sends in flight
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := upgradeSweeper.Stop(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err)
	}
	cancel()

	logger.InfoCtx(shutdownCtx, "Sweeper stopped")
}
