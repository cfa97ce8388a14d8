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
	"github.com/votetripling/ambassador-api/internal/api/middleware"
	"github.com/votetripling/ambassador-api/internal/api/server"
	"github.com/votetripling/ambassador-api/internal/api/shared/constants"
	"github.com/votetripling/ambassador-api/internal/api/shared/executor"
	"github.com/votetripling/ambassador-api/internal/claims"
	"github.com/votetripling/ambassador-api/internal/config"
	"github.com/votetripling/ambassador-api/internal/confirmation"
	"github.com/votetripling/ambassador-api/internal/fraud"
	"github.com/votetripling/ambassador-api/internal/logger"
	"github.com/votetripling/ambassador-api/internal/lookup"
	"github.com/votetripling/ambassador-api/internal/messages"
	"github.com/votetripling/ambassador-api/internal/messaging"
	"github.com/votetripling/ambassador-api/internal/notify"
	"github.com/votetripling/ambassador-api/internal/providers/ekata"
	"github.com/votetripling/ambassador-api/internal/providers/geocoder"
	"github.com/votetripling/ambassador-api/internal/providers/jetstream"
	"github.com/votetripling/ambassador-api/internal/providers/sendgrid"
	"github.com/votetripling/ambassador-api/internal/providers/twilio"
	"github.com/votetripling/ambassador-api/internal/ratelimit"
	"github.com/votetripling/ambassador-api/internal/reward"
	"github.com/votetripling/ambassador-api/internal/search"
	"github.com/votetripling/ambassador-api/internal/store"
	"github.com/votetripling/ambassador-api/internal/tasks"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Service:         constants.SERVICE_NAME,
		Environment:     cfg.Environment,
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Ambassador API")

	dataStore := openStore(ctx, cfg.Database)

	// Initialize adapters
	clock := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()
	httpClient := adapter.NewHTTPClient(cfg.Providers.HTTPTimeout, 2*cfg.Providers.HTTPTimeout)

	// Initialize providers, falling back to log-only senders in development
	limits := cfg.Providers.RateLimits
	twilioClient := twilio.NewClient(ratelimit.NewHTTPClient(httpClient, "twilio", limits["twilio"]), twilio.Config{
		AccountSID:      cfg.Providers.Twilio.AccountSID,
		AuthToken:       cfg.Providers.Twilio.AuthToken,
		FromNumber:      cfg.Providers.Twilio.FromNumber,
		APIURL:          cfg.Providers.Twilio.APIURL,
		LookupURL:       cfg.Providers.Twilio.LookupURL,
		BlockedCarriers: cfg.Providers.Twilio.BlockedCarriers,
	}, jsonAdapter)
	twilioConfigured := cfg.Providers.Twilio.AccountSID != "" && cfg.Providers.Twilio.AuthToken != ""

	var smsSender notify.SMSSender = notify.NewLogSender()
	var carriers lookup.CarrierLookup = lookup.NewUnscreenedCarrierLookup()
	var identities []lookup.IdentityLookup
	if twilioConfigured {
		smsSender = twilioClient
		carriers = twilioClient
		identities = append(identities, twilioClient)
	} else {
		logger.WarnCtx(ctx, "Twilio not configured, SMS will only be logged and carriers will not be screened")
	}
	if cfg.Providers.Ekata.APIKey != "" {
		identities = append(identities, ekata.NewClient(ratelimit.NewHTTPClient(httpClient, "ekata", limits["ekata"]), cfg.Providers.Ekata.APIURL, cfg.Providers.Ekata.APIKey))
	}

	var emailSender notify.EmailSender = notify.NewLogSender()
	if cfg.Providers.SendGrid.APIKey != "" {
		emailSender = sendgrid.NewClient(ratelimit.NewHTTPClient(httpClient, "sendgrid", limits["sendgrid"]),
			cfg.Providers.SendGrid.APIURL,
			cfg.Providers.SendGrid.APIKey,
			cfg.Providers.SendGrid.FromEmail,
			jsonAdapter)
	} else {
		logger.WarnCtx(ctx, "SendGrid not configured, admin emails will only be logged")
	}
	notifier := notify.New(smsSender, emailSender)
	geo := geocoder.NewCensusGeocoder(ratelimit.NewHTTPClient(httpClient, "geocoder", limits["geocoder"]), cfg.Providers.Geocoder.APIURL, cfg.Providers.Geocoder.Benchmark)

	// Initialize event publisher
	publisher := messaging.NewNoopPublisher()
	if cfg.NATS.URL != "" {
		publisher, err = jetstream.NewPublisher(ctx, jetstream.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			SubjectPrefix:  cfg.NATS.SubjectPrefix,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
		}, adapter.NewNatsJetStream(), jsonAdapter)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to create event publisher", zap.Error(err))
		}
		logger.InfoCtx(ctx, "Connected to NATS", zap.String("url", cfg.NATS.URL))
	} else {
		logger.WarnCtx(ctx, "NATS not configured, tripler events will not be published")
	}
	defer publisher.Close()

	renderer, err := messages.NewRenderer(cfg.Program, cfg.Messages)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to load message templates", zap.Error(err))
	}

	taskQueue := tasks.NewQueue(tasks.Config{
		WorkerPoolSize:  cfg.Tasks.Worker.WorkerPoolSize,
		WorkerQueueSize: cfg.Tasks.Worker.WorkerQueueSize,
	}, clock)

	// Wire the workflows
	claimManager := claims.NewManager(dataStore, notifier, renderer, publisher, clock)
	workflow := confirmation.NewWorkflow(confirmation.Deps{
		Store:      dataStore,
		Screen:     fraud.NewScreen(dataStore, carriers, clock),
		Identities: identities,
		Notifier:   notifier,
		Renderer:   renderer,
		Rewards:    reward.NewEngine(dataStore, cfg.Program, clock),
		Queue:      taskQueue,
		Publisher:  publisher,
		Clock:      clock,
	}, confirmation.Config{AdminEmailDelay: cfg.Tasks.AdminEmailDelay})
	matcher := search.NewMatcher(dataStore, cfg.Search)

	exec := executor.NewExecutor(dataStore, geo, claimManager, workflow, matcher)

	srv := server.New(server.Config{
		Debug:              cfg.Debug,
		Host:               cfg.Server.Host,
		Port:               cfg.Server.Port,
		ReadTimeout:        time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:       time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:        time.Duration(cfg.Server.IdleTimeout) * time.Second,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
	}, exec, middleware.AuthConfig{
		JWTPublicKey: cfg.Auth.JWTPublicKey,
		APIKeys:      cfg.Auth.APIKeys,
	})

	// Start server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "server"))
		cancel()
	}

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, fmt.Errorf("server forced to shutdown: %w", err))
	}

	// Run the pending admin emails before exiting
	if err := taskQueue.Shutdown(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, fmt.Errorf("task queue forced to shutdown: %w", err))
	}

	// Use non-context logger for final message since original ctx is canceled
	logger.Info("API server stopped")
}

// openStore connects the configured store
func openStore(ctx context.Context, cfg config.DatabaseConfig) store.Store {
	if cfg.Driver == config.DatabaseDriverMemory {
		logger.WarnCtx(ctx, "Using in-memory store, data will not survive a restart")
		return store.NewMemoryStore()
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Host))
	}

	if err := store.ConfigureConnectionPool(db, cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime, cfg.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns),
	)

	return store.NewPGStore(db)
}
