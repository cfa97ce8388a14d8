package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/votetripling/ambassador-api/internal/api/middleware"
	"github.com/votetripling/ambassador-api/internal/api/rest"
	"github.com/votetripling/ambassador-api/internal/api/shared/executor"
	"github.com/votetripling/ambassador-api/internal/logger"
)

// Config holds the server configuration
type Config struct {
	Debug              bool
	Host               string
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	CORSAllowedOrigins []string
}

// Server wraps the HTTP server
type Server struct {
	config     Config
	executor   executor.Executor
	auth       middleware.AuthConfig
	httpServer *http.Server
}

// New creates a new API server
func New(cfg Config, exec executor.Executor, authCfg middleware.AuthConfig) *Server {
	return &Server{
		config:   cfg,
		executor: exec,
		auth:     authCfg,
	}
}

// NewRouter builds the gin engine with the middleware chain and every REST route
func NewRouter(cfg Config, exec executor.Executor, authCfg middleware.AuthConfig) *gin.Engine {
	// Set Gin mode based on debug flag
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Setup middleware
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestScope())
	router.Use(middleware.Logger())
	router.Use(middleware.SetupCORS(cfg.CORSAllowedOrigins))

	rest.SetupRoutes(router, rest.NewHandler(exec), authCfg)

	return router
}

// Start initializes and starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      NewRouter(s.config, s.executor, s.auth),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	logger.Info("Starting API server",
		zap.String("address", addr),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down API server")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	return nil
}
