package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nursing-narrative-mcp-server/internal/domain"
	"github.com/nursing-narrative-mcp-server/internal/middleware"
	"github.com/nursing-narrative-mcp-server/internal/service"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// HealthCheck checks one dependency. A non-nil error marks the server degraded.
type HealthCheck func(ctx context.Context) error

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	narratives    *service.NarrativeService
	logger        *logrus.Logger
	router        *gin.Engine
	server        *http.Server
	checks        map[string]HealthCheck
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, narratives *service.NarrativeService, logger *logrus.Logger) (*Server, error) {
	cfg := configManager.GetConfig()

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter, err := middleware.NewClientRateLimiter(cfg.Server.RequestsPerSec, cfg.Server.Burst)
	if err != nil {
		return nil, fmt.Errorf("creating rate limiter: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(corsMiddleware())
	router.Use(middleware.MaxBodySize(cfg.Server.MaxBodyBytes))

	server := &Server{
		configManager: configManager,
		narratives:    narratives,
		logger:        logger,
		router:        router,
		checks:        make(map[string]HealthCheck),
	}

	server.setupRoutes(middleware.RateLimit(limiter))

	return server, nil
}

// AddHealthCheck registers a dependency check reported by /health.
func (s *Server) AddHealthCheck(name string, check HealthCheck) {
	s.checks[name] = check
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes(rateLimit gin.HandlerFunc) {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1", rateLimit)
	{
		v1.GET("/formats", s.handleFormats)
		v1.POST("/classify", s.handleClassify)
		v1.POST("/extract", s.handleExtract)
		v1.POST("/drafts", s.handleDraft)
		v1.POST("/compose", s.handleCompose)

		v1.POST("/feedback", s.handleRecordFeedback)
		v1.GET("/feedback", s.handleListFeedback)
		v1.GET("/feedback/agreement", s.handleFeedbackAgreement)
	}
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Correlation-ID")
		c.Header("Access-Control-Expose-Headers", "X-Correlation-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
