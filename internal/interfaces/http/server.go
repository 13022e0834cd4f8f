// internal/interfaces/http/server.go
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/orient-appliances/storefront/internal/config"
	"github.com/orient-appliances/storefront/internal/interfaces/http/middleware"
	"github.com/orient-appliances/storefront/internal/interfaces/http/routes"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// HealthChecker reports whether a backing service is reachable
type HealthChecker interface {
	Health() error
}

// Server represents the HTTP server
type Server struct {
	config      *config.Config
	log         *logrus.Logger
	gin         *gin.Engine
	httpServer  *http.Server
	handlers    *routes.Handlers
	redisClient *redis.Client
	checks      map[string]HealthChecker
	uploadsDir  string
	startedAt   time.Time
}

// NewServer creates a new HTTP server instance. uploadsDir is served under /uploads when set.
func NewServer(cfg *config.Config, log *logrus.Logger, h *routes.Handlers, redisClient *redis.Client, checks map[string]HealthChecker, uploadsDir string) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:      cfg,
		log:         log,
		gin:         gin.New(),
		handlers:    h,
		redisClient: redisClient,
		checks:      checks,
		uploadsDir:  uploadsDir,
		startedAt:   time.Now(),
	}
	if err := s.gin.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		log.WithError(err).Warn("Invalid trusted proxies, trusting none")
		_ = s.gin.SetTrustedProxies(nil)
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the configured router
func (s *Server) Handler() http.Handler {
	return s.gin
}

// Start serves until Stop is called
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Server.Port,
		Handler:      s.gin,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	s.log.WithFields(logrus.Fields{
		"port":     s.config.Server.Port,
		"base_url": fmt.Sprintf("http://localhost:%s/api/v1", s.config.Server.Port),
	}).Info("HTTP server starting")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.log.Info("Shutting down HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.log.Info("HTTP server stopped gracefully")
	return nil
}

func (s *Server) setupMiddleware() {
	s.gin.Use(middleware.RequestID())
	s.gin.Use(middleware.Recovery(s.log))
	s.gin.Use(middleware.Logger(s.log))
	s.gin.Use(middleware.CORS(s.config))
	s.gin.Use(middleware.SecurityHeaders(s.config.App.Name))
	if s.redisClient != nil {
		s.gin.Use(middleware.RateLimit(s.redisClient, s.config.Security.RateLimitPerMinute, s.log))
	}
	s.gin.Use(middleware.BodyLimit(s.config.Server.MaxRequestBytes))
	s.gin.Use(middleware.Timeout(s.config.Server.RequestTimeout))
}

func (s *Server) setupRoutes() {
	s.gin.GET("/health", s.healthCheck)
	s.gin.GET("/ready", s.readinessCheck)

	if s.uploadsDir != "" {
		s.gin.Static("/uploads", s.uploadsDir)
	}

	apiV1 := s.gin.Group("/api/v1")
	routes.SetupRoutes(apiV1, s.handlers)
}

// healthCheck reports the state of every backing service
func (s *Server) healthCheck(c *gin.Context) {
	services := make(gin.H, len(s.checks))
	healthy := true
	for name, check := range s.checks {
		if err := check.Health(); err != nil {
			healthy = false
			services[name] = "unhealthy"
			s.log.WithError(err).WithField("service", name).Warn("Health check failed")
			continue
		}
		services[name] = "healthy"
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":      status,
		"services":    services,
		"timestamp":   time.Now().UTC(),
		"version":     s.config.App.Version,
		"environment": s.config.App.Environment,
	})
}

// readinessCheck handles readiness check requests
func (s *Server) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(s.startedAt).String(),
	})
}
