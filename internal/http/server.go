// Package http provides the HTTP servers: the public data-exchange endpoint
// with its administrative key surface, and the separate metrics server.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"github.com/rfgrow/vozzysmart1-sub008/internal/auth"
	"github.com/rfgrow/vozzysmart1-sub008/internal/config"
	flowsHTTP "github.com/rfgrow/vozzysmart1-sub008/internal/flows/http"
)

// Server represents the main HTTP server.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer creates the main HTTP server with all routes wired:
//
//	GET  /health                  liveness
//	GET  /ready                   readiness (database ping)
//	POST /v1/flows/data-exchange  the encrypted webhook
//	GET/POST/DELETE /v1/admin/keys   operator key management (bearer auth + rate limit)
func NewServer(
	cfg *config.Config,
	logger *slog.Logger,
	exchangeHandler *flowsHTTP.ExchangeHandler,
	keyAdminHandler *flowsHTTP.KeyAdminHandler,
	secretService auth.SecretService,
	readyCheck func(ctx context.Context) error,
) *Server {
	gin.SetMode(cfg.GetGinMode())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New())
	router.Use(CustomLoggerMiddleware(logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ready", func(c *gin.Context) {
		if readyCheck != nil {
			if err := readyCheck(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	router.POST("/v1/flows/data-exchange", exchangeHandler.ExchangeHandler)

	adminGroup := router.Group("/v1/admin/keys")
	adminGroup.Use(flowsHTTP.AdminAuthMiddleware(secretService, cfg.AdminAPIKeyHash, logger))
	if cfg.RateLimitEnabled {
		adminGroup.Use(RateLimitMiddleware(cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, logger))
	}
	adminGroup.GET("", keyAdminHandler.StatusHandler)
	adminGroup.POST("", keyAdminHandler.ReplaceHandler)
	adminGroup.DELETE("", keyAdminHandler.DeleteHandler)

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
