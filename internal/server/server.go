// Package server is the HTTP front end of the cover service.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lepinkainen/coce/internal/fetcher"
	"github.com/lepinkainen/coce/internal/metrics"
)

const shutdownTimeout = 30 * time.Second

// CoverFetcher resolves cover URLs for a batch of identifiers.
type CoverFetcher interface {
	Fetch(ctx context.Context, ids, providers []string, deadline time.Duration) (fetcher.Result, error)
}

// Options configures the HTTP server.
type Options struct {
	Port int
	// Providers is the default provider list, in priority order.
	Providers []string
	// Timeout is the Fetch deadline of one request.
	Timeout time.Duration
	// MirrorDir is served under /covers when set.
	MirrorDir string
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	fetcher    CoverFetcher
	opts       Options
}

// New creates a new server instance
func New(f CoverFetcher, opts Options) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	// Register metrics (idempotent)
	metrics.Register()

	s := &Server{
		router:  router,
		fetcher: f,
		opts:    opts,
	}
	s.setupRoutes()
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.welcome)
	s.router.GET("/cover", s.cover)
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if s.opts.MirrorDir != "" {
		s.router.Static("/covers", s.opts.MirrorDir)
	}
}

// Start serves on the configured port until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.opts.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.opts.Port, err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", listener.Addr().String(), "providers", s.opts.Providers)
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server exited")
	return nil
}

func (s *Server) welcome(c *gin.Context) {
	c.String(http.StatusOK, "Welcome to coce")
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// cover answers GET /cover?id=<ids>&provider=<providers>[&all][&callback=<fn>].
// Without all, every identifier maps to the URL of the first provider in
// request order that found one.
func (s *Server) cover(c *gin.Context) {
	ids, err := ValidateIDs(c.Query("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	providers, err := ValidateProviders(c.Query("provider"), s.opts.Providers)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	callback := c.Query("callback")
	if callback != "" {
		if err := ValidateCallback(callback); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	result, err := s.fetcher.Fetch(c.Request.Context(), ids, providers, s.opts.Timeout)
	if err != nil {
		var cfgErr *fetcher.ConfigError
		if errors.As(err, &cfgErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": cfgErr.Error()})
			return
		}
		// The client went away; nobody reads the answer.
		slog.Debug("Cover request abandoned", "ids", len(ids), "error", err)
		c.Status(http.StatusServiceUnavailable)
		return
	}

	var payload any = result.Preferred(providers)
	if _, all := c.GetQuery("all"); all {
		payload = result
	}

	if callback != "" {
		c.JSONP(http.StatusOK, payload)
		return
	}
	c.JSON(http.StatusOK, payload)
}

// requestLogger logs every request through slog.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client", c.ClientIP(),
		)
	}
}
