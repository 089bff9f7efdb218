// Package dashboard serves the Launchpad JSON API.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/launchpad/internal/auth"
	"github.com/zulandar/launchpad/internal/logx"
	"github.com/zulandar/launchpad/internal/pipeline"
	"github.com/zulandar/launchpad/internal/store"
)

const (
	defaultPollInterval = 3 * time.Second
	defaultHeartbeat    = 15 * time.Second
)

// StartOpts holds configuration for the dashboard server.
type StartOpts struct {
	Pipeline *pipeline.Pipeline
	Auth     *auth.Service
	MediaDir string // served under /media when set
	Port     int
	Out      io.Writer

	// SSE timings; zero uses the defaults.
	PollInterval time.Duration
	Heartbeat    time.Duration
}

// Server holds the handlers' dependencies.
type Server struct {
	p            *pipeline.Pipeline
	st           *store.Store
	auth         *auth.Service
	mediaDir     string
	pollInterval time.Duration
	heartbeat    time.Duration
}

// NewServer validates opts and builds a Server.
func NewServer(opts StartOpts) (*Server, error) {
	if opts.Pipeline == nil {
		return nil, fmt.Errorf("dashboard: pipeline is required")
	}
	if opts.Auth == nil {
		return nil, fmt.Errorf("dashboard: auth service is required")
	}
	s := &Server{
		p:            opts.Pipeline,
		st:           opts.Pipeline.Store(),
		auth:         opts.Auth,
		mediaDir:     opts.MediaDir,
		pollInterval: opts.PollInterval,
		heartbeat:    opts.Heartbeat,
	}
	if s.pollInterval <= 0 {
		s.pollInterval = defaultPollInterval
	}
	if s.heartbeat <= 0 {
		s.heartbeat = defaultHeartbeat
	}
	return s, nil
}

// Handler returns the gin engine with every route registered.
func (s *Server) Handler() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	s.registerRoutes(router)
	return router
}

// Start launches the dashboard HTTP server. It blocks until ctx is cancelled,
// then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	s, err := NewServer(opts)
	if err != nil {
		return err
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Launchpad API listening on http://localhost:%d\n", opts.Port)
	}
	logx.Info().Int("port", opts.Port).Str("media", opts.MediaDir).Msg("dashboard: listening")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

// requestLogger logs one line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		ev := logx.Debug()
		if status >= http.StatusInternalServerError {
			ev = logx.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("elapsed", time.Since(start)).
			Msg("dashboard: request")
	}
}
