// Package gateway serves the MCP endpoint over streamable HTTP next to
// health, status and metrics endpoints.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/flemzord/fgbio-mcp/internal/health"
	"github.com/flemzord/fgbio-mcp/internal/security"
)

// HealthSource reports toolkit availability.
type HealthSource interface {
	Snapshot() health.Status
}

// Options carries the handlers and collaborators the gateway mounts.
type Options struct {
	Logger  *slog.Logger
	Version string

	// MCP is mounted at /mcp. Nil leaves the route unmounted.
	MCP http.Handler

	// Metrics is mounted at /metrics. Nil leaves the route unmounted.
	Metrics http.Handler

	Health HealthSource
	Audit  *security.AuditLogger

	// Tools lists registered tool names for /status.
	Tools func() []string
}

// Gateway is the HTTP front end.
type Gateway struct {
	config    Config
	opts      Options
	logger    *slog.Logger
	startedAt time.Time

	mu     sync.Mutex
	server *http.Server
	addr   net.Addr
}

// New creates a Gateway. Zero config values are defaulted.
func New(cfg Config, opts Options) *Gateway {
	cfg.Defaults()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		config:    cfg,
		opts:      opts,
		logger:    logger.With("component", "gateway"),
		startedAt: time.Now(),
	}
}

// Validate checks the bind address.
func (g *Gateway) Validate() error {
	if _, err := net.ResolveTCPAddr("tcp", g.config.Bind); err != nil {
		return fmt.Errorf("gateway: invalid bind address %q: %w", g.config.Bind, err)
	}
	return nil
}

// Handler returns the routed handler without starting a listener.
func (g *Gateway) Handler() http.Handler {
	return g.buildRouter()
}

// Start listens on the configured address and serves in the background.
func (g *Gateway) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.server != nil {
		return errors.New("gateway: already started")
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", g.config.Bind)
	if err != nil {
		return fmt.Errorf("gateway: listen failed: %w", err)
	}

	g.server = &http.Server{
		Handler:           g.buildRouter(),
		ReadHeaderTimeout: g.config.ReadTimeout,
		ReadTimeout:       g.config.ReadTimeout,
		WriteTimeout:      g.config.WriteTimeout,
	}
	g.addr = ln.Addr()
	g.startedAt = time.Now()

	srv := g.server
	go func() {
		g.logger.Info("gateway listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address once started.
func (g *Gateway) Addr() net.Addr {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addr
}

// Stop shuts the server down gracefully within ShutdownTimeout.
func (g *Gateway) Stop(ctx context.Context) error {
	g.mu.Lock()
	srv := g.server
	g.mu.Unlock()
	if srv == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return srv.Shutdown(shutdownCtx)
}

// Run starts the gateway and blocks until ctx is done, then stops it.
func (g *Gateway) Run(ctx context.Context) error {
	if err := g.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return g.Stop(context.WithoutCancel(ctx))
}
