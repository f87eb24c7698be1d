// Package app wires fgbio-mcp from configuration and runs it.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/flemzord/fgbio-mcp/internal/config"
	"github.com/flemzord/fgbio-mcp/internal/mcpserver"
)

// RunParams configures the main application loop.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, config.Resolve searches the standard locations.
	ConfigPath string

	// Transport overrides server.transport when set.
	Transport string

	// Version, Commit, and Date are injected at build time via ldflags.
	Version string
	Commit  string
	Date    string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// LoadConfig resolves, loads, overrides and validates the configuration.
func LoadConfig(params RunParams) (*config.Config, string, error) {
	cfg, path, err := config.LoadOrDefault(params.ConfigPath)
	if err != nil {
		return nil, path, err
	}
	if params.Transport != "" {
		cfg.Server.Transport = params.Transport
	}
	if err := config.Validate(cfg); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// RunContext loads configuration and serves until ctx is cancelled, then
// shuts down.
func RunContext(ctx context.Context, params RunParams) error {
	cfg, path, err := LoadConfig(params)
	if err != nil {
		return err
	}

	a, err := Build(ctx, cfg, Options{Version: params.Version, LogOutput: params.Stderr})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.WithoutCancel(ctx)); err != nil {
			a.Logger.Warn("app: shutdown", "error", err)
		}
	}()

	configSource := path
	if configSource == "" {
		configSource = "built-in defaults"
	}
	a.Logger.Info("fgbio-mcp starting",
		"version", params.Version,
		"commit", params.Commit,
		"config", configSource,
		"transport", cfg.Server.Transport,
		"toolkit", a.Runner.Executable(),
	)

	return a.Serve(ctx, params.Stdin, params.Stdout)
}

// Serve probes the toolkit when configured, then runs the selected
// transport alongside the probe schedule. It returns when ctx is done or
// the stdio peer closes its input.
func (a *App) Serve(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	if a.Config.ProbeOnStart() {
		if err := a.Probe.Run(ctx); err != nil {
			a.Logger.Warn("app: toolkit unavailable at startup; calls will fail until it is installed", "error", err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.Cron.Start(ctx); err != nil {
		return err
	}

	mcp := a.MCPServer()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		return a.Cron.Stop(context.WithoutCancel(gctx))
	})

	switch a.Config.Server.Transport {
	case config.TransportHTTP:
		gw := a.Gateway(mcp)
		g.Go(func() error { return gw.Run(gctx) })
	default:
		if stdin == nil {
			stdin = os.Stdin
		}
		if stdout == nil {
			stdout = os.Stdout
		}
		g.Go(func() error {
			defer cancel()
			return mcpserver.ServeStdio(gctx, mcp, stdin, stdout, a.Logger)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("app: serve: %w", err)
	}
	a.Logger.Info("shutdown complete")
	return nil
}
