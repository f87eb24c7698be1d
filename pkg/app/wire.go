package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/mark3labs/mcp-go/server"

	"github.com/flemzord/fgbio-mcp/internal/bamtool"
	"github.com/flemzord/fgbio-mcp/internal/config"
	"github.com/flemzord/fgbio-mcp/internal/cron"
	"github.com/flemzord/fgbio-mcp/internal/gateway"
	"github.com/flemzord/fgbio-mcp/internal/health"
	"github.com/flemzord/fgbio-mcp/internal/mcpserver"
	"github.com/flemzord/fgbio-mcp/internal/runner"
	"github.com/flemzord/fgbio-mcp/internal/security"
	"github.com/flemzord/fgbio-mcp/internal/telemetry"
	"github.com/flemzord/fgbio-mcp/internal/tool"
)

// App holds every wired component of one server instance.
type App struct {
	Config   *config.Config
	Version  string
	Logger   *slog.Logger
	Redactor *security.Redactor
	Audit    *security.AuditLogger
	Runner   *runner.Runner
	Service  *bamtool.Service
	Registry *tool.Registry
	Metrics  *telemetry.Metrics
	Health   *health.Monitor
	Probe    *cron.ToolkitProbeJob
	Cron     *cron.Scheduler

	closers []func(context.Context) error
}

// Options are the process-level inputs to Build.
type Options struct {
	Version string

	// LogOutput receives log lines. Nil means os.Stderr; stdout is reserved
	// for the stdio transport.
	LogOutput io.Writer
}

// Build wires the application from cfg. cfg must already be validated.
// Close must be called to flush the tracer and the audit file.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{Config: cfg, Version: opts.Version}

	a.Redactor = security.NewRedactor()
	a.Redactor.AddSecretValues(cfg.Secrets())

	logger, err := newLogger(cfg.Log.Level, opts.LogOutput, a.Redactor)
	if err != nil {
		return nil, err
	}
	a.Logger = logger

	auditOut, closeAudit, err := openAudit(cfg.Audit.Path)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeAudit)
	a.Audit = security.NewAuditLogger(security.AuditLoggerConfig{
		Writer:   auditOut,
		Redactor: a.Redactor,
	})

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TracingConfig{
		Endpoint:    cfg.Telemetry.Tracing.Endpoint,
		Insecure:    cfg.Telemetry.Tracing.Insecure,
		Headers:     cfg.Telemetry.Tracing.Headers,
		ServiceName: cfg.Telemetry.Tracing.ServiceName,
		SampleRatio: cfg.Telemetry.Tracing.SampleRatio,
	}, opts.Version)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.closers = append(a.closers, func(ctx context.Context) error { return shutdownTracing(ctx) })

	a.Runner = runner.New(runner.Config{
		Executable:     cfg.Toolkit.Executable,
		MaxOutputBytes: cfg.Toolkit.MaxOutputBytes,
		DefaultTimeout: cfg.Toolkit.Timeout,
		KillGrace:      cfg.Toolkit.KillGrace,
		WorkDir:        cfg.Toolkit.WorkDir,
		BaseEnv:        security.SanitizedEnv(),
		Env:            envList(cfg.Toolkit.Env),
	}, logger.With("component", "runner"))
	a.Service = bamtool.New(a.Runner, logger.With("component", "bamtool"))
	a.Service.SetProbeTimeout(cfg.Toolkit.ProbeTimeout)

	a.Metrics = telemetry.NewMetrics()
	a.Health = health.NewMonitor()

	a.Registry = tool.NewRegistry()
	a.Registry.SetLogger(logger.With("component", "tool"))
	a.Registry.SetAuditLogger(a.Audit)
	a.Registry.SetArgumentLimits(cfg.Limits.MaxArgBytes, cfg.Limits.MaxArgDepth)
	a.Registry.AddObserver(a.Metrics)
	if err := a.Service.Register(a.Registry); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	a.Probe = &cron.ToolkitProbeJob{
		Prober:       a.Service,
		Sinks:        []cron.ProbeSink{a.Health, a.Metrics},
		Audit:        a.Audit,
		Logger:       logger.With("component", "cron"),
		ScheduleExpr: cfg.Toolkit.ProbeSchedule,
	}
	a.Cron = cron.NewScheduler(logger.With("component", "cron"))
	if cfg.Toolkit.ProbeSchedule != "" {
		if err := a.Cron.RegisterJob(a.Probe); err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
	}

	return a, nil
}

// MCPServer builds the protocol server over the registry.
func (a *App) MCPServer() *server.MCPServer {
	return mcpserver.New(a.Registry, a.Version, a.Logger)
}

// Gateway builds the HTTP front end serving mcp.
func (a *App) Gateway(mcp *server.MCPServer) *gateway.Gateway {
	opts := gateway.Options{
		Logger:  a.Logger,
		Version: a.Version,
		MCP:     mcpserver.HTTPHandler(mcp),
		Health:  a.Health,
		Audit:   a.Audit,
		Tools:   a.Registry.Names,
	}
	if a.Config.MetricsEnabled() {
		opts.Metrics = a.Metrics.Handler()
	}
	return gateway.New(a.Config.Server.HTTP, opts)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for _, c := range slices.Backward(a.closers) {
		if err := c(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newLogger(level string, w io.Writer, redactor *security.Redactor) (*slog.Logger, error) {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stderr
	}
	inner := slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	return slog.New(security.NewRedactingHandler(inner, redactor)), nil
}

// openAudit opens the audit destination. "" disables it and "-" is stderr.
func openAudit(path string) (io.Writer, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	switch path {
	case "":
		return nil, noop, nil
	case "-":
		return os.Stderr, noop, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, nil, fmt.Errorf("app: creating audit directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("app: opening audit log: %w", err)
	}
	return f, func(context.Context) error { return f.Close() }, nil
}

// envList renders env as sorted KEY=VALUE entries.
func envList(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	slices.Sort(out)
	return out
}
