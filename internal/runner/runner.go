// Package runner executes external toolkit commands as isolated subprocesses.
// A Runner never goes through a shell: the argument vector built by the caller
// is handed to the process launcher as-is.
package runner

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/flemzord/fgbio-mcp/internal/runner"

// Spec is a fully built command invocation, minus the executable.
// It is produced once per request and never mutated.
type Spec struct {
	// Args is the ordered argument vector passed after the executable.
	Args []string

	// Dir is the working directory of the process. Empty means inherit.
	Dir string

	// Env holds KEY=VALUE overrides appended to the process environment.
	Env []string
}

// Outcome is the observed result of one process execution.
type Outcome struct {
	Argv            []string
	ExitCode        int
	Stdout          string
	Stderr          string
	StdoutTruncated bool
	StderrTruncated bool
	Duration        time.Duration
	TimedOut        bool
	Timeout         time.Duration

	// NotStarted is set when the deadline had already passed or the caller
	// had cancelled before the process could be launched. TimedOut is set too.
	NotStarted bool
}

// Truncated reports whether either captured stream was cut.
func (o Outcome) Truncated() bool {
	return o.StdoutTruncated || o.StderrTruncated
}

// Executor runs a Spec. *Runner is the production implementation.
type Executor interface {
	Run(ctx context.Context, spec Spec) (Outcome, error)
}

// Runner launches the configured executable for each Spec it receives.
// It holds only immutable configuration and is safe for concurrent use.
type Runner struct {
	cfg    Config
	logger *slog.Logger
	tracer trace.Tracer
}

// New creates a Runner. Zero-value config fields are replaced with defaults.
func New(cfg Config, logger *slog.Logger) *Runner {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Runner{
		cfg:    cfg,
		logger: logger,
		tracer: tp.Tracer(tracerName),
	}
}

// Executable returns the resolved toolkit executable name or path.
func (r *Runner) Executable() string {
	return r.cfg.Executable
}

// Run executes spec and waits for it to finish or time out.
//
// A non-nil error is returned only when the process could not be launched;
// it wraps ErrLaunch. Tool failures and timeouts are reported in the Outcome,
// including a context that is already done before launch.
func (r *Runner) Run(ctx context.Context, spec Spec) (Outcome, error) {
	argv := append([]string{r.cfg.Executable}, spec.Args...)
	timeout := r.cfg.DefaultTimeout
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		timeout = time.Until(deadline)
	}
	out := Outcome{
		Argv:     argv,
		ExitCode: -1,
		Timeout:  timeout,
	}

	ctx, span := r.tracer.Start(ctx, "fgbio.run", trace.WithAttributes(
		attribute.String("process.executable.name", r.cfg.Executable),
		attribute.StringSlice("process.command_args", spec.Args),
	))
	defer span.End()

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // argv is built programmatically from validated request fields.
	cmd := exec.CommandContext(runCtx, r.cfg.Executable, spec.Args...)
	cmd.Dir = spec.Dir
	if cmd.Dir == "" {
		cmd.Dir = r.cfg.WorkDir
	}
	cmd.Env = r.environ(spec)
	cmd.WaitDelay = r.cfg.KillGrace
	setProcessGroup(cmd)

	stdout := newHeadBuffer(r.cfg.MaxOutputBytes)
	stderr := newTailBuffer(r.cfg.MaxOutputBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := runCtx.Err(); err != nil {
		return r.notStarted(span, out, err), nil
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		if ctxErr := runCtx.Err(); ctxErr != nil {
			return r.notStarted(span, out, ctxErr), nil
		}
		launchErr := &LaunchError{Executable: r.cfg.Executable, Err: err}
		span.RecordError(launchErr)
		span.SetStatus(codes.Error, "launch failed")
		r.logger.Error("runner: launch failed", "executable", r.cfg.Executable, "error", err)
		return out, launchErr
	}
	r.logger.Debug("runner: process started", "pid", cmd.Process.Pid, "argv", argv)

	waitErr := cmd.Wait()
	out.Duration = time.Since(start)
	out.Stdout, out.StdoutTruncated = stdout.String(), stdout.Truncated()
	out.Stderr, out.StderrTruncated = stderr.String(), stderr.Truncated()
	out.ExitCode = exitCode(cmd, waitErr)
	out.TimedOut = waitErr != nil && runCtx.Err() != nil

	span.SetAttributes(
		attribute.Int("process.exit.code", out.ExitCode),
		attribute.Bool("fgbio.timed_out", out.TimedOut),
		attribute.Bool("fgbio.output_truncated", out.Truncated()),
	)
	if out.TimedOut || out.ExitCode != 0 {
		span.SetStatus(codes.Error, "process failed")
	}

	r.logger.Info("runner: process finished",
		"executable", r.cfg.Executable,
		"exit_code", out.ExitCode,
		"duration", out.Duration,
		"timed_out", out.TimedOut,
		"stdout_bytes", len(out.Stdout),
		"stderr_bytes", len(out.Stderr),
		"truncated", out.Truncated(),
	)
	return out, nil
}

func (r *Runner) notStarted(span trace.Span, out Outcome, cause error) Outcome {
	out.TimedOut = true
	out.NotStarted = true
	span.SetAttributes(attribute.Bool("fgbio.timed_out", true))
	span.SetStatus(codes.Error, "context done before launch")
	r.logger.Warn("runner: not started", "executable", r.cfg.Executable, "error", cause)
	return out
}

// environ builds the child environment: sanitized parent env, then config
// overrides, then per-spec overrides. Later entries win for duplicate keys.
func (r *Runner) environ(spec Spec) []string {
	env := slices.Clone(r.cfg.BaseEnv)
	env = append(env, r.cfg.Env...)
	env = append(env, spec.Env...)
	return env
}

func exitCode(cmd *exec.Cmd, waitErr error) int {
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return exitErr.ExitCode()
		}
		if !errors.Is(waitErr, exec.ErrWaitDelay) {
			return -1
		}
	}
	if cmd.ProcessState == nil {
		return -1
	}
	return cmd.ProcessState.ExitCode()
}
