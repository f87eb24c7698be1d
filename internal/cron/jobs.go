package cron

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flemzord/fgbio-mcp/internal/security"
)

// Prober reports the toolkit version, or an error when it is unusable.
type Prober interface {
	Probe(ctx context.Context) (string, error)
}

// ProbeSink receives every probe result.
type ProbeSink interface {
	ObserveProbe(version string, err error)
}

// ToolkitProbeJob runs the toolkit version check and fans the result out
// to its sinks (health monitor, metrics).
type ToolkitProbeJob struct {
	Prober       Prober
	Sinks        []ProbeSink
	Audit        *security.AuditLogger
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "@every 5m"
}

// Compile-time interface check.
var _ Job = (*ToolkitProbeJob)(nil)

// Name implements Job.
func (j *ToolkitProbeJob) Name() string {
	return "toolkit_probe"
}

// Schedule implements Job.
func (j *ToolkitProbeJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "@every 5m"
}

// Run probes the toolkit. A failed probe is reported to the sinks and
// returned so the scheduler logs it; it never stops the schedule.
func (j *ToolkitProbeJob) Run(ctx context.Context) error {
	if ctx.Err() != nil {
		return fmt.Errorf("cron: toolkit probe cancelled: %w", ctx.Err())
	}

	version, err := j.Prober.Probe(ctx)
	for _, s := range j.Sinks {
		s.ObserveProbe(version, err)
	}

	event := security.AuditEvent{Type: security.EventProbe, Tool: "fgbio", Detail: version}
	if err != nil {
		event.Detail = err.Error()
	}
	j.Audit.Log(event)

	if err != nil {
		return fmt.Errorf("cron: toolkit probe: %w", err)
	}
	if j.Logger != nil {
		j.Logger.Debug("cron: toolkit available", "version", version)
	}
	return nil
}
