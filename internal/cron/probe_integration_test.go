package cron_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/flemzord/fgbio-mcp/internal/cron"
	"github.com/flemzord/fgbio-mcp/internal/cron/crontest"
	"github.com/flemzord/fgbio-mcp/internal/health"
)

func TestTrigger_ProbeUpdatesMonitor(t *testing.T) {
	t.Parallel()

	prober := &crontest.MockProber{Version: "2.3.0"}
	monitor := health.NewMonitor()
	s := cron.NewScheduler(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := s.RegisterJob(&cron.ToolkitProbeJob{Prober: prober, Sinks: []cron.ProbeSink{monitor}}); err != nil {
		t.Fatal(err)
	}

	if !s.Trigger(context.Background(), "toolkit_probe") {
		t.Fatal("Trigger returned false")
	}
	if got := monitor.Snapshot(); !got.Available || got.Version != "2.3.0" {
		t.Errorf("monitor = %+v", got)
	}

	prober.Err = errors.New("fgbio: executable file not found in $PATH")
	s.Trigger(context.Background(), "toolkit_probe")
	if monitor.Available() {
		t.Error("monitor should report unavailable after a failed probe")
	}
	if prober.Calls() != 2 {
		t.Errorf("probe calls = %d, want 2", prober.Calls())
	}
}

func TestTrigger_MockJob(t *testing.T) {
	t.Parallel()

	job := &crontest.MockJob{NameVal: "noop", ScheduleVal: "@hourly"}
	s := cron.NewScheduler(nil)
	if err := s.RegisterJob(job); err != nil {
		t.Fatal(err)
	}
	if s.Trigger(context.Background(), "missing") {
		t.Error("Trigger on unknown job should return false")
	}
	if !s.Trigger(context.Background(), "noop") {
		t.Fatal("Trigger returned false")
	}
	if job.CallCount() != 1 || job.LastCall().IsZero() {
		t.Errorf("calls = %d, last = %v", job.CallCount(), job.LastCall())
	}
}
