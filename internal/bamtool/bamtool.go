// Package bamtool implements the sort_bam and filter_bam operations: it takes
// a request through validation, command building, execution and
// classification and always ends in a result.Response.
package bamtool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/flemzord/fgbio-mcp/internal/fgbio"
	"github.com/flemzord/fgbio-mcp/internal/result"
	"github.com/flemzord/fgbio-mcp/internal/runner"
	"github.com/flemzord/fgbio-mcp/internal/tool"
)

// Operation names as exposed to callers.
const (
	OpSortBam   = "sort_bam"
	OpFilterBam = "filter_bam"
)

// Service runs BAM operations on an Executor.
type Service struct {
	exec         runner.Executor
	logger       *slog.Logger
	probeTimeout time.Duration
}

// New creates a Service.
func New(exec runner.Executor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{exec: exec, logger: logger}
}

// SortBam sorts a BAM file with fgbio SortBam.
func (s *Service) SortBam(ctx context.Context, req fgbio.SortRequest) result.Response {
	if err := req.Normalize(); err != nil {
		return s.reject(ctx, OpSortBam, err)
	}
	spec, err := fgbio.BuildSort(req)
	if err != nil {
		return s.reject(ctx, OpSortBam, err)
	}
	if err := req.CheckPaths(); err != nil {
		return s.reject(ctx, OpSortBam, err)
	}

	resp := s.run(ctx, OpSortBam, spec, result.Outputs{Primary: req.OutputBAM})
	resp.Details = map[string]any{"sort_order": string(req.SortOrder)}
	if resp.Success {
		resp.Message = fmt.Sprintf("sorted %s into %s (%s order)", req.InputBAM, req.OutputBAM, req.SortOrder)
	}
	return resp
}

// FilterBam filters a BAM file with fgbio FilterBam.
func (s *Service) FilterBam(ctx context.Context, req fgbio.FilterRequest) result.Response {
	if err := req.Normalize(); err != nil {
		return s.reject(ctx, OpFilterBam, err)
	}
	spec, err := fgbio.BuildFilter(req)
	if err != nil {
		return s.reject(ctx, OpFilterBam, err)
	}
	if err := req.CheckPaths(); err != nil {
		return s.reject(ctx, OpFilterBam, err)
	}

	outputs := result.Outputs{Primary: req.OutputBAM}
	details := map[string]any{"filters_applied": req.FiltersApplied()}
	if req.Rejects != nil {
		outputs.Optional = append(outputs.Optional, *req.Rejects)
		details["rejects_file"] = *req.Rejects
	}
	if req.Intervals != nil {
		details["intervals_file"] = *req.Intervals
	}

	resp := s.run(ctx, OpFilterBam, spec, outputs)
	resp.Details = details
	if resp.Success {
		resp.Message = fmt.Sprintf("filtered %s into %s", req.InputBAM, req.OutputBAM)
	}
	return resp
}

// SetProbeTimeout bounds each version check. Zero restores
// fgbio.DefaultProbeTimeout.
func (s *Service) SetProbeTimeout(d time.Duration) {
	s.probeTimeout = d
}

// Probe checks that the toolkit can be launched and returns its version.
func (s *Service) Probe(ctx context.Context) (string, error) {
	return fgbio.Probe(ctx, s.exec, s.probeTimeout)
}

func (s *Service) run(ctx context.Context, op string, spec runner.Spec, outputs result.Outputs) result.Response {
	id := tool.InvocationID(ctx)
	logger := s.logger.With("op", op, "invocation_id", id)
	logger.Debug("bamtool: state change", "state", result.StateBuilt, "args", spec.Args)

	outputs = outputs.Snapshot()
	logger.Debug("bamtool: state change", "state", result.StateRunning)
	out, runErr := s.exec.Run(ctx, spec)
	resp := result.Classify(out, runErr, outputs)
	resp.InvocationID = id

	logger.Debug("bamtool: state change", "state", resp.State, "kind", resp.Kind)
	return resp
}

func (s *Service) reject(ctx context.Context, op string, err error) result.Response {
	resp := result.Rejected(err)
	resp.InvocationID = tool.InvocationID(ctx)
	s.logger.Info("bamtool: request rejected", "op", op, "invocation_id", resp.InvocationID, "error", err)
	return resp
}

// decodeArgs decodes args into dst, which already holds defaults. Unknown
// fields are rejected so a misspelled option never silently falls back to
// its default.
func decodeArgs(args json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(args)) == 0 {
		args = json.RawMessage(`{}`)
	}
	dec := json.NewDecoder(bytes.NewReader(args))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", fgbio.ErrInvalidParameter, err)
	}
	return nil
}
