// Package result classifies a finished toolkit invocation into the response
// returned to callers.
package result

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/flemzord/fgbio-mcp/internal/fgbio"
	"github.com/flemzord/fgbio-mcp/internal/runner"
	"github.com/flemzord/fgbio-mcp/internal/security"
)

// Kind is the error taxonomy reported to callers. Successful responses have
// an empty Kind.
type Kind string

// Error kinds.
const (
	KindInvalidParameter Kind = "InvalidParameterError"
	KindInfrastructure   Kind = "InfrastructureError"
	KindExternalTool     Kind = "ExternalToolError"
	KindTimeout          Kind = "TimeoutError"
)

// State is the lifecycle position of one invocation. An invocation moves
// Built, then Running, then one terminal state; it never goes back.
type State string

// Invocation states.
const (
	StateBuilt        State = "built"
	StateRunning      State = "running"
	StateSucceeded    State = "succeeded"
	StateToolFailed   State = "tool_failed"
	StateTimedOut     State = "timed_out"
	StateLaunchFailed State = "launch_failed"
)

// Terminal reports whether s ends an invocation.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateToolFailed, StateTimedOut, StateLaunchFailed:
		return true
	}
	return false
}

// StderrTailBytes bounds the stderr excerpt embedded in failure messages.
const StderrTailBytes = 2 << 10

// Response is the only value handed back to callers.
type Response struct {
	Success      bool           `json:"success"`
	Kind         Kind           `json:"kind,omitempty"`
	Message      string         `json:"message"`
	Outputs      []string       `json:"outputs,omitempty"`
	Command      string         `json:"command,omitempty"`
	Stdout       string         `json:"stdout,omitempty"`
	Stderr       string         `json:"stderr,omitempty"`
	ExitCode     *int           `json:"exit_code,omitempty"`
	DurationMS   int64          `json:"duration_ms,omitempty"`
	Truncated    bool           `json:"truncated,omitempty"`
	InvocationID string         `json:"invocation_id,omitempty"`
	State        State          `json:"state,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
}

// Outputs names the files an invocation is expected to produce. Primary
// must exist, be non-empty and have been written by the invocation for
// success; Optional files are listed when the invocation wrote them.
type Outputs struct {
	Primary  string
	Optional []string

	// Before holds each path's state ahead of the run. Paths without an
	// entry are treated as absent beforehand.
	Before map[string]FileState
}

// Snapshot returns a copy of o with Before recorded for every named path.
func (o Outputs) Snapshot() Outputs {
	o.Before = make(map[string]FileState, 1+len(o.Optional))
	for _, p := range append([]string{o.Primary}, o.Optional...) {
		if p != "" {
			o.Before[p] = StatFile(p)
		}
	}
	return o
}

// FileState is what a path looked like at one point in time.
type FileState struct {
	info os.FileInfo
}

// StatFile records the current state of path. A missing path yields the
// zero FileState.
func StatFile(path string) FileState {
	info, err := os.Stat(path)
	if err != nil {
		return FileState{}
	}
	return FileState{info: info}
}

// Unchanged reports whether now is the same file, with the same size and
// modification time, as the recorded state.
func (s FileState) Unchanged(now os.FileInfo) bool {
	return s.info != nil && now != nil &&
		os.SameFile(s.info, now) &&
		s.info.Size() == now.Size() &&
		s.info.ModTime().Equal(now.ModTime())
}

// Classify maps a runner outcome to a Response. runErr is the error returned
// by runner.Executor.Run, if any.
func Classify(out runner.Outcome, runErr error, outputs Outputs) Response {
	resp := Response{
		Command:   security.QuoteArgv(out.Argv),
		Stdout:    out.Stdout,
		Stderr:    out.Stderr,
		Truncated: out.Truncated(),
	}

	if runErr != nil {
		resp.Kind = KindInfrastructure
		resp.State = StateLaunchFailed
		resp.Message = fmt.Sprintf("could not start toolkit: %v", runErr)
		if !errors.Is(runErr, runner.ErrLaunch) {
			resp.Message = fmt.Sprintf("toolkit invocation failed: %v", runErr)
		}
		return resp
	}

	if !out.NotStarted {
		code := out.ExitCode
		resp.ExitCode = &code
		resp.DurationMS = out.Duration.Milliseconds()
	}

	switch {
	case out.NotStarted:
		resp.Kind = KindTimeout
		resp.State = StateTimedOut
		resp.Message = "invocation was cancelled or past its deadline before the toolkit started"

	case out.TimedOut:
		resp.Kind = KindTimeout
		resp.State = StateTimedOut
		resp.Message = fmt.Sprintf("toolkit exceeded timeout of %s and was terminated", formatTimeout(out.Timeout))
		if tail := StderrTail(out.Stderr); tail != "" {
			resp.Message += "\nstderr (tail):\n" + tail
		}

	case out.ExitCode != 0:
		resp.Kind = KindExternalTool
		resp.State = StateToolFailed
		resp.Message = fmt.Sprintf("toolkit exited with code %d", out.ExitCode)
		if tail := StderrTail(out.Stderr); tail != "" {
			resp.Message += ": " + tail
		}

	default:
		if err := checkProduced(outputs.Primary, outputs.Before[outputs.Primary]); err != nil {
			resp.Kind = KindExternalTool
			resp.State = StateToolFailed
			resp.Message = fmt.Sprintf("toolkit reported success but %v", err)
			return resp
		}
		resp.Success = true
		resp.State = StateSucceeded
		resp.Outputs = append(resp.Outputs, outputs.Primary)
		for _, p := range outputs.Optional {
			if p == "" {
				continue
			}
			if info, err := os.Stat(p); err == nil && !outputs.Before[p].Unchanged(info) {
				resp.Outputs = append(resp.Outputs, p)
			}
		}
		resp.Message = "completed successfully"
	}
	return resp
}

// Rejected builds the response for a request that failed before anything
// was launched. Input files that are missing or unreadable are an
// environment problem; every other rejection is the caller's.
func Rejected(err error) Response {
	kind := KindInvalidParameter
	if errors.Is(err, fgbio.ErrInputUnavailable) || errors.Is(err, fgbio.ErrToolkitUnavailable) {
		kind = KindInfrastructure
	}
	resp := Response{Kind: kind, Message: err.Error()}
	var fe *fgbio.FieldError
	if errors.As(err, &fe) {
		resp.Details = map[string]any{"field": fe.Field}
	}
	return resp
}

// StderrTail returns at most the last StderrTailBytes of stderr, trimmed of
// surrounding whitespace and cut on a rune boundary.
func StderrTail(stderr string) string {
	s := strings.TrimSpace(stderr)
	if len(s) <= StderrTailBytes {
		return s
	}
	i := len(s) - StderrTailBytes
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return s[i:]
}

func checkProduced(path string, before FileState) error {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return fmt.Errorf("output file was not created: %s", path)
	case info.IsDir():
		return fmt.Errorf("output path is a directory: %s", path)
	case info.Size() == 0:
		return fmt.Errorf("output file is empty: %s", path)
	case before.Unchanged(info):
		return fmt.Errorf("output file was not rewritten and still holds earlier content: %s", path)
	}
	return nil
}

func formatTimeout(d time.Duration) string {
	if d <= 0 {
		return "the deadline"
	}
	return d.String()
}
