package result_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/flemzord/fgbio-mcp/internal/fgbio"
	"github.com/flemzord/fgbio-mcp/internal/result"
	"github.com/flemzord/fgbio-mcp/internal/runner"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := filepath.Join(dir, "good.bam")
	writeFile(t, good, "BAM\x01")
	empty := filepath.Join(dir, "empty.bam")
	writeFile(t, empty, "")
	rejects := filepath.Join(dir, "rejects.bam")
	writeFile(t, rejects, "BAM\x01")
	missing := filepath.Join(dir, "missing.bam")
	stale := result.Outputs{Primary: good}.Snapshot()
	written := filepath.Join(dir, "written.bam")
	staleRejects := result.Outputs{Primary: written, Optional: []string{rejects}}.Snapshot()
	writeFile(t, written, "BAM\x01")

	argv := []string{"fgbio", "SortBam", "--input=in.bam", "--output=" + good}

	tests := []struct {
		name        string
		out         runner.Outcome
		runErr      error
		outputs     result.Outputs
		wantSuccess bool
		wantKind    result.Kind
		wantState   result.State
		wantMsg     string
		wantOutputs []string
	}{
		{
			name:        "exit zero with output",
			out:         runner.Outcome{Argv: argv, ExitCode: 0},
			outputs:     result.Outputs{Primary: good},
			wantSuccess: true,
			wantState:   result.StateSucceeded,
			wantOutputs: []string{good},
		},
		{
			name:        "optional output listed only when present",
			out:         runner.Outcome{Argv: argv},
			outputs:     result.Outputs{Primary: good, Optional: []string{rejects, missing, ""}},
			wantSuccess: true,
			wantState:   result.StateSucceeded,
			wantOutputs: []string{good, rejects},
		},
		{
			name:      "exit zero without output",
			out:       runner.Outcome{Argv: argv},
			outputs:   result.Outputs{Primary: missing},
			wantKind:  result.KindExternalTool,
			wantState: result.StateToolFailed,
			wantMsg:   "was not created",
		},
		{
			name:      "exit zero with empty output",
			out:       runner.Outcome{Argv: argv},
			outputs:   result.Outputs{Primary: empty},
			wantKind:  result.KindExternalTool,
			wantState: result.StateToolFailed,
			wantMsg:   "is empty",
		},
		{
			name:      "exit zero leaving earlier output untouched",
			out:       runner.Outcome{Argv: argv},
			outputs:   stale,
			wantKind:  result.KindExternalTool,
			wantState: result.StateToolFailed,
			wantMsg:   "not rewritten",
		},
		{
			name:        "untouched optional output not listed",
			out:         runner.Outcome{Argv: argv},
			outputs:     staleRejects,
			wantSuccess: true,
			wantState:   result.StateSucceeded,
			wantOutputs: []string{written},
		},
		{
			name:      "context done before launch",
			out:       runner.Outcome{Argv: argv, ExitCode: -1, TimedOut: true, NotStarted: true},
			outputs:   result.Outputs{Primary: good},
			wantKind:  result.KindTimeout,
			wantState: result.StateTimedOut,
			wantMsg:   "before the toolkit started",
		},
		{
			name:      "non-zero exit",
			out:       runner.Outcome{Argv: argv, ExitCode: 1, Stderr: "tool error: malformed header\n"},
			outputs:   result.Outputs{Primary: good},
			wantKind:  result.KindExternalTool,
			wantState: result.StateToolFailed,
			wantMsg:   "malformed header",
		},
		{
			name:      "timed out with partial output",
			out:       runner.Outcome{Argv: argv, ExitCode: -1, TimedOut: true, Timeout: 5 * time.Second},
			outputs:   result.Outputs{Primary: good},
			wantKind:  result.KindTimeout,
			wantState: result.StateTimedOut,
			wantMsg:   "5s",
		},
		{
			name:      "launch failure",
			out:       runner.Outcome{Argv: argv, ExitCode: -1},
			runErr:    &runner.LaunchError{Executable: "fgbio", Err: os.ErrNotExist},
			outputs:   result.Outputs{Primary: good},
			wantKind:  result.KindInfrastructure,
			wantState: result.StateLaunchFailed,
			wantMsg:   "could not start toolkit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resp := result.Classify(tt.out, tt.runErr, tt.outputs)

			if resp.Success != tt.wantSuccess {
				t.Errorf("Success = %v, want %v (message %q)", resp.Success, tt.wantSuccess, resp.Message)
			}
			if resp.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", resp.Kind, tt.wantKind)
			}
			if resp.State != tt.wantState {
				t.Errorf("State = %q, want %q", resp.State, tt.wantState)
			}
			if !resp.State.Terminal() {
				t.Errorf("State %q is not terminal", resp.State)
			}
			if tt.wantMsg != "" && !strings.Contains(resp.Message, tt.wantMsg) {
				t.Errorf("Message = %q, want substring %q", resp.Message, tt.wantMsg)
			}
			if !tt.wantSuccess && len(resp.Outputs) != 0 {
				t.Errorf("failed response reports outputs %v", resp.Outputs)
			}
			if tt.wantOutputs != nil && fmt.Sprint(resp.Outputs) != fmt.Sprint(tt.wantOutputs) {
				t.Errorf("Outputs = %v, want %v", resp.Outputs, tt.wantOutputs)
			}
			if resp.Command == "" {
				t.Error("Command should echo the argv")
			}
		})
	}
}

func TestClassify_ExitCodeRecorded(t *testing.T) {
	t.Parallel()

	resp := result.Classify(runner.Outcome{ExitCode: 3, Duration: 1500 * time.Millisecond}, nil, result.Outputs{})
	if resp.ExitCode == nil || *resp.ExitCode != 3 {
		t.Fatalf("ExitCode = %v, want 3", resp.ExitCode)
	}
	if resp.DurationMS != 1500 {
		t.Errorf("DurationMS = %d, want 1500", resp.DurationMS)
	}

	launch := result.Classify(runner.Outcome{ExitCode: -1}, &runner.LaunchError{Executable: "x", Err: os.ErrPermission}, result.Outputs{})
	if launch.ExitCode != nil {
		t.Errorf("launch failure should carry no exit code, got %d", *launch.ExitCode)
	}

	notStarted := result.Classify(runner.Outcome{ExitCode: -1, TimedOut: true, NotStarted: true}, nil, result.Outputs{})
	if notStarted.ExitCode != nil {
		t.Errorf("unlaunched invocation should carry no exit code, got %d", *notStarted.ExitCode)
	}
}

func TestFileState_Unchanged(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.bam")
	if result.StatFile(path).Unchanged(nil) {
		t.Error("missing path reported unchanged")
	}

	writeFile(t, path, "BAM\x01")
	before := result.StatFile(path)
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if !before.Unchanged(info) {
		t.Error("same file reported changed")
	}

	writeFile(t, path, "BAM\x01\x02")
	info, err = os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if before.Unchanged(info) {
		t.Error("rewritten file reported unchanged")
	}
}

func TestClassify_TruncatedFlag(t *testing.T) {
	t.Parallel()

	resp := result.Classify(runner.Outcome{ExitCode: 1, StderrTruncated: true}, nil, result.Outputs{})
	if !resp.Truncated {
		t.Error("Truncated = false, want true")
	}
}

func TestRejected(t *testing.T) {
	t.Parallel()

	_, err := fgbio.BuildFilter(fgbio.FilterRequest{InputBAM: "in.bam", OutputBAM: "out.bam", MinMapQ: -1})
	resp := result.Rejected(err)
	if resp.Success || resp.Kind != result.KindInvalidParameter {
		t.Fatalf("Rejected(invalid) = %+v", resp)
	}
	if resp.Details["field"] != "min_map_q" {
		t.Errorf("Details = %v, want field min_map_q", resp.Details)
	}
	if resp.State != "" {
		t.Errorf("State = %q, want empty for a request never built", resp.State)
	}

	missing := fgbio.FilterRequest{InputBAM: filepath.Join(t.TempDir(), "nope.bam"), OutputBAM: "out.bam"}
	resp = result.Rejected(missing.CheckPaths())
	if resp.Kind != result.KindInfrastructure {
		t.Errorf("Rejected(missing input) kind = %q, want %q", resp.Kind, result.KindInfrastructure)
	}

	resp = result.Rejected(errors.New("boom"))
	if resp.Kind != result.KindInvalidParameter || resp.Details != nil {
		t.Errorf("Rejected(plain) = %+v", resp)
	}
}

func TestStderrTail(t *testing.T) {
	t.Parallel()

	if got := result.StderrTail("  short\n"); got != "short" {
		t.Errorf("StderrTail(short) = %q", got)
	}

	long := strings.Repeat("a", 5000) + "END"
	got := result.StderrTail(long)
	if len(got) != result.StderrTailBytes || !strings.HasSuffix(got, "END") {
		t.Errorf("StderrTail(long) len = %d, suffix ok = %v", len(got), strings.HasSuffix(got, "END"))
	}

	multi := strings.Repeat("é", 2000)
	if got := result.StderrTail(multi); !strings.HasPrefix(got, "é") {
		t.Errorf("StderrTail split a rune: %q", got[:4])
	}
}

func TestResponse_JSONFieldNames(t *testing.T) {
	t.Parallel()

	code := 1
	data, err := json.Marshal(result.Response{
		Kind:         result.KindExternalTool,
		Message:      "x",
		ExitCode:     &code,
		DurationMS:   12,
		InvocationID: "id",
		State:        result.StateToolFailed,
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"success":false`, `"kind":"ExternalToolError"`, `"exit_code":1`, `"duration_ms":12`, `"invocation_id":"id"`, `"state":"tool_failed"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("JSON %s missing %s", data, key)
		}
	}
}
