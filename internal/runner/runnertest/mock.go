// Package runnertest provides test helpers and mocks for the runner package.
package runnertest

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"testing"

	"github.com/flemzord/fgbio-mcp/internal/runner"
)

// MockExecutor is a configurable mock implementation of runner.Executor.
type MockExecutor struct {
	RunFunc func(ctx context.Context, spec runner.Spec) (runner.Outcome, error)

	mu    sync.Mutex
	Specs []runner.Spec
}

// Run implements runner.Executor.
func (m *MockExecutor) Run(ctx context.Context, spec runner.Spec) (runner.Outcome, error) {
	m.mu.Lock()
	m.Specs = append(m.Specs, spec)
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(ctx, spec)
	}
	return runner.Outcome{Argv: append([]string{"fgbio"}, spec.Args...)}, nil
}

// Calls returns the number of Run invocations.
func (m *MockExecutor) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Specs)
}

// LastArgs returns a copy of the most recent Spec.Args, or nil.
func (m *MockExecutor) LastArgs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Specs) == 0 {
		return nil
	}
	return slices.Clone(m.Specs[len(m.Specs)-1].Args)
}

// WriteScript writes an executable /bin/sh script with the given body into
// a fresh temp directory and returns its path. Tests that launch scripts
// should not run in parallel: a concurrent fork can inherit the write fd
// and make exec fail with ETXTBSY.
func WriteScript(t testing.TB, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("writing script: %v", err)
	}
	return path
}

// EchoTool is a fake fgbio: it echoes its arguments to stdout, writes a
// small file to every --output= / --rejects= path, and exits 0.
const EchoTool = `for a in "$@"; do
  case "$a" in
    --output=*) printf 'BAM\001' > "${a#--output=}" ;;
    --rejects=*) printf 'BAM\001' > "${a#--rejects=}" ;;
  esac
done
echo "$@"
`

// Interface guard.
var _ runner.Executor = (*MockExecutor)(nil)
