package fgbio

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/flemzord/fgbio-mcp/internal/runner"
)

// DefaultProbeTimeout bounds a version check when no timeout is given.
const DefaultProbeTimeout = 30 * time.Second

// Probe runs `fgbio --version` and returns the reported version. The check
// is abandoned after timeout, or DefaultProbeTimeout when timeout is not
// positive.
//
// fgbio prints its usage banner and exits 1 for --version, so the exit code
// is ignored; the toolkit counts as available when either stream carries a
// "Version:" line.
func Probe(ctx context.Context, exec runner.Executor, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := exec.Run(ctx, runner.Spec{Args: []string{"--version"}})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrToolkitUnavailable, err)
	}
	if out.TimedOut {
		return "", fmt.Errorf("%w: version check timed out after %s", ErrToolkitUnavailable, timeout)
	}
	for _, stream := range []string{out.Stderr, out.Stdout} {
		if v, ok := parseVersion(stream); ok {
			return v, nil
		}
	}
	text := strings.TrimSpace(out.Stderr + out.Stdout)
	return "", fmt.Errorf("%w: unexpected version output %q", ErrToolkitUnavailable, text)
}

func parseVersion(s string) (string, bool) {
	sc := bufio.NewScanner(strings.NewReader(s))
	for sc.Scan() {
		line := stripANSI(sc.Text())
		_, after, ok := strings.Cut(line, "Version:")
		if !ok {
			continue
		}
		return strings.TrimSpace(after), true
	}
	return "", false
}

// stripANSI drops terminal color escapes, which fgbio emits around its
// banner when it thinks stderr is a terminal.
func stripANSI(s string) string {
	if !strings.Contains(s, "\x1b[") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && (s[j] < 0x40 || s[j] > 0x7e) {
				j++
			}
			i = j
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
