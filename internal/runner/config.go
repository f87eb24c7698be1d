package runner

import (
	"os"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Default values applied by Config.defaults.
const (
	DefaultExecutable     = "fgbio"
	DefaultMaxOutputBytes = 1 << 20
	DefaultTimeout        = time.Hour
	DefaultKillGrace      = 5 * time.Second
)

// Config is passed to New at construction. There is no package-level state.
type Config struct {
	// Executable is the toolkit binary, resolved through PATH when it has
	// no path separator.
	Executable string

	// MaxOutputBytes caps each captured stream. Excess bytes are dropped
	// and the corresponding truncation flag is set.
	MaxOutputBytes int

	// DefaultTimeout bounds every invocation. A shorter deadline on the
	// caller's context still applies.
	DefaultTimeout time.Duration

	// KillGrace bounds how long Wait keeps draining output after the
	// process was killed.
	KillGrace time.Duration

	// WorkDir is used when a Spec does not set its own directory.
	WorkDir string

	// BaseEnv is the inherited environment, usually security.SanitizedEnv().
	// Nil means os.Environ().
	BaseEnv []string

	// Env holds KEY=VALUE entries appended after BaseEnv.
	Env []string

	// TracerProvider creates the per-run spans. Nil means the global
	// provider at construction time.
	TracerProvider trace.TracerProvider
}

func (c *Config) defaults() {
	if c.Executable == "" {
		c.Executable = DefaultExecutable
	}
	if c.MaxOutputBytes <= 0 {
		c.MaxOutputBytes = DefaultMaxOutputBytes
	}
	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = DefaultTimeout
	}
	if c.KillGrace <= 0 {
		c.KillGrace = DefaultKillGrace
	}
	if c.BaseEnv == nil {
		c.BaseEnv = os.Environ()
	}
}
