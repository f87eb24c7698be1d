// Package config handles YAML configuration loading, environment variable
// expansion, defaults and structural validation for fgbio-mcp.
package config

import (
	"maps"
	"time"

	"github.com/flemzord/fgbio-mcp/internal/gateway"
)

// Transport values for Server.Transport.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	Log       LogConfig       `yaml:"log"`
	Toolkit   ToolkitConfig   `yaml:"toolkit"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Audit     AuditConfig     `yaml:"audit"`
	Limits    LimitsConfig    `yaml:"limits"`
}

// LogConfig sets the slog level: debug, info, warn or error.
type LogConfig struct {
	Level string `yaml:"level"`
}

// ToolkitConfig describes how fgbio is launched.
type ToolkitConfig struct {
	// Executable is a name resolved through PATH or an absolute path.
	Executable string `yaml:"executable"`

	Timeout        time.Duration `yaml:"timeout"`
	MaxOutputBytes int           `yaml:"max_output_bytes"`
	KillGrace      time.Duration `yaml:"kill_grace"`
	WorkDir        string        `yaml:"work_dir"`

	// Env is added to the sanitized environment of every invocation,
	// e.g. JAVA_OPTS.
	Env map[string]string `yaml:"env"`

	// ProbeOnStart runs a version check before serving.
	ProbeOnStart *bool `yaml:"probe_on_start"`

	// ProbeSchedule re-runs the version check. Empty disables it.
	ProbeSchedule string `yaml:"probe_schedule"`

	// ProbeTimeout bounds each version check.
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
}

// ServerConfig selects the MCP transport.
type ServerConfig struct {
	Transport string         `yaml:"transport"`
	HTTP      gateway.Config `yaml:"http"`
}

// TelemetryConfig configures metrics and tracing.
type TelemetryConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// MetricsConfig toggles the /metrics endpoint on the HTTP transport.
type MetricsConfig struct {
	Enabled *bool `yaml:"enabled"`
}

// TracingConfig configures OTLP/HTTP span export.
type TracingConfig struct {
	Endpoint    string            `yaml:"endpoint"`
	Insecure    bool              `yaml:"insecure"`
	Headers     map[string]string `yaml:"headers"`
	ServiceName string            `yaml:"service_name"`
	SampleRatio float64           `yaml:"sample_ratio"`
}

// AuditConfig configures the JSONL invocation audit trail.
type AuditConfig struct {
	// Path is the file events are appended to. Empty disables the trail;
	// "-" writes to stderr.
	Path string `yaml:"path"`
}

// LimitsConfig bounds incoming tool arguments.
type LimitsConfig struct {
	MaxArgBytes int `yaml:"max_arg_bytes"`
	MaxArgDepth int `yaml:"max_arg_depth"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Version: "1"}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero values in place.
func (c *Config) ApplyDefaults() {
	if c.Version == "" {
		c.Version = "1"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Toolkit.Executable == "" {
		c.Toolkit.Executable = "fgbio"
	}
	if c.Toolkit.Timeout <= 0 {
		c.Toolkit.Timeout = time.Hour
	}
	if c.Toolkit.ProbeTimeout == 0 {
		c.Toolkit.ProbeTimeout = 30 * time.Second
	}
	if c.Toolkit.ProbeOnStart == nil {
		c.Toolkit.ProbeOnStart = boolPtr(true)
	}
	if c.Server.Transport == "" {
		c.Server.Transport = TransportStdio
	}
	c.Server.HTTP.Defaults()
	if c.Telemetry.Metrics.Enabled == nil {
		c.Telemetry.Metrics.Enabled = boolPtr(true)
	}
	if c.Telemetry.Tracing.ServiceName == "" {
		c.Telemetry.Tracing.ServiceName = "fgbio-mcp"
	}
	if c.Telemetry.Tracing.SampleRatio == 0 {
		c.Telemetry.Tracing.SampleRatio = 1
	}
}

// MetricsEnabled reports whether /metrics is served.
func (c *Config) MetricsEnabled() bool {
	return c.Telemetry.Metrics.Enabled == nil || *c.Telemetry.Metrics.Enabled
}

// ProbeOnStart reports whether the toolkit is probed before serving.
func (c *Config) ProbeOnStart() bool {
	return c.Toolkit.ProbeOnStart == nil || *c.Toolkit.ProbeOnStart
}

// Secrets returns configured values that must never reach logs or the
// audit trail, keyed by their setting name.
func (c *Config) Secrets() map[string]string {
	out := make(map[string]string)
	maps.Copy(out, c.Toolkit.Env)
	maps.Copy(out, c.Telemetry.Tracing.Headers)
	if tok := c.Server.HTTP.Auth.BearerToken; tok != "" {
		out["bearer_token"] = tok
	}
	if pass := c.Server.HTTP.Auth.BasicPass; pass != "" {
		out["basic_password"] = pass
	}
	return out
}

func boolPtr(b bool) *bool { return &b }
