package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"slices"
	"strings"

	"github.com/flemzord/fgbio-mcp/internal/cron"
)

// Validate checks the structural validity of a Config after defaults have
// been applied. All problems are reported together.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if _, err := ParseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, err)
	}

	errs = append(errs, validateToolkit(cfg.Toolkit)...)
	errs = append(errs, validateServer(cfg.Server)...)
	errs = append(errs, validateTelemetry(cfg.Telemetry)...)

	if cfg.Limits.MaxArgBytes < 0 {
		errs = append(errs, errors.New("config: limits.max_arg_bytes must not be negative"))
	}
	if cfg.Limits.MaxArgDepth < 0 {
		errs = append(errs, errors.New("config: limits.max_arg_depth must not be negative"))
	}

	return errors.Join(errs...)
}

func validateToolkit(t ToolkitConfig) []error {
	var errs []error

	if strings.TrimSpace(t.Executable) == "" {
		errs = append(errs, errors.New("config: toolkit.executable is required"))
	}
	if t.MaxOutputBytes < 0 {
		errs = append(errs, errors.New("config: toolkit.max_output_bytes must not be negative"))
	}
	if t.KillGrace < 0 {
		errs = append(errs, errors.New("config: toolkit.kill_grace must not be negative"))
	}
	if t.ProbeTimeout < 0 {
		errs = append(errs, errors.New("config: toolkit.probe_timeout must not be negative"))
	}
	if t.WorkDir != "" {
		if info, err := os.Stat(t.WorkDir); err != nil || !info.IsDir() {
			errs = append(errs, fmt.Errorf("config: toolkit.work_dir %q is not a directory", t.WorkDir))
		}
	}
	for k := range t.Env {
		if k == "" || strings.ContainsAny(k, "=\x00") {
			errs = append(errs, fmt.Errorf("config: toolkit.env: invalid variable name %q", k))
		}
	}
	if t.ProbeSchedule != "" {
		if err := cron.ParseSchedule(t.ProbeSchedule); err != nil {
			errs = append(errs, fmt.Errorf("config: toolkit.probe_schedule: %w", err))
		}
	}
	return errs
}

func validateServer(s ServerConfig) []error {
	var errs []error

	if !slices.Contains([]string{TransportStdio, TransportHTTP}, s.Transport) {
		errs = append(errs, fmt.Errorf("config: server.transport %q must be %q or %q", s.Transport, TransportStdio, TransportHTTP))
	}
	if s.Transport == TransportHTTP {
		if _, err := net.ResolveTCPAddr("tcp", s.HTTP.Bind); err != nil {
			errs = append(errs, fmt.Errorf("config: server.http.bind %q: %w", s.HTTP.Bind, err))
		}
	}
	auth := s.HTTP.Auth
	if (auth.BasicUser == "") != (auth.BasicPass == "") {
		errs = append(errs, errors.New("config: server.http.auth: basic_user and basic_pass must be set together"))
	}
	return errs
}

func validateTelemetry(t TelemetryConfig) []error {
	var errs []error
	if r := t.Tracing.SampleRatio; r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("config: telemetry.tracing.sample_ratio %v must be within [0, 1]", r))
	}
	return errs
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: log.level %q: want debug, info, warn or error", s)
	}
	return level, nil
}
