package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate_Default(t *testing.T) {
	t.Parallel()

	if err := Validate(Default()); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unsupported version", func(c *Config) { c.Version = "2" }, "unsupported version"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"blank executable", func(c *Config) { c.Toolkit.Executable = "  " }, "toolkit.executable"},
		{"negative output cap", func(c *Config) { c.Toolkit.MaxOutputBytes = -1 }, "max_output_bytes"},
		{"negative kill grace", func(c *Config) { c.Toolkit.KillGrace = -time.Second }, "kill_grace"},
		{"negative probe timeout", func(c *Config) { c.Toolkit.ProbeTimeout = -time.Second }, "probe_timeout"},
		{"missing work dir", func(c *Config) { c.Toolkit.WorkDir = "/does/not/exist" }, "work_dir"},
		{"bad env name", func(c *Config) { c.Toolkit.Env = map[string]string{"A=B": "x"} }, "toolkit.env"},
		{"bad schedule", func(c *Config) { c.Toolkit.ProbeSchedule = "every now and then" }, "probe_schedule"},
		{"unknown transport", func(c *Config) { c.Server.Transport = "grpc" }, "server.transport"},
		{"bad bind", func(c *Config) {
			c.Server.Transport = TransportHTTP
			c.Server.HTTP.Bind = "not a valid address::"
		}, "server.http.bind"},
		{"half basic auth", func(c *Config) { c.Server.HTTP.Auth.BasicUser = "u" }, "basic_user"},
		{"sample ratio", func(c *Config) { c.Telemetry.Tracing.SampleRatio = 2 }, "sample_ratio"},
		{"negative arg bytes", func(c *Config) { c.Limits.MaxArgBytes = -1 }, "max_arg_bytes"},
		{"negative arg depth", func(c *Config) { c.Limits.MaxArgDepth = -1 }, "max_arg_depth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_AggregatesErrors(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Version = "0"
	cfg.Server.Transport = "carrier-pigeon"
	cfg.Toolkit.ProbeSchedule = "nope"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"version", "server.transport", "probe_schedule"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestValidate_ScheduleForms(t *testing.T) {
	t.Parallel()

	for _, expr := range []string{"@every 10m", "@hourly", "*/15 * * * *"} {
		cfg := Default()
		cfg.Toolkit.ProbeSchedule = expr
		if err := Validate(cfg); err != nil {
			t.Errorf("%q: %v", expr, err)
		}
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"debug", "info", "warn", "error", "INFO"} {
		if _, err := ParseLevel(s); err != nil {
			t.Errorf("ParseLevel(%q): %v", s, err)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}
