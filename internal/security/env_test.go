package security

import (
	"strings"
	"testing"
)

func TestIsSensitiveEnvVar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		sensitive bool
	}{
		{"OPENAI_API_KEY", true},
		{"anthropic_api_key", true},
		{"AWS_SECRET_ACCESS_KEY", true},
		{"Github_Token", true},
		{"DB_PASSWORD", true},
		{"DB_PORT", false},
		{"PATH", false},
		{"JAVA_HOME", false},
		{"TMPDIR", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isSensitiveEnvVar(tt.name); got != tt.sensitive {
				t.Errorf("isSensitiveEnvVar(%q) = %v, want %v", tt.name, got, tt.sensitive)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	env := []string{
		"PATH=/usr/bin",
		"OPENAI_API_KEY=sk-123",
		"JAVA_OPTS=-Xmx4g",
		"FGBIO_LICENSE=abc",
		"malformed",
	}
	got := sanitize(env, []string{"fgbio_license"})

	want := "PATH=/usr/bin|JAVA_OPTS=-Xmx4g"
	if strings.Join(got, "|") != want {
		t.Errorf("sanitize() = %v, want %s", got, want)
	}
}

func TestSanitizedEnv_ExcludesSensitive(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "secret")
	t.Setenv("FGBIO_TEST_KEEP", "1")

	var kept bool
	for _, entry := range SanitizedEnv() {
		key, _, _ := strings.Cut(entry, "=")
		if isSensitiveEnvVar(key) {
			t.Errorf("sensitive var %q found in sanitized env", key)
		}
		if key == "FGBIO_TEST_KEEP" {
			kept = true
		}
	}
	if !kept {
		t.Error("FGBIO_TEST_KEEP was dropped")
	}
}
