// Package security holds the guards applied around toolkit execution:
// a scrubbed child environment, restricted-path checks on request paths,
// size limits on incoming tool arguments, and display quoting of argv.
package security

import (
	"os"
	"strings"
)

// sensitiveEnvPrefixes are stripped from the toolkit's environment. fgbio
// never needs cloud or chat credentials, so the child does not get them.
var sensitiveEnvPrefixes = []string{
	"OPENAI_",
	"ANTHROPIC_",
	"AWS_SECRET",
	"AWS_SESSION_TOKEN",
	"GOOGLE_APPLICATION_CREDENTIALS",
	"AZURE_CLIENT_SECRET",
	"GITHUB_TOKEN",
	"GH_TOKEN",
	"GITLAB_TOKEN",
	"OTEL_EXPORTER_OTLP_HEADERS",
}

// sensitiveEnvExact are matched on the whole name only, so DB_PORT or
// DATABASE_HOST survive while DB_PASSWORD does not.
var sensitiveEnvExact = map[string]struct{}{
	"AWS_SECRET_ACCESS_KEY": {},
	"DATABASE_URL":          {},
	"DB_PASSWORD":           {},
}

// SanitizedEnv returns os.Environ() minus sensitive variables and any
// variable listed in deny (exact, case-insensitive).
func SanitizedEnv(deny ...string) []string {
	return sanitize(os.Environ(), deny)
}

func sanitize(env, deny []string) []string {
	denied := make(map[string]struct{}, len(deny))
	for _, d := range deny {
		denied[strings.ToUpper(d)] = struct{}{}
	}

	result := make([]string, 0, len(env))
	for _, entry := range env {
		key, _, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if _, ok := denied[strings.ToUpper(key)]; ok {
			continue
		}
		if isSensitiveEnvVar(key) {
			continue
		}
		result = append(result, entry)
	}
	return result
}

func isSensitiveEnvVar(name string) bool {
	upper := strings.ToUpper(name)

	if _, ok := sensitiveEnvExact[upper]; ok {
		return true
	}
	for _, prefix := range sensitiveEnvPrefixes {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return false
}
