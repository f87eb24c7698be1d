package security

import (
	"regexp"
	"strings"
	"sync"
)

// RedactPlaceholder replaces every redacted value.
const RedactPlaceholder = "***REDACTED***"

// secretKeyPattern matches environment or header names that carry secrets.
var secretKeyPattern = regexp.MustCompile(`(?i)(secret|token|password|passwd|key|credential|authorization)`)

// IsSecretName reports whether name looks like it holds a secret value,
// e.g. an environment variable or an HTTP header name.
func IsSecretName(name string) bool {
	return secretKeyPattern.MatchString(name)
}

// Redactor scrubs secrets from log lines and audit records. It knows a
// handful of credential formats and any literal values registered at
// startup (configured toolkit env secrets, exporter headers).
// All methods are safe for concurrent use.
type Redactor struct {
	mu       sync.RWMutex
	patterns []*regexp.Regexp
	literals []string
}

// NewRedactor returns a Redactor preloaded with DefaultPatterns.
func NewRedactor() *Redactor {
	return &Redactor{patterns: DefaultPatterns()}
}

// AddLiteral registers a value to redact wherever it appears. Values
// shorter than four bytes are ignored; they would match ordinary text.
func (r *Redactor) AddLiteral(secret string) {
	if len(secret) < 4 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.literals = append(r.literals, secret)
}

// AddSecretValues registers the value of every entry whose key satisfies
// IsSecretName.
func (r *Redactor) AddSecretValues(m map[string]string) {
	for k, v := range m {
		if IsSecretName(k) {
			r.AddLiteral(v)
		}
	}
}

// Redact returns s with known secrets replaced by RedactPlaceholder.
func (r *Redactor) Redact(s string) string {
	if s == "" {
		return s
	}

	r.mu.RLock()
	patterns := r.patterns
	literals := r.literals
	r.mu.RUnlock()

	for _, p := range patterns {
		s = p.ReplaceAllString(s, RedactPlaceholder)
	}
	for _, lit := range literals {
		s = strings.ReplaceAll(s, lit, RedactPlaceholder)
	}
	return s
}

// DefaultPatterns returns patterns for credentials that can end up in
// paths, URLs or toolkit stderr on a shared analysis host.
func DefaultPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		// AWS access key id
		regexp.MustCompile(`AKIA[A-Z0-9]{16}`),
		// Bearer tokens in headers echoed by exporters
		regexp.MustCompile(`(?i)bearer\s+[a-z0-9._~+/\-]{16,}=*`),
		// Presigned URL signatures (S3, GCS)
		regexp.MustCompile(`(X-Amz-Signature|X-Goog-Signature)=[0-9a-fA-F]{32,}`),
		// GitHub tokens
		regexp.MustCompile(`(ghp_|gho_|ghs_|github_pat_)[a-zA-Z0-9_]{20,}`),
	}
}
