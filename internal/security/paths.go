package security

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrRestrictedPath is returned for paths under /proc, /sys or /dev.
var ErrRestrictedPath = errors.New("access to restricted path is not allowed")

var restrictedPrefixes = []string{"/proc/", "/sys/", "/dev/"}

// ValidatePath rejects request paths that point into kernel or device
// filesystems. The path is made absolute and symlinks are resolved
// (best-effort) first, so "proc/self/environ" from / or a symlink into
// /dev is caught too.
func ValidatePath(path string) error {
	cleaned := filepath.Clean(path)
	if abs, err := filepath.Abs(cleaned); err == nil {
		cleaned = abs
	}
	if resolved, err := filepath.EvalSymlinks(cleaned); err == nil {
		cleaned = resolved
	}
	normalized := strings.ToLower(cleaned) + "/"

	for _, prefix := range restrictedPrefixes {
		if strings.HasPrefix(normalized, prefix) {
			return fmt.Errorf("%w: %s", ErrRestrictedPath, path)
		}
	}
	return nil
}

// QuoteArg quotes s for display in a POSIX shell. Arguments made only of
// safe characters are returned unchanged. The result is for logs and
// responses; nothing in this module executes it.
func QuoteArg(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, needsQuoting) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// QuoteArgv joins argv into a single display string.
func QuoteArgv(argv []string) string {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = QuoteArg(a)
	}
	return strings.Join(quoted, " ")
}

func needsQuoting(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	case strings.ContainsRune("-_=./:,+@%", r):
		return false
	}
	return true
}
