// Package tool is the registry of callable operations. Each operation binds
// a name to a plain handler from JSON arguments to a result.Response. The
// registry is filled once at startup and only read afterwards.
package tool

import (
	"context"
	"encoding/json"
	"time"

	"github.com/flemzord/fgbio-mcp/internal/result"
)

// Scope declares what an operation touches. Protocol layers turn scopes
// into client hints.
type Scope string

// Scope values.
const (
	ScopeReadOnly  Scope = "read_only"
	ScopeReadWrite Scope = "read_write"
	ScopeExec      Scope = "exec"
)

// ParamType is the JSON type of a parameter.
type ParamType string

// Parameter types.
const (
	ParamString  ParamType = "string"
	ParamInteger ParamType = "integer"
	ParamBoolean ParamType = "boolean"
)

// Param describes one named argument of an operation.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool

	// Default is advertised to clients. Handlers apply their own defaults.
	Default any

	// Enum restricts string parameters.
	Enum []string

	// NonNegative marks integer parameters that must be >= 0.
	NonNegative bool

	// Positive marks integer parameters that must be >= 1.
	Positive bool
}

// Handler runs one operation. Domain failures are reported in the
// Response, never as a Go error.
type Handler func(ctx context.Context, args json.RawMessage) result.Response

// Tool is a registered operation.
type Tool struct {
	Name        string
	Description string
	Params      []Param
	Scopes      []Scope
	Handler     Handler
}

// ReadOnly reports whether the tool only reads.
func (t Tool) ReadOnly() bool {
	for _, s := range t.Scopes {
		if s != ScopeReadOnly {
			return false
		}
	}
	return len(t.Scopes) > 0
}

// Writes reports whether the tool creates or overwrites files.
func (t Tool) Writes() bool {
	for _, s := range t.Scopes {
		if s == ScopeReadWrite {
			return true
		}
	}
	return false
}

// Observer is notified after every call that reached a handler or was
// rejected by argument checks.
type Observer interface {
	ObserveCall(tool string, resp result.Response, elapsed time.Duration)
}

type invocationIDKey struct{}

// WithInvocationID returns ctx carrying id.
func WithInvocationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, invocationIDKey{}, id)
}

// InvocationID returns the id stored by WithInvocationID, or "".
func InvocationID(ctx context.Context) string {
	id, _ := ctx.Value(invocationIDKey{}).(string)
	return id
}
