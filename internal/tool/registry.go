package tool

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/flemzord/fgbio-mcp/internal/result"
	"github.com/flemzord/fgbio-mcp/internal/security"
)

// Registry maps operation names to tools and runs calls through argument
// checks, auditing and observers. It is instance-based, not global.
type Registry struct {
	mu          sync.RWMutex
	tools       map[string]Tool
	logger      *slog.Logger
	auditLogger *security.AuditLogger
	observers   []Observer
	maxArgBytes int
	maxArgDepth int
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:  make(map[string]Tool),
		logger: slog.Default(),
	}
}

// SetLogger configures the logger used for call records.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if logger != nil {
		r.logger = logger
	}
}

// SetAuditLogger configures audit logging for tool calls.
func (r *Registry) SetAuditLogger(logger *security.AuditLogger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.auditLogger = logger
}

// AddObserver registers an observer notified after each call.
func (r *Registry) AddObserver(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
}

// SetArgumentLimits bounds incoming argument payloads. Zero values keep
// the security package defaults.
func (r *Registry) SetArgumentLimits(maxBytes, maxDepth int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maxArgBytes = maxBytes
	r.maxArgDepth = maxDepth
}

// Register adds a tool to the registry.
func (r *Registry) Register(t Tool) error {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return ErrEmptyToolName
	}
	if len(t.Scopes) == 0 {
		return fmt.Errorf("%w: %s", ErrNoScopes, name)
	}
	if t.Handler == nil {
		return fmt.Errorf("%w: %s", ErrNilHandler, name)
	}
	t.Name = name

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
	}
	r.tools[name] = t
	return nil
}

// Get returns the tool with the given name, or ErrToolNotFound.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	if !ok {
		return Tool{}, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return t, nil
}

// Tools returns all registered tools sorted by name.
func (r *Registry) Tools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}
	slices.SortFunc(tools, func(a, b Tool) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return tools
}

// Names returns all registered tool names sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Execute runs a call in order: lookup, argument limits, audit, handler, audit,
// observers. The only error returned is ErrToolNotFound; every other
// failure is a Response with Success=false.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (result.Response, error) {
	t, err := r.Get(name)
	if err != nil {
		return result.Response{}, err
	}

	r.mu.RLock()
	logger := r.logger
	al := r.auditLogger
	observers := slices.Clone(r.observers)
	maxBytes, maxDepth := r.maxArgBytes, r.maxArgDepth
	r.mu.RUnlock()

	id := InvocationID(ctx)
	if id == "" {
		id = uuid.NewString()
		ctx = WithInvocationID(ctx, id)
	}
	logger = logger.With("tool", name, "invocation_id", id)
	start := time.Now()

	var resp result.Response
	if err := security.CheckArguments(args, maxBytes, maxDepth); err != nil {
		resp = result.Rejected(err)
	} else {
		al.Log(security.AuditEvent{
			Type:         security.EventToolCall,
			Tool:         name,
			InvocationID: id,
			Detail:       truncateForAudit(string(args)),
		})
		resp = t.Handler(ctx, args)
	}
	if resp.InvocationID == "" {
		resp.InvocationID = id
	}
	elapsed := time.Since(start)

	auditResult(al, name, resp)
	if resp.Success {
		logger.Info("tool: call succeeded", "duration", elapsed, "outputs", resp.Outputs)
	} else {
		logger.Warn("tool: call failed", "duration", elapsed, "kind", resp.Kind, "state", resp.State, "message", truncateForAudit(resp.Message))
	}
	for _, o := range observers {
		o.ObserveCall(name, resp, elapsed)
	}
	return resp, nil
}

func auditResult(al *security.AuditLogger, name string, resp result.Response) {
	event := security.AuditEvent{
		Type:         security.EventToolResult,
		Tool:         name,
		InvocationID: resp.InvocationID,
		Command:      resp.Command,
		Detail:       truncateForAudit(resp.Message),
		Metadata: map[string]string{
			"success": fmt.Sprintf("%v", resp.Success),
		},
	}
	if resp.State == "" && !resp.Success {
		event.Type = security.EventRejected
	}
	if resp.Kind != "" {
		event.Metadata["kind"] = string(resp.Kind)
	}
	if resp.State != "" {
		event.Metadata["state"] = string(resp.State)
	}
	al.Log(event)
}

// maxAuditDetailLen is the maximum length of audit detail strings.
const maxAuditDetailLen = 4096

// truncateForAudit truncates a string to maxAuditDetailLen, appending
// a truncation indicator if the string was shortened.
// It walks back to a valid UTF-8 rune boundary.
func truncateForAudit(s string) string {
	if len(s) <= maxAuditDetailLen {
		return s
	}
	i := maxAuditDetailLen
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return s[:i] + "...(truncated)"
}
