// Package tooltest provides test helpers and mocks for the tool package.
package tooltest

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/flemzord/fgbio-mcp/internal/result"
	"github.com/flemzord/fgbio-mcp/internal/tool"
)

// SimpleTool returns a tool whose handler echoes its arguments in the
// response message and succeeds.
func SimpleTool(name string) tool.Tool {
	return tool.Tool{
		Name:        name,
		Description: "simple test tool: " + name,
		Params: []tool.Param{
			{Name: "input", Type: tool.ParamString, Required: true, Description: "input path"},
		},
		Scopes: []tool.Scope{tool.ScopeReadOnly},
		Handler: func(_ context.Context, args json.RawMessage) result.Response {
			return result.Response{Success: true, Message: string(args), State: result.StateSucceeded}
		},
	}
}

// RecordingObserver records every call it observes.
type RecordingObserver struct {
	mu    sync.Mutex
	Calls []ObservedCall
}

// ObservedCall is one recorded observation.
type ObservedCall struct {
	Tool     string
	Response result.Response
	Elapsed  time.Duration
}

// ObserveCall implements tool.Observer.
func (o *RecordingObserver) ObserveCall(name string, resp result.Response, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Calls = append(o.Calls, ObservedCall{Tool: name, Response: resp, Elapsed: elapsed})
}

// Len returns the number of recorded calls.
func (o *RecordingObserver) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.Calls)
}

var _ tool.Observer = (*RecordingObserver)(nil)
