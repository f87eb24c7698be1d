package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/flemzord/fgbio-mcp/internal/health"
)

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	Version       string         `json:"version"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Tools         []string       `json:"tools"`
	Toolkit       *health.Status `json:"toolkit,omitempty"`
	AuditDropped  int64          `json:"audit_write_errors"`
}

func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := StatusResponse{
			Version:       g.opts.Version,
			UptimeSeconds: int64(time.Since(g.startedAt) / time.Second),
			Tools:         []string{},
		}
		if g.opts.Tools != nil {
			resp.Tools = g.opts.Tools()
		}
		if g.opts.Health != nil {
			s := g.opts.Health.Snapshot()
			resp.Toolkit = &s
		}
		if g.opts.Audit != nil {
			resp.AuditDropped = g.opts.Audit.WriteErrors()
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
