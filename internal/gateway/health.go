package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/flemzord/fgbio-mcp/internal/health"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status  string         `json:"status"` // "ok" or "degraded"
	Toolkit *health.Status `json:"toolkit,omitempty"`
}

// handleHealth returns 200 while the toolkit is reachable and 503 once a
// probe has failed. Before the first probe the gateway reports ok.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{Status: "ok"}

		if g.opts.Health != nil {
			s := g.opts.Health.Snapshot()
			resp.Toolkit = &s
			if s.Checked() && !s.Available {
				resp.Status = "degraded"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.Status == "degraded" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
