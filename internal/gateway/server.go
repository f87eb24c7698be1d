package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Public.
	r.Get("/health", g.handleHealth())
	if g.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", g.opts.Metrics)
	}

	// Auth required when configured.
	r.Group(func(r chi.Router) {
		if g.config.Auth.IsConfigured() {
			r.Use(authMiddleware(g.config.Auth, g.opts.Audit))
		}
		r.Get("/status", g.handleStatus())
		if g.opts.MCP != nil {
			r.Handle("/mcp", g.opts.MCP)
		}
	})

	return r
}
