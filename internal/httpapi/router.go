// Package httpapi serves the MCP server over HTTP using chi.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// NewRouter creates a chi router with health endpoints and the MCP
// streamable HTTP transport mounted at /mcp.
// authEnabled controls whether Bearer token auth is enforced on /mcp;
// the health endpoints are always open.
func NewRouter(srv *mcpserver.MCPServer, authEnabled bool, token string) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", healthHandler)
	r.Get("/health/ready", healthHandler)

	streamable := mcpserver.NewStreamableHTTPServer(srv)
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(authEnabled, token))
		r.Handle("/mcp", streamable)
		r.Handle("/mcp/*", streamable)
	})

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
