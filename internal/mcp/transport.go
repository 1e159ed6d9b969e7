package mcp

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DefaultSessionTimeout closes idle streamable HTTP sessions.
const DefaultSessionTimeout = 30 * time.Minute

// HTTPHandlerOptions configures the HTTP transport behavior.
type HTTPHandlerOptions struct {
	// Stateless disables session management. Tools here never call back into
	// the client, so stateless mode is safe behind a load balancer.
	Stateless bool
	// SessionTimeout overrides DefaultSessionTimeout for stateful sessions.
	SessionTimeout time.Duration
	Logger         *slog.Logger
}

// NewHTTPHandler creates an HTTP handler for the MCP server using Streamable HTTP transport,
// to be mounted at /mcp next to the REST routes.
func NewHTTPHandler(server *Server, opts *HTTPHandlerOptions) http.Handler {
	if opts == nil {
		opts = &HTTPHandlerOptions{}
	}
	timeout := opts.SessionTimeout
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}

	sdkOpts := &mcp.StreamableHTTPOptions{
		Stateless:      opts.Stateless,
		SessionTimeout: timeout,
		Logger:         opts.Logger,
	}

	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server.MCPServer()
	}, sdkOpts)
}
