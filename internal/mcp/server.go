package mcp

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/docqa/internal/qa"
)

// Server wraps the MCP server with dependencies.
type Server struct {
	server  *mcp.Server
	service *qa.Service
}

// Config holds server dependencies.
type Config struct {
	Service *qa.Service
	// AllowLocalFiles registers ingest_document, which reads files from the
	// server's filesystem. Enable it only for local stdio clients.
	AllowLocalFiles bool
	// MaxFileBytes bounds files read by ingest_document. Zero means no limit.
	MaxFileBytes int64
	Logger       *slog.Logger
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	impl := &mcp.Implementation{
		Name:    "docqa",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_document",
		Description: "Answer a question about an ingested document. The answer is grounded in the document's most relevant pages and cites them.",
	}, makeAskHandler(cfg.Service))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "document_status",
		Description: "Get the ingestion status of a document job and the size of its search index.",
	}, makeStatusHandler(cfg.Service))

	if cfg.AllowLocalFiles {
		mcp.AddTool(server, &mcp.Tool{
			Name:        "ingest_document",
			Description: "Ingest a local .pdf, .md or .txt file so it can be queried with ask_document. Returns the job id.",
		}, makeIngestHandler(cfg.Service, cfg.MaxFileBytes, logger))
	}

	return &Server{
		server:  server,
		service: cfg.Service,
	}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
