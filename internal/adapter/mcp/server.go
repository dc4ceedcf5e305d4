package mcp

import (
	"log/slog"

	"github.com/guillermoBallester/schemadvisor/internal/core/domain"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/trace"
)

// NewServer creates an MCPServer with the advisory tools and logging hooks.
// tracer and inst may be nil.
func NewServer(version string, analyzer Analyzer, base domain.Thresholds, logger *slog.Logger, tracer trace.Tracer, inst ToolRecorder) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(false),
		server.WithHooks(ToolCallHooks(logger, tracer, inst)),
	)

	RegisterTools(s, analyzer, base, logger)

	return s
}
