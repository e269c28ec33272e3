package mcpserver

import (
	"net/http"

	"github.com/mark3labs/mcp-go/server"
)

// EndpointPath is where the streamable HTTP transport is mounted
const EndpointPath = "/mcp"

// Server wraps the MCP protocol server and its HTTP transport
type Server struct {
	mcpServer *server.MCPServer
	transport *server.StreamableHTTPServer
}

// New creates the MCP server with all tools registered
func New(handler *Handler, version string) *Server {
	mcpServer := server.NewMCPServer(
		"realestate-mcp",
		version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)
	registerTools(mcpServer, handler)

	transport := server.NewStreamableHTTPServer(
		mcpServer,
		server.WithEndpointPath(EndpointPath),
	)

	return &Server{
		mcpServer: mcpServer,
		transport: transport,
	}
}

// HTTPHandler returns the streamable HTTP transport. The caller mounts it
// at EndpointPath, typically wrapped by the request guard.
func (s *Server) HTTPHandler() http.Handler {
	return s.transport
}

// MCPServer exposes the underlying protocol server
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}
