package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"webchat-bridge/internal/application/port/output"
	"webchat-bridge/internal/domain/entity"
)

const ServerName = "webchat-bridge"

// Bridge is the part of the application the MCP surface needs.
type Bridge interface {
	Tools() []entity.ToolDescriptor
	Invoke(ctx context.Context, name entity.ToolName, params entity.Params) (string, error)
}

// Server exposes every registered tool over MCP. Tool failures are reported
// as error results so the client can show them; the session keeps going.
type Server struct {
	bridge Bridge
	logger output.LoggerPort
	srv    *server.MCPServer
}

func NewServer(bridge Bridge, version string, logger output.LoggerPort) (*Server, error) {
	s := &Server{
		bridge: bridge,
		logger: logger.WithField("component", "mcp"),
		srv: server.NewMCPServer(
			ServerName,
			version,
			server.WithToolCapabilities(false),
		),
	}

	for _, d := range bridge.Tools() {
		schema, err := json.Marshal(d.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("encode schema of %s: %w", d.Name, err)
		}
		tool := mcplib.NewToolWithRawSchema(d.Name.String(), d.Description, schema)
		s.srv.AddTool(tool, s.handler(d.Name))
	}
	return s, nil
}

func (s *Server) handler(name entity.ToolName) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		params := entity.Params(request.GetArguments())
		result, err := s.bridge.Invoke(ctx, name, params)
		if err != nil {
			s.logger.Warn("Tool call failed", "tool", name.String(), "error", err.Error())
			return mcplib.NewToolResultError(fmt.Sprintf("%s failed: %v", name, err)), nil
		}
		return mcplib.NewToolResultText(result), nil
	}
}

// Serve speaks MCP over in/out until ctx is done or in is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.srv)
	s.logger.Info("MCP server listening on stdio", "tools", len(s.bridge.Tools()))
	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp stdio: %w", err)
	}
	return nil
}
