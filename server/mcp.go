package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// MCPServer exposes the relay registries to MCP tooling over stdio.
type MCPServer struct {
	Server *mcpserver.MCPServer
}

func NewMCPServer() *MCPServer {
	return &MCPServer{Server: mcpserver.NewMCPServer("Device Relay MCP Server", "1.0.0")}
}

// RegisterTools adds registry introspection tools backed by the router.
func (s *MCPServer) RegisterTools(router *Router) {
	listDevices := mcp.NewTool("list_devices", mcp.WithDescription("Get the identities of the devices connected to this relay"))
	s.Server.AddTool(listDevices, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return identityListResult(router.Devices.Identities())
	})

	listClients := mcp.NewTool("list_clients", mcp.WithDescription("Get the identities of the clients connected to this relay"))
	s.Server.AddTool(listClients, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return identityListResult(router.Clients.Identities())
	})
}

func identityListResult(ids []string) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: string(jsonBytes),
			},
		}}, nil
}

func (s *MCPServer) Start() error {
	slog.Info("Started stdio MCP server")
	defer func() {
		slog.Info("Shut down stdio MCP server")
	}()
	return mcpserver.ServeStdio(s.Server)
}
