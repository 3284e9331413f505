// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/classdrift/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the classdrift MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Classdrift Evolution Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	s.AddTool(mcp.NewTool("list_systems",
		mcp.WithDescription("List the software systems whose release snapshots are stored."),
	), h.handleListSystems)

	s.AddTool(mcp.NewTool("list_releases",
		mcp.WithDescription("Summarize class evolution for every stored release of a system."),
		mcp.WithString("system", mcp.Description("System key, as shown by list_systems."), mcp.Required()),
	), h.handleListReleases)

	s.AddTool(mcp.NewTool("get_class_history",
		mcp.WithDescription("Trace one class across releases, following renames back to earlier names."),
		mcp.WithString("system", mcp.Description("System key."), mcp.Required()),
		mcp.WithString("class", mcp.Description("Fully qualified class name in the latest release it appears in."), mcp.Required()),
	), h.handleGetClassHistory)

	s.AddTool(mcp.NewTool("get_release_classes",
		mcp.WithDescription("List the classes of one release ranked by a metric."),
		mcp.WithString("system", mcp.Description("System key."), mcp.Required()),
		mcp.WithNumber("rsn", mcp.Description("Release sequence number. Defaults to the latest stored release.")),
		mcp.WithString("sort", mcp.Description("Metric name or acronym to rank by. Defaults to instability.")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of classes returned.")),
	), h.handleGetReleaseClasses)

	return s
}

// StartMCPServer starts the classdrift MCP server over stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
