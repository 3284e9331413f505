package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/huangsam/classdrift/core"
	"github.com/huangsam/classdrift/internal/contract"
	"github.com/huangsam/classdrift/internal/outwriter"
	"github.com/huangsam/classdrift/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

// jsonResult marshals a value into an indented text result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// systemConfig clones the base config and sets the required system argument.
func (h *toolHandler) systemConfig(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	system := request.GetString("system", "")
	if system == "" {
		return nil, errors.New("system is required")
	}
	cfg.System = system
	return cfg, nil
}

func (h *toolHandler) handleListSystems(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	systems, err := core.GetSystems(core.WithSuppressHeader(ctx), h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing systems failed: %v", err)), nil
	}
	return jsonResult(systems)
}

func (h *toolHandler) handleListReleases(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.systemConfig(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	summaries, err := core.GetReleaseSummaries(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing releases failed: %v", err)), nil
	}
	return jsonResult(summaries)
}

func (h *toolHandler) handleGetClassHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.systemConfig(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cfg.ClassName = request.GetString("class", "")
	if cfg.ClassName == "" {
		return mcp.NewToolResultError("class is required"), nil
	}

	timeline, err := core.GetClassTimeline(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("class history failed: %v", err)), nil
	}
	return jsonResult(timeline)
}

func (h *toolHandler) handleGetReleaseClasses(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.systemConfig(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if rsn := request.GetInt("rsn", 0); rsn > 0 {
		cfg.RSN = rsn
	}
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.ResultLimit = l
	}
	if s := request.GetString("sort", ""); s != "" {
		info, ok := schema.LookupMetric(s)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown sort metric %q", s)), nil
		}
		cfg.SortMetric = info.Name
	}

	listing, err := core.GetClassListing(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing classes failed: %v", err)), nil
	}
	return jsonResult(outwriter.BuildClassListingJSON(listing))
}
