// ABOUTME: MCP tool handler implementations for the budget simulator
// ABOUTME: Argument validation, service calls and JSON text results for each tool
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/budget-simulator/internal/service"
	"github.com/harper/budget-simulator/internal/storage"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	svc *service.Service
}

// AnalyzeProject handles the analyze_project tool
func (h *Handlers) AnalyzeProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	issue, err := request.RequireString("issue_text")
	if err != nil || strings.TrimSpace(issue) == "" {
		return mcp.NewToolResultError("issue_text argument is required and must be a non-empty string"), nil
	}
	summary, err := request.RequireString("summary_text")
	if err != nil || strings.TrimSpace(summary) == "" {
		return mcp.NewToolResultError("summary_text argument is required and must be a non-empty string"), nil
	}

	req := service.Request{
		IssueText:   strings.TrimSpace(issue),
		SummaryText: strings.TrimSpace(summary),
		UserAgent:   "mcp",
	}
	if proposed := request.GetFloat("proposed_budget", 0); proposed > 0 {
		v := int64(proposed)
		req.ProposedBudget = &v
	}

	pred := h.svc.Analyze(ctx, req)
	if pred.Error {
		return mcp.NewToolResultError(pred.Message), nil
	}
	return jsonResult(pred)
}

// ListProjects handles the list_projects tool
func (h *Handlers) ListProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", defaultListLimit)
	if limit <= 0 {
		limit = defaultListLimit
	}

	projects, total, err := h.svc.Projects(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list projects: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"projects":    projects,
		"total_count": total,
	})
}

// GetProject handles the get_project tool
func (h *Handlers) GetProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError("id argument is required and must be a number"), nil
	}

	project, err := h.svc.Project(ctx, int64(id))
	if errors.Is(err, storage.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("project %d not found", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get project: %v", err)), nil
	}
	return jsonResult(project)
}

// ProjectStats handles the project_stats tool
func (h *Handlers) ProjectStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.svc.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to compute stats: %v", err)), nil
	}
	return jsonResult(stats)
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
