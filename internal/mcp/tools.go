// ABOUTME: MCP tool definitions and registration for the budget simulator
// ABOUTME: Exposes analysis, project listing, project lookup and index stats as tools
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/budget-simulator/internal/service"
)

const defaultListLimit = 20

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, svc *service.Service) *Handlers {
	handlers := &Handlers{svc: svc}

	// 1. analyze_project - predict a budget from similar historical projects
	server.AddTool(mcp.Tool{
		Name:        "analyze_project",
		Description: "Predict the budget of a new policy project from the most similar historical projects. Returns the similarity-weighted budget, the plain average, and the contributing cases.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"issue_text": map[string]interface{}{
					"type":        "string",
					"description": "Current situation and the problem the project addresses",
				},
				"summary_text": map[string]interface{}{
					"type":        "string",
					"description": "Project overview: how the problem will be solved",
				},
				"proposed_budget": map[string]interface{}{
					"type":        "number",
					"description": "Optional budget the caller has in mind, in yen (recorded in the analysis log)",
				},
			},
			Required: []string{"issue_text", "summary_text"},
		},
	}, handlers.AnalyzeProject)

	// 2. list_projects - list indexed projects
	server.AddTool(mcp.Tool{
		Name:        "list_projects",
		Description: "List historical projects in the index with budget and rating.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of projects to return (default: 20)",
					"default":     defaultListLimit,
				},
			},
		},
	}, handlers.ListProjects)

	// 3. get_project - full detail for one project
	server.AddTool(mcp.Tool{
		Name:        "get_project",
		Description: "Get one historical project by id, including its issue and summary text.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "number",
					"description": "Project id from the source data",
				},
			},
			Required: []string{"id"},
		},
	}, handlers.GetProject)

	// 4. project_stats - budget and rating summary of the index
	server.AddTool(mcp.Tool{
		Name:        "project_stats",
		Description: "Summarise the index: project count, budget min/max/mean/median and rating distribution.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ProjectStats)

	return handlers
}
