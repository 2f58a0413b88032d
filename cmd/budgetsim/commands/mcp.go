// ABOUTME: MCP command starts the Model Context Protocol server
// ABOUTME: Lets LLM agents run budget analyses and browse projects via stdio
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/harper/budget-simulator/internal/mcp"
	"github.com/harper/budget-simulator/internal/service"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs the budget simulator as an MCP (Model Context Protocol) server,
letting LLM agents analyze project proposals and browse historical
projects via stdio.

Logs go to stderr so they never mix with the protocol on stdout.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by an MCP client)
  budgetsim mcp

  # Configure in an MCP client config file:
  # {
  #   "mcpServers": {
  #     "budgetsim": {
  #       "command": "budgetsim",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	svc, err := service.New(cfg, service.Options{Logger: logger})
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("error closing storage", "err", err)
		}
	}()

	server := mcpserver.NewMCPServer(
		"Policy Budget Simulator",
		versionInfo.Version,
	)
	mcp.RegisterTools(server, svc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("MCP server starting on stdio")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
