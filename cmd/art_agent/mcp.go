package main

import (
	"github.com/spf13/cobra"

	"github.com/azournas/art-agent/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the agent over the Model Context Protocol on stdio",
	Long: `Runs as an MCP server on stdin/stdout so that agent hosts can call the
analysis tools and read the reference resources. Progress output goes to
stderr; stdout carries only protocol frames.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	runner, repo, cleanup, err := buildRunner(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	return mcpserver.New(runner, repo).Run(ctx)
}
