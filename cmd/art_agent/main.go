// Package main provides the entry point for the ART analysis agent.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "art_agent",
	Short: "ART analysis agent",
	Long: "art_agent turns natural-language analysis requests into Python code for the " +
		"Automated Recommendation Tool, persists the code, and executes it in a Docker " +
		"sandbox. It can be driven from the CLI, over REST, or as an MCP server.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
