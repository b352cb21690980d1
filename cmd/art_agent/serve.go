package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/azournas/art-agent/internal/pipeline"
	"github.com/azournas/art-agent/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for running analysis workflows.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	runner, _, cleanup, err := buildRunner(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	srv, err := server.New(server.Config{
		Port: servePort,
		Pipeline: func(sink pipeline.Sink) server.Pipeline {
			if sink == nil {
				return runner
			}
			return runner.WithSink(sink)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
