package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/azournas/art-agent/internal/artifacts"
	"github.com/azournas/art-agent/internal/db"
	"github.com/azournas/art-agent/internal/observability"
	"github.com/azournas/art-agent/internal/pipeline"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded pipeline runs",
	Long:  `Lists and shows runs recorded in the database. Requires DATABASE_URL.`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent runs, newest first",
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show one run and its generated code",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsListLimit int

func init() {
	runsListCmd.Flags().IntVar(&runsListLimit, "limit", 20, "Maximum number of runs to list")
	runsCmd.AddCommand(runsListCmd, runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

// runsDB connects to the database from the merged configuration.
func runsDB(cmd *cobra.Command) (*db.DB, *artifacts.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("a database URL is required (DATABASE_URL)")
	}

	database, err := db.Connect(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	store, err := artifacts.NewStore(cfg.SandboxRoot)
	if err != nil {
		database.Close()
		return nil, nil, err
	}
	return database, store, nil
}

// formatRun renders one run as a tab-separated listing line.
func formatRun(run *db.Run) string {
	completed := "-"
	if run.CompletedAt != nil {
		completed = run.CompletedAt.Format("2006-01-02 15:04:05")
	}
	return fmt.Sprintf("%s\t%s\t%s\t%s\t%s",
		run.ID, run.Kind, run.Status, run.CreatedAt.Format("2006-01-02 15:04:05"), completed)
}

func runRunsList(cmd *cobra.Command, _ []string) error {
	database, _, err := runsDB(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := database.ListRuns(cmd.Context(), runsListLimit)
	if err != nil {
		return err
	}
	for _, run := range runs {
		fmt.Println(formatRun(run))
	}
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	runID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid run ID %q: %w", args[0], err)
	}

	database, store, err := runsDB(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	run, err := database.GetRun(cmd.Context(), runID)
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintReport("Run "+run.ID.String(),
		fmt.Sprintf("Kind:    %s\nStatus:  %s\nOutput:  %s\nPrompt:  %s",
			run.Kind, run.Status, run.OutputDir, run.Prompt))

	// The generated script lives under the workspace root; a missing file
	// just means the run predates this workspace.
	scriptName := pipeline.PrimaryScriptName
	if run.Kind == "instructions" {
		scriptName = pipeline.InstructionsScriptName
	}
	code, err := store.Read(filepath.Join(run.OutputDir, scriptName))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: generated code not available: %v\n", err)
		return nil
	}
	fmt.Println(code)
	return nil
}
