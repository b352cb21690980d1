package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/azournas/art-agent/internal/inspect"
	"github.com/azournas/art-agent/internal/observability"
	"github.com/azournas/art-agent/internal/pipeline"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Generate and execute analysis code for a data file",
	Long: `Runs the full workflow: inspect the data file, assemble a prompt from the
reference resources, generate Python code, save it, and execute it in the
Docker sandbox. Prints the execution report.

An optional secondary prompt chains a dependent analysis onto the primary
stage's generated code.`,
	RunE: runAnalyze,
}

var (
	analyzePrompt          string
	analyzeSecondaryPrompt string
	analyzeDataPath        string
	analyzeOutputDir       string
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzePrompt, "prompt", "p", "", "Analysis instruction (required)")
	analyzeCmd.Flags().StringVar(&analyzeSecondaryPrompt, "secondary-prompt", "", "Follow-up instruction chained onto the primary stage")
	analyzeCmd.Flags().StringVarP(&analyzeDataPath, "data", "d", "", "Path to the input CSV data file (required)")
	analyzeCmd.Flags().StringVarP(&analyzeOutputDir, "output-dir", "o", "", "Directory for generated files (required)")
	_ = analyzeCmd.MarkFlagRequired("prompt")
	_ = analyzeCmd.MarkFlagRequired("data")
	_ = analyzeCmd.MarkFlagRequired("output-dir")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var sink pipeline.Sink
	var printer *observability.Printer
	if cfg.Verbose {
		printer = observability.NewPrinter(os.Stderr)
		printer.PrintProfile(inspect.CSVProfile(analyzeDataPath))
		sink = pipeline.SinkFunc(printer.PrintEvent)
	}

	runner, _, cleanup, err := buildRunner(ctx, cfg, sink)
	if err != nil {
		return err
	}
	defer cleanup()

	report := runner.Run(ctx, pipeline.Goal{
		Prompt:          analyzePrompt,
		SecondaryPrompt: analyzeSecondaryPrompt,
		DataPath:        analyzeDataPath,
		OutputDir:       analyzeOutputDir,
	})

	if printer != nil {
		printer.PrintReport("Execution Report", report)
	}
	fmt.Println(report)
	return nil
}
