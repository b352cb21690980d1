package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/azournas/art-agent/internal/observability"
	"github.com/azournas/art-agent/internal/pipeline"
)

var instructionsCmd = &cobra.Command{
	Use:   "instructions",
	Short: "Generate liquid-handling robot instructions",
	Long: `Generates a Python script that produces liquid-handling robot instructions
from the output files of a prior analysis, saves it, and executes it in the
Docker sandbox. Prints the execution report.`,
	RunE: runInstructions,
}

var (
	instructionsPrompt     string
	instructionsProjectDir string
	instructionsOutputDir  string
	instructionsSamplePath string
)

func init() {
	instructionsCmd.Flags().StringVarP(&instructionsPrompt, "prompt", "p", "", "Protocol instruction (required)")
	instructionsCmd.Flags().StringVar(&instructionsProjectDir, "project-dir", "", "Project directory whose layout is summarized for the model (required)")
	instructionsCmd.Flags().StringVarP(&instructionsOutputDir, "output-dir", "o", "", "Directory for generated files (required)")
	instructionsCmd.Flags().StringVar(&instructionsSamplePath, "sample", "", "CSV whose first rows are included in the prompt (required)")
	_ = instructionsCmd.MarkFlagRequired("prompt")
	_ = instructionsCmd.MarkFlagRequired("sample")
	_ = instructionsCmd.MarkFlagRequired("project-dir")
	_ = instructionsCmd.MarkFlagRequired("output-dir")
	rootCmd.AddCommand(instructionsCmd)
}

func runInstructions(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var sink pipeline.Sink
	var printer *observability.Printer
	if cfg.Verbose {
		printer = observability.NewPrinter(os.Stderr)
		sink = pipeline.SinkFunc(printer.PrintEvent)
	}

	runner, _, cleanup, err := buildRunner(ctx, cfg, sink)
	if err != nil {
		return err
	}
	defer cleanup()

	report := runner.GenerateInstructions(ctx, pipeline.InstructionsRequest{
		Prompt:     instructionsPrompt,
		ProjectDir: instructionsProjectDir,
		OutputDir:  instructionsOutputDir,
		SamplePath: instructionsSamplePath,
	})

	if printer != nil {
		printer.PrintReport("Execution Report", report)
	}
	fmt.Println(report)
	return nil
}
