package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Create a CSV template file for an experiment",
	Long: `Generates a CSV template matching the expected input format for the described
experiment and writes it under the workspace root.`,
	RunE: runTemplate,
}

var (
	templateDescription string
	templateOutputPath  string
)

func init() {
	templateCmd.Flags().StringVar(&templateDescription, "description", "", "Description of the experiment (required)")
	templateCmd.Flags().StringVarP(&templateOutputPath, "output", "o", "", "Path for the CSV template file (required)")
	_ = templateCmd.MarkFlagRequired("description")
	_ = templateCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(templateCmd)
}

func runTemplate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	runner, _, cleanup, err := buildRunner(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Println(runner.CreateTemplateCSV(ctx, templateOutputPath, templateDescription))
	return nil
}
