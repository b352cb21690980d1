package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var answerCmd = &cobra.Command{
	Use:   "answer [question]",
	Short: "Answer a question about the toolkit",
	Long: `Answers a question using the toolkit documentation and reference source as
context. No code is generated or executed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnswer,
}

func init() {
	rootCmd.AddCommand(answerCmd)
}

func runAnswer(cmd *cobra.Command, args []string) error {
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

	fmt.Println(runner.AnswerQuestion(ctx, strings.Join(args, " ")))
	return nil
}
