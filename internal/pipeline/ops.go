package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/azournas/art-agent/internal/inspect"
	"github.com/azournas/art-agent/internal/prompts"
	"github.com/azournas/art-agent/internal/resources"
)

// sampleRows is how many data rows of the sample file are embedded into the
// instructions prompt.
const sampleRows = 5

// GenerateInstructions produces and executes liquid-handling robot
// instructions from the output files of a prior analysis stage. Single
// stage, fixed resource set, same synthesis/persistence/execution contracts
// as Run.
func (r *Runner) GenerateInstructions(ctx context.Context, req InstructionsRequest) string {
	if req.Prompt == "" || req.ProjectDir == "" || req.OutputDir == "" || req.SamplePath == "" {
		return r.fail(ctx, uuid.Nil, fmt.Errorf("prompt, project dir, output dir and sample path are all required"))
	}

	runID := r.beginRun(ctx, "instructions", req.Prompt, req.OutputDir)

	outputDir, err := r.store.Resolve(req.OutputDir)
	if err != nil {
		return r.fail(ctx, runID, err)
	}

	r.info(1, 5, "Analyzing directory structure...")
	tree, err := inspect.TreeString(req.ProjectDir)
	if err != nil {
		return r.fail(ctx, runID, err)
	}

	r.info(2, 5, "Reading resources...")
	template, err := r.resources.Get(resources.LiquidHandlingTemplate)
	if err != nil {
		return r.fail(ctx, runID, err)
	}
	stock, err := r.resources.Get(resources.StockConcentrations)
	if err != nil {
		return r.fail(ctx, runID, err)
	}
	sample, err := inspect.CSVPreview(req.SamplePath, sampleRows)
	if err != nil {
		return r.fail(ctx, runID, err)
	}

	r.info(3, 5, "Generating instruction code with the model...")
	prompt := prompts.Format(prompts.MustGet(promptFile, "robotic_instructions"), map[string]string{
		"ProjectDir":          req.ProjectDir,
		"Tree":                tree,
		"Template":            template,
		"StockConcentrations": stock,
		"Sample":              sample,
	})
	code, err := r.synthesize(ctx, prompt)
	if err != nil {
		return r.fail(ctx, runID, err)
	}

	r.info(4, 5, "Saving generated code...")
	scriptPath, err := r.store.Save(filepath.Join(outputDir, InstructionsScriptName), code)
	if err != nil {
		return r.fail(ctx, runID, err)
	}
	r.saveArtifact(ctx, runID, "instructions_code", code)

	r.info(5, 5, "Executing generated code in the sandbox...")
	result, err := r.launcher.Execute(ctx, scriptPath)
	if err != nil {
		return r.fail(ctx, runID, err)
	}
	report := result.Report()
	r.saveArtifact(ctx, runID, "instructions_report", report)
	r.completeRun(ctx, runID, "completed")
	return report
}

// AnswerQuestion answers a question about the analysis engine using the
// fixed reference resources. Synthesis only; nothing is persisted and
// nothing is executed.
func (r *Runner) AnswerQuestion(ctx context.Context, question string) string {
	if question == "" {
		return "Failed to answer question: question is empty"
	}

	r.info(1, 2, "Reading resources...")
	template, docs, optimizer, recommender, err := r.analysisResources()
	if err != nil {
		r.errorEvent(fmt.Sprintf("An error occurred while answering the question: %v", err))
		return fmt.Sprintf("Failed to answer question: %v", err)
	}

	r.info(2, 2, "Asking the model...")
	prompt := prompts.Format(prompts.MustGet(promptFile, "question"), map[string]string{
		"Question":    question,
		"Template":    template,
		"Docs":        docs,
		"Optimizer":   optimizer,
		"Recommender": recommender,
	})
	answer, err := r.llm.Complete(ctx, prompt)
	if err != nil {
		r.errorEvent(fmt.Sprintf("An error occurred while answering the question: %v", err))
		return fmt.Sprintf("Failed to answer question: %v", err)
	}
	return strings.TrimSpace(answer)
}

// CreateTemplateCSV synthesizes a CSV input template from a description and
// persists it at path. Returns a textual outcome, never an error.
func (r *Runner) CreateTemplateCSV(ctx context.Context, path, description string) string {
	r.info(1, 2, "Creating CSV template file...")
	reference, err := r.resources.Get(resources.CSVTemplate)
	if err != nil {
		r.errorEvent(fmt.Sprintf("Failed to create CSV template file: %v", err))
		return fmt.Sprintf("Failed to create CSV template file: %v", err)
	}
	prompt := prompts.Format(prompts.MustGet(promptFile, "csv_template"), map[string]string{
		"Description": description,
		"Template":    reference,
	})
	content, err := r.synthesize(ctx, prompt)
	if err != nil {
		r.errorEvent(fmt.Sprintf("Failed to create CSV template file: %v", err))
		return fmt.Sprintf("Failed to create CSV template file: %v", err)
	}

	r.info(2, 2, "Saving CSV template file...")
	saved, err := r.store.Save(path, content+"\n")
	if err != nil {
		r.errorEvent(fmt.Sprintf("Failed to create CSV template file: %v", err))
		return fmt.Sprintf("Failed to create CSV template file: %v", err)
	}
	return fmt.Sprintf("CSV template file created at %s", saved)
}
