// Package pipeline provides the orchestration for the generate-persist-execute
// cycle: it turns a natural-language goal plus reference resources into
// generated code, runs that code in the sandbox, and optionally repeats the
// cycle for a dependent secondary goal.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/azournas/art-agent/internal/artifacts"
	"github.com/azournas/art-agent/internal/db"
	"github.com/azournas/art-agent/internal/inspect"
	"github.com/azournas/art-agent/internal/llm"
	"github.com/azournas/art-agent/internal/prompts"
	"github.com/azournas/art-agent/internal/resources"
	"github.com/azournas/art-agent/internal/sandbox"
)

// Fixed script names inside the run's output directory. Re-running against
// the same directory overwrites them.
const (
	PrimaryScriptName      = "generated_art_code.py"
	SecondaryScriptName    = "secondary_generated_art_code.py"
	InstructionsScriptName = "generated_LH_code.py"
)

const promptFile = "pipeline.json"

// Goal is one caller-submitted analysis request. It is immutable for the
// duration of the run.
type Goal struct {
	// Prompt is the primary natural-language instruction.
	Prompt string
	// SecondaryPrompt optionally chains a dependent instruction that builds
	// on the primary stage's generated code.
	SecondaryPrompt string
	// DataPath points at the input CSV data file.
	DataPath string
	// OutputDir receives generated code and any execution outputs.
	OutputDir string
}

func (g Goal) validate() error {
	if g.Prompt == "" {
		return fmt.Errorf("prompt is required")
	}
	if g.DataPath == "" {
		return fmt.Errorf("data path is required")
	}
	if g.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	return nil
}

// InstructionsRequest asks for liquid-handling robot instructions generated
// from a prior analysis stage's output files.
type InstructionsRequest struct {
	Prompt     string
	ProjectDir string
	OutputDir  string
	SamplePath string
}

// Options configures a Runner. Resources, LLM, Store and Launcher are
// required; the rest are optional.
type Options struct {
	Resources *resources.Repository
	LLM       llm.Client
	Store     *artifacts.Store
	Launcher  sandbox.Launcher
	Database  *db.DB
	Sink      Sink
	Log       io.Writer
}

// Runner sequences inspection, prompt assembly, synthesis, persistence and
// sandboxed execution for one goal at a time. Runs are independent; the only
// shared state between concurrent Runners is the filesystem, namespaced by
// each run's output directory.
type Runner struct {
	resources *resources.Repository
	llm       llm.Client
	store     *artifacts.Store
	launcher  sandbox.Launcher
	database  *db.DB
	sink      Sink
	log       io.Writer
}

// New creates a Runner from explicit, already-validated dependencies.
func New(opts Options) (*Runner, error) {
	if opts.Resources == nil {
		return nil, fmt.Errorf("resource repository is required")
	}
	if opts.LLM == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("artifact store is required")
	}
	if opts.Launcher == nil {
		return nil, fmt.Errorf("sandbox launcher is required")
	}
	if opts.Sink == nil {
		opts.Sink = discardSink{}
	}
	if opts.Log == nil {
		opts.Log = os.Stderr
	}
	return &Runner{
		resources: opts.Resources,
		llm:       opts.LLM,
		store:     opts.Store,
		launcher:  opts.Launcher,
		database:  opts.Database,
		sink:      opts.Sink,
		log:       opts.Log,
	}, nil
}

// WithSink returns a shallow copy of the Runner that reports progress to
// sink. Used by serving layers to attach a per-request sink.
func (r *Runner) WithSink(sink Sink) *Runner {
	clone := *r
	if sink == nil {
		sink = discardSink{}
	}
	clone.sink = sink
	return &clone
}

func (r *Runner) info(step, total int, message string) {
	fmt.Fprintf(r.log, "--- Step %d/%d: %s ---\n", step, total, message)
	r.sink.Emit(Event{Level: LevelInfo, Step: step, Total: total, Message: message})
}

func (r *Runner) errorEvent(message string) {
	fmt.Fprintf(r.log, "--- ERROR: %s ---\n", message)
	r.sink.Emit(Event{Level: LevelError, Message: message})
}

// fail converts a collaborator fault into the textual failure outcome. No
// fault escapes a public operation as a raw error.
func (r *Runner) fail(ctx context.Context, runID uuid.UUID, err error) string {
	r.errorEvent(fmt.Sprintf("An unexpected error occurred in the workflow: %v", err))
	r.completeRun(ctx, runID, "failed")
	return fmt.Sprintf("Workflow failed with an error: %v", err)
}

// Run executes the full analysis pipeline for one goal and returns the
// primary stage's textual outcome. It never returns a raw fault: collaborator
// errors become a failure-flavored outcome plus an error progress event.
func (r *Runner) Run(ctx context.Context, goal Goal) string {
	if err := goal.validate(); err != nil {
		return r.fail(ctx, uuid.Nil, err)
	}

	total := 5
	if goal.SecondaryPrompt != "" {
		total = 9
	}

	runID := r.beginRun(ctx, "analysis", goal.Prompt, goal.OutputDir)

	// Output paths are resolved against the restricted root before anything
	// is written or embedded into a prompt.
	outputDir, err := r.store.Resolve(goal.OutputDir)
	if err != nil {
		return r.fail(ctx, runID, err)
	}

	r.info(1, total, "Analyzing data file...")
	profile := inspect.CSVProfile(goal.DataPath)
	analysis := profile.Description
	if !profile.OK {
		// Soft fault: the run continues with the failure description in the
		// prompt and a note that a data template is needed.
		r.errorEvent(fmt.Sprintf("Data analysis failed: %s", profile.Description))
		analysis = profile.Description + " A new template for the CSV file needs to be created."
	}

	r.info(2, total, "Reading resources...")
	template, docs, optimizer, recommender, err := r.analysisResources()
	if err != nil {
		return r.fail(ctx, runID, err)
	}

	r.info(3, total, "Generating ART code with the model...")
	prompt := prompts.Format(prompts.MustGet(promptFile, "analysis"), map[string]string{
		"Prompt":      goal.Prompt,
		"OutputDir":   outputDir,
		"Analysis":    analysis,
		"Template":    template,
		"Docs":        docs,
		"Optimizer":   optimizer,
		"Recommender": recommender,
	})
	code, err := r.synthesize(ctx, prompt)
	if err != nil {
		return r.fail(ctx, runID, err)
	}

	r.info(4, total, "Saving generated code...")
	scriptPath, err := r.store.Save(filepath.Join(outputDir, PrimaryScriptName), code)
	if err != nil {
		return r.fail(ctx, runID, err)
	}
	r.saveArtifact(ctx, runID, "primary_code", code)

	r.info(5, total, "Executing generated code in the sandbox...")
	result, err := r.launcher.Execute(ctx, scriptPath)
	if err != nil {
		return r.fail(ctx, runID, err)
	}
	report := result.Report()
	r.saveArtifact(ctx, runID, "primary_report", report)

	if goal.SecondaryPrompt != "" {
		if err := r.runSecondary(ctx, runID, goal, outputDir, code); err != nil {
			return r.fail(ctx, runID, err)
		}
	}

	r.completeRun(ctx, runID, "completed")
	return report
}

// runSecondary performs the dependent second stage. Its sandbox outcome is
// reported through the progress sink and recorded as an artifact, but is not
// folded into the primary return value.
func (r *Runner) runSecondary(ctx context.Context, runID uuid.UUID, goal Goal, outputDir, primaryCode string) error {
	r.info(6, 9, "Found secondary objective. Generating prompt...")
	prompt := prompts.Format(prompts.MustGet(promptFile, "analysis_secondary"), map[string]string{
		"GeneratedCode": primaryCode,
		"Task":          goal.SecondaryPrompt,
		"OutputDir":     outputDir,
	})

	r.info(7, 9, "Generating secondary code...")
	code, err := r.synthesize(ctx, prompt)
	if err != nil {
		return err
	}

	r.info(8, 9, "Saving secondary code...")
	scriptPath, err := r.store.Save(filepath.Join(outputDir, SecondaryScriptName), code)
	if err != nil {
		return err
	}
	r.saveArtifact(ctx, runID, "secondary_code", code)

	r.info(9, 9, "Running secondary code...")
	result, err := r.launcher.Execute(ctx, scriptPath)
	if err != nil {
		return err
	}
	r.sink.Emit(Event{Level: LevelInfo, Message: "Secondary execution finished: " + string(result.Status)})
	r.saveArtifact(ctx, runID, "secondary_report", result.Report())
	return nil
}

// synthesize performs one synthesis call and strips code fences.
func (r *Runner) synthesize(ctx context.Context, prompt string) (string, error) {
	raw, err := r.llm.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return llm.CleanCodeBlock(raw), nil
}

// analysisResources reads the fixed resource set used by analysis prompts.
func (r *Runner) analysisResources() (template, docs, optimizer, recommender string, err error) {
	if template, err = r.resources.Get(resources.Template); err != nil {
		return
	}
	if docs, err = r.resources.Get(resources.Docs); err != nil {
		return
	}
	if optimizer, err = r.resources.Get(resources.Optimizer); err != nil {
		return
	}
	recommender, err = r.resources.Get(resources.Recommender)
	return
}

// beginRun records a run in the database when one is attached. Persistence
// failures are warnings; the pipeline continues without them.
func (r *Runner) beginRun(ctx context.Context, kind, prompt, outputDir string) uuid.UUID {
	if r.database == nil {
		return uuid.Nil
	}
	runID, err := r.database.CreateRun(ctx, kind, prompt, outputDir)
	if err != nil {
		fmt.Fprintf(r.log, "Warning: failed to create database run: %v\n", err)
		return uuid.Nil
	}
	return runID
}

func (r *Runner) saveArtifact(ctx context.Context, runID uuid.UUID, step, content string) {
	if r.database == nil || runID == uuid.Nil {
		return
	}
	if err := r.database.SaveTextArtifact(ctx, runID, step, content); err != nil {
		fmt.Fprintf(r.log, "Warning: failed to save %s artifact: %v\n", step, err)
	}
}

func (r *Runner) completeRun(ctx context.Context, runID uuid.UUID, status string) {
	if r.database == nil || runID == uuid.Nil {
		return
	}
	if err := r.database.CompleteRun(ctx, runID, status); err != nil {
		fmt.Fprintf(r.log, "Warning: failed to complete database run: %v\n", err)
	}
}
