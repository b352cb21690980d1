package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azournas/art-agent/internal/artifacts"
	"github.com/azournas/art-agent/internal/resources"
	"github.com/azournas/art-agent/internal/sandbox"
)

// fakeLLM returns canned responses in order and records prompts.
type fakeLLM struct {
	responses []string
	err       error
	prompts   []string
}

func (f *fakeLLM) Complete(_ context.Context, prompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.prompts = append(f.prompts, prompt)
	if len(f.responses) == 0 {
		return "print('generated')", nil
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

func (f *fakeLLM) Model() string { return "fake-model" }
func (f *fakeLLM) Close() error  { return nil }

// fakeLauncher records script paths and returns a fixed result.
type fakeLauncher struct {
	result  sandbox.Result
	err     error
	scripts []string
}

func (f *fakeLauncher) Execute(_ context.Context, scriptPath string) (sandbox.Result, error) {
	f.scripts = append(f.scripts, scriptPath)
	if f.err != nil {
		return sandbox.Result{}, f.err
	}
	return f.result, nil
}

// recorder captures progress events.
type recorder struct {
	events []Event
}

func (r *recorder) Emit(e Event) { r.events = append(r.events, e) }

func (r *recorder) infoMessages() []string {
	var out []string
	for _, e := range r.events {
		if e.Level == LevelInfo {
			out = append(out, e.Message)
		}
	}
	return out
}

func (r *recorder) errorCount() int {
	n := 0
	for _, e := range r.events {
		if e.Level == LevelError {
			n++
		}
	}
	return n
}

// testRepo writes a full resource directory and loads it.
func testRepo(t *testing.T) *resources.Repository {
	t.Helper()
	dir := t.TempDir()
	for _, id := range resources.IDs() {
		path := filepath.Join(dir, resources.FileName(id))
		require.NoError(t, os.WriteFile(path, []byte("resource "+string(id)), 0o644))
	}
	repo, err := resources.Load(dir)
	require.NoError(t, err)
	return repo
}

type fixture struct {
	runner   *Runner
	llm      *fakeLLM
	launcher *fakeLauncher
	sink     *recorder
	store    *artifacts.Store
	root     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	store, err := artifacts.NewStore(root)
	require.NoError(t, err)

	fl := &fakeLLM{}
	launcher := &fakeLauncher{result: sandbox.Result{Status: sandbox.StatusSucceeded, Stdout: "recommendations written"}}
	sink := &recorder{}

	runner, err := New(Options{
		Resources: testRepo(t),
		LLM:       fl,
		Store:     store,
		Launcher:  launcher,
		Sink:      sink,
		Log:       io.Discard,
	})
	require.NoError(t, err)

	return &fixture{runner: runner, llm: fl, launcher: launcher, sink: sink, store: store, root: root}
}

func (f *fixture) validGoal(t *testing.T) Goal {
	t.Helper()
	dataPath := filepath.Join(f.root, "input.csv")
	require.NoError(t, os.WriteFile(dataPath, []byte("Line Name,Glucose,Response\nL1,2.0,0.5\n"), 0o644))
	return Goal{
		Prompt:    "train a model on the media data",
		DataPath:  dataPath,
		OutputDir: "cycle1",
	}
}

func TestRun_PrimaryOnly(t *testing.T) {
	f := newFixture(t)
	goal := f.validGoal(t)

	report := f.runner.Run(context.Background(), goal)

	assert.Contains(t, report, "recommendations written")
	require.Len(t, f.launcher.scripts, 1, "sandbox must be invoked exactly once without a secondary prompt")
	assert.Equal(t, filepath.Join(f.root, "cycle1", PrimaryScriptName), f.launcher.scripts[0])

	// Exactly one artifact file is written.
	entries, err := os.ReadDir(filepath.Join(f.root, "cycle1"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, PrimaryScriptName, entries[0].Name())
}

func TestRun_ProgressEventOrder(t *testing.T) {
	f := newFixture(t)

	f.runner.Run(context.Background(), f.validGoal(t))

	messages := f.sink.infoMessages()
	require.Len(t, messages, 5)
	wantOrder := []string{"Analyzing", "Reading resources", "Generating", "Saving", "Executing"}
	for i, want := range wantOrder {
		assert.Contains(t, messages[i], want, "event %d out of order", i)
	}
	for i, e := range f.sink.events {
		assert.Equal(t, i+1, e.Step)
		assert.Equal(t, 5, e.Total)
	}
	assert.Zero(t, f.sink.errorCount())
}

func TestRun_SecondaryStage(t *testing.T) {
	f := newFixture(t)
	f.llm.responses = []string{"```python\nprimary_code_body\n```", "secondary_code_body"}
	goal := f.validGoal(t)
	goal.SecondaryPrompt = "plot the recommendations"

	f.runner.Run(context.Background(), goal)

	require.Len(t, f.launcher.scripts, 2, "sandbox must be invoked exactly twice with a secondary prompt")
	assert.Equal(t, filepath.Join(f.root, "cycle1", SecondaryScriptName), f.launcher.scripts[1])

	// The secondary prompt embeds the primary stage's generated code verbatim.
	require.Len(t, f.llm.prompts, 2)
	assert.Contains(t, f.llm.prompts[1], "primary_code_body")
	assert.Contains(t, f.llm.prompts[1], "plot the recommendations")
}

func TestRun_SecondaryOutcomeNotReturned(t *testing.T) {
	f := newFixture(t)
	f.launcher.result = sandbox.Result{Status: sandbox.StatusSucceeded, Stdout: "primary stdout"}
	goal := f.validGoal(t)
	goal.SecondaryPrompt = "follow up"

	report := f.runner.Run(context.Background(), goal)

	assert.Contains(t, report, "primary stdout")
}

func TestRun_InspectionFailureIsSoft(t *testing.T) {
	f := newFixture(t)
	goal := f.validGoal(t)
	goal.DataPath = filepath.Join(f.root, "does-not-exist.csv")

	report := f.runner.Run(context.Background(), goal)

	assert.Contains(t, report, "recommendations written", "pipeline must still reach synthesis and execution")
	require.Len(t, f.launcher.scripts, 1)
	require.NotEmpty(t, f.llm.prompts)
	assert.Contains(t, f.llm.prompts[0], "failed to read", "prompt carries the failure description")
	assert.Contains(t, f.llm.prompts[0], "template", "prompt notes that a template is needed")
	assert.Equal(t, 1, f.sink.errorCount())
}

func TestRun_SandboxFailureReported(t *testing.T) {
	f := newFixture(t)
	f.launcher.result = sandbox.Result{Status: sandbox.StatusFailed, Stderr: "Traceback: ValueError"}

	report := f.runner.Run(context.Background(), f.validGoal(t))

	assert.Contains(t, report, "Traceback: ValueError")
	assert.Contains(t, report, "ERROR Running")
	assert.Zero(t, f.sink.errorCount(), "a non-zero exit is a normal result, not a fault")
}

func TestRun_SynthesisFailure(t *testing.T) {
	f := newFixture(t)
	f.llm.err = fmt.Errorf("service unavailable")

	report := f.runner.Run(context.Background(), f.validGoal(t))

	assert.Contains(t, report, "Workflow failed with an error")
	assert.Contains(t, report, "service unavailable")
	assert.Equal(t, 1, f.sink.errorCount())
	assert.Empty(t, f.launcher.scripts, "no sandbox launch after a synthesis fault")
}

func TestRun_LaunchFaultCaught(t *testing.T) {
	f := newFixture(t)
	f.launcher.err = fmt.Errorf("sandbox is not configured")

	report := f.runner.Run(context.Background(), f.validGoal(t))

	assert.Contains(t, report, "Workflow failed with an error")
	assert.Contains(t, report, "not configured")
}

func TestRun_OutputDirOutsideRootRejected(t *testing.T) {
	f := newFixture(t)
	goal := f.validGoal(t)
	goal.OutputDir = "../escape"

	report := f.runner.Run(context.Background(), goal)

	assert.Contains(t, report, "Workflow failed with an error")
	assert.Empty(t, f.llm.prompts, "nothing is synthesized for a rejected path")
	assert.Empty(t, f.launcher.scripts)
}

func TestRun_RepeatedRunOverwrites(t *testing.T) {
	f := newFixture(t)
	goal := f.validGoal(t)

	f.llm.responses = []string{"first version"}
	f.runner.Run(context.Background(), goal)
	f.llm.responses = []string{"second version"}
	f.runner.Run(context.Background(), goal)

	content, err := os.ReadFile(filepath.Join(f.root, "cycle1", PrimaryScriptName))
	require.NoError(t, err)
	assert.Equal(t, "second version", string(content))
}

func TestRun_StripsCodeFences(t *testing.T) {
	f := newFixture(t)
	f.llm.responses = []string{"```python\nimport art\n```"}

	f.runner.Run(context.Background(), f.validGoal(t))

	content, err := os.ReadFile(filepath.Join(f.root, "cycle1", PrimaryScriptName))
	require.NoError(t, err)
	assert.Equal(t, "import art", string(content))
}

func TestGenerateInstructions(t *testing.T) {
	f := newFixture(t)

	projectDir := filepath.Join(f.root, "project")
	require.NoError(t, os.MkdirAll(filepath.Join(projectDir, "data"), 0o755))
	samplePath := filepath.Join(projectDir, "data", "recommendations.csv")
	require.NoError(t, os.WriteFile(samplePath, []byte("Line Name,Glucose\nL1,2.0\n"), 0o644))

	report := f.runner.GenerateInstructions(context.Background(), InstructionsRequest{
		Prompt:     "prepare the media plates",
		ProjectDir: projectDir,
		OutputDir:  "project/code",
		SamplePath: samplePath,
	})

	assert.Contains(t, report, "recommendations written")
	require.Len(t, f.launcher.scripts, 1)
	assert.Equal(t, filepath.Join(f.root, "project", "code", InstructionsScriptName), f.launcher.scripts[0])

	require.Len(t, f.llm.prompts, 1)
	assert.Contains(t, f.llm.prompts[0], "resource liquid_handling_template")
	assert.Contains(t, f.llm.prompts[0], "resource stock_concentrations")
	assert.Contains(t, f.llm.prompts[0], "recommendations.csv")
	assert.Contains(t, f.llm.prompts[0], "Line Name,Glucose")
}

func TestGenerateInstructions_MissingSample(t *testing.T) {
	f := newFixture(t)

	report := f.runner.GenerateInstructions(context.Background(), InstructionsRequest{
		Prompt:     "prepare the media plates",
		ProjectDir: f.root,
		OutputDir:  "code",
		SamplePath: filepath.Join(f.root, "absent.csv"),
	})

	assert.Contains(t, report, "Workflow failed with an error")
	assert.Empty(t, f.launcher.scripts)
}

func TestAnswerQuestion(t *testing.T) {
	f := newFixture(t)
	f.llm.responses = []string{"  The recommender proposes new media compositions.  "}

	answer := f.runner.AnswerQuestion(context.Background(), "what does the recommender do?")

	assert.Equal(t, "The recommender proposes new media compositions.", answer)
	require.Len(t, f.llm.prompts, 1)
	assert.Contains(t, f.llm.prompts[0], "resource template")
	assert.Contains(t, f.llm.prompts[0], "resource docs")
	assert.Empty(t, f.launcher.scripts, "answering a question never executes code")
}

func TestAnswerQuestion_Failure(t *testing.T) {
	f := newFixture(t)
	f.llm.err = fmt.Errorf("quota exceeded")

	answer := f.runner.AnswerQuestion(context.Background(), "why?")

	assert.Contains(t, answer, "Failed to answer question")
	assert.Contains(t, answer, "quota exceeded")
}

func TestCreateTemplateCSV(t *testing.T) {
	f := newFixture(t)
	f.llm.responses = []string{"Line Name,Glucose,Response\n"}

	outcome := f.runner.CreateTemplateCSV(context.Background(), "data/template.csv", "glucose sweep")

	assert.Contains(t, outcome, "CSV template file created at")
	content, err := os.ReadFile(filepath.Join(f.root, "data", "template.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "Line Name,Glucose,Response"))

	// The prompt embeds the bundled reference template alongside the
	// description.
	require.Len(t, f.llm.prompts, 1)
	assert.Contains(t, f.llm.prompts[0], "glucose sweep")
	assert.Contains(t, f.llm.prompts[0], "resource "+string(resources.CSVTemplate))
}

func TestNew_RequiredDependencies(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}
