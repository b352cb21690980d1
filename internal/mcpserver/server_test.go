package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/azournas/art-agent/internal/artifacts"
	"github.com/azournas/art-agent/internal/pipeline"
	"github.com/azournas/art-agent/internal/resources"
	"github.com/azournas/art-agent/internal/sandbox"
)

type staticLLM struct{}

func (staticLLM) Complete(context.Context, string) (string, error) { return "print('ok')", nil }
func (staticLLM) Model() string                                    { return "static" }
func (staticLLM) Close() error                                     { return nil }

type noopLauncher struct{}

func (noopLauncher) Execute(context.Context, string) (sandbox.Result, error) {
	return sandbox.Result{Status: sandbox.StatusSucceeded}, nil
}

func newTestRunner(t *testing.T) (*pipeline.Runner, *resources.Repository) {
	t.Helper()

	resourceDir := t.TempDir()
	for _, id := range resources.IDs() {
		path := filepath.Join(resourceDir, resources.FileName(id))
		require.NoError(t, os.WriteFile(path, []byte("resource "+string(id)), 0o644))
	}
	repo, err := resources.Load(resourceDir)
	require.NoError(t, err)

	store, err := artifacts.NewStore(t.TempDir())
	require.NoError(t, err)

	runner, err := pipeline.New(pipeline.Options{
		Resources: repo,
		LLM:       staticLLM{},
		Store:     store,
		Launcher:  noopLauncher{},
	})
	require.NoError(t, err)
	return runner, repo
}

func TestNewRegistersToolsAndResources(t *testing.T) {
	runner, repo := newTestRunner(t)

	srv := New(runner, repo)
	require.NotNil(t, srv)
	require.NotNil(t, srv.mcp)
}
