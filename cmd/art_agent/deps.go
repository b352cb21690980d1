package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/azournas/art-agent/internal/artifacts"
	"github.com/azournas/art-agent/internal/config"
	"github.com/azournas/art-agent/internal/db"
	"github.com/azournas/art-agent/internal/llm"
	"github.com/azournas/art-agent/internal/pipeline"
	"github.com/azournas/art-agent/internal/resources"
	"github.com/azournas/art-agent/internal/sandbox"
)

var (
	flagConfigPath      string
	flagAPIKey          string
	flagModel           string
	flagResourceDir     string
	flagSandboxRoot     string
	flagHostProjectPath string
	flagARTSourcePath   string
	flagSandboxImage    string
	flagSandboxTimeout  time.Duration
	flagDatabaseURL     string
	flagVerbose         bool
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	pf.StringVar(&flagAPIKey, "api-key", "", "Gemini API key (optional, defaults to GEMINI_API_KEY env var)")
	pf.StringVar(&flagModel, "model", "", "Model identifier for code synthesis")
	pf.StringVar(&flagResourceDir, "resource-dir", "", "Directory holding the reference resources")
	pf.StringVar(&flagSandboxRoot, "sandbox-root", "", "Workspace root that generated files must stay under")
	pf.StringVar(&flagHostProjectPath, "host-project-path", "", "Host directory mounted into the sandbox as the project")
	pf.StringVar(&flagARTSourcePath, "art-src-path", "", "Host directory of the analysis library source")
	pf.StringVar(&flagSandboxImage, "sandbox-image", "", "Container image for execution")
	pf.DurationVar(&flagSandboxTimeout, "timeout", 0, "Execution timeout (default 1h)")
	pf.StringVar(&flagDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Print detailed progress information")
}

// loadConfig assembles configuration: file first, then environment, then
// explicitly set flags, then validation.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := &config.Config{}
	if flagConfigPath != "" {
		loaded, err := config.Load(flagConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	cfg.FromEnv()

	flags := cmd.Flags()
	if flags.Changed("api-key") {
		cfg.APIKey = flagAPIKey
	}
	if flags.Changed("model") {
		cfg.Model = flagModel
	}
	if flags.Changed("resource-dir") {
		cfg.ResourceDir = flagResourceDir
	}
	if flags.Changed("sandbox-root") {
		cfg.SandboxRoot = flagSandboxRoot
	}
	if flags.Changed("host-project-path") {
		cfg.HostProjectPath = flagHostProjectPath
	}
	if flags.Changed("art-src-path") {
		cfg.ARTSourcePath = flagARTSourcePath
	}
	if flags.Changed("sandbox-image") {
		cfg.SandboxImage = flagSandboxImage
	}
	if flags.Changed("timeout") {
		cfg.SandboxTimeout = flagSandboxTimeout
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = flagDatabaseURL
	}
	if flags.Changed("verbose") {
		cfg.Verbose = flagVerbose
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildRunner constructs the pipeline and its collaborators from validated
// configuration. The returned cleanup closes the LLM client and database.
func buildRunner(ctx context.Context, cfg *config.Config, sink pipeline.Sink) (*pipeline.Runner, *resources.Repository, func(), error) {
	repo, err := resources.Load(cfg.ResourceDir)
	if err != nil {
		return nil, nil, nil, err
	}

	store, err := artifacts.NewStore(cfg.SandboxRoot)
	if err != nil {
		return nil, nil, nil, err
	}

	model := cfg.Model
	if model == "" {
		model = llm.DefaultModel
	}
	client, err := llm.NewGeminiClient(ctx, cfg.APIKey, model)
	if err != nil {
		return nil, nil, nil, err
	}

	launcher := sandbox.NewDocker(sandbox.DockerConfig{
		ProjectPath: cfg.HostProjectPath,
		LibraryPath: cfg.ARTSourcePath,
		Image:       cfg.SandboxImage,
		Timeout:     cfg.SandboxTimeout,
	})

	var database *db.DB
	if cfg.DatabaseURL != "" {
		database, err = db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			client.Close()
			return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
	}

	runner, err := pipeline.New(pipeline.Options{
		Resources: repo,
		LLM:       client,
		Store:     store,
		Launcher:  launcher,
		Database:  database,
		Sink:      sink,
		Log:       os.Stderr,
	})
	if err != nil {
		client.Close()
		if database != nil {
			database.Close()
		}
		return nil, nil, nil, err
	}

	cleanup := func() {
		client.Close()
		if database != nil {
			database.Close()
		}
	}
	return runner, repo, cleanup, nil
}
