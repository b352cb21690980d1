package sandbox

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// DockerConfig holds the host-path bindings and container settings for the
// Docker launcher. ProjectPath and LibraryPath are required; everything else
// has a default.
type DockerConfig struct {
	// ProjectPath is the host directory mounted as the container's /app.
	ProjectPath string
	// LibraryPath is the host directory of the analysis library source,
	// mounted as /app/art.
	LibraryPath string
	// Image is the container image to run. Never pulled at launch time.
	Image string
	// User is the non-root identity the script runs as.
	User string
	// WorkDir is the working directory inside the container.
	WorkDir string
	// Entrypoint is the interpreter invoked on the script.
	Entrypoint string
	// Timeout bounds one execution; zero means DefaultTimeout.
	Timeout time.Duration
}

func (c *DockerConfig) applyDefaults() {
	if c.Image == "" {
		c.Image = "jbei/art-core"
	}
	if c.User == "" {
		c.User = "artuser"
	}
	if c.WorkDir == "" {
		c.WorkDir = "/app"
	}
	if c.Entrypoint == "" {
		c.Entrypoint = "python"
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
}

// Docker is a Launcher that runs scripts inside a throwaway container.
type Docker struct {
	cfg DockerConfig
}

// NewDocker creates a Docker launcher. Host-path preconditions are checked
// at Execute time, not here, so a mislabeled environment still produces an
// explanatory result per invocation instead of failing construction.
func NewDocker(cfg DockerConfig) *Docker {
	cfg.applyDefaults()
	return &Docker{cfg: cfg}
}

// containerScriptPath rebases a host script path into the container mount
// namespace. The script is only reachable inside the container through the
// ProjectPath mount, so a script outside that directory cannot be executed.
func (d *Docker) containerScriptPath(scriptPath string) (string, error) {
	rel, err := filepath.Rel(d.cfg.ProjectPath, scriptPath)
	if err != nil {
		return "", fmt.Errorf("failed to locate script %q under the mounted project %q: %w", scriptPath, d.cfg.ProjectPath, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("script %q is outside the mounted project %q", scriptPath, d.cfg.ProjectPath)
	}
	return path.Join(d.cfg.WorkDir, filepath.ToSlash(rel)), nil
}

// command builds the container invocation. scriptPath must already be a
// container-side path.
func (d *Docker) command(scriptPath string) []string {
	return []string{
		"docker", "run", "--rm",
		"--user", d.cfg.User,
		"-v", d.cfg.ProjectPath + ":/app",
		"-v", d.cfg.LibraryPath + ":/app/art",
		"-w", d.cfg.WorkDir,
		"--pull", "never",
		"--entrypoint", d.cfg.Entrypoint,
		d.cfg.Image,
		scriptPath,
	}
}

// Execute runs the script in a container, blocking until exit or timeout.
func (d *Docker) Execute(ctx context.Context, scriptPath string) (Result, error) {
	if d.cfg.ProjectPath == "" || d.cfg.LibraryPath == "" {
		return Result{}, fmt.Errorf("sandbox is not configured: project path and library path must both be set")
	}
	if scriptPath == "" {
		return Result{}, fmt.Errorf("script path is empty")
	}

	containerPath, err := d.containerScriptPath(scriptPath)
	if err != nil {
		return Result{}, err
	}
	return runCommand(ctx, d.cfg.Timeout, d.command(containerPath))
}
