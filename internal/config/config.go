// Package config provides configuration loading and validation for the agent.
// Configuration is assembled once at startup (file, then environment, then
// CLI flags) and validated before any component is constructed; nothing
// re-reads the environment per call.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds every setting the agent needs. All fields can come from a
// JSON file; environment variables fill the gaps.
type Config struct {
	// Synthesis service
	APIKey string `json:"api_key,omitempty" validate:"required"`
	Model  string `json:"model,omitempty"`

	// Fixed resource location and artifact root
	ResourceDir string `json:"resource_dir,omitempty" validate:"required"`
	SandboxRoot string `json:"sandbox_root,omitempty" validate:"required"`

	// Host-path bindings for the execution sandbox
	HostProjectPath string `json:"host_project_path,omitempty"`
	ARTSourcePath   string `json:"art_source_path,omitempty"`

	// Sandbox settings. The timeout is written as a duration string in the
	// file ("45m", "2h") and parsed during Load.
	SandboxImage   string        `json:"sandbox_image,omitempty"`
	SandboxTimeout time.Duration `json:"-"`

	// Optional collaborators
	DatabaseURL string `json:"database_url,omitempty"`
	CodaAPIKey  string `json:"coda_api_key,omitempty"`

	// Behavior
	Verbose bool `json:"verbose,omitempty"`
}

// Load reads configuration from a JSON file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	var timeouts struct {
		SandboxTimeout string `json:"sandbox_timeout"`
	}
	if err := json.Unmarshal(data, &timeouts); err == nil && timeouts.SandboxTimeout != "" {
		d, err := time.ParseDuration(timeouts.SandboxTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to parse sandbox_timeout %q: %w", timeouts.SandboxTimeout, err)
		}
		cfg.SandboxTimeout = d
	}

	return &cfg, nil
}

// FromEnv fills any empty fields from the process environment. CLI flags are
// applied by the caller before validation and win over both sources.
func (c *Config) FromEnv() {
	setIfEmpty(&c.APIKey, "GEMINI_API_KEY")
	setIfEmpty(&c.Model, "ART_MODEL")
	setIfEmpty(&c.ResourceDir, "ART_RESOURCE_DIR")
	setIfEmpty(&c.SandboxRoot, "ART_SANDBOX_ROOT")
	setIfEmpty(&c.HostProjectPath, "HOST_PROJECT_PATH")
	setIfEmpty(&c.ARTSourcePath, "ART_SRC_PATH")
	setIfEmpty(&c.SandboxImage, "ART_SANDBOX_IMAGE")
	setIfEmpty(&c.DatabaseURL, "DATABASE_URL")
	setIfEmpty(&c.CodaAPIKey, "CODA_API_KEY")
}

func setIfEmpty(dst *string, env string) {
	if *dst == "" {
		*dst = os.Getenv(env)
	}
}

// Validate checks the assembled configuration once at startup.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			return fmt.Errorf("config error: field %s is %s", fieldErrs[0].Field(), fieldErrs[0].Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}

	if info, err := os.Stat(c.ResourceDir); err != nil || !info.IsDir() {
		return fmt.Errorf("config error: resource directory not found: %s", c.ResourceDir)
	}

	if c.SandboxTimeout < 0 {
		return fmt.Errorf("config error: sandbox timeout must be non-negative")
	}

	return nil
}
