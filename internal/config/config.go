package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Search contains configuration for the web-search capability.
type Search struct {
	APIKey     string `toml:"api_key"`
	EngineID   string `toml:"engine_id"`
	BaseURL    string `toml:"base_url"`
	NumResults int    `toml:"num_results"`
}

// LLM contains the language-model connection settings shared by all three
// call shapes.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Place contains the paid place-lookup settings used by enhanced mode.
type Place struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// Fetch contains website-fetch settings.
type Fetch struct {
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxBodyBytes   int64  `toml:"max_body_bytes"`
	UserAgent      string `toml:"user_agent"`
}

// Retry contains the backoff policy applied to every capability call.
type Retry struct {
	MaxRetries          int     `toml:"max_retries"`
	InitialDelaySeconds int     `toml:"initial_delay_seconds"`
	BackoffFactor       float64 `toml:"backoff_factor"`
	Jitter              bool    `toml:"jitter"`
}

// Resolver contains pipeline tuning.
type Resolver struct {
	// SocialPriority orders the platform fallback when no website
	// verifies. Earlier entries win.
	SocialPriority []string `toml:"social_priority"`
}

// Workflow contains orchestrator cadence settings.
type Workflow struct {
	// CheckpointInterval is the number of completed rows between
	// checkpoint writes.
	CheckpointInterval int `toml:"checkpoint_interval"`
}

// Costs contains the unit price of each paid call and the budget ceiling.
type Costs struct {
	SearchQuery    float64            `toml:"search_query"`
	PlaceLookup    float64            `toml:"place_lookup"`
	ModelCall      float64            `toml:"model_call"`
	BudgetPerRow   float64            `toml:"budget_per_row"`
	ModelOverrides map[string]float64 `toml:"model_overrides"`
}

// Logging contains log output settings.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Notifications contains ntfy push notification settings.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Config encapsulates all configuration values for the batch engine.
//
// Sections by subsystem:
//   - Search: web-search credentials and result count
//   - LLM: language-model connection shared by all call shapes
//   - Place: paid place lookup for enhanced mode
//   - Fetch: website fetch tuning
//   - Retry: backoff policy for every capability call
//   - Resolver: pipeline tuning (social platform priority)
//   - Workflow: checkpoint cadence
//   - Costs: unit pricing and the per-row budget ceiling
//   - Logging: log format and level
//   - Notifications: ntfy completion pushes
type Config struct {
	Search        Search        `toml:"search"`
	LLM           LLM           `toml:"llm"`
	Place         Place         `toml:"place"`
	Fetch         Fetch         `toml:"fetch"`
	Retry         Retry         `toml:"retry"`
	Resolver      Resolver      `toml:"resolver"`
	Workflow      Workflow      `toml:"workflow"`
	Costs         Costs         `toml:"costs"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/merchlens/config.toml")
}

// Load locates, parses, and validates a configuration file. A missing file
// yields defaults plus environment credentials.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("merchlens.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// CreateSample writes a sample configuration file to the specified
// location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other
// packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
