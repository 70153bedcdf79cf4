// Package config loads herald's optional YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names accepted in the backend field.
const (
	BackendChat      = "chat"
	BackendResponses = "responses"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = ".herald.yaml"

// Config is the top-level herald configuration. Every field is optional.
type Config struct {
	Backend    string       `yaml:"backend"`     // "chat" (default) or "responses".
	APIKey     string       `yaml:"api_key"`     //nolint:gosec // configuration field, not a hardcoded secret
	Model      string       `yaml:"model"`       // Model identifier.
	BaseURL    string       `yaml:"base_url"`    // Generation API root; requires model.
	Prompt     string       `yaml:"prompt"`      // Inline system prompt.
	PromptFile string       `yaml:"prompt_file"` // Path to a system prompt; relative to the config file.
	Timeout    string       `yaml:"timeout"`     // Whole-call timeout as a duration string (e.g. "90s").
	GitHub     GitHubConfig `yaml:"github"`
}

// GitHubConfig holds release fetcher settings.
type GitHubConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"` //nolint:gosec // configuration field, not a hardcoded secret
}

// Load reads a YAML file and returns a Config.
// Environment variables referenced as ${VAR} or $VAR in the YAML are expanded
// before parsing, so secrets can stay in the environment or a .env file.
// A relative prompt_file is resolved against the directory of path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Config{}, fmt.Errorf("config: load: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}

	if cfg.PromptFile != "" && !filepath.IsAbs(cfg.PromptFile) {
		cfg.PromptFile = filepath.Join(filepath.Dir(path), cfg.PromptFile)
	}

	return cfg, nil
}

// Find returns the config file to load. An explicit path is returned as is;
// otherwise DefaultFile in dir is returned if it exists. The bool is false
// when there is nothing to load.
func Find(explicit, dir string) (string, bool) {
	if explicit != "" {
		return explicit, true
	}

	candidate := filepath.Join(dir, DefaultFile)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, true
	}

	return "", false
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	switch c.Backend {
	case "", BackendChat, BackendResponses:
	default:
		return fmt.Errorf("config: unknown backend %q (want %q or %q)", c.Backend, BackendChat, BackendResponses)
	}

	if c.BaseURL != "" && c.Model == "" {
		return errors.New("config: model is required when base_url is set")
	}

	if c.Prompt != "" && c.PromptFile != "" {
		return errors.New("config: prompt and prompt_file are mutually exclusive")
	}

	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}

	return nil
}

// BackendName returns the configured backend, defaulting to BackendChat.
func (c Config) BackendName() string {
	if c.Backend == "" {
		return BackendChat
	}
	return c.Backend
}

// TimeoutDuration parses Timeout. Zero means no timeout.
func (c Config) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("config: invalid timeout %q: %w", c.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: timeout must not be negative: %s", c.Timeout)
	}

	return d, nil
}

// PromptText returns the prompt override: Prompt, or the contents of
// PromptFile. An empty result selects the bundled prompt.
func (c Config) PromptText() (string, error) {
	if c.Prompt != "" || c.PromptFile == "" {
		return c.Prompt, nil
	}

	data, err := os.ReadFile(c.PromptFile)
	if err != nil {
		return "", fmt.Errorf("config: read prompt file: %w", err)
	}

	return string(data), nil
}
