// Package config loads the YAML application configuration with environment
// variable expansion.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	Vault    VaultConfig    `yaml:"vault"`
	Database DatabaseConfig `yaml:"database"`
	Provider ProviderConfig `yaml:"provider"`
	Model    ModelConfig    `yaml:"model"`
	Agent    AgentConfig    `yaml:"agent"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// VaultConfig configures credential encryption.
type VaultConfig struct {
	// Passphrase is the master passphrase for credential encryption.
	// Usually set via ${LEADFLOW_VAULT_PASSPHRASE}. Empty disables
	// encryption (base64 passthrough; development only).
	Passphrase string `yaml:"passphrase"`
}

// DatabaseConfig selects the durable store.
type DatabaseConfig struct {
	// Driver is "sqlite" or "memory".
	Driver string `yaml:"driver"`

	// Path is the SQLite database file.
	Path string `yaml:"path"`
}

// ProviderConfig carries defaults for the outbound data provider.
type ProviderConfig struct {
	// CacheTTL bounds how long resolved tenant settings are cached.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration `yaml:"timeout"`
}

// ModelConfig selects the LLM backend for agent tasks.
type ModelConfig struct {
	// Kind is the provider kind: "anthropic" or "openai".
	Kind string `yaml:"kind"`

	// APIKey authenticates with the backend, usually via env expansion.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the backend endpoint.
	BaseURL string `yaml:"base_url"`

	// Model selects the model; empty uses the provider default.
	Model string `yaml:"model"`
}

// AgentConfig tunes the task execution loop.
type AgentConfig struct {
	// MaxTurns bounds the tool-calling loop per task.
	MaxTurns int `yaml:"max_turns"`

	// MaxTokens bounds each model turn's output.
	MaxTokens int `yaml:"max_tokens"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Vault: VaultConfig{
			Passphrase: os.Getenv("LEADFLOW_VAULT_PASSPHRASE"),
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "leadflow.db",
		},
		Provider: ProviderConfig{
			CacheTTL: time.Minute,
			Timeout:  30 * time.Second,
		},
		Model: ModelConfig{
			Kind:   "anthropic",
			APIKey: os.Getenv("ANTHROPIC_API_KEY"),
		},
		Agent: AgentConfig{
			MaxTurns:  8,
			MaxTokens: 4096,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
	}
}

// Load reads a YAML config file, expanding ${VAR} references from the
// environment, layered over the defaults. An empty path returns defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("database.driver must be sqlite or memory, got %q", c.Database.Driver)
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		return fmt.Errorf("database.path is required for the sqlite driver")
	}
	if c.Agent.MaxTurns < 0 {
		return fmt.Errorf("agent.max_turns must not be negative")
	}
	return nil
}
