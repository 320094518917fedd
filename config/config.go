// Package config loads the declarative role→model mapping: primary,
// summarizer, research, and supervisor each map to a
// provider/model/endpoint/key. Roles missing from the file fall back to
// primary.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ModelConfig is one role's provider binding.
type ModelConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
}

// WebSearchConfig configures the optional web_search research tool. An
// empty Endpoint leaves web_search unwired entirely.
type WebSearchConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
}

// Config is the full role→model mapping plus the orchestrator's
// operational defaults (review interval, max iterations), which the
// CLI flags may override.
type Config struct {
	Primary    ModelConfig `yaml:"primary"`
	Summarizer ModelConfig `yaml:"summarizer"`
	Research   ModelConfig `yaml:"research"`
	Supervisor ModelConfig `yaml:"supervisor"`

	WebSearch WebSearchConfig `yaml:"web_search"`

	ReviewInterval int `yaml:"review_interval"`
	MaxIterations  int `yaml:"max_iterations"`
}

// Load reads and parses a YAML config file at path, applying the
// primary fallback to any role left at its zero value.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if cfg.Primary.Provider == "" {
		return Config{}, fmt.Errorf("config: primary role is required")
	}
	cfg.Summarizer = fallback(cfg.Summarizer, cfg.Primary)
	cfg.Research = fallback(cfg.Research, cfg.Primary)
	cfg.Supervisor = fallback(cfg.Supervisor, cfg.Primary)

	if cfg.ReviewInterval <= 0 {
		cfg.ReviewInterval = 5
	}
	return cfg, nil
}

func fallback(role, primary ModelConfig) ModelConfig {
	if role.Provider == "" {
		return primary
	}
	return role
}
