// Package config loads and validates the agent's YAML configuration file.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"schnooty-agent/internal/shared"
)

var validate = validator.New()

// Config is the top-level YAML document described in spec §6.
type Config struct {
	BaseURL        string          `yaml:"base_url"`
	APIKey         string          `yaml:"api_key"`
	Monitors       []shared.Monitor `yaml:"monitors" validate:"dive"`
	Alerts         []shared.Alert   `yaml:"alerts" validate:"dive"`
	SessionName    string          `yaml:"session_name"`
	AgentID        string          `yaml:"agent_id"`
	GroupID        string          `yaml:"group_id"`
	CreateSession  bool            `yaml:"create_session"`
	UploadStatuses bool            `yaml:"upload_statuses"`

	Mode     string `yaml:"mode"`
	LogLevel string `yaml:"log_level"`
}

// Load reads and validates a Config from a YAML file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(false)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Mode == "" {
		cfg.Mode = "prod"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}
