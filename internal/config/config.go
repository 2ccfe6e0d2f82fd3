package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the full application configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	State  StateConfig  `yaml:"state"`
	GitHub GitHubConfig `yaml:"github"`
	Notify NotifyConfig `yaml:"notify"`
	Poller PollerConfig `yaml:"poller"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig contains control API settings
type ServerConfig struct {
	Listen            string        `yaml:"listen"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	TriggerPerMinute  int           `yaml:"trigger_per_minute"` // 0 disables throttling
	TriggerBurst      int           `yaml:"trigger_burst"`
}

// StateConfig selects where the engine state is persisted
type StateConfig struct {
	Backend string `yaml:"backend"` // "file" or "sqlite"
	Path    string `yaml:"path"`
}

// GitHubConfig contains search API settings
type GitHubConfig struct {
	Host    string        `yaml:"host"`
	APIURL  string        `yaml:"api_url"` // overrides the REST base, e.g. for GHES or tests
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// NotifyConfig contains webhook delivery settings
type NotifyConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// PollerConfig contains background loop settings
type PollerConfig struct {
	MinInterval time.Duration `yaml:"min_interval"`
	Backoff     time.Duration `yaml:"backoff"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns a config with every default applied
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and parses config from the given path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	expandConfigEnvVars(&cfg)
	applyDefaults(&cfg)

	return &cfg, nil
}

// FindConfigPath looks for config in common locations
func FindConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}

	paths := []string{
		"gitscout.yaml",
		"gitscout.yml",
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		homePath := filepath.Join(home, ".config", "gitscout", "config.yaml")
		if _, err := os.Stat(homePath); err == nil {
			return homePath
		}
	}

	return ""
}

// LoadOrDefault loads the config found by FindConfigPath, or the defaults
// when no file exists anywhere.
func LoadOrDefault(explicit string) (*Config, string, error) {
	path := FindConfigPath(explicit)
	if path == "" {
		return Default(), "", nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// applyDefaults sets default values for unset fields
func applyDefaults(cfg *Config) {
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8000"
	}
	if cfg.Server.ReadHeaderTimeout == 0 {
		cfg.Server.ReadHeaderTimeout = 10 * time.Second
	}
	if cfg.Server.TriggerBurst == 0 {
		cfg.Server.TriggerBurst = 3
	}

	if cfg.State.Backend == "" {
		cfg.State.Backend = "file"
	}
	if cfg.State.Path == "" {
		if cfg.State.Backend == "sqlite" {
			cfg.State.Path = "gitscout.db"
		} else {
			cfg.State.Path = "config.json"
		}
	}

	if cfg.GitHub.Host == "" {
		cfg.GitHub.Host = "github.com"
	}
	if cfg.GitHub.Timeout == 0 {
		cfg.GitHub.Timeout = 10 * time.Second
	}
	if cfg.Notify.Timeout == 0 {
		cfg.Notify.Timeout = 10 * time.Second
	}

	if cfg.Poller.MinInterval == 0 {
		cfg.Poller.MinInterval = 30 * time.Second
	}
	if cfg.Poller.Backoff == 0 {
		cfg.Poller.Backoff = 60 * time.Second
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	// TriggerPerMinute defaults to 0 (zero value) - throttling must be explicitly enabled
}
