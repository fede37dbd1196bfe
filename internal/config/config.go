// Package config handles seerr-bot configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/seerr-bot/config.yaml, /etc/seerr-bot/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "seerr-bot", "config.yaml"))
	}

	paths = append(paths, "/etc/seerr-bot/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all seerr-bot configuration.
type Config struct {
	Discord   DiscordConfig   `yaml:"discord"`
	Seerr     SeerrConfig     `yaml:"seerr"`
	OMDb      OMDbConfig      `yaml:"omdb"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Session   SessionConfig   `yaml:"session"`
	Agent     AgentConfig     `yaml:"agent"`
	LogLevel  string          `yaml:"log_level"`
	LogFormat string          `yaml:"log_format"` // text (default) or json
}

// DiscordConfig defines the Discord bot connection settings.
type DiscordConfig struct {
	Token string `yaml:"token"`
	// Channels restricts the bot to the listed channel IDs. Empty means
	// the bot answers in any channel it is mentioned in (and all DMs).
	Channels []string `yaml:"channels"`
}

// Configured reports whether a Discord token is present.
func (c DiscordConfig) Configured() bool { return c.Token != "" }

// SeerrConfig defines the media-request server connection.
type SeerrConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

// Configured reports whether the Seerr connection is set up.
func (c SeerrConfig) Configured() bool { return c.URL != "" && c.APIKey != "" }

// OMDbConfig defines the cross-reference metadata service.
type OMDbConfig struct {
	APIKey string `yaml:"api_key"`
	URL    string `yaml:"url"` // defaults to https://www.omdbapi.com
}

// Configured reports whether OMDb lookups are available.
func (c OMDbConfig) Configured() bool { return c.APIKey != "" }

// AnthropicConfig defines the completion endpoint settings.
type AnthropicConfig struct {
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

// SessionConfig bounds per-user conversation state.
type SessionConfig struct {
	TTLMinutes           int `yaml:"ttl_minutes"`
	SweepIntervalMinutes int `yaml:"sweep_interval_minutes"`
}

// TTL returns the session inactivity expiry as a duration.
func (c SessionConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// SweepInterval returns the background sweep period as a duration.
func (c SessionConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

// AgentConfig bounds the agent loop.
type AgentConfig struct {
	// MaxIterations caps completion-endpoint round trips per user message.
	MaxIterations int `yaml:"max_iterations"`
}

// Load reads configuration from a YAML file. Environment variables in the
// file body (${SEERR_API_KEY} etc.) are expanded before parsing, so secrets
// can stay out of the file itself.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	return &Config{
		OMDb: OMDbConfig{URL: "https://www.omdbapi.com"},
		Anthropic: AnthropicConfig{
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 4096,
		},
		Session: SessionConfig{
			TTLMinutes:           30,
			SweepIntervalMinutes: 5,
		},
		Agent:     AgentConfig{MaxIterations: 10},
		LogFormat: "text",
	}
}

// Validate checks the configuration for values that would fail at runtime.
// Connection credentials are checked by the subcommands that need them
// (ask works without a Discord token).
func (c *Config) Validate() error {
	if c.LogLevel != "" {
		if _, err := ParseLogLevel(c.LogLevel); err != nil {
			return err
		}
	}
	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unknown log format %q (valid: text, json)", c.LogFormat)
	}
	if !c.Seerr.Configured() {
		return fmt.Errorf("seerr.url and seerr.api_key are required")
	}
	if c.Anthropic.APIKey == "" {
		return fmt.Errorf("anthropic.api_key is required")
	}
	if c.Session.TTLMinutes <= 0 {
		return fmt.Errorf("session.ttl_minutes must be positive")
	}
	if c.Agent.MaxIterations <= 0 {
		return fmt.Errorf("agent.max_iterations must be positive")
	}
	return nil
}
