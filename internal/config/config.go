// Package config provides YAML-based configuration loading for Roundtable.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Roundtable configuration, loaded from roundtable.yaml.
type Config struct {
	Server    ServerConfig   `yaml:"server"`
	Moderator string         `yaml:"moderator"`
	History   HistoryConfig  `yaml:"history"`
	RolesFile string         `yaml:"roles_file"`
	Gemini    GeminiConfig   `yaml:"gemini"`
	Database  DatabaseConfig `yaml:"database"`
	Sessions  SessionsConfig `yaml:"sessions"`
	Herald    HeraldConfig   `yaml:"herald"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// HistoryConfig bounds the conversation window passed to generation.
type HistoryConfig struct {
	Window int `yaml:"window"`
}

// GeminiConfig holds settings for the generative-text backend.
type GeminiConfig struct {
	APIKeyEnv       string  `yaml:"api_key_env"`
	BaseURL         string  `yaml:"base_url"`
	Temperature     float64 `yaml:"temperature"`
	TopK            int     `yaml:"top_k"`
	TopP            float64 `yaml:"top_p"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
}

// DatabaseConfig holds connection settings for the document store.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "sqlite" or "mysql"
	Path     string `yaml:"path"`   // sqlite file path
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Database string `yaml:"database"`
}

// SessionsConfig controls discussion session housekeeping.
type SessionsConfig struct {
	IdleTimeoutMinutes int    `yaml:"idle_timeout_minutes"`
	SweepSchedule      string `yaml:"sweep_schedule"` // 5-field cron expression
}

// HeraldConfig holds notification targets for handover events.
type HeraldConfig struct {
	SlackWebhookURL     string `yaml:"slack_webhook_url"`
	DiscordWebhookID    string `yaml:"discord_webhook_id"`
	DiscordWebhookToken string `yaml:"discord_webhook_token"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a Config with all defaults applied and no file input.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Moderator == "" {
		c.Moderator = "jarvis"
	}
	if c.History.Window == 0 {
		c.History.Window = 10
	}
	if c.Gemini.APIKeyEnv == "" {
		c.Gemini.APIKeyEnv = "GEMINI_API_KEY"
	}
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if c.Gemini.Temperature == 0 {
		c.Gemini.Temperature = 0.7
	}
	if c.Gemini.TopK == 0 {
		c.Gemini.TopK = 40
	}
	if c.Gemini.TopP == 0 {
		c.Gemini.TopP = 0.95
	}
	if c.Gemini.MaxOutputTokens == 0 {
		c.Gemini.MaxOutputTokens = 1024
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "roundtable.db"
	}
	if c.Database.Driver == "mysql" {
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
		if c.Database.Database == "" {
			c.Database.Database = "roundtable"
		}
	}
	if c.Sessions.IdleTimeoutMinutes == 0 {
		c.Sessions.IdleTimeoutMinutes = 120
	}
	if c.Sessions.SweepSchedule == "" {
		c.Sessions.SweepSchedule = "*/15 * * * *"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.History.Window < 1 {
		errs = append(errs, "history.window must be at least 1")
	}
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q must be sqlite or mysql", c.Database.Driver))
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		errs = append(errs, "database.path is required for sqlite")
	}
	if (c.Herald.DiscordWebhookID == "") != (c.Herald.DiscordWebhookToken == "") {
		errs = append(errs, "herald.discord_webhook_id and herald.discord_webhook_token must be set together")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
