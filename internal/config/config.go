// Package config provides YAML-based configuration loading for Launchpad.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config is the top-level Launchpad configuration, loaded from launchpad.yaml.
type Config struct {
	Environment string         `yaml:"environment"`
	LogLevel    string         `yaml:"log_level"`
	Database    DatabaseConfig `yaml:"database"`
	Server      ServerConfig   `yaml:"server"`
	AI          AIConfig       `yaml:"ai"`
	Sheets      SheetsConfig   `yaml:"sheets"`
	Redis       RedisConfig    `yaml:"redis"`
	Notify      NotifyConfig   `yaml:"notify"`
	GitHub      GitHubConfig   `yaml:"github"`
	Schedule    ScheduleConfig `yaml:"schedule"`

	// Secrets never come from the YAML file.
	Secrets Secrets `yaml:"-"`
}

// AI providers.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// Default models per provider.
const (
	DefaultGeminiModel    = "gemini-2.0-flash"
	DefaultAnthropicModel = "claude-sonnet-4-20250514"
)

// DatabaseConfig selects and addresses the relational store.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // mysql or sqlite
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	User   string `yaml:"user"`
	Name   string `yaml:"name"`
	Path   string `yaml:"path"` // sqlite file
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port      int    `yaml:"port"`
	PublicURL string `yaml:"public_url"`
	MediaDir  string `yaml:"media_dir"`
}

// AIConfig selects the generative model.
type AIConfig struct {
	Provider     string `yaml:"provider"` // gemini or anthropic
	Model        string `yaml:"model"`
	HistoryTurns int    `yaml:"history_turns"`
}

// SheetsConfig controls spreadsheet export fetching.
type SheetsConfig struct {
	ExportBaseURL string        `yaml:"export_base_url"`
	Timeout       time.Duration `yaml:"timeout"`
}

// RedisConfig enables Redis-backed sessions and chat history. An empty URL
// (in both YAML and environment) keeps everything in process memory.
type RedisConfig struct {
	URL        string        `yaml:"url"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	ChatTTL    time.Duration `yaml:"chat_ttl"`
}

// NotifyConfig addresses the chat channels content is published to.
type NotifyConfig struct {
	DefaultChannel string        `yaml:"default_channel"` // slack or discord
	Slack          SlackConfig   `yaml:"slack"`
	Discord        DiscordConfig `yaml:"discord"`
}

// SlackConfig holds non-secret Slack settings.
type SlackConfig struct {
	ChannelID string `yaml:"channel_id"`
}

// DiscordConfig holds non-secret Discord settings.
type DiscordConfig struct {
	ChannelID string `yaml:"channel_id"`
	GuildID   string `yaml:"guild_id"`
}

// GitHubConfig points PRD publishing at a repository.
type GitHubConfig struct {
	Owner  string   `yaml:"owner"`
	Repo   string   `yaml:"repo"`
	Labels []string `yaml:"labels"`
}

// ScheduleConfig holds cron expressions for background jobs.
type ScheduleConfig struct {
	ReanalyzeCron string `yaml:"reanalyze_cron"`
}

// Secrets are read from LAUNCHPAD_* environment variables.
type Secrets struct {
	GeminiAPIKey    string `envconfig:"GEMINI_API_KEY"`
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`
	SlackBotToken   string `envconfig:"SLACK_BOT_TOKEN"`
	DiscordBotToken string `envconfig:"DISCORD_BOT_TOKEN"`
	GitHubToken     string `envconfig:"GITHUB_TOKEN"`
	DatabaseDSN     string `envconfig:"DATABASE_DSN"`
	DatabasePass    string `envconfig:"DATABASE_PASSWORD"`
	RedisURL        string `envconfig:"REDIS_URL"`
}

// Load reads a YAML config file from path, overlays secrets from the
// environment and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	secrets, err := LoadSecrets()
	if err != nil {
		return nil, err
	}
	cfg.Secrets = secrets
	if secrets.RedisURL != "" {
		cfg.Redis.URL = secrets.RedisURL
	}
	return cfg, nil
}

// LoadSecrets reads LAUNCHPAD_* environment variables.
func LoadSecrets() (Secrets, error) {
	var s Secrets
	if err := envconfig.Process("launchpad", &s); err != nil {
		return Secrets{}, fmt.Errorf("config: environment: %w", err)
	}
	return s, nil
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

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
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
		if c.Database.Name == "" {
			c.Database.Name = "launchpad"
		}
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "launchpad.db"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.PublicURL == "" {
		c.Server.PublicURL = fmt.Sprintf("http://localhost:%d", c.Server.Port)
	}
	c.Server.PublicURL = strings.TrimRight(c.Server.PublicURL, "/")
	if c.Server.MediaDir == "" {
		c.Server.MediaDir = "media"
	}
	if c.AI.Provider == "" {
		c.AI.Provider = ProviderGemini
	}
	if c.AI.Model == "" {
		switch c.AI.Provider {
		case ProviderAnthropic:
			c.AI.Model = DefaultAnthropicModel
		default:
			c.AI.Model = DefaultGeminiModel
		}
	}
	if c.AI.HistoryTurns == 0 {
		c.AI.HistoryTurns = 20
	}
	if c.Sheets.ExportBaseURL == "" {
		c.Sheets.ExportBaseURL = "https://docs.google.com"
	}
	if c.Sheets.Timeout == 0 {
		c.Sheets.Timeout = 30 * time.Second
	}
	if c.Redis.SessionTTL == 0 {
		c.Redis.SessionTTL = 24 * time.Hour
	}
	if c.Redis.ChatTTL == 0 {
		c.Redis.ChatTTL = 7 * 24 * time.Hour
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Environment {
	case "development", "production":
	default:
		errs = append(errs, fmt.Sprintf("environment %q must be development or production", c.Environment))
	}
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q must be mysql or sqlite", c.Database.Driver))
	}
	switch c.AI.Provider {
	case ProviderGemini, ProviderAnthropic:
	default:
		errs = append(errs, fmt.Sprintf("ai.provider %q must be gemini or anthropic", c.AI.Provider))
	}
	if c.AI.HistoryTurns < 0 {
		errs = append(errs, "ai.history_turns must not be negative")
	}
	switch c.Notify.DefaultChannel {
	case "", "slack", "discord":
	default:
		errs = append(errs, fmt.Sprintf("notify.default_channel %q must be slack or discord", c.Notify.DefaultChannel))
	}
	if (c.GitHub.Owner == "") != (c.GitHub.Repo == "") {
		errs = append(errs, "github.owner and github.repo must be set together")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
