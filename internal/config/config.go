// Package config provides YAML-based configuration loading for Marquee.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Marquee configuration, loaded from marquee.yaml.
type Config struct {
	Catalog   CatalogConfig   `yaml:"catalog"`
	Chat      ChatConfig      `yaml:"chat"`
	History   HistoryConfig   `yaml:"history"`
	ConvLog   ConvLogConfig   `yaml:"conversation_log"`
	Digest    DigestConfig    `yaml:"digest"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// CatalogConfig holds settings for the remote movie catalog API.
type CatalogConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	TimeoutSec int    `yaml:"timeout_sec"` // per-request timeout, defaults to 10
	PageSize   int    `yaml:"page_size"`   // results per page, defaults to 5
}

// ChatConfig selects and configures the chat platform.
type ChatConfig struct {
	Platform string        `yaml:"platform"` // "discord" or "slack"
	Discord  DiscordConfig `yaml:"discord"`
	Slack    SlackConfig   `yaml:"slack"`
}

// DiscordConfig holds Discord bot credentials.
type DiscordConfig struct {
	BotToken string `yaml:"bot_token"`
	Channel  string `yaml:"channel"` // default channel for digests and announcements
}

// SlackConfig holds Slack Socket Mode credentials.
type SlackConfig struct {
	AppToken string `yaml:"app_token"`
	BotToken string `yaml:"bot_token"`
	Channel  string `yaml:"channel"`
}

// HistoryConfig locates the persisted search-history file.
type HistoryConfig struct {
	Path string `yaml:"path"` // defaults to history.json
}

// ConvLogConfig holds connection settings for the conversation log database.
type ConvLogConfig struct {
	Driver   string `yaml:"driver"` // "sqlite" (default) or "mysql"
	Path     string `yaml:"path"`   // sqlite file, defaults to marquee.db
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
}

// DigestConfig controls the scheduled history digest.
type DigestConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"` // 5-field cron expression, defaults to "0 21 * * *"
}

// DashboardConfig holds settings for the history dashboard server.
type DashboardConfig struct {
	Port int `yaml:"port"` // defaults to 8080
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

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Catalog.TimeoutSec == 0 {
		c.Catalog.TimeoutSec = 10
	}
	if c.Catalog.PageSize == 0 {
		c.Catalog.PageSize = 5
	}
	if c.History.Path == "" {
		c.History.Path = "history.json"
	}
	if c.ConvLog.Driver == "" {
		c.ConvLog.Driver = "sqlite"
	}
	if c.ConvLog.Path == "" {
		c.ConvLog.Path = "marquee.db"
	}
	if c.ConvLog.Host == "" {
		c.ConvLog.Host = "127.0.0.1"
	}
	if c.ConvLog.Port == 0 {
		c.ConvLog.Port = 3306
	}
	if c.ConvLog.User == "" {
		c.ConvLog.User = "root"
	}
	if c.Digest.Cron == "" {
		c.Digest.Cron = "0 21 * * *"
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Catalog.BaseURL == "" {
		errs = append(errs, "catalog.base_url is required")
	}
	if c.Catalog.APIKey == "" {
		errs = append(errs, "catalog.api_key is required")
	}
	if c.Catalog.PageSize < 0 {
		errs = append(errs, "catalog.page_size must be positive")
	}
	switch c.Chat.Platform {
	case "", "discord", "slack":
	default:
		errs = append(errs, fmt.Sprintf("chat.platform %q is not supported (use discord or slack)", c.Chat.Platform))
	}
	switch c.ConvLog.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("conversation_log.driver %q is not supported (use sqlite or mysql)", c.ConvLog.Driver))
	}
	if c.ConvLog.Driver == "mysql" && c.ConvLog.Database == "" {
		errs = append(errs, "conversation_log.database is required for mysql")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
