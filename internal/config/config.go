package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Feeds     FeedsConfig     `yaml:"feeds"`
	Alerts    AlertsConfig    `yaml:"alerts"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
	// PublicURL prefixes board links in alerts.
	PublicURL string `yaml:"public_url"`
}

// ScheduleConfig configures devlog collection and insight alert intervals.
type ScheduleConfig struct {
	CollectInterval string `yaml:"collect_interval"`
	InsightInterval string `yaml:"insight_interval"`
}

// ParseCollectInterval returns the collect interval as time.Duration.
func (s ScheduleConfig) ParseCollectInterval() time.Duration {
	d, err := time.ParseDuration(s.CollectInterval)
	if err != nil {
		return time.Hour
	}
	return d
}

// ParseInsightInterval returns the insight interval as time.Duration.
func (s ScheduleConfig) ParseInsightInterval() time.Duration {
	d, err := time.ParseDuration(s.InsightInterval)
	if err != nil {
		return 6 * time.Hour
	}
	return d
}

// AnalyticsConfig sizes the windows the scoring engine works over.
type AnalyticsConfig struct {
	WindowDays    int `yaml:"window_days"`
	RecentDays    int `yaml:"recent_days"`
	WeeklyLimit   int `yaml:"weekly_limit"`
	TrendingLimit int `yaml:"trending_limit"`
}

// FeedsConfig configures devlog collection.
type FeedsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Timeout string `yaml:"timeout"`
}

// ParseTimeout returns the per-feed timeout as time.Duration.
func (f FeedsConfig) ParseTimeout() time.Duration {
	d, err := time.ParseDuration(f.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// AlertsConfig configures alert destinations.
type AlertsConfig struct {
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
	Webhook WebhookConfig `yaml:"webhook"`
}

// SlackConfig for Slack webhook alerts.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook alerts.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook alerts.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./playsignal.db"},
		Server:   ServerConfig{Port: 8080, PublicURL: "http://localhost:8080"},
		Schedule: ScheduleConfig{
			CollectInterval: "1h",
			InsightInterval: "6h",
		},
		Analytics: AnalyticsConfig{
			WindowDays:    30,
			RecentDays:    30,
			WeeklyLimit:   12,
			TrendingLimit: 6,
		},
		Feeds: FeedsConfig{Enabled: true, Timeout: "30s"},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Analytics.WindowDays <= 0 {
		errs = append(errs, fmt.Errorf("analytics.window_days must be positive, got %d", c.Analytics.WindowDays))
	}
	if c.Analytics.RecentDays <= 0 {
		errs = append(errs, fmt.Errorf("analytics.recent_days must be positive, got %d", c.Analytics.RecentDays))
	}
	if c.Analytics.WeeklyLimit <= 0 {
		errs = append(errs, fmt.Errorf("analytics.weekly_limit must be positive, got %d", c.Analytics.WeeklyLimit))
	}
	if c.Analytics.TrendingLimit <= 0 {
		errs = append(errs, fmt.Errorf("analytics.trending_limit must be positive, got %d", c.Analytics.TrendingLimit))
	}
	return errors.Join(errs...)
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PLAYSIGNAL_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("PLAYSIGNAL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PLAYSIGNAL_PUBLIC_URL"); v != "" {
		cfg.Server.PublicURL = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
	if v := os.Getenv("PLAYSIGNAL_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Webhook.URL = v
		cfg.Alerts.Webhook.Enabled = true
	}
	if v := os.Getenv("PLAYSIGNAL_WEBHOOK_SECRET"); v != "" {
		cfg.Alerts.Webhook.Secret = v
	}
}
