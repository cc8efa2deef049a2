// Package config provides YAML-based configuration loading for Chargeyard.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Environment variables that override secrets from the YAML file.
const (
	EnvJWTSecret  = "CHARGEYARD_JWT_SECRET"
	EnvDBPassword = "CHARGEYARD_DB_PASSWORD"
	EnvSlackToken = "CHARGEYARD_SLACK_TOKEN"
	EnvDiscordKey = "CHARGEYARD_DISCORD_TOKEN"
)

// Config is the top-level Chargeyard configuration, loaded from chargeyard.yaml.
type Config struct {
	Organization string          `yaml:"organization"`
	Database     DatabaseConfig  `yaml:"database"`
	Dashboard    DashboardConfig `yaml:"dashboard"`
	Auth         AuthConfig      `yaml:"auth"`
	Logging      LoggingConfig   `yaml:"logging"`
	Gantt        GanttConfig     `yaml:"gantt"`
	Notify       NotifyConfig    `yaml:"notify"`
}

// DatabaseConfig selects and addresses the relational backend.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // mysql, postgres or sqlite
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Path     string `yaml:"path"` // sqlite file
}

// DashboardConfig holds HTTP server settings.
type DashboardConfig struct {
	Port int `yaml:"port"`
}

// AuthConfig holds session token settings.
type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	SessionTimeout time.Duration `yaml:"session_timeout"`
	RedisAddr      string        `yaml:"redis_addr"`
	PurgeSchedule  string        `yaml:"purge_schedule"`
}

// LoggingConfig controls the zap logger. An empty File logs to stderr.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// GanttConfig sizes the SVG chart.
type GanttConfig struct {
	Width         int `yaml:"width"`
	SidebarWidth  int `yaml:"sidebar_width"`
	RowHeight     int `yaml:"row_height"`
	HeaderHeight  int `yaml:"header_height"`
	MilestoneSize int `yaml:"milestone_size"`
}

// NotifyConfig addresses the chat channels that receive status changes.
// Each platform is enabled by setting its token.
type NotifyConfig struct {
	SlackToken     string `yaml:"slack_token"`
	SlackChannel   string `yaml:"slack_channel"`
	DiscordToken   string `yaml:"discord_token"`
	DiscordChannel string `yaml:"discord_channel"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// LoadWithEnv loads the optional dotenv file, then the YAML config, letting
// CHARGEYARD_* environment variables override secrets.
func LoadWithEnv(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: load env %s: %w", envFile, err)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
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

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvJWTSecret); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv(EnvDBPassword); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv(EnvSlackToken); v != "" {
		c.Notify.SlackToken = v
	}
	if v := os.Getenv(EnvDiscordKey); v != "" {
		c.Notify.DiscordToken = v
	}
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	d := &c.Database
	if d.Driver == "" {
		d.Driver = "sqlite"
	}
	if d.Host == "" {
		d.Host = "127.0.0.1"
	}
	if d.Port == 0 {
		switch d.Driver {
		case "mysql":
			d.Port = 3306
		case "postgres":
			d.Port = 5432
		}
	}
	if d.Name == "" {
		d.Name = "chargeyard"
		if c.Organization != "" {
			d.Name = "chargeyard_" + c.Organization
		}
	}
	if d.User == "" {
		switch d.Driver {
		case "mysql":
			d.User = "root"
		case "postgres":
			d.User = "postgres"
		}
	}
	if d.Driver == "sqlite" && d.Path == "" {
		d.Path = d.Name + ".db"
	}

	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}

	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	if c.Auth.SessionTimeout == 0 {
		c.Auth.SessionTimeout = 10 * time.Second
	}
	if c.Auth.PurgeSchedule == "" {
		c.Auth.PurgeSchedule = "0 * * * *"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = 10
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = 3
	}
	if c.Logging.MaxAgeDays == 0 {
		c.Logging.MaxAgeDays = 28
	}

	g := &c.Gantt
	if g.Width == 0 {
		g.Width = 1200
	}
	if g.SidebarWidth == 0 {
		g.SidebarWidth = 280
	}
	if g.RowHeight == 0 {
		g.RowHeight = 28
	}
	if g.HeaderHeight == 0 {
		g.HeaderHeight = 32
	}
	if g.MilestoneSize == 0 {
		g.MilestoneSize = 14
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q must be mysql, postgres or sqlite", c.Database.Driver))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, "auth.jwt_secret is required (or set "+EnvJWTSecret+")")
	} else if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, "auth.jwt_secret must be at least 16 characters")
	}
	if c.Auth.TokenTTL < 0 {
		errs = append(errs, "auth.token_ttl must be positive")
	}
	if c.Auth.SessionTimeout < 0 {
		errs = append(errs, "auth.session_timeout must be positive")
	}
	if _, err := cron.ParseStandard(c.Auth.PurgeSchedule); err != nil {
		errs = append(errs, fmt.Sprintf("auth.purge_schedule %q is not a valid cron expression", c.Auth.PurgeSchedule))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.level %q must be debug, info, warn or error", c.Logging.Level))
	}
	if c.Gantt.SidebarWidth >= c.Gantt.Width {
		errs = append(errs, "gantt.sidebar_width must be less than gantt.width")
	}
	if c.Notify.SlackToken != "" && c.Notify.SlackChannel == "" {
		errs = append(errs, "notify.slack_channel is required when a slack token is set")
	}
	if c.Notify.DiscordToken != "" && c.Notify.DiscordChannel == "" {
		errs = append(errs, "notify.discord_channel is required when a discord token is set")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
