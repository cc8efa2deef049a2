package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const fullYAML = `
organization: voltworks

database:
  driver: postgres
  host: db.internal
  port: 6432
  name: chargeyard_prod
  user: app
  password: hunter2

dashboard:
  port: 9090

auth:
  jwt_secret: "0123456789abcdef0123"
  token_ttl: 12h
  session_timeout: 5s
  redis_addr: 127.0.0.1:6379
  purge_schedule: "*/15 * * * *"

logging:
  level: debug
  file: /var/log/chargeyard.log
  max_size_mb: 50

gantt:
  width: 1600
  sidebar_width: 320

notify:
  slack_token: xoxb-123
  slack_channel: C0PERMITS
`

const minimalYAML = `
auth:
  jwt_secret: "0123456789abcdef0123"
`

func TestParse_FullConfig(t *testing.T) {
	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Organization != "voltworks" {
		t.Errorf("Organization = %q, want %q", cfg.Organization, "voltworks")
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Database.Driver = %q, want postgres", cfg.Database.Driver)
	}
	if cfg.Database.Host != "db.internal" || cfg.Database.Port != 6432 {
		t.Errorf("Database addr = %s:%d, want db.internal:6432", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Database.Name != "chargeyard_prod" {
		t.Errorf("Database.Name = %q, want chargeyard_prod", cfg.Database.Name)
	}
	if cfg.Dashboard.Port != 9090 {
		t.Errorf("Dashboard.Port = %d, want 9090", cfg.Dashboard.Port)
	}
	if cfg.Auth.TokenTTL != 12*time.Hour {
		t.Errorf("Auth.TokenTTL = %s, want 12h", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.SessionTimeout != 5*time.Second {
		t.Errorf("Auth.SessionTimeout = %s, want 5s", cfg.Auth.SessionTimeout)
	}
	if cfg.Auth.PurgeSchedule != "*/15 * * * *" {
		t.Errorf("Auth.PurgeSchedule = %q", cfg.Auth.PurgeSchedule)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.MaxSizeMB != 50 {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Logging.MaxBackups != 3 {
		t.Errorf("Logging.MaxBackups = %d, want default 3", cfg.Logging.MaxBackups)
	}
	if cfg.Gantt.Width != 1600 || cfg.Gantt.SidebarWidth != 320 {
		t.Errorf("Gantt = %+v", cfg.Gantt)
	}
	if cfg.Notify.SlackToken != "xoxb-123" || cfg.Notify.SlackChannel != "C0PERMITS" {
		t.Errorf("Notify = %+v", cfg.Notify)
	}
}

func TestParse_MinimalConfig_AppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.Name != "chargeyard" {
		t.Errorf("Database.Name = %q, want chargeyard", cfg.Database.Name)
	}
	if cfg.Database.Path != "chargeyard.db" {
		t.Errorf("Database.Path = %q, want chargeyard.db", cfg.Database.Path)
	}
	if cfg.Dashboard.Port != 8080 {
		t.Errorf("Dashboard.Port = %d, want 8080", cfg.Dashboard.Port)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("Auth.TokenTTL = %s, want 24h", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.SessionTimeout != 10*time.Second {
		t.Errorf("Auth.SessionTimeout = %s, want 10s", cfg.Auth.SessionTimeout)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Gantt.MilestoneSize != 14 {
		t.Errorf("Gantt.MilestoneSize = %d, want 14", cfg.Gantt.MilestoneSize)
	}
}

func TestParse_DriverDefaults(t *testing.T) {
	tests := []struct {
		driver   string
		wantPort int
		wantUser string
	}{
		{"mysql", 3306, "root"},
		{"postgres", 5432, "postgres"},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			yaml := "organization: acme\ndatabase:\n  driver: " + tt.driver + "\n" + minimalYAML
			cfg, err := Parse([]byte(yaml))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Database.Port != tt.wantPort {
				t.Errorf("Port = %d, want %d", cfg.Database.Port, tt.wantPort)
			}
			if cfg.Database.User != tt.wantUser {
				t.Errorf("User = %q, want %q", cfg.Database.User, tt.wantUser)
			}
			if cfg.Database.Name != "chargeyard_acme" {
				t.Errorf("Name = %q, want chargeyard_acme", cfg.Database.Name)
			}
		})
	}
}

func TestParse_MissingSecret(t *testing.T) {
	_, err := Parse([]byte("organization: acme\n"))
	if err == nil {
		t.Fatal("expected error for missing jwt secret")
	}
	if !strings.Contains(err.Error(), "auth.jwt_secret is required") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "auth.jwt_secret is required")
	}
}

func TestParse_ShortSecret(t *testing.T) {
	_, err := Parse([]byte("auth:\n  jwt_secret: short\n"))
	if err == nil {
		t.Fatal("expected error for short secret")
	}
	if !strings.Contains(err.Error(), "at least 16 characters") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestParse_MultipleValidationErrors(t *testing.T) {
	yaml := `
database:
  driver: oracle
logging:
  level: loud
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	for _, want := range []string{
		`database.driver "oracle"`,
		"auth.jwt_secret is required",
		`logging.level "loud"`,
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("error missing %q: %s", want, msg)
		}
	}
}

func TestParse_SidebarWiderThanChart(t *testing.T) {
	yaml := minimalYAML + "gantt:\n  width: 300\n  sidebar_width: 300\n"
	_, err := Parse([]byte(yaml))
	if err == nil || !strings.Contains(err.Error(), "gantt.sidebar_width") {
		t.Errorf("expected sidebar width error, got %v", err)
	}
}

func TestParse_BadPurgeSchedule(t *testing.T) {
	yaml := minimalYAML + "  purge_schedule: \"every hour\"\n"
	_, err := Parse([]byte(yaml))
	if err == nil || !strings.Contains(err.Error(), "auth.purge_schedule") {
		t.Errorf("expected purge schedule error, got %v", err)
	}
}

func TestParse_NotifyTokenWithoutChannel(t *testing.T) {
	yaml := minimalYAML + "notify:\n  discord_token: abc\n"
	_, err := Parse([]byte(yaml))
	if err == nil || !strings.Contains(err.Error(), "notify.discord_channel") {
		t.Errorf("expected discord channel error, got %v", err)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("auth: [unclosed"))
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "config: parse") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "config: parse")
	}
}

func TestLoad_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chargeyard.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, want sqlite", cfg.Database.Driver)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/chargeyard.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "config: read") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "config: read")
	}
}

func TestLoadWithEnv_EnvOverridesSecrets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chargeyard.yaml")
	if err := os.WriteFile(path, []byte("database:\n  driver: mysql\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvJWTSecret, "from-the-environment-0001")
	t.Setenv(EnvDBPassword, "s3cret")

	cfg, err := LoadWithEnv(path, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Auth.JWTSecret != "from-the-environment-0001" {
		t.Errorf("JWTSecret = %q, want value from env", cfg.Auth.JWTSecret)
	}
	if cfg.Database.Password != "s3cret" {
		t.Errorf("Database.Password = %q, want value from env", cfg.Database.Password)
	}
}

func TestLoadWithEnv_DotenvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chargeyard.yaml")
	if err := os.WriteFile(path, []byte("organization: acme\n"), 0644); err != nil {
		t.Fatal(err)
	}
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte(EnvJWTSecret+"=dotenv-secret-value-42\n"), 0600); err != nil {
		t.Fatal(err)
	}
	// Register cleanup for the variable godotenv will set.
	t.Setenv(EnvJWTSecret, "")
	os.Unsetenv(EnvJWTSecret)

	cfg, err := LoadWithEnv(path, envPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Auth.JWTSecret != "dotenv-secret-value-42" {
		t.Errorf("JWTSecret = %q, want value from .env", cfg.Auth.JWTSecret)
	}
}

func TestLoadWithEnv_MissingDotenvIgnored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chargeyard.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadWithEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing .env should be ignored, got %v", err)
	}
}
