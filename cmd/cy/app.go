package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/chargeyard/internal/auth"
	"github.com/zulandar/chargeyard/internal/config"
	"github.com/zulandar/chargeyard/internal/db"
	"github.com/zulandar/chargeyard/internal/logging"
	"github.com/zulandar/chargeyard/internal/models"
	"github.com/zulandar/chargeyard/internal/notify"
	"github.com/zulandar/chargeyard/internal/project"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultConfigPath = "chargeyard.yaml"
	defaultEnvFile    = ".env"

	// EnvSessionFile overrides where the CLI keeps its session token.
	EnvSessionFile = "CHARGEYARD_SESSION_FILE"

	slowQueryThreshold = 200 * time.Millisecond
)

// app is everything a command needs once the config is loaded.
type app struct {
	cfg    *config.Config
	db     *gorm.DB
	log    *zap.Logger
	auth   *auth.Service
	notify *notify.Dispatcher

	closers []func() error
}

func addConfigFlag(cmd *cobra.Command, path *string) {
	cmd.Flags().StringVarP(path, "config", "c", defaultConfigPath, "path to Chargeyard config file")
}

// connectFromConfig loads the config, builds the logger and opens the
// database.
func connectFromConfig(configPath string) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	gormDB, err := db.Connect(cfg.Database, db.NewQueryLogger(log, slowQueryThreshold))
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Database.Name, err)
	}
	a := &app{cfg: cfg, db: gormDB, log: log}
	if sqlDB, err := gormDB.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}
	a.auth = a.newAuthService()
	if a.notify, err = notify.FromConfig(cfg.Notify, log); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// newAuthService picks the Redis revocation store when one is configured.
func (a *app) newAuthService() *auth.Service {
	opts := auth.Options{
		Secret: a.cfg.Auth.JWTSecret,
		TTL:    a.cfg.Auth.TokenTTL,
		Logger: a.log,
	}
	if a.cfg.Auth.RedisAddr != "" {
		r := auth.NewRedisRevoker(a.cfg.Auth.RedisAddr)
		a.closers = append(a.closers, r.Close)
		opts.Revoker = r
	}
	return auth.NewService(a.db, opts)
}

// announce posts a status change to chat. A failed post is logged and
// does not fail the command.
func (a *app) announce(ctx context.Context, ev notify.Event) {
	if err := a.notify.Announce(ctx, ev); err != nil {
		a.log.Warn("status notification failed", zap.String("title", ev.Title), zap.Error(err))
	}
}

func (a *app) projectName(id string) string {
	p, err := project.Get(a.db, id)
	if err != nil {
		return id
	}
	return p.Name
}

func (a *app) Close() {
	for _, c := range a.closers {
		c()
	}
	a.log.Sync()
}

// sessionFile is where login stores the session token.
func sessionFile() (string, error) {
	if p := os.Getenv(EnvSessionFile); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "chargeyard", "session"), nil
}

func saveToken(token string) error {
	path, err := sessionFile()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func loadToken() (string, error) {
	path, err := sessionFile()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read session: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func clearToken() error {
	path, err := sessionFile()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// currentUser resolves the stored session through an auth.Session, so an
// unreachable database or a hung lookup ends as signed out after the
// configured timeout.
func (a *app) currentUser(ctx context.Context) (*models.Profile, error) {
	token, err := loadToken()
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, fmt.Errorf("not signed in: run 'cy user login'")
	}
	sess := auth.NewSession(auth.NewTokenProvider(a.auth, token), a.cfg.Auth.SessionTimeout, a.log)
	if err := sess.Start(ctx); err != nil {
		return nil, err
	}
	defer sess.Close()
	if sess.State() != auth.StateAuthenticated {
		return nil, fmt.Errorf("session expired: run 'cy user login'")
	}
	return sess.User(), nil
}

// requireWriter returns the signed-in profile when its role may write.
func (a *app) requireWriter(ctx context.Context) (*models.Profile, error) {
	p, err := a.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireWrite(p); err != nil {
		a.log.Warn("write rejected", zap.String("user_id", p.ID), zap.String("role", p.Role))
		return nil, fmt.Errorf("%s is signed in as %s: admin role required", p.Email, p.Role)
	}
	return p, nil
}

// withApp opens the app for one command run and closes it afterwards.
// Errors are logged once here.
func withApp(configPath string, fn func(a *app) error) error {
	a, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := fn(a); err != nil {
		a.log.Error("command failed", zap.Error(err))
		return err
	}
	return nil
}

// withWriter is withApp for mutating commands.
func withWriter(cmd *cobra.Command, configPath string, fn func(a *app, p *models.Profile) error) error {
	return withApp(configPath, func(a *app) error {
		p, err := a.requireWriter(cmd.Context())
		if err != nil {
			return err
		}
		return fn(a, p)
	})
}
