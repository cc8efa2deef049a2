package main

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zulandar/chargeyard/internal/auth"
	"github.com/zulandar/chargeyard/internal/config"
	"github.com/zulandar/chargeyard/internal/db"
	"github.com/zulandar/chargeyard/internal/logging"
	"gorm.io/gorm"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	cmd.AddCommand(newDBResetCmd())
	return cmd
}

type adminOpts struct {
	email    string
	password string
	name     string
}

func addAdminFlags(cmd *cobra.Command, o *adminOpts) {
	cmd.Flags().StringVar(&o.email, "admin-email", "", "create or refresh an admin account with this email")
	cmd.Flags().StringVar(&o.password, "admin-password", "", "admin password (prompted when omitted)")
	cmd.Flags().StringVar(&o.name, "admin-name", "", "admin full name")
}

func newDBInitCmd() *cobra.Command {
	var (
		configPath string
		admin      adminOpts
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the Chargeyard database",
		Long:  "Creates the database if needed, migrates all tables and optionally seeds an admin account.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath, admin)
		},
	}

	addConfigFlag(cmd, &configPath)
	addAdminFlags(cmd, &admin)
	return cmd
}

func loadConfig(configPath string) (*config.Config, error) {
	cfg, err := config.LoadWithEnv(configPath, filepath.Join(filepath.Dir(configPath), defaultEnvFile))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func runDBInit(cmd *cobra.Command, configPath string, admin adminOpts) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Loaded config from %s (driver %s)\n", configPath, cfg.Database.Driver)

	if err := db.CreateDatabase(cfg.Database); err != nil {
		return err
	}
	fmt.Fprintf(out, "Database %s ready\n", databaseLabel(cfg.Database))

	return migrateAndSeed(cmd, cfg, admin)
}

func databaseLabel(d config.DatabaseConfig) string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	return d.Name
}

// migrateAndSeed migrates every table and, when requested, seeds the
// admin account.
func migrateAndSeed(cmd *cobra.Command, cfg *config.Config, admin adminOpts) error {
	out := cmd.OutOrStdout()

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer log.Sync()

	gormDB, err := db.Connect(cfg.Database, db.NewQueryLogger(log, slowQueryThreshold))
	if err != nil {
		return fmt.Errorf("connect to %s: %w", databaseLabel(cfg.Database), err)
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	if admin.email != "" {
		if err := seedAdmin(cmd, gormDB, cfg, admin); err != nil {
			return err
		}
		fmt.Fprintf(out, "Admin account %s ready\n", admin.email)
	}

	fmt.Fprintln(out, "\nChargeyard database initialized successfully.")
	return nil
}

func seedAdmin(cmd *cobra.Command, gormDB *gorm.DB, cfg *config.Config, admin adminOpts) error {
	password := admin.password
	if password == "" {
		var err error
		password, err = readPassword(cmd, "Admin password: ")
		if err != nil {
			return err
		}
	}
	svc := auth.NewService(gormDB, auth.Options{Secret: cfg.Auth.JWTSecret, TTL: cfg.Auth.TokenTTL})
	return svc.EnsureAdmin(cmd.Context(), auth.Credentials{
		Email:    admin.email,
		Password: password,
		FullName: admin.name,
	})
}

func newDBResetCmd() *cobra.Command {
	var (
		configPath string
		admin      adminOpts
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and re-initialize the Chargeyard database",
		Long: `Drops the Chargeyard database (or deletes the SQLite file), then
re-creates and migrates it. All projects, records and accounts are lost.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBReset(cmd, configPath, admin, yes)
		},
	}

	addConfigFlag(cmd, &configPath)
	addAdminFlags(cmd, &admin)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	return cmd
}

func runDBReset(cmd *cobra.Command, configPath string, admin adminOpts, skipConfirm bool) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	label := databaseLabel(cfg.Database)

	if !skipConfirm && !confirmReset(cmd, label) {
		fmt.Fprintln(out, "Aborted.")
		return nil
	}

	if err := db.DropDatabase(cfg.Database); err != nil {
		return err
	}
	fmt.Fprintf(out, "Dropped database %s\n", label)

	if err := db.CreateDatabase(cfg.Database); err != nil {
		return err
	}
	fmt.Fprintf(out, "Database %s re-created\n", label)

	return migrateAndSeed(cmd, cfg, admin)
}

func confirmReset(cmd *cobra.Command, dbName string) bool {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "WARNING: This will permanently delete all data in database %q.\n", dbName)
	fmt.Fprintln(out, "This action cannot be undone.")
	fmt.Fprintln(out)
	fmt.Fprint(out, "Type \"yes\" to confirm: ")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()) == "yes"
	}
	return false
}
