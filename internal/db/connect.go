package db

import (
	"fmt"
	"os"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/zulandar/chargeyard/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds the driver-specific connection string for cfg.
func DSN(cfg config.DatabaseConfig) string {
	switch cfg.Driver {
	case "mysql":
		mc := mysqldrv.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		mc.DBName = cfg.Name
		mc.ParseTime = true
		return mc.FormatDSN()
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)
	default:
		return cfg.Path
	}
}

func dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "mysql":
		return mysql.Open(DSN(cfg)), nil
	case "postgres":
		return postgres.Open(DSN(cfg)), nil
	case "sqlite":
		return sqlite.Open(DSN(cfg)), nil
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", cfg.Driver)
	}
}

// Connect opens a GORM connection for the configured driver. A nil
// queryLogger keeps GORM silent.
func Connect(cfg config.DatabaseConfig, queryLogger logger.Interface) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}
	if queryLogger == nil {
		queryLogger = logger.Default.LogMode(logger.Silent)
	}
	// Notes may be written by the CLI without an author profile.
	db, err := gorm.Open(d, &gorm.Config{
		Logger:                                   queryLogger,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("db: connect %s %s: %w", cfg.Driver, cfg.Name, err)
	}
	if cfg.Driver == "sqlite" && cfg.Path == ":memory:" {
		// Every pooled connection to :memory: would get its own empty database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("db: sqlite pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// OpenMemory opens a migrated in-memory SQLite database.
func OpenMemory() (*gorm.DB, error) {
	db, err := Connect(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, nil)
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// ConnectAdmin opens a GORM connection to the server without selecting a
// database, used for CREATE DATABASE operations. SQLite has no server.
func ConnectAdmin(cfg config.DatabaseConfig) (*gorm.DB, error) {
	admin := cfg
	var d gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		admin.Name = ""
		d = mysql.Open(DSN(admin))
	case "postgres":
		admin.Name = "postgres"
		d = postgres.Open(DSN(admin))
	default:
		return nil, fmt.Errorf("db: admin connection not supported for %s", cfg.Driver)
	}
	db, err := gorm.Open(d, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: admin connect to %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return db, nil
}

// CreateDatabase creates the configured database if it doesn't already
// exist. For SQLite this is a no-op; the file appears on first connect.
func CreateDatabase(cfg config.DatabaseConfig) error {
	if cfg.Driver == "sqlite" {
		return nil
	}
	adminDB, err := ConnectAdmin(cfg)
	if err != nil {
		return err
	}
	switch cfg.Driver {
	case "mysql":
		sql := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", cfg.Name)
		if err := adminDB.Exec(sql).Error; err != nil {
			return fmt.Errorf("db: create database %s: %w", cfg.Name, err)
		}
	case "postgres":
		var count int64
		if err := adminDB.Raw("SELECT count(*) FROM pg_database WHERE datname = ?", cfg.Name).Scan(&count).Error; err != nil {
			return fmt.Errorf("db: check database %s: %w", cfg.Name, err)
		}
		if count == 0 {
			if err := adminDB.Exec(fmt.Sprintf(`CREATE DATABASE "%s"`, cfg.Name)).Error; err != nil {
				return fmt.Errorf("db: create database %s: %w", cfg.Name, err)
			}
		}
	}
	return nil
}

// DropDatabase drops the configured database if it exists. For SQLite the
// database file is removed.
func DropDatabase(cfg config.DatabaseConfig) error {
	if cfg.Driver == "sqlite" {
		if cfg.Path == ":memory:" {
			return nil
		}
		if err := os.Remove(cfg.Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("db: drop database %s: %w", cfg.Path, err)
		}
		return nil
	}
	adminDB, err := ConnectAdmin(cfg)
	if err != nil {
		return err
	}
	sql := fmt.Sprintf("DROP DATABASE IF EXISTS `%s`", cfg.Name)
	if cfg.Driver == "postgres" {
		sql = fmt.Sprintf(`DROP DATABASE IF EXISTS "%s"`, cfg.Name)
	}
	if err := adminDB.Exec(sql).Error; err != nil {
		return fmt.Errorf("db: drop database %s: %w", cfg.Name, err)
	}
	return nil
}

// Ping checks that the database answers.
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("db: ping: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("db: ping: %w", err)
	}
	return nil
}
