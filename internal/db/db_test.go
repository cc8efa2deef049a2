package db

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/chargeyard/internal/config"
	"github.com/zulandar/chargeyard/internal/logging"
	"github.com/zulandar/chargeyard/internal/models"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DatabaseConfig
		want string
	}{
		{
			name: "mysql",
			cfg:  config.DatabaseConfig{Driver: "mysql", Host: "127.0.0.1", Port: 3306, Name: "chargeyard_acme", User: "root"},
			want: "root@tcp(127.0.0.1:3306)/chargeyard_acme?parseTime=true",
		},
		{
			name: "mysql with password",
			cfg:  config.DatabaseConfig{Driver: "mysql", Host: "db.vpc.internal", Port: 3307, Name: "cy", User: "app", Password: "pw"},
			want: "app:pw@tcp(db.vpc.internal:3307)/cy?parseTime=true",
		},
		{
			name: "postgres",
			cfg:  config.DatabaseConfig{Driver: "postgres", Host: "10.0.0.5", Port: 5432, Name: "cy", User: "postgres", Password: "pw"},
			want: "host=10.0.0.5 port=5432 user=postgres password=pw dbname=cy sslmode=disable",
		},
		{
			name: "sqlite",
			cfg:  config.DatabaseConfig{Driver: "sqlite", Path: "/tmp/cy.db"},
			want: "/tmp/cy.db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DSN(tt.cfg); got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := Connect(config.DatabaseConfig{Driver: "oracle"}, nil)
	if err == nil || !strings.Contains(err.Error(), "unsupported driver") {
		t.Errorf("Connect(oracle) error = %v, want unsupported driver", err)
	}
}

func TestConnectAdmin_SQLiteUnsupported(t *testing.T) {
	if _, err := ConnectAdmin(config.DatabaseConfig{Driver: "sqlite"}); err == nil {
		t.Error("expected error for sqlite admin connection")
	}
}

func TestAllModels_Count(t *testing.T) {
	if n := len(AllModels()); n != 7 {
		t.Errorf("AllModels() returned %d models, want 7", n)
	}
}

func TestOpenMemory_MigratesAllTables(t *testing.T) {
	gormDB, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	for _, m := range AllModels() {
		if !gormDB.Migrator().HasTable(m) {
			t.Errorf("table for %T not created", m)
		}
	}
	if err := Ping(gormDB); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestSQLiteFile_CreateDropCycle(t *testing.T) {
	cfg := config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "cy.db")}
	if err := CreateDatabase(cfg); err != nil {
		t.Fatalf("CreateDatabase: %v", err)
	}
	gormDB, err := Connect(cfg, nil)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := AutoMigrate(gormDB); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	sqlDB, _ := gormDB.DB()
	sqlDB.Close()

	if _, err := os.Stat(cfg.Path); err != nil {
		t.Fatalf("database file missing: %v", err)
	}
	if err := DropDatabase(cfg); err != nil {
		t.Fatalf("DropDatabase: %v", err)
	}
	if _, err := os.Stat(cfg.Path); !os.IsNotExist(err) {
		t.Errorf("database file still present after drop: %v", err)
	}
	// Dropping again is not an error.
	if err := DropDatabase(cfg); err != nil {
		t.Errorf("second DropDatabase: %v", err)
	}
}

func TestSeedProfile_Upserts(t *testing.T) {
	gormDB, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	p := models.Profile{ID: "11111111-1111-1111-1111-111111111111", Email: "ops@example.com", FullName: "Ops", Role: models.RoleStaff}
	if err := SeedProfile(gormDB, p); err != nil {
		t.Fatalf("SeedProfile: %v", err)
	}
	p.ID = "22222222-2222-2222-2222-222222222222"
	p.Role = models.RoleAdmin
	p.FullName = "Operations"
	if err := SeedProfile(gormDB, p); err != nil {
		t.Fatalf("SeedProfile (update): %v", err)
	}

	var profiles []models.Profile
	gormDB.Find(&profiles)
	if len(profiles) != 1 {
		t.Fatalf("got %d profiles, want 1", len(profiles))
	}
	got := profiles[0]
	if got.ID != "11111111-1111-1111-1111-111111111111" {
		t.Errorf("ID = %q, want original id kept", got.ID)
	}
	if got.Role != models.RoleAdmin || got.FullName != "Operations" {
		t.Errorf("profile = %+v, want role admin and new name", got)
	}
}

func TestSeedProfile_RequiresEmail(t *testing.T) {
	gormDB, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	if err := SeedProfile(gormDB, models.Profile{ID: "x"}); err == nil {
		t.Error("expected error for missing email")
	}
}

func TestQueryLogger_SlowAndFailed(t *testing.T) {
	var buf bytes.Buffer
	ql := NewQueryLogger(logging.NewWithWriter(&buf, zapcore.DebugLevel), 10*time.Millisecond)

	sql := func() (string, int64) { return "SELECT * FROM `projects` WHERE id = 1", 1 }
	ql.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
	ql.Trace(context.Background(), time.Now(), sql, errors.New("no such table"))
	ql.Trace(context.Background(), time.Now(), sql, gorm.ErrRecordNotFound)

	out := buf.String()
	if !strings.Contains(out, "slow query") {
		t.Errorf("missing slow query entry: %s", out)
	}
	if !strings.Contains(out, "query failed") || !strings.Contains(out, "no such table") {
		t.Errorf("missing failed query entry: %s", out)
	}
	if strings.Count(out, "query failed") != 1 {
		t.Errorf("record-not-found should not be logged as failure: %s", out)
	}
}

func TestQueryLogger_Silent(t *testing.T) {
	var buf bytes.Buffer
	ql := NewQueryLogger(logging.NewWithWriter(&buf, zapcore.DebugLevel), time.Millisecond).LogMode(logger.Silent)
	ql.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) { return "SELECT 1", 0 }, errors.New("boom"))
	if buf.Len() != 0 {
		t.Errorf("silent logger wrote output: %s", buf.String())
	}
}

func TestTableOf(t *testing.T) {
	tests := map[string]string{
		"SELECT * FROM `projects` WHERE id = ?":       "projects",
		`INSERT INTO "notes" ("id") VALUES ($1)`:      "notes",
		"UPDATE `permits` SET `status`=? WHERE id = ?": "permits",
		"PRAGMA foreign_keys":                          "unknown",
	}
	for sql, want := range tests {
		if got := tableOf(sql); got != want {
			t.Errorf("tableOf(%q) = %q, want %q", sql, got, want)
		}
	}
}
