package db

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	types "github.com/yungbote/modelhub-backend/internal/domain"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// Service is an opened database with its migration entrypoint.
type Service interface {
	DB() *gorm.DB
	Dialect() string
	AutoMigrateAll() error
	Close() error
}

type Config struct {
	Driver     string         `yaml:"driver"`
	Postgres   PostgresConfig `yaml:"postgres"`
	SQLitePath string         `yaml:"sqlite_path"`
}

func Open(logg *logger.Logger, cfg Config) (Service, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DialectPostgres:
		return NewPostgresService(logg, cfg.Postgres)
	case DialectSQLite:
		return NewSQLiteService(logg, cfg.SQLitePath, false)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.Driver)
	}
}

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.AllModels()...)
}

func EnsureIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"idx_delivery_user_unread", `CREATE INDEX IF NOT EXISTS idx_delivery_user_unread ON notification_delivery(user_id, is_read)`},
		{"idx_contribution_status_created", `CREATE INDEX IF NOT EXISTS idx_contribution_status_created ON contribution(status, created_at)`},
		{"idx_contribution_researcher_created", `CREATE INDEX IF NOT EXISTS idx_contribution_researcher_created ON contribution(researcher_id, created_at)`},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}

func migrate(db *gorm.DB, log *logger.Logger) error {
	if err := AutoMigrateAll(db); err != nil {
		log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureIndexes(db); err != nil {
		log.Error("Index migration failed", "error", err)
		return err
	}
	return nil
}
