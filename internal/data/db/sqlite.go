package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"github.com/yungbote/modelhub-backend/internal/platform/logger"
)

type SQLiteService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewSQLiteService opens a pure-Go sqlite database. Writers are serialized
// through a single connection, which is also what keeps version assignment
// race-free on this driver.
func NewSQLiteService(logg *logger.Logger, path string, quiet bool) (*SQLiteService, error) {
	serviceLog := logg.With("service", "SQLiteService")

	gl := newGormLogger()
	if quiet {
		gl = gormLogger.Default.LogMode(gormLogger.Silent)
	}
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gl,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %q: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return &SQLiteService{db: db, log: serviceLog}, nil
}

func (s *SQLiteService) DB() *gorm.DB { return s.db }

func (s *SQLiteService) Dialect() string { return DialectSQLite }

func (s *SQLiteService) AutoMigrateAll() error {
	s.log.Debug("Auto migrating sqlite tables...")
	return migrate(s.db, s.log)
}

func (s *SQLiteService) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
