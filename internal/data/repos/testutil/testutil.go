package testutil

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/modelhub-backend/internal/data/db"
	types "github.com/yungbote/modelhub-backend/internal/domain"
	"github.com/yungbote/modelhub-backend/internal/domain/roles"
	"github.com/yungbote/modelhub-backend/internal/platform/dbctx"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
)

var (
	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB opens a fresh migrated sqlite database with seeded roles in a temp dir.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), "test.db")
	svc, err := db.NewSQLiteService(Logger(tb), path, true)
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	tb.Cleanup(func() { _ = svc.Close() })
	if err := svc.AutoMigrateAll(); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	for _, r := range roles.All() {
		if err := svc.DB().Create(&types.Role{ID: uint(r.Level()), Name: r.String()}).Error; err != nil {
			tb.Fatalf("seed roles: %v", err)
		}
	}
	return svc.DB()
}

// Ctx is a non-transactional dbctx for direct repo calls.
func Ctx() dbctx.Context {
	return dbctx.Context{Ctx: context.Background()}
}
