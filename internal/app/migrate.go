package app

import (
	"context"
	"fmt"

	"github.com/yungbote/modelhub-backend/internal/data/db"
	"github.com/yungbote/modelhub-backend/internal/data/repos"
	"github.com/yungbote/modelhub-backend/internal/platform/dbctx"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
)

// OpenDatabase loads configuration and opens the configured database without
// wiring anything else. Used by the CLI maintenance commands.
func OpenDatabase(log *logger.Logger) (db.Service, Config, error) {
	cfg, err := LoadConfig(log)
	if err != nil {
		return nil, Config{}, fmt.Errorf("load config: %w", err)
	}
	svc, err := db.Open(log, cfg.DB)
	if err != nil {
		return nil, Config{}, fmt.Errorf("open database: %w", err)
	}
	return svc, cfg, nil
}

// MigrateAndSeed creates tables and indexes, then inserts the fixed role rows.
func MigrateAndSeed(ctx context.Context, log *logger.Logger, svc db.Service) error {
	if err := svc.AutoMigrateAll(); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	if err := repos.NewRoleRepo(svc.DB(), log).Seed(dbctx.Context{Ctx: ctx}); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	log.Info("Database migrated", "dialect", svc.Dialect())
	return nil
}
