package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/modelhub-backend/internal/data/repos"
	types "github.com/yungbote/modelhub-backend/internal/domain"
	domainagg "github.com/yungbote/modelhub-backend/internal/domain/aggregates"
	"github.com/yungbote/modelhub-backend/internal/domain/roles"
	"github.com/yungbote/modelhub-backend/internal/platform/dbctx"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
)

// PermissionGate answers "is this user at least role R". Missing users,
// inactive users and unknown role names never pass.
type PermissionGate interface {
	HasPermission(ctx context.Context, userID uuid.UUID, required roles.Role) bool
	// Require returns the resolved user, or a permission_denied error that
	// never says which part of the check failed.
	Require(ctx context.Context, op string, userID uuid.UUID, required roles.Role) (*types.User, error)
}

type permissionGate struct {
	log   *logger.Logger
	users repos.UserRepo
}

func NewPermissionGate(log *logger.Logger, users repos.UserRepo) PermissionGate {
	return &permissionGate{log: log.With("service", "PermissionGate"), users: users}
}

func (g *permissionGate) HasPermission(ctx context.Context, userID uuid.UUID, required roles.Role) bool {
	_, ok := g.check(ctx, userID, required)
	return ok
}

func (g *permissionGate) Require(ctx context.Context, op string, userID uuid.UUID, required roles.Role) (*types.User, error) {
	u, ok := g.check(ctx, userID, required)
	if !ok {
		return nil, domainagg.PermissionDenied(op)
	}
	return u, nil
}

func (g *permissionGate) check(ctx context.Context, userID uuid.UUID, required roles.Role) (*types.User, bool) {
	if userID == uuid.Nil {
		return nil, false
	}
	u, err := g.users.GetByID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		g.log.Warn("permission lookup failed", "user_id", userID, "error", err)
		return nil, false
	}
	if u == nil || !u.IsActive {
		return nil, false
	}
	return u, u.Level().AtLeast(required)
}
