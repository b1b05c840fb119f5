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

type UserService interface {
	Me(ctx context.Context, userID uuid.UUID) (*types.User, error)
	// List returns every user except the caller, ordered by username.
	List(ctx context.Context, adminID uuid.UUID) ([]*types.User, error)
	AssignRole(ctx context.Context, adminID, userID uuid.UUID, roleName string) (*types.User, error)
	Delete(ctx context.Context, adminID, userID uuid.UUID) error
}

type userService struct {
	log   *logger.Logger
	gate  PermissionGate
	users repos.UserRepo
	agg   domainagg.UserAggregate
}

func NewUserService(log *logger.Logger, gate PermissionGate, users repos.UserRepo, agg domainagg.UserAggregate) UserService {
	return &userService{
		log:   log.With("service", "UserService"),
		gate:  gate,
		users: users,
		agg:   agg,
	}
}

func (s *userService) Me(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	return s.gate.Require(ctx, "UserService.Me", userID, roles.Visitor)
}

func (s *userService) List(ctx context.Context, adminID uuid.UUID) ([]*types.User, error) {
	const op = "UserService.List"
	if _, err := s.gate.Require(ctx, op, adminID, roles.Admin); err != nil {
		return nil, err
	}
	out, err := s.users.ListExcluding(dbctx.Context{Ctx: ctx}, adminID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	return out, nil
}

func (s *userService) AssignRole(ctx context.Context, adminID, userID uuid.UUID, roleName string) (*types.User, error) {
	const op = "UserService.AssignRole"
	if _, err := s.gate.Require(ctx, op, adminID, roles.Admin); err != nil {
		return nil, err
	}
	u, err := s.agg.AssignRole(ctx, domainagg.AssignRoleInput{UserID: userID, RoleName: roleName})
	if err != nil {
		return nil, err
	}
	s.log.Info("Role assigned", "target_user_id", userID, "role", roleName, "admin_id", adminID)
	return u, nil
}

func (s *userService) Delete(ctx context.Context, adminID, userID uuid.UUID) error {
	const op = "UserService.Delete"
	if _, err := s.gate.Require(ctx, op, adminID, roles.Admin); err != nil {
		return err
	}
	if adminID == userID {
		return domainagg.Invalid(op, "you cannot delete yourself")
	}
	if err := s.agg.DeleteUser(ctx, domainagg.DeleteUserInput{UserID: userID}); err != nil {
		return err
	}
	s.log.Info("User deleted", "target_user_id", userID, "admin_id", adminID)
	return nil
}
