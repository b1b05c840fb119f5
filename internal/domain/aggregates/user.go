package aggregates

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/modelhub-backend/internal/domain/user"
)

var UserAggregateContract = Contract{
	Name:   "User.Aggregate",
	Tables: []string{"user", "notification_delivery", "rating", "comment", "contribution", "model_contribution_link"},
	Notes:  "Role assignment and user removal with everything the user owns.",
}

// UserAggregate owns user directory writes.
type UserAggregate interface {
	Aggregate

	AssignRole(ctx context.Context, in AssignRoleInput) (*user.User, error)

	// DeleteUser removes deliveries, ratings, comments, the user's contributions and their links, then the user.
	DeleteUser(ctx context.Context, in DeleteUserInput) error
}

type AssignRoleInput struct {
	UserID   uuid.UUID
	RoleName string
}

type DeleteUserInput struct {
	UserID uuid.UUID
}
