package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/modelhub-backend/internal/data/repos"
	domainagg "github.com/yungbote/modelhub-backend/internal/domain/aggregates"
	"github.com/yungbote/modelhub-backend/internal/domain/roles"
	"github.com/yungbote/modelhub-backend/internal/domain/user"
	"github.com/yungbote/modelhub-backend/internal/platform/dbctx"
)

type UserAggregateDeps struct {
	Base BaseDeps

	Users         repos.UserRepo
	Roles         repos.RoleRepo
	Contributions repos.ContributionRepo
	Links         repos.ModelContributionLinkRepo
	Notifications repos.NotificationRepo
	Ratings       repos.RatingRepo
	Comments      repos.CommentRepo
}

type userAggregate struct {
	deps UserAggregateDeps
}

func NewUserAggregate(deps UserAggregateDeps) domainagg.UserAggregate {
	deps.Base = deps.Base.withDefaults()
	return &userAggregate{deps: deps}
}

func (a *userAggregate) Contract() domainagg.Contract {
	return domainagg.UserAggregateContract
}

func (a *userAggregate) AssignRole(ctx context.Context, in domainagg.AssignRoleInput) (*user.User, error) {
	const op = "User.Aggregate.AssignRole"
	if in.UserID == uuid.Nil {
		return nil, domainagg.Invalid(op, "user_id is required")
	}
	want := roles.Parse(in.RoleName)
	if !want.Valid() {
		return nil, domainagg.Invalid(op, fmt.Sprintf("unknown role %q", strings.TrimSpace(in.RoleName)))
	}
	var out *user.User
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		u, err := a.deps.Users.LockByID(dbc, in.UserID)
		if err != nil {
			return err
		}
		if u == nil {
			return domainagg.NotFound(op, "user", in.UserID)
		}
		role, err := a.deps.Roles.GetByName(dbc, want.String())
		if err != nil {
			return err
		}
		if role == nil {
			return InvariantError("role table is missing " + want.String())
		}
		if err := a.deps.Users.UpdateFields(dbc, u.ID, map[string]interface{}{
			"role_id":    role.ID,
			"updated_at": time.Now().UTC(),
		}); err != nil {
			return err
		}
		out, err = a.deps.Users.GetByID(dbc, u.ID)
		return err
	})
	return out, err
}

func (a *userAggregate) DeleteUser(ctx context.Context, in domainagg.DeleteUserInput) error {
	const op = "User.Aggregate.DeleteUser"
	if in.UserID == uuid.Nil {
		return domainagg.Invalid(op, "user_id is required")
	}
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		u, err := a.deps.Users.LockByID(dbc, in.UserID)
		if err != nil {
			return err
		}
		if u == nil {
			return domainagg.NotFound(op, "user", in.UserID)
		}
		if err := a.deps.Notifications.DeleteDeliveriesForUser(dbc, u.ID); err != nil {
			return err
		}
		if err := a.deps.Ratings.DeleteByUserID(dbc, u.ID); err != nil {
			return err
		}
		if err := a.deps.Comments.DeleteByUserID(dbc, u.ID); err != nil {
			return err
		}
		contribIDs, err := a.deps.Contributions.ListIDsByResearcher(dbc, u.ID)
		if err != nil {
			return err
		}
		if err := a.deps.Links.DeleteByContributionIDs(dbc, contribIDs); err != nil {
			return err
		}
		if err := a.deps.Contributions.DeleteByIDs(dbc, contribIDs); err != nil {
			return err
		}
		return a.deps.Users.Delete(dbc, u.ID)
	})
}
