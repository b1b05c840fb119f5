package aggregates

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/modelhub-backend/internal/data/repos"
	types "github.com/yungbote/modelhub-backend/internal/domain"
	domainagg "github.com/yungbote/modelhub-backend/internal/domain/aggregates"
	"github.com/yungbote/modelhub-backend/internal/domain/contribution"
	"github.com/yungbote/modelhub-backend/internal/platform/dbctx"
	"github.com/yungbote/modelhub-backend/internal/weights"
)

type ContributionAggregateDeps struct {
	Base BaseDeps

	Contributions repos.ContributionRepo
	Links         repos.ModelContributionLinkRepo
	Models        repos.ModelRepo
	Users         repos.UserRepo
	Notifications repos.NotificationRepo
}

type contributionAggregate struct {
	deps ContributionAggregateDeps
}

func NewContributionAggregate(deps ContributionAggregateDeps) domainagg.ContributionAggregate {
	deps.Base = deps.Base.withDefaults()
	return &contributionAggregate{deps: deps}
}

func (a *contributionAggregate) Contract() domainagg.Contract {
	return domainagg.ContributionAggregateContract
}

func (a *contributionAggregate) Submit(ctx context.Context, in domainagg.SubmitContributionInput) (*contribution.Contribution, error) {
	const op = "Contribution.Aggregate.Submit"
	if in.ResearcherID == uuid.Nil {
		return nil, domainagg.Invalid(op, "researcher_id is required")
	}
	if in.TargetModelID == uuid.Nil {
		return nil, domainagg.Invalid(op, "target_model_id is required")
	}
	ref := strings.TrimSpace(in.WeightsRef)
	if len(in.WeightsPayload) == 0 && ref == "" {
		return nil, domainagg.Invalid(op, "weights payload or weights reference is required")
	}
	if len(in.WeightsPayload) > 0 {
		if _, err := weights.DecodePayload(in.WeightsPayload); err != nil {
			return nil, domainagg.Invalid(op, "invalid weights payload: "+err.Error())
		}
	}
	var out *contribution.Contribution
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		m, err := a.deps.Models.GetByID(dbc, in.TargetModelID)
		if err != nil {
			return err
		}
		if m == nil {
			return domainagg.NotFound(op, "model", in.TargetModelID)
		}
		target := m.ID
		row := &types.Contribution{
			ID:            uuid.New(),
			ResearcherID:  in.ResearcherID,
			TargetModelID: &target,
			WeightsRef:    ref,
			Status:        contribution.StatusPending,
		}
		if len(in.WeightsPayload) > 0 {
			row.WeightsPayload = datatypes.JSON(in.WeightsPayload)
		}
		rows, err := a.deps.Contributions.Create(dbc, []*types.Contribution{row})
		if err != nil {
			return err
		}
		out = rows[0]
		return nil
	})
	return out, err
}

func (a *contributionAggregate) UpdateStatus(ctx context.Context, in domainagg.UpdateContributionStatusInput) (domainagg.UpdateContributionStatusResult, error) {
	const op = "Contribution.Aggregate.UpdateStatus"
	var out domainagg.UpdateContributionStatusResult
	status := strings.ToLower(strings.TrimSpace(in.Status))
	if !contribution.ValidStatus(status) {
		return out, domainagg.Invalid(op, fmt.Sprintf("invalid status %q", in.Status))
	}
	if in.ContributionID == uuid.Nil {
		return out, domainagg.Invalid(op, "contribution_id is required")
	}
	if in.PointsEarned < 0 {
		return out, domainagg.Invalid(op, "points_earned must be >= 0")
	}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		locked, err := a.deps.Contributions.LockByIDs(dbc, []uuid.UUID{in.ContributionID})
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			if !in.ActorIsAdmin {
				return domainagg.PermissionDenied(op)
			}
			return domainagg.NotFound(op, "contribution", in.ContributionID)
		}
		c := locked[0]
		out.PreviousStatus = c.Status
		if err := RequireTransition(c.Status, status, contribution.CanTransition); err != nil {
			return err
		}
		if status == contribution.StatusAggregated {
			n, err := a.deps.Links.CountByContribution(dbc, c.ID)
			if err != nil {
				return err
			}
			if n == 0 {
				return InvalidStateError("contribution is not linked to any model version")
			}
		}

		updates := map[string]any{"status": status}
		awards := contribution.AwardsPoints(status)
		if awards {
			updates["points_earned"] = in.PointsEarned
		}
		ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, c.TableName(), c.ID, []string{c.Status}, updates)
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "contribution changed while updating status"); err != nil {
			return err
		}
		c.Status = status
		if awards {
			c.PointsEarned = in.PointsEarned
			if err := a.deps.Users.AddPoints(dbc, c.ResearcherID, in.PointsEarned); err != nil {
				return err
			}
			msg := fmt.Sprintf("Your contribution has been %s. You earned %d points!", status, in.PointsEarned)
			ev, err := fanOut(dbc, a.deps.Notifications, msg, []uuid.UUID{c.ResearcherID})
			if err != nil {
				return err
			}
			out.Notification = &ev
		}
		out.Contribution = c
		return nil
	})
	return out, err
}

func (a *contributionAggregate) Delete(ctx context.Context, in domainagg.DeleteContributionInput) error {
	const op = "Contribution.Aggregate.Delete"
	if in.ContributionID == uuid.Nil || in.ActorID == uuid.Nil {
		return domainagg.Invalid(op, "contribution_id and actor_id are required")
	}
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		locked, err := a.deps.Contributions.LockByIDs(dbc, []uuid.UUID{in.ContributionID})
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			if !in.ActorIsAdmin {
				return domainagg.PermissionDenied(op)
			}
			return domainagg.NotFound(op, "contribution", in.ContributionID)
		}
		c := locked[0]
		if !in.ActorIsAdmin && (c.ResearcherID != in.ActorID || c.Status != contribution.StatusPending) {
			return domainagg.PermissionDenied(op)
		}
		if err := a.deps.Links.DeleteByContributionIDs(dbc, []uuid.UUID{c.ID}); err != nil {
			return err
		}
		return a.deps.Contributions.DeleteByIDs(dbc, []uuid.UUID{c.ID})
	})
}
