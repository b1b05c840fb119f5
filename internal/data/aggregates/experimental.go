package aggregates

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/modelhub-backend/internal/data/repos"
	types "github.com/yungbote/modelhub-backend/internal/domain"
	domainagg "github.com/yungbote/modelhub-backend/internal/domain/aggregates"
	"github.com/yungbote/modelhub-backend/internal/domain/contribution"
	"github.com/yungbote/modelhub-backend/internal/domain/registry"
	"github.com/yungbote/modelhub-backend/internal/platform/dbctx"
)

type ExperimentalModelAggregateDeps struct {
	Base BaseDeps

	Models        repos.ModelRepo
	Contributions repos.ContributionRepo
	Links         repos.ModelContributionLinkRepo
	Users         repos.UserRepo
	Notifications repos.NotificationRepo
}

type experimentalModelAggregate struct {
	deps ExperimentalModelAggregateDeps
}

func NewExperimentalModelAggregate(deps ExperimentalModelAggregateDeps) domainagg.ExperimentalModelAggregate {
	deps.Base = deps.Base.withDefaults()
	return &experimentalModelAggregate{deps: deps}
}

func (a *experimentalModelAggregate) Contract() domainagg.Contract {
	return domainagg.ExperimentalModelAggregateContract
}

func (a *experimentalModelAggregate) Commit(ctx context.Context, in domainagg.CommitExperimentalModelInput) (domainagg.CommitExperimentalModelResult, error) {
	const op = "Aggregation.ExperimentalModelAggregate.Commit"
	var out domainagg.CommitExperimentalModelResult
	if in.TargetModelID == uuid.Nil {
		return out, domainagg.Invalid(op, "target_model_id is required")
	}
	ids := dedupeIDs(in.ContributionIDs)
	if len(ids) == 0 {
		return out, domainagg.Invalid(op, "contribution_ids must not be empty")
	}
	if in.PointsPerContribution < 0 {
		return out, domainagg.Invalid(op, "points_per_contribution must be >= 0")
	}
	proto, err := buildModel(op, domainagg.CreateModelInput{
		Name:           in.Name,
		Description:    in.Description,
		WeightsPayload: in.WeightsPayload,
		WeightsRef:     in.WeightsRef,
	})
	if err != nil {
		return out, err
	}

	err = executeWriteRetry(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		out = domainagg.CommitExperimentalModelResult{}

		target, err := a.deps.Models.GetByID(dbc, in.TargetModelID)
		if err != nil {
			return err
		}
		if target == nil {
			return domainagg.NotFound(op, "model", in.TargetModelID)
		}
		locked, err := a.deps.Contributions.LockByIDs(dbc, ids)
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return domainagg.NewError(domainagg.CodeNotFound, op, "no contributions found", nil)
		}
		if len(locked) != len(ids) {
			return domainagg.NewError(domainagg.CodePreconditionFailed, op, "a contribution was removed while aggregating", nil)
		}
		for _, c := range locked {
			if c.TargetModelID == nil || *c.TargetModelID != target.ID {
				return ValidationError("all contributions must target the same model")
			}
			if c.Status == contribution.StatusRejected {
				return InvalidStateError(fmt.Sprintf("contribution %s was rejected and cannot be aggregated", c.ID))
			}
		}

		m := *proto
		m.ID = uuid.New()
		m.Metrics = copyJSON(target.Metrics)
		created, err := insertVersionedModel(dbc, a.deps.Models, &m)
		if err != nil {
			return err
		}
		out.Model = created

		links := make([]*types.ModelContributionLink, 0, len(locked))
		for _, c := range locked {
			links = append(links, &types.ModelContributionLink{ModelID: created.ID, ContributionID: c.ID})
		}
		if err := a.deps.Links.Create(dbc, links); err != nil {
			return err
		}

		msg := fmt.Sprintf("Your contribution was aggregated into experimental model v%d. You earned %d points!", created.Version, in.PointsPerContribution)
		for _, c := range locked {
			if c.Status == contribution.StatusAggregated {
				out.AlreadyMerged = append(out.AlreadyMerged, c.ID)
				continue
			}
			ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, c.TableName(), c.ID, contribution.AllowedSources(contribution.StatusAggregated), map[string]any{
				"status":        contribution.StatusAggregated,
				"points_earned": in.PointsPerContribution,
			})
			if err != nil {
				return err
			}
			if err := RequireCASSuccess(ok, "contribution changed while aggregating"); err != nil {
				return err
			}
			if err := a.deps.Users.AddPoints(dbc, c.ResearcherID, in.PointsPerContribution); err != nil {
				return err
			}
			ev, err := fanOut(dbc, a.deps.Notifications, msg, []uuid.UUID{c.ResearcherID})
			if err != nil {
				return err
			}
			out.Awarded = append(out.Awarded, c.ID)
			out.Notifications = append(out.Notifications, ev)
		}
		return nil
	})
	if err != nil {
		return domainagg.CommitExperimentalModelResult{}, err
	}
	return out, nil
}

func copyJSON(src datatypes.JSON) datatypes.JSON {
	if len(src) == 0 {
		return registry.DefaultMetrics()
	}
	return append(datatypes.JSON(nil), src...)
}

