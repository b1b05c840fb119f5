package aggregates

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/modelhub-backend/internal/data/repos"
	types "github.com/yungbote/modelhub-backend/internal/domain"
	domainagg "github.com/yungbote/modelhub-backend/internal/domain/aggregates"
	"github.com/yungbote/modelhub-backend/internal/domain/registry"
	"github.com/yungbote/modelhub-backend/internal/domain/roles"
	"github.com/yungbote/modelhub-backend/internal/platform/dbctx"
	"github.com/yungbote/modelhub-backend/internal/weights"
)

// modelVersionLockKey is the postgres advisory lock serializing version assignment.
const modelVersionLockKey int64 = 0x6d6f64656c76

type ModelRegistryAggregateDeps struct {
	Base BaseDeps

	Models        repos.ModelRepo
	Users         repos.UserRepo
	Contributions repos.ContributionRepo
	Links         repos.ModelContributionLinkRepo
	Notifications repos.NotificationRepo
	Ratings       repos.RatingRepo
	Comments      repos.CommentRepo
}

type modelRegistryAggregate struct {
	deps ModelRegistryAggregateDeps
}

func NewModelRegistryAggregate(deps ModelRegistryAggregateDeps) domainagg.ModelRegistryAggregate {
	deps.Base = deps.Base.withDefaults()
	return &modelRegistryAggregate{deps: deps}
}

func (a *modelRegistryAggregate) Contract() domainagg.Contract {
	return domainagg.ModelRegistryAggregateContract
}

func (a *modelRegistryAggregate) CreateModel(ctx context.Context, in domainagg.CreateModelInput) (domainagg.CreateModelResult, error) {
	const op = "Registry.ModelAggregate.CreateModel"
	var out domainagg.CreateModelResult
	row, err := buildModel(op, in)
	if err != nil {
		return out, err
	}
	err = executeWriteRetry(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		m := *row
		m.ID = uuid.New()
		created, err := insertVersionedModel(dbc, a.deps.Models, &m)
		if err != nil {
			return err
		}
		out.Model = created
		return nil
	})
	return out, err
}

func (a *modelRegistryAggregate) Publish(ctx context.Context, in domainagg.PublishModelInput) (domainagg.PublishModelResult, error) {
	const op = "Registry.ModelAggregate.Publish"
	var out domainagg.PublishModelResult
	if in.ModelID == uuid.Nil {
		return out, domainagg.Invalid(op, "model_id is required")
	}
	at := in.PublishedAt.UTC()
	if at.IsZero() {
		at = time.Now().UTC()
	}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		m, err := a.deps.Models.LockByID(dbc, in.ModelID)
		if err != nil {
			return err
		}
		if m == nil {
			return domainagg.NotFound(op, "model", in.ModelID)
		}
		if m.Status != registry.StatusExperimental {
			return InvalidStateError(fmt.Sprintf("only experimental models can be published (model %d is %s)", m.Version, m.Status))
		}
		ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, m.TableName(), m.ID, []string{registry.StatusExperimental}, map[string]any{
			"status":       registry.StatusActive,
			"published_at": at,
			"updated_at":   at,
		})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "model changed while publishing"); err != nil {
			return err
		}
		m.Status = registry.StatusActive
		m.PublishedAt = &at
		out.Model = m

		recipients, err := a.deps.Users.ListIDsByRoleNames(dbc, roles.NamesBetween(roles.Member, roles.Researcher))
		if err != nil {
			return err
		}
		recipients = dedupeIDs(recipients)
		if len(recipients) == 0 {
			return nil
		}
		out.Broadcast, err = fanOut(dbc, a.deps.Notifications, fmt.Sprintf("New model version %d has been published!", m.Version), recipients)
		return err
	})
	return out, err
}

func (a *modelRegistryAggregate) UpdateModel(ctx context.Context, in domainagg.UpdateModelInput) (*registry.Model, error) {
	const op = "Registry.ModelAggregate.UpdateModel"
	if in.ModelID == uuid.Nil {
		return nil, domainagg.Invalid(op, "model_id is required")
	}
	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domainagg.Invalid(op, "name cannot be empty")
		}
		updates["name"] = name
	}
	if in.Description != nil {
		updates["description"] = strings.TrimSpace(*in.Description)
	}
	if len(in.Metrics) > 0 {
		if !isJSONObject(in.Metrics) {
			return nil, domainagg.Invalid(op, "metrics must be a JSON object")
		}
		updates["metrics"] = datatypes.JSON(in.Metrics)
	}
	var out *registry.Model
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		m, err := a.deps.Models.LockByID(dbc, in.ModelID)
		if err != nil {
			return err
		}
		if m == nil {
			return domainagg.NotFound(op, "model", in.ModelID)
		}
		if len(updates) > 0 {
			updates["updated_at"] = time.Now().UTC()
			if err := a.deps.Models.UpdateFields(dbc, m.ID, updates); err != nil {
				return err
			}
		}
		out, err = a.deps.Models.GetByID(dbc, m.ID)
		return err
	})
	return out, err
}

func (a *modelRegistryAggregate) DeleteModel(ctx context.Context, in domainagg.DeleteModelInput) (domainagg.DeleteModelResult, error) {
	const op = "Registry.ModelAggregate.DeleteModel"
	out := domainagg.DeleteModelResult{ModelID: in.ModelID}
	if in.ModelID == uuid.Nil {
		return out, domainagg.Invalid(op, "model_id is required")
	}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		m, err := a.deps.Models.LockByID(dbc, in.ModelID)
		if err != nil {
			return err
		}
		if m == nil {
			return domainagg.NotFound(op, "model", in.ModelID)
		}
		contribIDs, err := a.deps.Contributions.ListIDsByTargetModel(dbc, m.ID)
		if err != nil {
			return err
		}
		if err := a.deps.Links.DeleteByContributionIDs(dbc, contribIDs); err != nil {
			return err
		}
		if err := a.deps.Links.DeleteByModelID(dbc, m.ID); err != nil {
			return err
		}
		if err := a.deps.Contributions.DeleteByIDs(dbc, contribIDs); err != nil {
			return err
		}
		if err := a.deps.Ratings.DeleteByModelID(dbc, m.ID); err != nil {
			return err
		}
		if err := a.deps.Comments.DeleteByModelID(dbc, m.ID); err != nil {
			return err
		}
		out.RemovedContributions = len(contribIDs)
		return a.deps.Models.Delete(dbc, m.ID)
	})
	return out, err
}

// buildModel validates creation input and returns an unsaved experimental model.
func buildModel(op string, in domainagg.CreateModelInput) (*types.Model, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domainagg.Invalid(op, "model name is required")
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, domainagg.Invalid(op, "model description is required")
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
	metrics := registry.DefaultMetrics()
	if len(in.Metrics) > 0 {
		if !isJSONObject(in.Metrics) {
			return nil, domainagg.Invalid(op, "metrics must be a JSON object")
		}
		metrics = datatypes.JSON(in.Metrics)
	}
	m := &types.Model{
		Name:        name,
		Description: description,
		Status:      registry.StatusExperimental,
		WeightsRef:  ref,
		Metrics:     metrics,
	}
	if len(in.WeightsPayload) > 0 {
		m.WeightsPayload = datatypes.JSON(in.WeightsPayload)
	}
	return m, nil
}

// insertVersionedModel assigns the next version and inserts m. On postgres the
// advisory lock serializes concurrent creators; the unique version index turns
// any remaining race into a conflict the caller retries.
func insertVersionedModel(dbc dbctx.Context, models repos.ModelRepo, m *types.Model) (*types.Model, error) {
	if dbc.Tx != nil && dbc.Tx.Dialector != nil && dbc.Tx.Dialector.Name() == "postgres" {
		if err := dbc.Tx.WithContext(dbc.Ctx).Exec("SELECT pg_advisory_xact_lock(?)", modelVersionLockKey).Error; err != nil {
			return nil, err
		}
	}
	current, err := models.MaxVersion(dbc)
	if err != nil {
		return nil, err
	}
	m.Version = current + 1
	rows, err := models.Create(dbc, []*types.Model{m})
	if err != nil {
		return nil, err
	}
	return rows[0], nil
}

func isJSONObject(b []byte) bool {
	var obj map[string]json.RawMessage
	return json.Unmarshal(b, &obj) == nil && obj != nil
}
