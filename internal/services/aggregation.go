package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/modelhub-backend/internal/data/aggregates"
	"github.com/yungbote/modelhub-backend/internal/data/repos"
	types "github.com/yungbote/modelhub-backend/internal/domain"
	domainagg "github.com/yungbote/modelhub-backend/internal/domain/aggregates"
	"github.com/yungbote/modelhub-backend/internal/domain/contribution"
	"github.com/yungbote/modelhub-backend/internal/domain/roles"
	"github.com/yungbote/modelhub-backend/internal/platform/blobstore"
	"github.com/yungbote/modelhub-backend/internal/platform/dbctx"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
	"github.com/yungbote/modelhub-backend/internal/platform/redisbus"
	"github.com/yungbote/modelhub-backend/internal/weights"
)

const DefaultPointsPerContribution = 10

// payloadFetchLimit bounds concurrent blob reads during one aggregation.
const payloadFetchLimit = 4

type CreateExperimentalModelRequest struct {
	TargetModelID   uuid.UUID   `json:"target_model_id"`
	ContributionIDs []uuid.UUID `json:"contribution_ids"`
	Name            string      `json:"model_name"`
	Description     string      `json:"model_description"`
	// PointsPerContribution falls back to the service default when nil.
	PointsPerContribution *int `json:"points_per_contribution,omitempty"`
}

var requiredID = validation.By(func(v interface{}) error {
	id, ok := v.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return errors.New("is required")
	}
	return nil
})

func (r CreateExperimentalModelRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.TargetModelID, requiredID),
		validation.Field(&r.ContributionIDs, validation.Required, validation.Each(requiredID)),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Description, validation.Required),
		validation.Field(&r.PointsPerContribution, validation.Min(0)),
	)
}

type AggregationService interface {
	CreateExperimentalModel(ctx context.Context, adminID uuid.UUID, req CreateExperimentalModelRequest) (*types.Model, error)
}

type aggregationService struct {
	log           *logger.Logger
	gate          PermissionGate
	models        repos.ModelRepo
	contributions repos.ContributionRepo
	experimental  domainagg.ExperimentalModelAggregate
	blobs         blobstore.Store
	bus           redisbus.Bus
	defaultPoints int
}

func NewAggregationService(
	log *logger.Logger,
	gate PermissionGate,
	models repos.ModelRepo,
	contributions repos.ContributionRepo,
	experimental domainagg.ExperimentalModelAggregate,
	blobs blobstore.Store,
	bus redisbus.Bus,
	defaultPoints int,
) AggregationService {
	if defaultPoints < 0 {
		defaultPoints = DefaultPointsPerContribution
	}
	return &aggregationService{
		log:           log.With("service", "AggregationService"),
		gate:          gate,
		models:        models,
		contributions: contributions,
		experimental:  experimental,
		blobs:         blobs,
		bus:           bus,
		defaultPoints: defaultPoints,
	}
}

func (s *aggregationService) CreateExperimentalModel(ctx context.Context, adminID uuid.UUID, req CreateExperimentalModelRequest) (_ *types.Model, err error) {
	const op = "AggregationService.CreateExperimentalModel"
	ctx, span := tracer.Start(ctx, op)
	defer func() { endSpan(span, err) }()

	if _, err = s.gate.Require(ctx, op, adminID, roles.Admin); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if verr := req.Validate(); verr != nil {
		return nil, domainagg.Invalid(op, verr.Error())
	}
	points := s.defaultPoints
	if req.PointsPerContribution != nil {
		points = *req.PointsPerContribution
	}

	dbc := dbctx.Context{Ctx: ctx}
	target, err := s.models.GetByID(dbc, req.TargetModelID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if target == nil {
		return nil, domainagg.NotFound(op, "model", req.TargetModelID)
	}

	batch, err := s.loadContributions(ctx, op, target.ID, req.ContributionIDs)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("model.target_id", target.ID.String()),
		attribute.Int("model.target_version", target.Version),
		attribute.Int("contributions.count", len(batch)),
	)

	targetPayload, contribPayloads, err := s.resolvePayloads(ctx, op, target, batch)
	if err != nil {
		return nil, err
	}

	merged, err := weights.AggregatePayload(targetPayload, contribPayloads)
	if err != nil {
		return nil, aggregates.MapError(op, describeMismatch(err, batch))
	}
	encoded, err := merged.Encode()
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}

	ids := make([]uuid.UUID, len(batch))
	for i, c := range batch {
		ids[i] = c.ID
	}
	var res domainagg.CommitExperimentalModelResult
	res, err = s.experimental.Commit(ctx, domainagg.CommitExperimentalModelInput{
		TargetModelID:         target.ID,
		ContributionIDs:       ids,
		Name:                  req.Name,
		Description:           req.Description,
		WeightsPayload:        encoded,
		PointsPerContribution: points,
	})
	if err != nil {
		return nil, err
	}
	publishEvents(ctx, s.log, s.bus, res.Notifications...)

	s.log.Info("Experimental model created",
		"model_id", res.Model.ID,
		"version", res.Model.Version,
		"target_model_id", target.ID,
		"awarded", len(res.Awarded),
		"already_merged", len(res.AlreadyMerged),
		"admin_id", adminID,
	)
	return res.Model, nil
}

// loadContributions returns the requested contributions that exist, in request
// order. Ids that match nothing are dropped; an entirely empty result is NotFound.
func (s *aggregationService) loadContributions(ctx context.Context, op string, targetID uuid.UUID, requested []uuid.UUID) ([]*types.Contribution, error) {
	rows, err := s.contributions.GetByIDs(dbctx.Context{Ctx: ctx}, requested)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if len(rows) == 0 {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "no contributions found", nil)
	}
	if len(rows) < len(requested) {
		s.log.Warn("Some contributions were not found", "requested", len(requested), "found", len(rows))
	}
	byID := make(map[uuid.UUID]*types.Contribution, len(rows))
	for _, c := range rows {
		byID[c.ID] = c
	}
	out := make([]*types.Contribution, 0, len(rows))
	for _, id := range requested {
		c, ok := byID[id]
		if !ok {
			continue
		}
		delete(byID, id)
		if c.TargetModelID == nil || *c.TargetModelID != targetID {
			return nil, domainagg.Invalid(op, "all contributions must target the same model")
		}
		if c.Status == contribution.StatusRejected {
			return nil, domainagg.NewError(domainagg.CodeInvalidState, op,
				fmt.Sprintf("contribution %s was rejected and cannot be aggregated", c.ID), nil)
		}
		out = append(out, c)
	}
	return out, nil
}

// resolvePayloads loads and decodes the target and contribution weights.
// Blob-backed payloads are fetched concurrently.
func (s *aggregationService) resolvePayloads(ctx context.Context, op string, target *types.Model, batch []*types.Contribution) (weights.Payload, []weights.Payload, error) {
	var targetPayload weights.Payload
	contribs := make([]weights.Payload, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(payloadFetchLimit)
	g.Go(func() error {
		raw, err := loadPayload(gctx, s.blobs, target.WeightsPayload, target.WeightsRef)
		if err != nil {
			return domainagg.Wrap(domainagg.CodeInternal, op, fmt.Errorf("load target weights: %w", err))
		}
		p, err := weights.DecodePayload(raw)
		if err != nil {
			return domainagg.Invalid(op, fmt.Sprintf("target model %s: %v", target.ID, err))
		}
		targetPayload = p
		return nil
	})
	for i, c := range batch {
		g.Go(func() error {
			raw, err := loadPayload(gctx, s.blobs, c.WeightsPayload, c.WeightsRef)
			if err != nil {
				return domainagg.Wrap(domainagg.CodeInternal, op, fmt.Errorf("load contribution %s weights: %w", c.ID, err))
			}
			p, err := weights.DecodePayload(raw)
			if err != nil {
				return domainagg.Invalid(op, fmt.Sprintf("contribution %s: %v", c.ID, err))
			}
			contribs[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return weights.Payload{}, nil, err
	}
	return targetPayload, contribs, nil
}

// describeMismatch adds the contribution id to a structure mismatch, which
// the engine reports by position only.
func describeMismatch(err error, batch []*types.Contribution) error {
	var structErr *weights.StructureMismatchError
	if errors.As(err, &structErr) && structErr.Contribution >= 0 && structErr.Contribution < len(batch) {
		return fmt.Errorf("contribution %s: %w", batch[structErr.Contribution].ID, err)
	}
	return err
}
