package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

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

// WeightsFile is an uploaded weights payload that goes through the blob store.
type WeightsFile struct {
	Filename string
	Data     []byte
}

type SubmitContributionRequest struct {
	TargetModelID  uuid.UUID
	WeightsPayload json.RawMessage
	File           *WeightsFile
}

type ContributionService interface {
	Submit(ctx context.Context, researcherID uuid.UUID, req SubmitContributionRequest) (*types.Contribution, error)
	GetWeights(ctx context.Context, adminID, contributionID uuid.UUID) (json.RawMessage, error)
	ListMine(ctx context.Context, researcherID uuid.UUID) ([]*types.Contribution, error)
	// ListForReview filters by status; "all" or an empty status returns every status.
	ListForReview(ctx context.Context, adminID uuid.UUID, status string) ([]*types.Contribution, error)
	UpdateStatus(ctx context.Context, adminID, contributionID uuid.UUID, status string, pointsEarned int) (*types.Contribution, error)
	Delete(ctx context.Context, actorID, contributionID uuid.UUID) error
}

type contributionService struct {
	log           *logger.Logger
	gate          PermissionGate
	contributions repos.ContributionRepo
	agg           domainagg.ContributionAggregate
	blobs         blobstore.Store
	bus           redisbus.Bus
}

func NewContributionService(
	log *logger.Logger,
	gate PermissionGate,
	contributions repos.ContributionRepo,
	agg domainagg.ContributionAggregate,
	blobs blobstore.Store,
	bus redisbus.Bus,
) ContributionService {
	return &contributionService{
		log:           log.With("service", "ContributionService"),
		gate:          gate,
		contributions: contributions,
		agg:           agg,
		blobs:         blobs,
		bus:           bus,
	}
}

func (s *contributionService) Submit(ctx context.Context, researcherID uuid.UUID, req SubmitContributionRequest) (*types.Contribution, error) {
	const op = "ContributionService.Submit"
	if _, err := s.gate.Require(ctx, op, researcherID, roles.Researcher); err != nil {
		return nil, err
	}
	if req.TargetModelID == uuid.Nil {
		return nil, domainagg.Invalid(op, "target_model_id is required")
	}

	in := domainagg.SubmitContributionInput{
		ResearcherID:  researcherID,
		TargetModelID: req.TargetModelID,
	}
	switch {
	case req.File != nil:
		if _, err := weights.DecodePayload(req.File.Data); err != nil {
			return nil, domainagg.Invalid(op, "invalid weights file: "+err.Error())
		}
		if s.blobs == nil {
			return nil, domainagg.NewError(domainagg.CodeInternal, op, "blob store not configured", nil)
		}
		ref, err := s.blobs.Store(ctx, req.File.Data, req.File.Filename, blobstore.DestinationContributions)
		if err != nil {
			return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
		}
		in.WeightsRef = ref
	case len(req.WeightsPayload) > 0:
		in.WeightsPayload = req.WeightsPayload
	default:
		return nil, domainagg.Invalid(op, "weights payload or weights file is required")
	}

	c, err := s.agg.Submit(ctx, in)
	if err != nil {
		return nil, err
	}
	s.log.Info("Contribution submitted", "contribution_id", c.ID, "researcher_id", researcherID, "model_id", req.TargetModelID)
	return c, nil
}

func (s *contributionService) GetWeights(ctx context.Context, adminID, contributionID uuid.UUID) (json.RawMessage, error) {
	const op = "ContributionService.GetWeights"
	if _, err := s.gate.Require(ctx, op, adminID, roles.Admin); err != nil {
		return nil, err
	}
	c, err := s.contributions.GetByID(dbctx.Context{Ctx: ctx}, contributionID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if c == nil {
		return nil, domainagg.NotFound(op, "contribution", contributionID)
	}
	raw, err := loadPayload(ctx, s.blobs, c.WeightsPayload, c.WeightsRef)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	return raw, nil
}

func (s *contributionService) ListMine(ctx context.Context, researcherID uuid.UUID) ([]*types.Contribution, error) {
	const op = "ContributionService.ListMine"
	if _, err := s.gate.Require(ctx, op, researcherID, roles.Researcher); err != nil {
		return nil, err
	}
	out, err := s.contributions.ListByResearcher(dbctx.Context{Ctx: ctx}, researcherID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	return out, nil
}

// statusFilterAll selects every contribution status in review listings.
const statusFilterAll = "all"

func (s *contributionService) ListForReview(ctx context.Context, adminID uuid.UUID, status string) ([]*types.Contribution, error) {
	const op = "ContributionService.ListForReview"
	if _, err := s.gate.Require(ctx, op, adminID, roles.Admin); err != nil {
		return nil, err
	}
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		status = statusFilterAll
	}
	if status != statusFilterAll && !contribution.ValidStatus(status) {
		return nil, domainagg.Invalid(op, "unknown status: "+status)
	}
	out, err := s.contributions.ListAll(dbctx.Context{Ctx: ctx}, status)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	return out, nil
}

func (s *contributionService) UpdateStatus(ctx context.Context, adminID, contributionID uuid.UUID, status string, pointsEarned int) (*types.Contribution, error) {
	const op = "ContributionService.UpdateStatus"
	if _, err := s.gate.Require(ctx, op, adminID, roles.Admin); err != nil {
		return nil, err
	}
	res, err := s.agg.UpdateStatus(ctx, domainagg.UpdateContributionStatusInput{
		ContributionID: contributionID,
		Status:         strings.ToLower(strings.TrimSpace(status)),
		PointsEarned:   pointsEarned,
	})
	if err != nil {
		return nil, err
	}
	if res.Notification != nil {
		publishEvents(ctx, s.log, s.bus, *res.Notification)
	}
	s.log.Info("Contribution status updated",
		"contribution_id", contributionID,
		"from", res.PreviousStatus,
		"to", res.Contribution.Status,
		"admin_id", adminID,
	)
	return res.Contribution, nil
}

func (s *contributionService) Delete(ctx context.Context, actorID, contributionID uuid.UUID) error {
	const op = "ContributionService.Delete"
	if _, err := s.gate.Require(ctx, op, actorID, roles.Researcher); err != nil {
		return err
	}
	return s.agg.Delete(ctx, domainagg.DeleteContributionInput{
		ContributionID: contributionID,
		ActorID:        actorID,
		ActorIsAdmin:   s.gate.HasPermission(ctx, actorID, roles.Admin),
	})
}
