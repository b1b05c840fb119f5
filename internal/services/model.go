package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/modelhub-backend/internal/data/repos"
	types "github.com/yungbote/modelhub-backend/internal/domain"
	domainagg "github.com/yungbote/modelhub-backend/internal/domain/aggregates"
	"github.com/yungbote/modelhub-backend/internal/domain/registry"
	"github.com/yungbote/modelhub-backend/internal/domain/roles"
	"github.com/yungbote/modelhub-backend/internal/platform/blobstore"
	"github.com/yungbote/modelhub-backend/internal/platform/dbctx"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
	"github.com/yungbote/modelhub-backend/internal/platform/redisbus"
	"github.com/yungbote/modelhub-backend/internal/weights"
)

type ModelService interface {
	Create(ctx context.Context, actorID uuid.UUID, in domainagg.CreateModelInput) (*types.Model, error)
	UploadWeights(ctx context.Context, actorID uuid.UUID, data []byte, filename string) (string, error)
	Publish(ctx context.Context, actorID, modelID uuid.UUID) (*types.Model, error)
	Update(ctx context.Context, actorID uuid.UUID, in domainagg.UpdateModelInput) (*types.Model, error)
	Delete(ctx context.Context, actorID, modelID uuid.UUID) (domainagg.DeleteModelResult, error)

	Get(ctx context.Context, actorID, modelID uuid.UUID) (*types.Model, error)
	List(ctx context.Context, actorID uuid.UUID, filter repos.ModelFilter) ([]*types.Model, error)
	Weights(ctx context.Context, actorID, modelID uuid.UUID) (json.RawMessage, error)
}

type modelService struct {
	log      *logger.Logger
	gate     PermissionGate
	models   repos.ModelRepo
	registry domainagg.ModelRegistryAggregate
	blobs    blobstore.Store
	bus      redisbus.Bus
}

func NewModelService(
	log *logger.Logger,
	gate PermissionGate,
	models repos.ModelRepo,
	registryAgg domainagg.ModelRegistryAggregate,
	blobs blobstore.Store,
	bus redisbus.Bus,
) ModelService {
	return &modelService{
		log:      log.With("service", "ModelService"),
		gate:     gate,
		models:   models,
		registry: registryAgg,
		blobs:    blobs,
		bus:      bus,
	}
}

func (s *modelService) Create(ctx context.Context, actorID uuid.UUID, in domainagg.CreateModelInput) (*types.Model, error) {
	const op = "ModelService.Create"
	if _, err := s.gate.Require(ctx, op, actorID, roles.Admin); err != nil {
		return nil, err
	}
	res, err := s.registry.CreateModel(ctx, in)
	if err != nil {
		return nil, err
	}
	s.log.Info("Model created", "model_id", res.Model.ID, "version", res.Model.Version, "admin_id", actorID)
	return res.Model, nil
}

func (s *modelService) UploadWeights(ctx context.Context, actorID uuid.UUID, data []byte, filename string) (string, error) {
	const op = "ModelService.UploadWeights"
	if _, err := s.gate.Require(ctx, op, actorID, roles.Admin); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", domainagg.Invalid(op, "weights file is empty")
	}
	if _, err := weights.DecodePayload(data); err != nil {
		return "", domainagg.Invalid(op, "invalid weights payload: "+err.Error())
	}
	if s.blobs == nil {
		return "", domainagg.NewError(domainagg.CodeInternal, op, "blob store not configured", nil)
	}
	ref, err := s.blobs.Store(ctx, data, filename, blobstore.DestinationModels)
	if err != nil {
		return "", domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	return ref, nil
}

func (s *modelService) Publish(ctx context.Context, actorID, modelID uuid.UUID) (*types.Model, error) {
	const op = "ModelService.Publish"
	ctx, span := tracer.Start(ctx, op)
	var err error
	defer func() { endSpan(span, err) }()

	if _, err = s.gate.Require(ctx, op, actorID, roles.Admin); err != nil {
		return nil, err
	}
	var res domainagg.PublishModelResult
	res, err = s.registry.Publish(ctx, domainagg.PublishModelInput{ModelID: modelID})
	if err != nil {
		return nil, err
	}
	publishEvents(ctx, s.log, s.bus, res.Broadcast)
	s.log.Info("Model published", "model_id", modelID, "version", res.Model.Version, "recipients", len(res.Broadcast.Recipients))
	return res.Model, nil
}

func (s *modelService) Update(ctx context.Context, actorID uuid.UUID, in domainagg.UpdateModelInput) (*types.Model, error) {
	const op = "ModelService.Update"
	if _, err := s.gate.Require(ctx, op, actorID, roles.Admin); err != nil {
		return nil, err
	}
	return s.registry.UpdateModel(ctx, in)
}

func (s *modelService) Delete(ctx context.Context, actorID, modelID uuid.UUID) (domainagg.DeleteModelResult, error) {
	const op = "ModelService.Delete"
	if _, err := s.gate.Require(ctx, op, actorID, roles.Admin); err != nil {
		return domainagg.DeleteModelResult{}, err
	}
	res, err := s.registry.DeleteModel(ctx, domainagg.DeleteModelInput{ModelID: modelID})
	if err != nil {
		return res, err
	}
	s.log.Info("Model deleted", "model_id", modelID, "removed_contributions", res.RemovedContributions)
	return res, nil
}

func (s *modelService) Get(ctx context.Context, actorID, modelID uuid.UUID) (*types.Model, error) {
	const op = "ModelService.Get"
	if _, err := s.gate.Require(ctx, op, actorID, roles.Member); err != nil {
		return nil, err
	}
	m, err := s.models.GetByID(dbctx.Context{Ctx: ctx}, modelID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if m == nil {
		return nil, domainagg.NotFound(op, "model", modelID)
	}
	return m, nil
}

func (s *modelService) List(ctx context.Context, actorID uuid.UUID, filter repos.ModelFilter) ([]*types.Model, error) {
	const op = "ModelService.List"
	if _, err := s.gate.Require(ctx, op, actorID, roles.Member); err != nil {
		return nil, err
	}
	filter.Status = strings.ToLower(strings.TrimSpace(filter.Status))
	if filter.Status != "" && filter.Status != registry.StatusExperimental && filter.Status != registry.StatusActive {
		return nil, domainagg.Invalid(op, "status must be experimental or active")
	}
	out, err := s.models.List(dbctx.Context{Ctx: ctx}, filter)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	return out, nil
}

func (s *modelService) Weights(ctx context.Context, actorID, modelID uuid.UUID) (json.RawMessage, error) {
	const op = "ModelService.Weights"
	m, err := s.Get(ctx, actorID, modelID)
	if err != nil {
		return nil, err
	}
	raw, err := loadPayload(ctx, s.blobs, m.WeightsPayload, m.WeightsRef)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	return raw, nil
}
