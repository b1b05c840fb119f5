package aggregates

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/modelhub-backend/internal/domain/registry"
)

var ModelRegistryAggregateContract = Contract{
	Name:   "Registry.ModelAggregate",
	Tables: []string{"model", "notification", "notification_delivery", "contribution", "model_contribution_link", "rating", "comment"},
	Notes:  "Owns version assignment, the experimental->active flip with its broadcast, and cascading model removal.",
}

// ModelRegistryAggregate owns Model lifecycle writes.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeInvalidState, CodeConflict, CodeRetryable, CodeInternal.
type ModelRegistryAggregate interface {
	Aggregate

	// CreateModel assigns the next global version and stores the model as experimental.
	CreateModel(ctx context.Context, in CreateModelInput) (CreateModelResult, error)

	// Publish flips an experimental model to active and fans out one broadcast notification.
	Publish(ctx context.Context, in PublishModelInput) (PublishModelResult, error)

	UpdateModel(ctx context.Context, in UpdateModelInput) (*registry.Model, error)

	// DeleteModel removes links, contributions targeting the model, ratings, comments, then the model.
	DeleteModel(ctx context.Context, in DeleteModelInput) (DeleteModelResult, error)
}

type CreateModelInput struct {
	Name           string
	Description    string
	WeightsPayload json.RawMessage
	WeightsRef     string
	Metrics        json.RawMessage
}

type CreateModelResult struct {
	Model *registry.Model
}

type PublishModelInput struct {
	ModelID     uuid.UUID
	PublishedAt time.Time
}

type PublishModelResult struct {
	Model     *registry.Model
	Broadcast NotificationEvent
}

type UpdateModelInput struct {
	ModelID     uuid.UUID
	Name        *string
	Description *string
	Metrics     json.RawMessage
}

type DeleteModelInput struct {
	ModelID uuid.UUID
}

type DeleteModelResult struct {
	ModelID              uuid.UUID
	RemovedContributions int
}
