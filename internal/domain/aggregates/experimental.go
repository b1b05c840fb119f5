package aggregates

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/yungbote/modelhub-backend/internal/domain/registry"
)

var ExperimentalModelAggregateContract = Contract{
	Name:   "Aggregation.ExperimentalModelAggregate",
	Tables: []string{"model", "model_contribution_link", "contribution", "user", "notification", "notification_delivery"},
	Notes:  "Commits an averaged model version with its links, point awards and researcher notifications as one unit.",
}

// ExperimentalModelAggregate persists the result of a weight aggregation.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeInvalidState, CodeConflict, CodeRetryable, CodeInternal.
type ExperimentalModelAggregate interface {
	Aggregate

	// Commit creates the new model, links every contribution to it, and awards
	// points plus a notification to each contribution not already aggregated.
	Commit(ctx context.Context, in CommitExperimentalModelInput) (CommitExperimentalModelResult, error)
}

type CommitExperimentalModelInput struct {
	TargetModelID         uuid.UUID
	ContributionIDs       []uuid.UUID
	Name                  string
	Description           string
	WeightsPayload        json.RawMessage
	WeightsRef            string
	PointsPerContribution int
}

type CommitExperimentalModelResult struct {
	Model         *registry.Model
	Awarded       []uuid.UUID
	AlreadyMerged []uuid.UUID
	Notifications []NotificationEvent
}
