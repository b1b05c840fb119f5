package aggregates

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/yungbote/modelhub-backend/internal/domain/contribution"
)

var ContributionAggregateContract = Contract{
	Name:   "Contribution.Aggregate",
	Tables: []string{"contribution", "model_contribution_link", "user", "notification", "notification_delivery"},
	Notes:  "Owns the contribution status graph, point awards tied to it, and link-first deletion.",
}

// ContributionAggregate owns contribution lifecycle writes.
//
// Write method failures return *aggregates.Error with codes:
// CodePermissionDenied, CodeValidation, CodeNotFound, CodeInvalidState, CodeConflict, CodeRetryable, CodeInternal.
type ContributionAggregate interface {
	Aggregate

	Submit(ctx context.Context, in SubmitContributionInput) (*contribution.Contribution, error)

	// UpdateStatus applies one edge of the status graph. Entering approved or
	// aggregated awards points and notifies the researcher in the same transaction.
	UpdateStatus(ctx context.Context, in UpdateContributionStatusInput) (UpdateContributionStatusResult, error)

	// Delete removes links first, then the contribution.
	Delete(ctx context.Context, in DeleteContributionInput) error
}

type SubmitContributionInput struct {
	ResearcherID   uuid.UUID
	TargetModelID  uuid.UUID
	WeightsPayload json.RawMessage
	WeightsRef     string
}

type UpdateContributionStatusInput struct {
	ContributionID uuid.UUID
	Status         string
	PointsEarned   int
}

type UpdateContributionStatusResult struct {
	Contribution   *contribution.Contribution
	PreviousStatus string
	Notification   *NotificationEvent
}

type DeleteContributionInput struct {
	ContributionID uuid.UUID
	ActorID        uuid.UUID
	// ActorIsAdmin bypasses the owner+pending rule. The caller resolves it through the permission gate.
	ActorIsAdmin bool
}
