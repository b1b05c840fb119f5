package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
)

var NotificationAggregateContract = Contract{
	Name:   "Notification.Aggregate",
	Tables: []string{"notification", "notification_delivery"},
	Notes:  "Creates a shared message with its deduplicated delivery set atomically; read flags are per recipient.",
}

// NotificationEvent describes a committed fan-out.
type NotificationEvent struct {
	NotificationID uuid.UUID
	Message        string
	Recipients     []uuid.UUID
	SentAt         time.Time
}

// NotificationAggregate owns notification fan-out and read state.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeRetryable, CodeInternal.
type NotificationAggregate interface {
	Aggregate

	Notify(ctx context.Context, in NotifyInput) (NotificationEvent, error)
	MarkRead(ctx context.Context, in MarkNotificationReadInput) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type NotifyInput struct {
	Message      string
	RecipientIDs []uuid.UUID
}

type MarkNotificationReadInput struct {
	NotificationID uuid.UUID
	UserID         uuid.UUID
}
