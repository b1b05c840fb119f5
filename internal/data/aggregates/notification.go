package aggregates

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/modelhub-backend/internal/data/repos"
	types "github.com/yungbote/modelhub-backend/internal/domain"
	domainagg "github.com/yungbote/modelhub-backend/internal/domain/aggregates"
	"github.com/yungbote/modelhub-backend/internal/platform/dbctx"
)

type NotificationAggregateDeps struct {
	Base BaseDeps

	Users         repos.UserRepo
	Notifications repos.NotificationRepo
}

type notificationAggregate struct {
	deps NotificationAggregateDeps
}

func NewNotificationAggregate(deps NotificationAggregateDeps) domainagg.NotificationAggregate {
	deps.Base = deps.Base.withDefaults()
	return &notificationAggregate{deps: deps}
}

func (a *notificationAggregate) Contract() domainagg.Contract {
	return domainagg.NotificationAggregateContract
}

func (a *notificationAggregate) Notify(ctx context.Context, in domainagg.NotifyInput) (domainagg.NotificationEvent, error) {
	const op = "Notification.Aggregate.Notify"
	var out domainagg.NotificationEvent
	if strings.TrimSpace(in.Message) == "" {
		return out, domainagg.Invalid(op, "message is required")
	}
	recipients := dedupeIDs(in.RecipientIDs)
	if len(recipients) == 0 {
		return out, domainagg.Invalid(op, "at least one recipient is required")
	}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		found, err := a.deps.Users.GetByIDs(dbc, recipients)
		if err != nil {
			return err
		}
		if len(found) != len(recipients) {
			return domainagg.NewError(domainagg.CodeNotFound, op, "one or more recipients do not exist", nil)
		}
		out, err = fanOut(dbc, a.deps.Notifications, in.Message, recipients)
		return err
	})
	return out, err
}

func (a *notificationAggregate) MarkRead(ctx context.Context, in domainagg.MarkNotificationReadInput) error {
	const op = "Notification.Aggregate.MarkRead"
	if in.NotificationID == uuid.Nil || in.UserID == uuid.Nil {
		return domainagg.Invalid(op, "notification_id and user_id are required")
	}
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		ok, err := a.deps.Notifications.DeliveryExists(dbc, in.NotificationID, in.UserID)
		if err != nil {
			return err
		}
		if !ok {
			return domainagg.NotFound(op, "notification", in.NotificationID)
		}
		_, err = a.deps.Notifications.MarkRead(dbc, in.NotificationID, in.UserID, time.Now().UTC())
		return err
	})
}

func (a *notificationAggregate) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	const op = "Notification.Aggregate.MarkAllRead"
	if userID == uuid.Nil {
		return 0, domainagg.Invalid(op, "user_id is required")
	}
	var n int64
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		var err error
		n, err = a.deps.Notifications.MarkAllRead(dbc, userID, time.Now().UTC())
		return err
	})
	return n, err
}

// fanOut writes one notification and its delivery rows with the caller's
// dbctx, so they commit or roll back with the surrounding write. Recipients
// must already be deduplicated.
func fanOut(dbc dbctx.Context, repo repos.NotificationRepo, message string, recipients []uuid.UUID) (domainagg.NotificationEvent, error) {
	var out domainagg.NotificationEvent
	n, err := repo.Create(dbc, &types.Notification{ID: uuid.New(), Message: message, SentAt: time.Now().UTC()})
	if err != nil {
		return out, err
	}
	rows := make([]*types.NotificationDelivery, 0, len(recipients))
	for _, id := range recipients {
		rows = append(rows, &types.NotificationDelivery{NotificationID: n.ID, UserID: id})
	}
	if err := repo.CreateDeliveries(dbc, rows); err != nil {
		return out, err
	}
	return domainagg.NotificationEvent{NotificationID: n.ID, Message: message, Recipients: recipients, SentAt: n.SentAt}, nil
}

// dedupeIDs drops nil and repeated ids and returns them sorted.
func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
