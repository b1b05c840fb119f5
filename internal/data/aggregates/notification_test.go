package aggregates

import (
	"context"
	"testing"

	"github.com/google/uuid"

	repotest "github.com/yungbote/modelhub-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/modelhub-backend/internal/domain/aggregates"
	"github.com/yungbote/modelhub-backend/internal/domain/roles"
)

func TestNotifyDedupesRecipients(t *testing.T) {
	h := newHarness(t)
	a := repotest.SeedUser(t, h.db, "a", roles.Member)
	b := repotest.SeedUser(t, h.db, "b", roles.Member)

	ev, err := h.notifications().Notify(context.Background(), domainagg.NotifyInput{
		Message:      "maintenance tonight",
		RecipientIDs: []uuid.UUID{a.ID, b.ID, a.ID, uuid.Nil},
	})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(ev.Recipients) != 2 {
		t.Fatalf("recipients: want=2 got=%d", len(ev.Recipients))
	}
	for _, id := range []uuid.UUID{a.ID, b.ID} {
		if n := h.countDeliveries(t, id); n != 1 {
			t.Fatalf("deliveries for %s: want=1 got=%d", id, n)
		}
	}
}

func TestNotifyUnknownRecipientWritesNothing(t *testing.T) {
	h := newHarness(t)
	a := repotest.SeedUser(t, h.db, "a", roles.Member)

	_, err := h.notifications().Notify(context.Background(), domainagg.NotifyInput{
		Message:      "hello",
		RecipientIDs: []uuid.UUID{a.ID, uuid.New()},
	})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("want not_found got %v", err)
	}
	if n := h.countNotifications(t); n != 0 {
		t.Fatalf("notifications: want=0 got=%d", n)
	}
	if _, err := h.notifications().Notify(context.Background(), domainagg.NotifyInput{Message: " ", RecipientIDs: []uuid.UUID{a.ID}}); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("blank message: want validation got %v", err)
	}
}

func TestMarkReadAndMarkAllRead(t *testing.T) {
	h := newHarness(t)
	a := repotest.SeedUser(t, h.db, "a", roles.Member)
	b := repotest.SeedUser(t, h.db, "b", roles.Member)
	agg := h.notifications()
	ctx := context.Background()

	first, err := agg.Notify(ctx, domainagg.NotifyInput{Message: "one", RecipientIDs: []uuid.UUID{a.ID}})
	if err != nil {
		t.Fatalf("Notify one: %v", err)
	}
	if _, err := agg.Notify(ctx, domainagg.NotifyInput{Message: "two", RecipientIDs: []uuid.UUID{a.ID}}); err != nil {
		t.Fatalf("Notify two: %v", err)
	}

	if err := agg.MarkRead(ctx, domainagg.MarkNotificationReadInput{NotificationID: first.NotificationID, UserID: b.ID}); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("foreign delivery: want not_found got %v", err)
	}
	if err := agg.MarkRead(ctx, domainagg.MarkNotificationReadInput{NotificationID: first.NotificationID, UserID: a.ID}); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if err := agg.MarkRead(ctx, domainagg.MarkNotificationReadInput{NotificationID: first.NotificationID, UserID: a.ID}); err != nil {
		t.Fatalf("MarkRead twice: %v", err)
	}

	n, err := agg.MarkAllRead(ctx, a.ID)
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if n != 1 {
		t.Fatalf("MarkAllRead flipped: want=1 got=%d", n)
	}
	inbox, err := h.repos.Notifications.ListForUser(h.dbc(), a.ID)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	for _, item := range inbox {
		if !item.IsRead {
			t.Fatalf("item %s still unread", item.ID)
		}
	}
}
