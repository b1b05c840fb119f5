package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/modelhub-backend/internal/domain/aggregates"
	"github.com/yungbote/modelhub-backend/internal/domain/roles"
)

func TestNotificationInbox(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "admin", roles.Admin)
	alice := e.user(t, "alice", roles.Member)
	bob := e.user(t, "bob", roles.Member)

	ev, err := e.notifications.Send(ctx, admin.ID, "  maintenance tonight ", []uuid.UUID{alice.ID, bob.ID, alice.ID})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if ev.Message != "maintenance tonight" || len(ev.Recipients) != 2 {
		t.Fatalf("event: got message=%q recipients=%d", ev.Message, len(ev.Recipients))
	}
	if _, err := e.notifications.Send(ctx, alice.ID, "hi", []uuid.UUID{bob.ID}); !domainagg.IsCode(err, domainagg.CodePermissionDenied) {
		t.Fatalf("member send: want permission_denied got=%v", err)
	}

	if err := e.notifications.MarkRead(ctx, alice.ID, ev.NotificationID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if err := e.notifications.MarkRead(ctx, alice.ID, uuid.New()); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("MarkRead unknown: want not_found got=%v", err)
	}

	aliceInbox, err := e.notifications.List(ctx, alice.ID)
	if err != nil {
		t.Fatalf("List alice: %v", err)
	}
	bobInbox, err := e.notifications.List(ctx, bob.ID)
	if err != nil {
		t.Fatalf("List bob: %v", err)
	}
	if len(aliceInbox) != 1 || !aliceInbox[0].IsRead {
		t.Fatalf("alice inbox should hold one read item")
	}
	if len(bobInbox) != 1 || bobInbox[0].IsRead {
		t.Fatalf("bob's delivery must stay unread")
	}

	n, err := e.notifications.MarkAllRead(ctx, bob.ID)
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if n != 1 {
		t.Fatalf("MarkAllRead: want=1 got=%d", n)
	}
}
