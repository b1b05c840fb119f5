package notification

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/modelhub-backend/internal/data/repos/testutil"
	types "github.com/yungbote/modelhub-backend/internal/domain"
	"github.com/yungbote/modelhub-backend/internal/domain/roles"
)

func TestNotificationRepoReadState(t *testing.T) {
	db := testutil.DB(t)
	repo := NewNotificationRepo(db, testutil.Logger(t))
	dbc := testutil.Ctx()

	a := testutil.SeedUser(t, db, "a", roles.Member)
	b := testutil.SeedUser(t, db, "b", roles.Member)

	n, err := repo.Create(dbc, &types.Notification{Message: "hello"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.CreateDeliveries(dbc, []*types.NotificationDelivery{
		{NotificationID: n.ID, UserID: a.ID},
		{NotificationID: n.ID, UserID: b.ID},
	}); err != nil {
		t.Fatalf("CreateDeliveries: %v", err)
	}

	now := time.Now().UTC()
	changed, err := repo.MarkRead(dbc, n.ID, a.ID, now)
	if err != nil || changed != 1 {
		t.Fatalf("MarkRead: want=1 got=%d err=%v", changed, err)
	}
	changed, err = repo.MarkRead(dbc, n.ID, a.ID, now)
	if err != nil || changed != 0 {
		t.Fatalf("MarkRead twice: want=0 got=%d err=%v", changed, err)
	}

	inboxA, err := repo.ListForUser(dbc, a.ID)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(inboxA) != 1 || !inboxA[0].IsRead || inboxA[0].Message != "hello" {
		t.Fatalf("inbox a: unexpected %+v", inboxA)
	}
	inboxB, _ := repo.ListForUser(dbc, b.ID)
	if len(inboxB) != 1 || inboxB[0].IsRead {
		t.Fatalf("inbox b must stay unread: %+v", inboxB)
	}

	ok, err := repo.DeliveryExists(dbc, n.ID, uuid.New())
	if err != nil || ok {
		t.Fatalf("DeliveryExists stranger: want=false got=%v err=%v", ok, err)
	}

	changed, err = repo.MarkAllRead(dbc, b.ID, now)
	if err != nil || changed != 1 {
		t.Fatalf("MarkAllRead: want=1 got=%d err=%v", changed, err)
	}
}
