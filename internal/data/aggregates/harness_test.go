package aggregates

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/modelhub-backend/internal/data/repos"
	repotest "github.com/yungbote/modelhub-backend/internal/data/repos/testutil"
	types "github.com/yungbote/modelhub-backend/internal/domain"
	"github.com/yungbote/modelhub-backend/internal/platform/dbctx"
)

type harness struct {
	db    *gorm.DB
	repos repos.Set
	base  BaseDeps
	hooks *hookRecorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := repotest.DB(t)
	log := repotest.Logger(t)
	hooks := &hookRecorder{}
	return &harness{
		db:    db,
		repos: repos.NewSet(db, log),
		base:  BaseDeps{DB: db, Log: log, Hooks: hooks},
		hooks: hooks,
	}
}

func (h *harness) registry() *modelRegistryAggregate {
	return NewModelRegistryAggregate(ModelRegistryAggregateDeps{
		Base:          h.base,
		Models:        h.repos.Models,
		Users:         h.repos.Users,
		Contributions: h.repos.Contributions,
		Links:         h.repos.Links,
		Notifications: h.repos.Notifications,
		Ratings:       h.repos.Ratings,
		Comments:      h.repos.Comments,
	}).(*modelRegistryAggregate)
}

func (h *harness) contributions() *contributionAggregate {
	return NewContributionAggregate(ContributionAggregateDeps{
		Base:          h.base,
		Contributions: h.repos.Contributions,
		Links:         h.repos.Links,
		Models:        h.repos.Models,
		Users:         h.repos.Users,
		Notifications: h.repos.Notifications,
	}).(*contributionAggregate)
}

func (h *harness) experimental() *experimentalModelAggregate {
	return NewExperimentalModelAggregate(ExperimentalModelAggregateDeps{
		Base:          h.base,
		Models:        h.repos.Models,
		Contributions: h.repos.Contributions,
		Links:         h.repos.Links,
		Users:         h.repos.Users,
		Notifications: h.repos.Notifications,
	}).(*experimentalModelAggregate)
}

func (h *harness) notifications() *notificationAggregate {
	return NewNotificationAggregate(NotificationAggregateDeps{
		Base:          h.base,
		Users:         h.repos.Users,
		Notifications: h.repos.Notifications,
	}).(*notificationAggregate)
}

func (h *harness) users() *userAggregate {
	return NewUserAggregate(UserAggregateDeps{
		Base:          h.base,
		Users:         h.repos.Users,
		Roles:         h.repos.Roles,
		Contributions: h.repos.Contributions,
		Links:         h.repos.Links,
		Notifications: h.repos.Notifications,
		Ratings:       h.repos.Ratings,
		Comments:      h.repos.Comments,
	}).(*userAggregate)
}

func (h *harness) dbc() dbctx.Context {
	return dbctx.Context{Ctx: context.Background()}
}

func (h *harness) countDeliveries(t *testing.T, userID uuid.UUID) int64 {
	t.Helper()
	var n int64
	if err := h.db.Model(&types.NotificationDelivery{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		t.Fatalf("count deliveries: %v", err)
	}
	return n
}

func (h *harness) countNotifications(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := h.db.Model(&types.Notification{}).Count(&n).Error; err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	return n
}

func (h *harness) user(t *testing.T, id uuid.UUID) *types.User {
	t.Helper()
	u, err := h.repos.Users.GetByID(h.dbc(), id)
	if err != nil || u == nil {
		t.Fatalf("load user %s: %v", id, err)
	}
	return u
}

func (h *harness) contribution(t *testing.T, id uuid.UUID) *types.Contribution {
	t.Helper()
	c, err := h.repos.Contributions.GetByID(h.dbc(), id)
	if err != nil || c == nil {
		t.Fatalf("load contribution %s: %v", id, err)
	}
	return c
}
