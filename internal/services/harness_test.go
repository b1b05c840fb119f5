package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/modelhub-backend/internal/data/aggregates"
	"github.com/yungbote/modelhub-backend/internal/data/repos"
	repotest "github.com/yungbote/modelhub-backend/internal/data/repos/testutil"
	types "github.com/yungbote/modelhub-backend/internal/domain"
	"github.com/yungbote/modelhub-backend/internal/domain/roles"
	"github.com/yungbote/modelhub-backend/internal/platform/blobstore"
	"github.com/yungbote/modelhub-backend/internal/platform/dbctx"
	"github.com/yungbote/modelhub-backend/internal/platform/inference"
	"github.com/yungbote/modelhub-backend/internal/platform/redisbus"
)

type recordingBus struct {
	mu     sync.Mutex
	events []redisbus.Event
}

func (b *recordingBus) Publish(_ context.Context, ev redisbus.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
	return nil
}

func (b *recordingBus) StartForwarder(context.Context, func(redisbus.Event)) error { return nil }
func (b *recordingBus) Close() error { return nil }

func (b *recordingBus) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

type fakeInference struct {
	calls  int
	last   inference.Request
	scores []float64
	err    error
}

func (f *fakeInference) Predict(_ context.Context, req inference.Request) (inference.Response, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return inference.Response{}, f.err
	}
	return inference.Response{Scores: f.scores}, nil
}

type env struct {
	db    *gorm.DB
	repos repos.Set
	blobs blobstore.Store
	bus   *recordingBus
	infer *fakeInference
	gate  PermissionGate

	models        ModelService
	contributions ContributionService
	aggregation   AggregationService
	notifications NotificationService
	users         UserService
	auth          AuthService
	feedback      FeedbackService
	prediction    PredictionService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := repotest.DB(t)
	log := repotest.Logger(t)
	set := repos.NewSet(db, log)
	base := aggregates.BaseDeps{DB: db, Log: log, Hooks: aggregates.NewLogHooks(log)}

	registryAgg := aggregates.NewModelRegistryAggregate(aggregates.ModelRegistryAggregateDeps{
		Base:          base,
		Models:        set.Models,
		Users:         set.Users,
		Contributions: set.Contributions,
		Links:         set.Links,
		Notifications: set.Notifications,
		Ratings:       set.Ratings,
		Comments:      set.Comments,
	})
	contribAgg := aggregates.NewContributionAggregate(aggregates.ContributionAggregateDeps{
		Base:          base,
		Contributions: set.Contributions,
		Links:         set.Links,
		Models:        set.Models,
		Users:         set.Users,
		Notifications: set.Notifications,
	})
	experimentalAgg := aggregates.NewExperimentalModelAggregate(aggregates.ExperimentalModelAggregateDeps{
		Base:          base,
		Models:        set.Models,
		Contributions: set.Contributions,
		Links:         set.Links,
		Users:         set.Users,
		Notifications: set.Notifications,
	})
	notificationAgg := aggregates.NewNotificationAggregate(aggregates.NotificationAggregateDeps{
		Base:          base,
		Users:         set.Users,
		Notifications: set.Notifications,
	})
	userAgg := aggregates.NewUserAggregate(aggregates.UserAggregateDeps{
		Base:          base,
		Users:         set.Users,
		Roles:         set.Roles,
		Contributions: set.Contributions,
		Links:         set.Links,
		Notifications: set.Notifications,
		Ratings:       set.Ratings,
		Comments:      set.Comments,
	})

	blobs := blobstore.NewMemory()
	bus := &recordingBus{}
	infer := &fakeInference{scores: []float64{0.1, 0.2, 0.6, 0.1}}
	gate := NewPermissionGate(log, set.Users)

	return &env{
		db:            db,
		repos:         set,
		blobs:         blobs,
		bus:           bus,
		infer:         infer,
		gate:          gate,
		models:        NewModelService(log, gate, set.Models, registryAgg, blobs, bus),
		contributions: NewContributionService(log, gate, set.Contributions, contribAgg, blobs, bus),
		aggregation:   NewAggregationService(log, gate, set.Models, set.Contributions, experimentalAgg, blobs, bus, DefaultPointsPerContribution),
		notifications: NewNotificationService(log, gate, set.Notifications, notificationAgg, bus),
		users:         NewUserService(log, gate, set.Users, userAgg),
		auth:          NewAuthService(log, set.Users, set.Roles, "test-secret"),
		feedback:      NewFeedbackService(log, gate, set.Models, set.Ratings, set.Comments),
		prediction:    NewPredictionService(log, gate, set.Models, infer),
	}
}

func (e *env) user(t *testing.T, name string, role roles.Role) *types.User {
	t.Helper()
	return repotest.SeedUser(t, e.db, name, role)
}

func (e *env) reloadUser(t *testing.T, id uuid.UUID) *types.User {
	t.Helper()
	u, err := e.repos.Users.GetByID(dbctx.Context{Ctx: context.Background()}, id)
	if err != nil || u == nil {
		t.Fatalf("load user %s: %v", id, err)
	}
	return u
}

func (e *env) reloadContribution(t *testing.T, id uuid.UUID) *types.Contribution {
	t.Helper()
	c, err := e.repos.Contributions.GetByID(dbctx.Context{Ctx: context.Background()}, id)
	if err != nil || c == nil {
		t.Fatalf("load contribution %s: %v", id, err)
	}
	return c
}
