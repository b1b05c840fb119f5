package aggregates

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"testing"

	repotest "github.com/yungbote/modelhub-backend/internal/data/repos/testutil"
	types "github.com/yungbote/modelhub-backend/internal/domain"
	domainagg "github.com/yungbote/modelhub-backend/internal/domain/aggregates"
	"github.com/yungbote/modelhub-backend/internal/domain/roles"
)

func TestCreateModelAssignsNextVersionAndDefaults(t *testing.T) {
	h := newHarness(t)
	repotest.SeedModel(t, h.db, 7, types.ModelStatusActive, repotest.Payload(t, []float64{1}))

	res, err := h.registry().CreateModel(context.Background(), domainagg.CreateModelInput{
		Name:           "  brain-mri ",
		Description:    "baseline",
		WeightsPayload: json.RawMessage(repotest.Payload(t, []float64{1})),
	})
	if err != nil {
		t.Fatalf("CreateModel: %v", err)
	}
	if res.Model.Version != 8 {
		t.Fatalf("version: want=8 got=%d", res.Model.Version)
	}
	if res.Model.Name != "brain-mri" || res.Model.Status != types.ModelStatusExperimental {
		t.Fatalf("model: got name=%q status=%q", res.Model.Name, res.Model.Status)
	}
	var metrics map[string]float64
	if err := json.Unmarshal(res.Model.Metrics, &metrics); err != nil {
		t.Fatalf("metrics: %v", err)
	}
	for _, k := range []string{"accuracy", "precision", "recall", "f1_score"} {
		if v, ok := metrics[k]; !ok || v != 0 {
			t.Fatalf("default metric %s: got=%v ok=%v", k, v, ok)
		}
	}
}

func TestCreateModelValidation(t *testing.T) {
	h := newHarness(t)
	cases := []domainagg.CreateModelInput{
		{Description: "d", WeightsRef: "models/a"},
		{Name: "n", WeightsRef: "models/a"},
		{Name: "n", Description: "d"},
		{Name: "n", Description: "d", WeightsPayload: json.RawMessage(`{"layers":[]}`)},
		{Name: "n", Description: "d", WeightsRef: "models/a", Metrics: json.RawMessage(`[1,2]`)},
	}
	for i, in := range cases {
		if _, err := h.registry().CreateModel(context.Background(), in); !domainagg.IsCode(err, domainagg.CodeValidation) {
			t.Fatalf("case %d: want validation got %v", i, err)
		}
	}
	if v, _ := h.repos.Models.MaxVersion(h.dbc()); v != 0 {
		t.Fatalf("no rows expected, max version=%d", v)
	}
}

func TestCreateModelConcurrentVersionsAreUnique(t *testing.T) {
	h := newHarness(t)
	h.base.Hooks = nil
	reg := h.registry()

	const n = 8
	var wg sync.WaitGroup
	versions := make([]int, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := reg.CreateModel(context.Background(), domainagg.CreateModelInput{
				Name:        fmt.Sprintf("m%d", i),
				Description: "concurrent",
				WeightsRef:  fmt.Sprintf("models/m%d", i),
			})
			errs[i] = err
			if err == nil {
				versions[i] = res.Model.Version
			}
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("CreateModel %d: %v", i, err)
		}
	}
	sort.Ints(versions)
	for i, v := range versions {
		if v != i+1 {
			t.Fatalf("versions: want 1..%d got %v", n, versions)
		}
	}
}

func TestPublishBroadcastsToMembersAndResearchers(t *testing.T) {
	h := newHarness(t)
	visitor := repotest.SeedUser(t, h.db, "visitor", roles.Visitor)
	member := repotest.SeedUser(t, h.db, "member", roles.Member)
	researcher := repotest.SeedUser(t, h.db, "researcher", roles.Researcher)
	admin := repotest.SeedUser(t, h.db, "admin", roles.Admin)
	m := repotest.SeedModel(t, h.db, 5, types.ModelStatusExperimental, repotest.Payload(t, []float64{1}))

	res, err := h.registry().Publish(context.Background(), domainagg.PublishModelInput{ModelID: m.ID})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if res.Model.Status != types.ModelStatusActive || res.Model.PublishedAt == nil {
		t.Fatalf("published model: status=%s published_at=%v", res.Model.Status, res.Model.PublishedAt)
	}
	if res.Broadcast.Message != "New model version 5 has been published!" {
		t.Fatalf("message: got=%q", res.Broadcast.Message)
	}
	if len(res.Broadcast.Recipients) != 2 {
		t.Fatalf("recipients: want=2 got=%d", len(res.Broadcast.Recipients))
	}
	for id, want := range map[string]int64{
		visitor.Username:    0,
		member.Username:     1,
		researcher.Username: 1,
		admin.Username:      0,
	} {
		u, _ := h.repos.Users.GetByUsername(h.dbc(), id)
		if got := h.countDeliveries(t, u.ID); got != want {
			t.Fatalf("deliveries for %s: want=%d got=%d", id, want, got)
		}
	}
	stored, _ := h.repos.Models.GetByID(h.dbc(), m.ID)
	if stored.Status != types.ModelStatusActive {
		t.Fatalf("stored status: got=%s", stored.Status)
	}
}

func TestPublishRejectsNonExperimental(t *testing.T) {
	h := newHarness(t)
	repotest.SeedUser(t, h.db, "member", roles.Member)
	m := repotest.SeedModel(t, h.db, 1, types.ModelStatusActive, repotest.Payload(t, []float64{1}))

	_, err := h.registry().Publish(context.Background(), domainagg.PublishModelInput{ModelID: m.ID})
	if !domainagg.IsCode(err, domainagg.CodeInvalidState) {
		t.Fatalf("want invalid_state got %v", err)
	}
	if n := h.countNotifications(t); n != 0 {
		t.Fatalf("notifications: want=0 got=%d", n)
	}
}

func TestPublishWithoutAudienceSkipsNotification(t *testing.T) {
	h := newHarness(t)
	repotest.SeedUser(t, h.db, "admin", roles.Admin)
	m := repotest.SeedModel(t, h.db, 1, types.ModelStatusExperimental, repotest.Payload(t, []float64{1}))

	res, err := h.registry().Publish(context.Background(), domainagg.PublishModelInput{ModelID: m.ID})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(res.Broadcast.Recipients) != 0 {
		t.Fatalf("recipients: want none got %v", res.Broadcast.Recipients)
	}
	if n := h.countNotifications(t); n != 0 {
		t.Fatalf("notifications: want=0 got=%d", n)
	}
}

func TestUpdateModelPatchesFields(t *testing.T) {
	h := newHarness(t)
	m := repotest.SeedModel(t, h.db, 1, types.ModelStatusActive, repotest.Payload(t, []float64{1}))
	name := "renamed"
	got, err := h.registry().UpdateModel(context.Background(), domainagg.UpdateModelInput{
		ModelID: m.ID,
		Name:    &name,
		Metrics: json.RawMessage(`{"accuracy":0.97}`),
	})
	if err != nil {
		t.Fatalf("UpdateModel: %v", err)
	}
	if got.Name != "renamed" || got.Description != m.Description || got.Version != 1 {
		t.Fatalf("updated model: %+v", got)
	}
	if string(got.Metrics) != `{"accuracy":0.97}` {
		t.Fatalf("metrics: got=%s", got.Metrics)
	}
	empty := " "
	if _, err := h.registry().UpdateModel(context.Background(), domainagg.UpdateModelInput{ModelID: m.ID, Name: &empty}); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("blank name: want validation got %v", err)
	}
}

func TestDeleteModelCascades(t *testing.T) {
	h := newHarness(t)
	researcher := repotest.SeedUser(t, h.db, "res", roles.Researcher)
	payload := repotest.Payload(t, []float64{1})
	doomed := repotest.SeedModel(t, h.db, 1, types.ModelStatusActive, payload)
	other := repotest.SeedModel(t, h.db, 2, types.ModelStatusExperimental, payload)
	c := repotest.SeedContribution(t, h.db, researcher.ID, &doomed.ID, types.ContributionAggregated, payload)
	repotest.SeedLink(t, h.db, other.ID, c.ID)
	if err := h.repos.Ratings.Upsert(h.dbc(), &types.Rating{UserID: researcher.ID, ModelID: doomed.ID, Rating: 4}); err != nil {
		t.Fatalf("seed rating: %v", err)
	}
	if err := h.repos.Comments.Create(h.dbc(), &types.Comment{UserID: researcher.ID, ModelID: doomed.ID, Text: "nice"}); err != nil {
		t.Fatalf("seed comment: %v", err)
	}

	res, err := h.registry().DeleteModel(context.Background(), domainagg.DeleteModelInput{ModelID: doomed.ID})
	if err != nil {
		t.Fatalf("DeleteModel: %v", err)
	}
	if res.RemovedContributions != 1 {
		t.Fatalf("removed contributions: want=1 got=%d", res.RemovedContributions)
	}
	if m, _ := h.repos.Models.GetByID(h.dbc(), doomed.ID); m != nil {
		t.Fatalf("model still present")
	}
	if got, _ := h.repos.Contributions.GetByID(h.dbc(), c.ID); got != nil {
		t.Fatalf("contribution still present")
	}
	if links, _ := h.repos.Links.ListByModel(h.dbc(), other.ID); len(links) != 0 {
		t.Fatalf("links: want none got %d", len(links))
	}
	if rs, _ := h.repos.Ratings.ListByModel(h.dbc(), doomed.ID); len(rs) != 0 {
		t.Fatalf("ratings remain: %d", len(rs))
	}
	if m, _ := h.repos.Models.GetByID(h.dbc(), other.ID); m == nil {
		t.Fatalf("unrelated model was deleted")
	}

	if _, err := h.registry().DeleteModel(context.Background(), domainagg.DeleteModelInput{ModelID: doomed.ID}); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("second delete: want not_found got %v", err)
	}
}
