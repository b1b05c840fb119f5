package services

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/modelhub-backend/internal/data/repos"
	repotest "github.com/yungbote/modelhub-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/modelhub-backend/internal/domain/aggregates"
	"github.com/yungbote/modelhub-backend/internal/domain/contribution"
	"github.com/yungbote/modelhub-backend/internal/domain/registry"
	"github.com/yungbote/modelhub-backend/internal/domain/roles"
)

func decodeLayers(t *testing.T, raw []byte) [][]float64 {
	t.Helper()
	var p struct {
		Weights [][]float64 `json:"weights"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		t.Fatalf("decode weights: %v", err)
	}
	return p.Weights
}

func TestCreateExperimentalModelEndToEnd(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "admin", roles.Admin)
	researcher := e.user(t, "res", roles.Researcher)

	target := repotest.SeedModel(t, e.db, 3, registry.StatusActive, repotest.Payload(t, []float64{1, 2}, []float64{3, 4}))
	c := repotest.SeedContribution(t, e.db, researcher.ID, &target.ID, contribution.StatusApproved, repotest.Payload(t, []float64{3, 4}, []float64{5, 6}))

	m, err := e.aggregation.CreateExperimentalModel(ctx, admin.ID, CreateExperimentalModelRequest{
		TargetModelID:   target.ID,
		ContributionIDs: []uuid.UUID{c.ID},
		Name:            "merged",
		Description:     "first merge",
	})
	if err != nil {
		t.Fatalf("CreateExperimentalModel: %v", err)
	}
	if m.Version != 4 || m.Status != registry.StatusExperimental {
		t.Fatalf("model: want=v4 experimental got=v%d %s", m.Version, m.Status)
	}
	got := decodeLayers(t, m.WeightsPayload)
	want := [][]float64{{2, 3}, {4, 5}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("weights: want=%v got=%v", want, got)
	}
	if string(m.Metrics) != string(target.Metrics) {
		t.Fatalf("metrics: want=%s got=%s", target.Metrics, m.Metrics)
	}

	after := e.reloadContribution(t, c.ID)
	if after.Status != contribution.StatusAggregated || after.PointsEarned != 10 {
		t.Fatalf("contribution: want=aggregated/10 got=%s/%d", after.Status, after.PointsEarned)
	}
	if pts := e.reloadUser(t, researcher.ID).TotalPoints; pts != 10 {
		t.Fatalf("researcher points: want=10 got=%d", pts)
	}
	inbox, err := e.notifications.List(ctx, researcher.ID)
	if err != nil {
		t.Fatalf("List notifications: %v", err)
	}
	if len(inbox) != 1 {
		t.Fatalf("researcher inbox: want=1 got=%d", len(inbox))
	}
	if e.bus.count() != 1 {
		t.Fatalf("bus events: want=1 got=%d", e.bus.count())
	}
}

func TestCreateExperimentalModelChecksPermissionFirst(t *testing.T) {
	e := newEnv(t)
	researcher := e.user(t, "res", roles.Researcher)

	// Invalid input and a missing target would both fail later; the gate wins.
	_, err := e.aggregation.CreateExperimentalModel(context.Background(), researcher.ID, CreateExperimentalModelRequest{})
	if !domainagg.IsCode(err, domainagg.CodePermissionDenied) {
		t.Fatalf("want permission_denied got=%v", err)
	}
}

func TestCreateExperimentalModelValidation(t *testing.T) {
	e := newEnv(t)
	admin := e.user(t, "admin", roles.Admin)
	target := repotest.SeedModel(t, e.db, 1, registry.StatusActive, repotest.Payload(t, []float64{1}))

	neg := -1
	cases := []struct {
		name string
		req  CreateExperimentalModelRequest
	}{
		{"no contributions", CreateExperimentalModelRequest{TargetModelID: target.ID, Name: "n", Description: "d"}},
		{"blank name", CreateExperimentalModelRequest{TargetModelID: target.ID, ContributionIDs: []uuid.UUID{uuid.New()}, Name: "  ", Description: "d"}},
		{"blank description", CreateExperimentalModelRequest{TargetModelID: target.ID, ContributionIDs: []uuid.UUID{uuid.New()}, Name: "n"}},
		{"nil target", CreateExperimentalModelRequest{ContributionIDs: []uuid.UUID{uuid.New()}, Name: "n", Description: "d"}},
		{"negative points", CreateExperimentalModelRequest{TargetModelID: target.ID, ContributionIDs: []uuid.UUID{uuid.New()}, Name: "n", Description: "d", PointsPerContribution: &neg}},
	}
	for _, tc := range cases {
		_, err := e.aggregation.CreateExperimentalModel(context.Background(), admin.ID, tc.req)
		if !domainagg.IsCode(err, domainagg.CodeValidation) {
			t.Fatalf("%s: want validation got=%v", tc.name, err)
		}
	}
}

func TestCreateExperimentalModelNotFound(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "admin", roles.Admin)
	target := repotest.SeedModel(t, e.db, 1, registry.StatusActive, repotest.Payload(t, []float64{1}))

	_, err := e.aggregation.CreateExperimentalModel(ctx, admin.ID, CreateExperimentalModelRequest{
		TargetModelID: uuid.New(), ContributionIDs: []uuid.UUID{uuid.New()}, Name: "n", Description: "d",
	})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("missing target: want not_found got=%v", err)
	}

	_, err = e.aggregation.CreateExperimentalModel(ctx, admin.ID, CreateExperimentalModelRequest{
		TargetModelID: target.ID, ContributionIDs: []uuid.UUID{uuid.New()}, Name: "n", Description: "d",
	})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("no contributions: want not_found got=%v", err)
	}
}

func TestCreateExperimentalModelSkipsMissingContributions(t *testing.T) {
	e := newEnv(t)
	admin := e.user(t, "admin", roles.Admin)
	researcher := e.user(t, "res", roles.Researcher)
	target := repotest.SeedModel(t, e.db, 1, registry.StatusActive, repotest.Payload(t, []float64{0, 0}))
	c := repotest.SeedContribution(t, e.db, researcher.ID, &target.ID, contribution.StatusPending, repotest.Payload(t, []float64{2, 4}))

	m, err := e.aggregation.CreateExperimentalModel(context.Background(), admin.ID, CreateExperimentalModelRequest{
		TargetModelID:   target.ID,
		ContributionIDs: []uuid.UUID{uuid.New(), c.ID},
		Name:            "n",
		Description:     "d",
	})
	if err != nil {
		t.Fatalf("CreateExperimentalModel: %v", err)
	}
	if got := decodeLayers(t, m.WeightsPayload); !reflect.DeepEqual(got, [][]float64{{1, 2}}) {
		t.Fatalf("weights: got=%v", got)
	}
}

func TestCreateExperimentalModelRejectsForeignTarget(t *testing.T) {
	e := newEnv(t)
	admin := e.user(t, "admin", roles.Admin)
	researcher := e.user(t, "res", roles.Researcher)
	target := repotest.SeedModel(t, e.db, 1, registry.StatusActive, repotest.Payload(t, []float64{1}))
	other := repotest.SeedModel(t, e.db, 2, registry.StatusActive, repotest.Payload(t, []float64{1}))
	mine := repotest.SeedContribution(t, e.db, researcher.ID, &target.ID, contribution.StatusApproved, repotest.Payload(t, []float64{1}))
	foreign := repotest.SeedContribution(t, e.db, researcher.ID, &other.ID, contribution.StatusApproved, repotest.Payload(t, []float64{1}))

	_, err := e.aggregation.CreateExperimentalModel(context.Background(), admin.ID, CreateExperimentalModelRequest{
		TargetModelID:   target.ID,
		ContributionIDs: []uuid.UUID{mine.ID, foreign.ID},
		Name:            "n",
		Description:     "d",
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("want validation got=%v", err)
	}
	if !strings.Contains(err.Error(), "all contributions must target the same model") {
		t.Fatalf("message: got=%v", err)
	}
	if e.reloadContribution(t, mine.ID).Status != contribution.StatusApproved {
		t.Fatalf("contribution changed after failed aggregation")
	}
}

func TestCreateExperimentalModelMismatchErrors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "admin", roles.Admin)
	researcher := e.user(t, "res", roles.Researcher)
	target := repotest.SeedModel(t, e.db, 1, registry.StatusActive, repotest.Payload(t, []float64{1, 2}, []float64{3}))

	short := repotest.SeedContribution(t, e.db, researcher.ID, &target.ID, contribution.StatusApproved, repotest.Payload(t, []float64{1, 2}))
	_, err := e.aggregation.CreateExperimentalModel(ctx, admin.ID, CreateExperimentalModelRequest{
		TargetModelID: target.ID, ContributionIDs: []uuid.UUID{short.ID}, Name: "n", Description: "d",
	})
	if !domainagg.IsCode(err, domainagg.CodeStructureMismatch) {
		t.Fatalf("structure: want structure_mismatch got=%v", err)
	}
	if !strings.Contains(err.Error(), short.ID.String()) {
		t.Fatalf("structure message should name the contribution: %v", err)
	}

	wide := repotest.SeedContribution(t, e.db, researcher.ID, &target.ID, contribution.StatusApproved, repotest.Payload(t, []float64{1, 2}, []float64{3, 4}))
	_, err = e.aggregation.CreateExperimentalModel(ctx, admin.ID, CreateExperimentalModelRequest{
		TargetModelID: target.ID, ContributionIDs: []uuid.UUID{wide.ID}, Name: "n", Description: "d",
	})
	if !domainagg.IsCode(err, domainagg.CodeShapeMismatch) {
		t.Fatalf("shape: want shape_mismatch got=%v", err)
	}
	if !strings.Contains(err.Error(), "layer 1") {
		t.Fatalf("shape message should name the layer: %v", err)
	}

	models, err := e.models.List(ctx, admin.ID, repos.ModelFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(models) != 1 {
		t.Fatalf("no model may be created on mismatch, got=%d", len(models))
	}
}

func TestCreateExperimentalModelReadsBlobPayloads(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "admin", roles.Admin)
	researcher := e.user(t, "res", roles.Researcher)
	target := repotest.SeedModel(t, e.db, 1, registry.StatusActive, repotest.Payload(t, []float64{0, 0}))

	c, err := e.contributions.Submit(ctx, researcher.ID, SubmitContributionRequest{
		TargetModelID: target.ID,
		File:          &WeightsFile{Filename: "w.json", Data: []byte(`{"weights":[[4,8]]}`)},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if c.WeightsRef == "" || len(c.WeightsPayload) != 0 {
		t.Fatalf("file submission should be stored by reference: ref=%q inline=%d", c.WeightsRef, len(c.WeightsPayload))
	}

	pts := 3
	m, err := e.aggregation.CreateExperimentalModel(ctx, admin.ID, CreateExperimentalModelRequest{
		TargetModelID:         target.ID,
		ContributionIDs:       []uuid.UUID{c.ID},
		Name:                  "n",
		Description:           "d",
		PointsPerContribution: &pts,
	})
	if err != nil {
		t.Fatalf("CreateExperimentalModel: %v", err)
	}
	if got := decodeLayers(t, m.WeightsPayload); !reflect.DeepEqual(got, [][]float64{{2, 4}}) {
		t.Fatalf("weights: got=%v", got)
	}
	if got := e.reloadContribution(t, c.ID).PointsEarned; got != 3 {
		t.Fatalf("points: want=3 got=%d", got)
	}
}
