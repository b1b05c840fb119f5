package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	repotest "github.com/yungbote/modelhub-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/modelhub-backend/internal/domain/aggregates"
	"github.com/yungbote/modelhub-backend/internal/domain/contribution"
	"github.com/yungbote/modelhub-backend/internal/domain/registry"
	"github.com/yungbote/modelhub-backend/internal/domain/roles"
)

func TestSubmitContribution(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	researcher := e.user(t, "res", roles.Researcher)
	member := e.user(t, "member", roles.Member)
	m := repotest.SeedModel(t, e.db, 1, registry.StatusActive, repotest.Payload(t, []float64{1}))

	req := SubmitContributionRequest{TargetModelID: m.ID, WeightsPayload: json.RawMessage(`{"weights":[[1]]}`)}
	if _, err := e.contributions.Submit(ctx, member.ID, req); !domainagg.IsCode(err, domainagg.CodePermissionDenied) {
		t.Fatalf("member submit: want permission_denied got=%v", err)
	}
	c, err := e.contributions.Submit(ctx, researcher.ID, req)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if c.Status != contribution.StatusPending || c.PointsEarned != 0 {
		t.Fatalf("new contribution: got %s/%d", c.Status, c.PointsEarned)
	}

	bad := []SubmitContributionRequest{
		{TargetModelID: m.ID},
		{TargetModelID: m.ID, WeightsPayload: json.RawMessage(`{"weights":[[[1],[2,3]]]}`)},
		{TargetModelID: m.ID, File: &WeightsFile{Filename: "w.h5", Data: []byte{0x89, 0x48}}},
	}
	for i, r := range bad {
		if _, err := e.contributions.Submit(ctx, researcher.ID, r); !domainagg.IsCode(err, domainagg.CodeValidation) {
			t.Fatalf("bad submit %d: want validation got=%v", i, err)
		}
	}
	req.TargetModelID = uuid.New()
	if _, err := e.contributions.Submit(ctx, researcher.ID, req); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("unknown target: want not_found got=%v", err)
	}
}

func TestContributionReviewFlow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "admin", roles.Admin)
	researcher := e.user(t, "res", roles.Researcher)
	m := repotest.SeedModel(t, e.db, 1, registry.StatusActive, repotest.Payload(t, []float64{1}))
	pending := repotest.SeedContribution(t, e.db, researcher.ID, &m.ID, contribution.StatusPending, repotest.Payload(t, []float64{2}))
	repotest.SeedContribution(t, e.db, researcher.ID, &m.ID, contribution.StatusRejected, repotest.Payload(t, []float64{3}))

	queue, err := e.contributions.ListForReview(ctx, admin.ID, "pending")
	if err != nil {
		t.Fatalf("ListForReview: %v", err)
	}
	if len(queue) != 1 || queue[0].ID != pending.ID {
		t.Fatalf("pending queue should hold only pending, got=%d", len(queue))
	}
	for _, filter := range []string{"all", " ALL ", ""} {
		rows, err := e.contributions.ListForReview(ctx, admin.ID, filter)
		if err != nil {
			t.Fatalf("ListForReview(%q): %v", filter, err)
		}
		if len(rows) != 2 {
			t.Fatalf("ListForReview(%q): want=2 got=%d", filter, len(rows))
		}
	}
	if _, err := e.contributions.ListForReview(ctx, admin.ID, "merged"); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("unknown status: want validation got=%v", err)
	}
	if _, err := e.contributions.ListForReview(ctx, researcher.ID, ""); !domainagg.IsCode(err, domainagg.CodePermissionDenied) {
		t.Fatalf("researcher review: want permission_denied got=%v", err)
	}

	updated, err := e.contributions.UpdateStatus(ctx, admin.ID, pending.ID, "Approved", 15)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != contribution.StatusApproved || updated.PointsEarned != 15 {
		t.Fatalf("approved: got %s/%d", updated.Status, updated.PointsEarned)
	}
	if pts := e.reloadUser(t, researcher.ID).TotalPoints; pts != 15 {
		t.Fatalf("points: want=15 got=%d", pts)
	}
	if e.bus.count() != 1 {
		t.Fatalf("bus events: want=1 got=%d", e.bus.count())
	}
	if _, err := e.contributions.UpdateStatus(ctx, admin.ID, pending.ID, contribution.StatusRejected, 0); !domainagg.IsCode(err, domainagg.CodeInvalidState) {
		t.Fatalf("approved->rejected: want invalid_state got=%v", err)
	}

	mine, err := e.contributions.ListMine(ctx, researcher.ID)
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("ListMine: want=2 got=%d", len(mine))
	}

	raw, err := e.contributions.GetWeights(ctx, admin.ID, pending.ID)
	if err != nil {
		t.Fatalf("GetWeights: %v", err)
	}
	if got := decodeLayers(t, raw); len(got) != 1 || got[0][0] != 2 {
		t.Fatalf("weights: got=%v", got)
	}
	if _, err := e.contributions.GetWeights(ctx, researcher.ID, pending.ID); !domainagg.IsCode(err, domainagg.CodePermissionDenied) {
		t.Fatalf("researcher weights: want permission_denied got=%v", err)
	}
}

func TestDeleteContributionRules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "admin", roles.Admin)
	owner := e.user(t, "owner", roles.Researcher)
	other := e.user(t, "other", roles.Researcher)
	m := repotest.SeedModel(t, e.db, 1, registry.StatusActive, repotest.Payload(t, []float64{1}))
	pending := repotest.SeedContribution(t, e.db, owner.ID, &m.ID, contribution.StatusPending, repotest.Payload(t, []float64{1}))
	approved := repotest.SeedContribution(t, e.db, owner.ID, &m.ID, contribution.StatusApproved, repotest.Payload(t, []float64{1}))

	if err := e.contributions.Delete(ctx, other.ID, pending.ID); !domainagg.IsCode(err, domainagg.CodePermissionDenied) {
		t.Fatalf("stranger delete: want permission_denied got=%v", err)
	}
	if err := e.contributions.Delete(ctx, owner.ID, approved.ID); !domainagg.IsCode(err, domainagg.CodePermissionDenied) {
		t.Fatalf("owner delete approved: want permission_denied got=%v", err)
	}
	missing, err := e.contributions.Delete(ctx, other.ID, uuid.New()), e.contributions.Delete(ctx, other.ID, pending.ID)
	if !domainagg.IsCode(missing, domainagg.CodePermissionDenied) || domainagg.CodeOf(missing) != domainagg.CodeOf(err) {
		t.Fatalf("missing vs foreign contribution must look alike: missing=%v foreign=%v", missing, err)
	}
	if err := e.contributions.Delete(ctx, owner.ID, pending.ID); err != nil {
		t.Fatalf("owner delete pending: %v", err)
	}
	if err := e.contributions.Delete(ctx, admin.ID, approved.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
}
