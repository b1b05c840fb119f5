package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	repotest "github.com/yungbote/modelhub-backend/internal/data/repos/testutil"
	types "github.com/yungbote/modelhub-backend/internal/domain"
	domainagg "github.com/yungbote/modelhub-backend/internal/domain/aggregates"
	"github.com/yungbote/modelhub-backend/internal/domain/roles"
)

func TestPermissionGate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "admin", roles.Admin)
	member := e.user(t, "member", roles.Member)
	inactive := e.user(t, "gone", roles.Admin)
	if err := e.db.Model(&types.User{}).Where("id = ?", inactive.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if err := e.db.Create(&types.Role{ID: 99, Name: "Owner"}).Error; err != nil {
		t.Fatalf("seed odd role: %v", err)
	}
	odd := repotest.SeedUser(t, e.db, "odd", roles.Visitor)
	if err := e.db.Model(&types.User{}).Where("id = ?", odd.ID).Update("role_id", 99).Error; err != nil {
		t.Fatalf("assign odd role: %v", err)
	}

	cases := []struct {
		name     string
		userID   uuid.UUID
		required roles.Role
		want     bool
	}{
		{"admin passes admin", admin.ID, roles.Admin, true},
		{"admin passes member", admin.ID, roles.Member, true},
		{"member passes visitor", member.ID, roles.Visitor, true},
		{"member fails researcher", member.ID, roles.Researcher, false},
		{"inactive admin fails", inactive.ID, roles.Visitor, false},
		{"unknown role fails", odd.ID, roles.Visitor, false},
		{"missing user fails", uuid.New(), roles.Visitor, false},
		{"nil user fails", uuid.Nil, roles.Visitor, false},
	}
	for _, tc := range cases {
		if got := e.gate.HasPermission(ctx, tc.userID, tc.required); got != tc.want {
			t.Fatalf("%s: want=%v got=%v", tc.name, tc.want, got)
		}
	}

	_, err := e.gate.Require(ctx, "Test.Op", member.ID, roles.Admin)
	if !domainagg.IsCode(err, domainagg.CodePermissionDenied) {
		t.Fatalf("Require: want permission_denied got=%v", err)
	}
}
