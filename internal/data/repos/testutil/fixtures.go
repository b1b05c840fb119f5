package testutil

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/modelhub-backend/internal/domain"
	"github.com/yungbote/modelhub-backend/internal/domain/roles"
)

func SeedUser(tb testing.TB, tx *gorm.DB, username string, role roles.Role) *types.User {
	tb.Helper()
	u := &types.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		RoleID:       uint(role.Level()),
		IsActive:     true,
	}
	if err := tx.Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// Payload builds an inline weights payload from plain nested slices.
func Payload(tb testing.TB, layers ...any) datatypes.JSON {
	tb.Helper()
	b, err := json.Marshal(map[string]any{
		"weights":      layers,
		"architecture": `{"class_name":"Sequential"}`,
	})
	if err != nil {
		tb.Fatalf("marshal payload: %v", err)
	}
	return datatypes.JSON(b)
}

func SeedModel(tb testing.TB, tx *gorm.DB, version int, status string, payload datatypes.JSON) *types.Model {
	tb.Helper()
	m := &types.Model{
		ID:             uuid.New(),
		Name:           "model",
		Description:    "seeded",
		Version:        version,
		Status:         status,
		WeightsPayload: payload,
		Metrics:        datatypes.JSON(`{"accuracy":0.91}`),
	}
	if err := tx.Create(m).Error; err != nil {
		tb.Fatalf("seed model: %v", err)
	}
	return m
}

func SeedContribution(tb testing.TB, tx *gorm.DB, researcherID uuid.UUID, targetID *uuid.UUID, status string, payload datatypes.JSON) *types.Contribution {
	tb.Helper()
	c := &types.Contribution{
		ID:             uuid.New(),
		ResearcherID:   researcherID,
		TargetModelID:  targetID,
		WeightsPayload: payload,
		Status:         status,
	}
	if err := tx.Create(c).Error; err != nil {
		tb.Fatalf("seed contribution: %v", err)
	}
	return c
}

func SeedLink(tb testing.TB, tx *gorm.DB, modelID, contributionID uuid.UUID) {
	tb.Helper()
	if err := tx.Create(&types.ModelContributionLink{ModelID: modelID, ContributionID: contributionID}).Error; err != nil {
		tb.Fatalf("seed link: %v", err)
	}
}
