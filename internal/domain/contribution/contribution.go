package contribution

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusPending    = "pending"
	StatusApproved   = "approved"
	StatusRejected   = "rejected"
	StatusAggregated = "aggregated"
)

var statuses = map[string]bool{
	StatusPending:    true,
	StatusApproved:   true,
	StatusRejected:   true,
	StatusAggregated: true,
}

func ValidStatus(s string) bool { return statuses[s] }

var transitions = map[string][]string{
	StatusPending:  {StatusApproved, StatusRejected, StatusAggregated},
	StatusApproved: {StatusAggregated},
}

// CanTransition reports whether from -> to is an edge of the lifecycle graph.
func CanTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// AllowedSources lists every status that may move into to.
func AllowedSources(to string) []string {
	var out []string
	for from, targets := range transitions {
		for _, s := range targets {
			if s == to {
				out = append(out, from)
			}
		}
	}
	return out
}

// AwardsPoints reports whether entering status s sets points_earned.
func AwardsPoints(s string) bool {
	return s == StatusApproved || s == StatusAggregated
}

type Contribution struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ResearcherID  uuid.UUID  `gorm:"type:uuid;not null;index;column:researcher_id" json:"researcher_id"`
	TargetModelID *uuid.UUID `gorm:"type:uuid;index;column:target_model_id" json:"target_model_id,omitempty"`

	WeightsPayload datatypes.JSON `gorm:"column:weights_payload" json:"-"`
	WeightsRef     string         `gorm:"column:weights_ref" json:"weights_ref,omitempty"`

	Status       string    `gorm:"not null;index;column:status" json:"status"`
	PointsEarned int       `gorm:"not null;column:points_earned" json:"points_earned"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

func (Contribution) TableName() string { return "contribution" }

func (c *Contribution) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ModelContributionLink records that a contribution was folded into a model version.
type ModelContributionLink struct {
	ModelID        uuid.UUID `gorm:"type:uuid;primaryKey;column:model_id" json:"model_id"`
	ContributionID uuid.UUID `gorm:"type:uuid;primaryKey;index;column:contribution_id" json:"contribution_id"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (ModelContributionLink) TableName() string { return "model_contribution_link" }
