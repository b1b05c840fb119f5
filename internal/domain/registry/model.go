package registry

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusExperimental = "experimental"
	StatusActive       = "active"
)

// Model is one numbered version of the shared model. Versions are unique
// across every status.
type Model struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null;column:name" json:"name"`
	Description string    `gorm:"not null;column:description" json:"description"`
	Version     int       `gorm:"not null;uniqueIndex:idx_model_version;column:version" json:"version"`
	Status      string    `gorm:"not null;index;column:status" json:"status"`

	// WeightsPayload holds an inline payload; WeightsRef points at a blob store object.
	// At least one of them is set.
	WeightsPayload datatypes.JSON `gorm:"column:weights_payload" json:"-"`
	WeightsRef     string         `gorm:"column:weights_ref" json:"weights_ref,omitempty"`
	Metrics        datatypes.JSON `gorm:"column:metrics" json:"metrics"`

	PublishedAt *time.Time `gorm:"column:published_at" json:"published_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Model) TableName() string { return "model" }

func (m *Model) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// DefaultMetrics is stored when a model is created without metrics.
func DefaultMetrics() datatypes.JSON {
	return datatypes.JSON(`{"accuracy":0,"precision":0,"recall":0,"f1_score":0}`)
}
