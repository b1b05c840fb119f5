package feedback

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Rating struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rating_user_model;column:user_id" json:"user_id"`
	ModelID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rating_user_model;index;column:model_id" json:"model_id"`
	Rating    int       `gorm:"not null;column:rating" json:"rating"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Rating) TableName() string { return "rating" }

func (r *Rating) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type Comment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	ModelID    uuid.UUID `gorm:"type:uuid;not null;index;column:model_id" json:"model_id"`
	Text       string    `gorm:"not null;column:text" json:"text"`
	IsApproved bool      `gorm:"not null;column:is_approved" json:"is_approved"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

func (Comment) TableName() string { return "comment" }

func (c *Comment) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
