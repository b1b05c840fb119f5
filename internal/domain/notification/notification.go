package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification is the shared, immutable message body.
type Notification struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Message string    `gorm:"not null;column:message" json:"message"`
	SentAt  time.Time `gorm:"not null;index;column:sent_at" json:"sent_at"`
}

func (Notification) TableName() string { return "notification" }

func (n *Notification) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.SentAt.IsZero() {
		n.SentAt = time.Now().UTC()
	}
	return nil
}

// Delivery is the per-recipient read state of a Notification.
type Delivery struct {
	NotificationID uuid.UUID     `gorm:"type:uuid;primaryKey;column:notification_id" json:"notification_id"`
	UserID         uuid.UUID     `gorm:"type:uuid;primaryKey;index;column:user_id" json:"user_id"`
	IsRead         bool          `gorm:"not null;column:is_read" json:"is_read"`
	ReadAt         *time.Time    `gorm:"column:read_at" json:"read_at,omitempty"`
	Notification   *Notification `gorm:"foreignKey:NotificationID" json:"notification,omitempty"`
}

func (Delivery) TableName() string { return "notification_delivery" }

// Inbox is one row of a user's notification list.
type Inbox struct {
	ID      uuid.UUID `json:"id"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
	IsRead  bool      `json:"is_read"`
}
