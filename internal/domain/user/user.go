package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/modelhub-backend/internal/domain/roles"
)

// Role is reference data. The privilege level is derived from Name, never stored.
type Role struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null;column:name" json:"name"`
}

func (Role) TableName() string { return "role" }

func (r Role) Level() roles.Role { return roles.Parse(r.Name) }

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null;column:username" json:"username"`
	Email        string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	PasswordHash string    `gorm:"not null;column:password_hash" json:"-"`

	RoleID uint  `gorm:"not null;index;column:role_id" json:"role_id"`
	Role   *Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`

	IsActive    bool `gorm:"not null;column:is_active" json:"is_active"`
	TotalPoints int  `gorm:"not null;column:total_points" json:"total_points"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Level returns Unknown when the role was not preloaded.
func (u *User) Level() roles.Role {
	if u == nil || u.Role == nil {
		return roles.Unknown
	}
	return u.Role.Level()
}
