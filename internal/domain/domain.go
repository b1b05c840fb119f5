package domain

import (
	"github.com/yungbote/modelhub-backend/internal/domain/contribution"
	"github.com/yungbote/modelhub-backend/internal/domain/feedback"
	"github.com/yungbote/modelhub-backend/internal/domain/notification"
	"github.com/yungbote/modelhub-backend/internal/domain/registry"
	"github.com/yungbote/modelhub-backend/internal/domain/user"
)

const (
	ModelStatusExperimental = registry.StatusExperimental
	ModelStatusActive       = registry.StatusActive

	ContributionPending    = contribution.StatusPending
	ContributionApproved   = contribution.StatusApproved
	ContributionRejected   = contribution.StatusRejected
	ContributionAggregated = contribution.StatusAggregated
)

type Role = user.Role
type User = user.User

type Model = registry.Model

type Contribution = contribution.Contribution
type ModelContributionLink = contribution.ModelContributionLink

type Notification = notification.Notification
type NotificationDelivery = notification.Delivery
type InboxItem = notification.Inbox

type Rating = feedback.Rating
type Comment = feedback.Comment

// AllModels lists every persisted entity in migration order.
func AllModels() []any {
	return []any{
		&Role{},
		&User{},
		&Model{},
		&Contribution{},
		&ModelContributionLink{},
		&Notification{},
		&NotificationDelivery{},
		&Rating{},
		&Comment{},
	}
}
