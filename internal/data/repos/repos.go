package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/modelhub-backend/internal/data/repos/contribution"
	"github.com/yungbote/modelhub-backend/internal/data/repos/feedback"
	"github.com/yungbote/modelhub-backend/internal/data/repos/notification"
	"github.com/yungbote/modelhub-backend/internal/data/repos/registry"
	"github.com/yungbote/modelhub-backend/internal/data/repos/user"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type RoleRepo = user.RoleRepo

type ModelRepo = registry.ModelRepo
type ModelFilter = registry.ModelFilter

type ContributionRepo = contribution.ContributionRepo
type ModelContributionLinkRepo = contribution.ModelContributionLinkRepo

type NotificationRepo = notification.NotificationRepo

type RatingRepo = feedback.RatingRepo
type CommentRepo = feedback.CommentRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }
func NewRoleRepo(db *gorm.DB, baseLog *logger.Logger) RoleRepo { return user.NewRoleRepo(db, baseLog) }

func NewModelRepo(db *gorm.DB, baseLog *logger.Logger) ModelRepo {
	return registry.NewModelRepo(db, baseLog)
}

func NewContributionRepo(db *gorm.DB, baseLog *logger.Logger) ContributionRepo {
	return contribution.NewContributionRepo(db, baseLog)
}
func NewModelContributionLinkRepo(db *gorm.DB, baseLog *logger.Logger) ModelContributionLinkRepo {
	return contribution.NewModelContributionLinkRepo(db, baseLog)
}

func NewNotificationRepo(db *gorm.DB, baseLog *logger.Logger) NotificationRepo {
	return notification.NewNotificationRepo(db, baseLog)
}

func NewRatingRepo(db *gorm.DB, baseLog *logger.Logger) RatingRepo {
	return feedback.NewRatingRepo(db, baseLog)
}
func NewCommentRepo(db *gorm.DB, baseLog *logger.Logger) CommentRepo {
	return feedback.NewCommentRepo(db, baseLog)
}

// Set groups every repo so wiring code can pass them around as one value.
type Set struct {
	Users         UserRepo
	Roles         RoleRepo
	Models        ModelRepo
	Contributions ContributionRepo
	Links         ModelContributionLinkRepo
	Notifications NotificationRepo
	Ratings       RatingRepo
	Comments      CommentRepo
}

func NewSet(db *gorm.DB, baseLog *logger.Logger) Set {
	return Set{
		Users:         NewUserRepo(db, baseLog),
		Roles:         NewRoleRepo(db, baseLog),
		Models:        NewModelRepo(db, baseLog),
		Contributions: NewContributionRepo(db, baseLog),
		Links:         NewModelContributionLinkRepo(db, baseLog),
		Notifications: NewNotificationRepo(db, baseLog),
		Ratings:       NewRatingRepo(db, baseLog),
		Comments:      NewCommentRepo(db, baseLog),
	}
}
