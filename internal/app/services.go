package app

import (
	"github.com/yungbote/modelhub-backend/internal/data/repos"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
	"github.com/yungbote/modelhub-backend/internal/services"
)

type Services struct {
	Gate services.PermissionGate

	Auth         services.AuthService
	User         services.UserService
	Model        services.ModelService
	Contribution services.ContributionService
	Aggregation  services.AggregationService
	Notification services.NotificationService
	Feedback     services.FeedbackService
	Prediction   services.PredictionService
}

func wireServices(log *logger.Logger, cfg Config, r repos.Set, aggs Aggregates, clients Clients) Services {
	log.Info("Wiring services...")
	gate := services.NewPermissionGate(log, r.Users)
	return Services{
		Gate:         gate,
		Auth:         services.NewAuthService(log, r.Users, r.Roles, cfg.JWTSecretKey),
		User:         services.NewUserService(log, gate, r.Users, aggs.User),
		Model:        services.NewModelService(log, gate, r.Models, aggs.Registry, clients.Blobs, clients.Bus),
		Contribution: services.NewContributionService(log, gate, r.Contributions, aggs.Contribution, clients.Blobs, clients.Bus),
		Aggregation: services.NewAggregationService(
			log,
			gate,
			r.Models,
			r.Contributions,
			aggs.Experimental,
			clients.Blobs,
			clients.Bus,
			cfg.PointsPerContribution,
		),
		Notification: services.NewNotificationService(log, gate, r.Notifications, aggs.Notification, clients.Bus),
		Feedback:     services.NewFeedbackService(log, gate, r.Models, r.Ratings, r.Comments),
		Prediction:   services.NewPredictionService(log, gate, r.Models, clients.Inference),
	}
}
