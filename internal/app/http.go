package app

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/modelhub-backend/internal/http"
	httpH "github.com/yungbote/modelhub-backend/internal/http/handlers"
	httpMW "github.com/yungbote/modelhub-backend/internal/http/middleware"
	"github.com/yungbote/modelhub-backend/internal/observability"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health       *httpH.HealthHandler
	Auth         *httpH.AuthHandler
	User         *httpH.UserHandler
	Model        *httpH.ModelHandler
	Contribution *httpH.ContributionHandler
	Aggregation  *httpH.AggregationHandler
	Notification *httpH.NotificationHandler
	Feedback     *httpH.FeedbackHandler
	Prediction   *httpH.PredictionHandler
}

func wireHandlers(log *logger.Logger, services Services, db *gorm.DB) Handlers {
	log.Info("Wiring handlers...")
	var pinger httpH.Pinger
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			pinger = sqlDB
		}
	}
	return Handlers{
		Health:       httpH.NewHealthHandler(pinger),
		Auth:         httpH.NewAuthHandler(services.Auth),
		User:         httpH.NewUserHandler(services.User),
		Model:        httpH.NewModelHandler(services.Model),
		Contribution: httpH.NewContributionHandler(services.Contribution),
		Aggregation:  httpH.NewAggregationHandler(services.Aggregation),
		Notification: httpH.NewNotificationHandler(services.Notification),
		Feedback:     httpH.NewFeedbackHandler(services.Feedback),
		Prediction:   httpH.NewPredictionHandler(services.Prediction),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, cfg.AuthMode, services.Auth),
	}
}

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:                 log,
		Metrics:             metrics,
		ServiceName:         cfg.Otel.ServiceName,
		TracingEnabled:      cfg.Otel.Enabled,
		CORSOrigins:         cfg.CORSOrigins,
		HealthHandler:       handlers.Health,
		AuthHandler:         handlers.Auth,
		AuthMiddleware:      middleware.Auth,
		UserHandler:         handlers.User,
		ModelHandler:        handlers.Model,
		ContributionHandler: handlers.Contribution,
		AggregationHandler:  handlers.Aggregation,
		NotificationHandler: handlers.Notification,
		FeedbackHandler:     handlers.Feedback,
		PredictionHandler:   handlers.Prediction,
	})
}
