package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/modelhub-backend/internal/http/handlers"
	httpMW "github.com/yungbote/modelhub-backend/internal/http/middleware"
	"github.com/yungbote/modelhub-backend/internal/observability"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	TracingEnabled bool
	CORSOrigins    []string

	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware
	UserHandler    *httpH.UserHandler

	ModelHandler        *httpH.ModelHandler
	ContributionHandler *httpH.ContributionHandler
	AggregationHandler  *httpH.AggregationHandler
	NotificationHandler *httpH.NotificationHandler
	FeedbackHandler     *httpH.FeedbackHandler
	PredictionHandler   *httpH.PredictionHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/login", cfg.AuthHandler.Login)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Users
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
			protected.GET("/users", cfg.UserHandler.ListUsers)
			protected.PATCH("/users/:id/role", cfg.UserHandler.AssignRole)
			protected.DELETE("/users/:id", cfg.UserHandler.DeleteUser)
		}

		// Models
		if cfg.ModelHandler != nil {
			protected.GET("/models", cfg.ModelHandler.ListModels)
			protected.POST("/models", cfg.ModelHandler.CreateModel)
			protected.POST("/models/weights", cfg.ModelHandler.UploadWeights)
			protected.GET("/models/:id", cfg.ModelHandler.GetModel)
			protected.PATCH("/models/:id", cfg.ModelHandler.UpdateModel)
			protected.DELETE("/models/:id", cfg.ModelHandler.DeleteModel)
			protected.GET("/models/:id/weights", cfg.ModelHandler.GetWeights)
			protected.POST("/models/:id/publish", cfg.ModelHandler.PublishModel)
		}

		// Contributions
		if cfg.ContributionHandler != nil {
			protected.POST("/contributions", cfg.ContributionHandler.Submit)
			protected.GET("/contributions", cfg.ContributionHandler.ListForReview)
			protected.GET("/contributions/mine", cfg.ContributionHandler.ListMine)
			protected.PATCH("/contributions/:id/status", cfg.ContributionHandler.UpdateStatus)
			protected.GET("/contributions/:id/weights", cfg.ContributionHandler.GetWeights)
			protected.DELETE("/contributions/:id", cfg.ContributionHandler.Delete)
		}

		// Aggregation
		if cfg.AggregationHandler != nil {
			protected.POST("/experimental-models", cfg.AggregationHandler.CreateExperimentalModel)
		}

		// Notifications
		if cfg.NotificationHandler != nil {
			protected.GET("/notifications", cfg.NotificationHandler.List)
			protected.POST("/notifications", cfg.NotificationHandler.Send)
			protected.POST("/notifications/read-all", cfg.NotificationHandler.MarkAllRead)
			protected.POST("/notifications/:id/read", cfg.NotificationHandler.MarkRead)
		}

		// Ratings & comments
		if cfg.FeedbackHandler != nil {
			protected.POST("/models/:id/ratings", cfg.FeedbackHandler.Rate)
			protected.GET("/models/:id/comments", cfg.FeedbackHandler.ListComments)
			protected.POST("/models/:id/comments", cfg.FeedbackHandler.Comment)
			protected.PATCH("/comments/:id", cfg.FeedbackHandler.Moderate)
		}

		// Prediction
		if cfg.PredictionHandler != nil {
			protected.POST("/models/:id/predict", cfg.PredictionHandler.Predict)
		}
	}

	return r
}
