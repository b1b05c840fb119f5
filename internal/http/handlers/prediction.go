package handlers

import (
	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/modelhub-backend/internal/domain/aggregates"
	"github.com/yungbote/modelhub-backend/internal/http/response"
	"github.com/yungbote/modelhub-backend/internal/services"
)

type PredictionHandler struct {
	predictionService services.PredictionService
}

func NewPredictionHandler(predictionService services.PredictionService) *PredictionHandler {
	return &PredictionHandler{predictionService: predictionService}
}

// POST /api/models/:id/predict (multipart/form-data)
// field: "image"
func (ph *PredictionHandler) Predict(c *gin.Context) {
	modelID, err := pathID(c, "id")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	img, _, ok, err := readFormFile(c, "image")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	if !ok {
		response.RespondError(c, domainagg.Invalid("PredictionHandler.Predict", "image is required"))
		return
	}
	out, err := ph.predictionService.Predict(c.Request.Context(), actorID(c), modelID, img)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, out)
}
