package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/modelhub-backend/internal/http/response"
	"github.com/yungbote/modelhub-backend/internal/services"
)

type AggregationHandler struct {
	aggregationService services.AggregationService
}

func NewAggregationHandler(aggregationService services.AggregationService) *AggregationHandler {
	return &AggregationHandler{aggregationService: aggregationService}
}

// POST /api/experimental-models
// body: { "target_model_id", "contribution_ids": [...], "model_name", "model_description", "points_per_contribution"? }
func (ah *AggregationHandler) CreateExperimentalModel(c *gin.Context) {
	var req services.CreateExperimentalModelRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondError(c, err)
		return
	}
	m, err := ah.aggregationService.CreateExperimentalModel(c.Request.Context(), actorID(c), req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"model": m})
}
