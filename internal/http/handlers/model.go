package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/modelhub-backend/internal/data/repos"
	domainagg "github.com/yungbote/modelhub-backend/internal/domain/aggregates"
	"github.com/yungbote/modelhub-backend/internal/http/response"
	"github.com/yungbote/modelhub-backend/internal/services"
)

type ModelHandler struct {
	modelService services.ModelService
}

func NewModelHandler(modelService services.ModelService) *ModelHandler {
	return &ModelHandler{modelService: modelService}
}

// GET /api/models?status=active&order=asc&limit=20
func (mh *ModelHandler) ListModels(c *gin.Context) {
	filter := repos.ModelFilter{
		Status:    strings.TrimSpace(c.Query("status")),
		Ascending: strings.EqualFold(c.Query("order"), "asc"),
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.RespondError(c, domainagg.Invalid("ModelHandler.ListModels", "limit must be a non-negative integer"))
			return
		}
		filter.Limit = n
	}
	models, err := mh.modelService.List(c.Request.Context(), actorID(c), filter)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"models": models})
}

// GET /api/models/:id
func (mh *ModelHandler) GetModel(c *gin.Context) {
	modelID, err := pathID(c, "id")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	m, err := mh.modelService.Get(c.Request.Context(), actorID(c), modelID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"model": m})
}

// GET /api/models/:id/weights
func (mh *ModelHandler) GetWeights(c *gin.Context) {
	modelID, err := pathID(c, "id")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	raw, err := mh.modelService.Weights(c.Request.Context(), actorID(c), modelID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

// POST /api/models
// body: { "name", "description", "weights_payload" | "weights_ref", "metrics"? }
func (mh *ModelHandler) CreateModel(c *gin.Context) {
	var req struct {
		Name           string          `json:"name"`
		Description    string          `json:"description"`
		WeightsPayload json.RawMessage `json:"weights_payload"`
		WeightsRef     string          `json:"weights_ref"`
		Metrics        json.RawMessage `json:"metrics"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondError(c, err)
		return
	}
	m, err := mh.modelService.Create(c.Request.Context(), actorID(c), domainagg.CreateModelInput{
		Name:           req.Name,
		Description:    req.Description,
		WeightsPayload: req.WeightsPayload,
		WeightsRef:     strings.TrimSpace(req.WeightsRef),
		Metrics:        req.Metrics,
	})
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"model": m})
}

// POST /api/models/weights (multipart/form-data)
// field: "file"
func (mh *ModelHandler) UploadWeights(c *gin.Context) {
	data, filename, ok, err := readFormFile(c, "file")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	if !ok {
		response.RespondError(c, domainagg.Invalid("ModelHandler.UploadWeights", "file is required"))
		return
	}
	ref, err := mh.modelService.UploadWeights(c.Request.Context(), actorID(c), data, filename)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"weights_ref": ref})
}

// PATCH /api/models/:id
// body: { "name"?, "description"?, "metrics"? }
func (mh *ModelHandler) UpdateModel(c *gin.Context) {
	modelID, err := pathID(c, "id")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	var req struct {
		Name        *string         `json:"name"`
		Description *string         `json:"description"`
		Metrics     json.RawMessage `json:"metrics"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondError(c, err)
		return
	}
	m, err := mh.modelService.Update(c.Request.Context(), actorID(c), domainagg.UpdateModelInput{
		ModelID:     modelID,
		Name:        req.Name,
		Description: req.Description,
		Metrics:     req.Metrics,
	})
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"model": m})
}

// POST /api/models/:id/publish
func (mh *ModelHandler) PublishModel(c *gin.Context) {
	modelID, err := pathID(c, "id")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	m, err := mh.modelService.Publish(c.Request.Context(), actorID(c), modelID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"model": m})
}

// DELETE /api/models/:id
func (mh *ModelHandler) DeleteModel(c *gin.Context) {
	modelID, err := pathID(c, "id")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	res, err := mh.modelService.Delete(c.Request.Context(), actorID(c), modelID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"model_id":              res.ModelID,
		"removed_contributions": res.RemovedContributions,
	})
}
