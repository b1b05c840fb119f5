package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/yungbote/modelhub-backend/internal/domain/aggregates"
	"github.com/yungbote/modelhub-backend/internal/http/response"
	"github.com/yungbote/modelhub-backend/internal/services"
)

type ContributionHandler struct {
	contributionService services.ContributionService
}

func NewContributionHandler(contributionService services.ContributionService) *ContributionHandler {
	return &ContributionHandler{contributionService: contributionService}
}

// POST /api/contributions
// JSON body: { "target_model_id", "weights_payload" }
// or multipart/form-data with fields "target_model_id" and "file".
func (ch *ContributionHandler) Submit(c *gin.Context) {
	const op = "ContributionHandler.Submit"
	var req services.SubmitContributionRequest
	if isMultipart(c) {
		target, err := uuid.Parse(strings.TrimSpace(c.PostForm("target_model_id")))
		if err != nil {
			response.RespondError(c, domainagg.Invalid(op, "target_model_id is required"))
			return
		}
		req.TargetModelID = target
		data, filename, ok, err := readFormFile(c, "file")
		if err != nil {
			response.RespondError(c, err)
			return
		}
		if ok {
			req.File = &services.WeightsFile{Filename: filename, Data: data}
		}
	} else {
		var body struct {
			TargetModelID  uuid.UUID       `json:"target_model_id"`
			WeightsPayload json.RawMessage `json:"weights_payload"`
		}
		if err := bindJSON(c, &body); err != nil {
			response.RespondError(c, err)
			return
		}
		req.TargetModelID = body.TargetModelID
		req.WeightsPayload = body.WeightsPayload
	}
	out, err := ch.contributionService.Submit(c.Request.Context(), actorID(c), req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"contribution": out})
}

// GET /api/contributions/mine
func (ch *ContributionHandler) ListMine(c *gin.Context) {
	rows, err := ch.contributionService.ListMine(c.Request.Context(), actorID(c))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"contributions": rows})
}

// GET /api/contributions?status=pending|approved|rejected|aggregated|all
func (ch *ContributionHandler) ListForReview(c *gin.Context) {
	rows, err := ch.contributionService.ListForReview(c.Request.Context(), actorID(c), c.Query("status"))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"contributions": rows})
}

// PATCH /api/contributions/:id/status
// body: { "status": "accepted", "points_earned": 0 }
func (ch *ContributionHandler) UpdateStatus(c *gin.Context) {
	contributionID, err := pathID(c, "id")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	var req struct {
		Status       string `json:"status"`
		PointsEarned int    `json:"points_earned"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondError(c, err)
		return
	}
	out, err := ch.contributionService.UpdateStatus(c.Request.Context(), actorID(c), contributionID, req.Status, req.PointsEarned)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"contribution": out})
}

// GET /api/contributions/:id/weights
func (ch *ContributionHandler) GetWeights(c *gin.Context) {
	contributionID, err := pathID(c, "id")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	raw, err := ch.contributionService.GetWeights(c.Request.Context(), actorID(c), contributionID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

// DELETE /api/contributions/:id
func (ch *ContributionHandler) Delete(c *gin.Context) {
	contributionID, err := pathID(c, "id")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	if err := ch.contributionService.Delete(c.Request.Context(), actorID(c), contributionID); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondNoContent(c)
}
