package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/modelhub-backend/internal/http/response"
	"github.com/yungbote/modelhub-backend/internal/services"
)

type FeedbackHandler struct {
	feedbackService services.FeedbackService
}

func NewFeedbackHandler(feedbackService services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

// POST /api/models/:id/ratings
// body: { "score": 1..5 }
func (fh *FeedbackHandler) Rate(c *gin.Context) {
	modelID, err := pathID(c, "id")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	var req struct {
		Score int `json:"score"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondError(c, err)
		return
	}
	rating, err := fh.feedbackService.Rate(c.Request.Context(), actorID(c), modelID, req.Score)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"rating": rating})
}

// POST /api/models/:id/comments
// body: { "text": "..." }
func (fh *FeedbackHandler) Comment(c *gin.Context) {
	modelID, err := pathID(c, "id")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondError(c, err)
		return
	}
	comment, err := fh.feedbackService.Comment(c.Request.Context(), actorID(c), modelID, req.Text)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"comment": comment})
}

// GET /api/models/:id/comments
func (fh *FeedbackHandler) ListComments(c *gin.Context) {
	modelID, err := pathID(c, "id")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	comments, err := fh.feedbackService.ListComments(c.Request.Context(), actorID(c), modelID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"comments": comments})
}

// PATCH /api/comments/:id
// body: { "approved": true }
func (fh *FeedbackHandler) Moderate(c *gin.Context) {
	commentID, err := pathID(c, "id")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	var req struct {
		Approved bool `json:"approved"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondError(c, err)
		return
	}
	if err := fh.feedbackService.Moderate(c.Request.Context(), actorID(c), commentID, req.Approved); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
