package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/modelhub-backend/internal/http/response"
	"github.com/yungbote/modelhub-backend/internal/services"
)

type NotificationHandler struct {
	notificationService services.NotificationService
}

func NewNotificationHandler(notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// GET /api/notifications
func (nh *NotificationHandler) List(c *gin.Context) {
	items, err := nh.notificationService.List(c.Request.Context(), actorID(c))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"notifications": items})
}

// POST /api/notifications/:id/read
func (nh *NotificationHandler) MarkRead(c *gin.Context) {
	notificationID, err := pathID(c, "id")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	if err := nh.notificationService.MarkRead(c.Request.Context(), actorID(c), notificationID); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/notifications/read-all
func (nh *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := nh.notificationService.MarkAllRead(c.Request.Context(), actorID(c))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"updated": n})
}

// POST /api/notifications
// body: { "message": "...", "recipient_ids": [...] }
func (nh *NotificationHandler) Send(c *gin.Context) {
	var req struct {
		Message      string      `json:"message"`
		RecipientIDs []uuid.UUID `json:"recipient_ids"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondError(c, err)
		return
	}
	ev, err := nh.notificationService.Send(c.Request.Context(), actorID(c), req.Message, req.RecipientIDs)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{
		"notification_id": ev.NotificationID,
		"message":         ev.Message,
		"recipients":      ev.Recipients,
		"sent_at":         ev.SentAt,
	})
}
