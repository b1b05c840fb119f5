package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/modelhub-backend/internal/http/response"
	"github.com/yungbote/modelhub-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GET /api/me
func (uh *UserHandler) GetMe(c *gin.Context) {
	me, err := uh.userService.Me(c.Request.Context(), actorID(c))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

// GET /api/users
func (uh *UserHandler) ListUsers(c *gin.Context) {
	users, err := uh.userService.List(c.Request.Context(), actorID(c))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"users": users})
}

// PATCH /api/users/:id/role
// body: { "role": "Researcher" }
func (uh *UserHandler) AssignRole(c *gin.Context) {
	userID, err := pathID(c, "id")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	var req struct {
		Role string `json:"role"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondError(c, err)
		return
	}
	u, err := uh.userService.AssignRole(c.Request.Context(), actorID(c), userID, req.Role)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}

// DELETE /api/users/:id
func (uh *UserHandler) DeleteUser(c *gin.Context) {
	userID, err := pathID(c, "id")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	if err := uh.userService.Delete(c.Request.Context(), actorID(c), userID); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondNoContent(c)
}
