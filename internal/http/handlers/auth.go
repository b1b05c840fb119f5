package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/modelhub-backend/internal/http/response"
	"github.com/yungbote/modelhub-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// POST /api/login
// body: { "username": "...", "password": "..." }
// Only checks credentials; bearer tokens come from the external issuer.
func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondError(c, err)
		return
	}
	u, err := ah.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}
