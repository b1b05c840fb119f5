package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/modelhub-backend/internal/http/response"
	"github.com/yungbote/modelhub-backend/internal/platform/apierr"
	"github.com/yungbote/modelhub-backend/internal/platform/ctxutil"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
	"github.com/yungbote/modelhub-backend/internal/services"
)

const (
	AuthModeJWT    = "jwt"
	AuthModeHeader = "header"

	headerUserID = "X-User-ID"
)

var errUnauthorized = apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("missing or invalid credentials"))

type AuthMiddleware struct {
	log         *logger.Logger
	mode        string
	authService services.AuthService
}

// NewAuthMiddleware resolves callers either from a bearer token (jwt) or, behind
// a trusted gateway, from the X-User-ID header (header).
func NewAuthMiddleware(log *logger.Logger, mode string, authService services.AuthService) *AuthMiddleware {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode != AuthModeHeader {
		mode = AuthModeJWT
	}
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), mode: mode, authService: authService}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := am.resolve(c)
		if err != nil {
			am.log.Debug("request rejected", "path", c.Request.URL.Path, "error", err)
			response.AbortError(c, err)
			return
		}
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{UserID: userID})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (am *AuthMiddleware) resolve(c *gin.Context) (uuid.UUID, error) {
	if am.mode == AuthModeHeader {
		id, err := uuid.Parse(strings.TrimSpace(c.GetHeader(headerUserID)))
		if err != nil || id == uuid.Nil {
			return uuid.Nil, errUnauthorized
		}
		return id, nil
	}
	token := extractBearer(c)
	if token == "" {
		return uuid.Nil, errUnauthorized
	}
	return am.authService.ResolveToken(c.Request.Context(), token)
}

func extractBearer(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
