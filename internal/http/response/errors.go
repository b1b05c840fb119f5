package response

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/modelhub-backend/internal/platform/apierr"
)

// RespondError writes the canonical error envelope for any error. Coded domain
// errors keep their status and message; anything else becomes a 500.
func RespondError(c *gin.Context, err error) {
	ae := apierr.FromError(err)
	if ae == nil {
		ae = apierr.FromError(errors.New("unknown error"))
	}
	c.JSON(ae.Status, ErrorEnvelope{
		Error: APIError{
			Message: ae.Error(),
			Code:    ae.Code,
		},
	})
}

// AbortError is RespondError for middleware that must stop the chain.
func AbortError(c *gin.Context, err error) {
	RespondError(c, err)
	c.Abort()
}
