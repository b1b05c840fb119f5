package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/yungbote/modelhub-backend/internal/domain/aggregates"
	"github.com/yungbote/modelhub-backend/internal/platform/ctxutil"
)

// maxUploadBytes caps weights files and prediction images.
const maxUploadBytes = 64 << 20

func actorID(c *gin.Context) uuid.UUID {
	return ctxutil.UserID(c.Request.Context())
}

func pathID(c *gin.Context, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, domainagg.Invalid("http.pathID", fmt.Sprintf("invalid %s %q", name, raw))
	}
	return id, nil
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return domainagg.Invalid("http.bindJSON", "invalid request body: "+err.Error())
	}
	return nil
}

// readFormFile returns the named multipart file. ok is false when the field is absent.
func readFormFile(c *gin.Context, field string) (data []byte, filename string, ok bool, err error) {
	fh, ferr := c.FormFile(field)
	if ferr != nil {
		return nil, "", false, nil
	}
	data, err = readUpload(fh)
	if err != nil {
		return nil, "", true, err
	}
	return data, fh.Filename, true, nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	const op = "http.readUpload"
	f, err := fh.Open()
	if err != nil {
		return nil, domainagg.Invalid(op, "cannot open uploaded file")
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return nil, domainagg.Invalid(op, "cannot read uploaded file")
	}
	if len(raw) > maxUploadBytes {
		return nil, domainagg.Invalid(op, "uploaded file is too large")
	}
	return raw, nil
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}
