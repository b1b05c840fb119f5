package blobstore

import (
	"context"
	"errors"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Destinations used by the services.
const (
	DestinationModels        = "models"
	DestinationContributions = "contributions"
)

var ErrNotFound = errors.New("blob not found")

// Store persists opaque bytes and hands back a reference that Read accepts.
type Store interface {
	Store(ctx context.Context, data []byte, filename, destination string) (string, error)
	Read(ctx context.Context, ref string) ([]byte, error)
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ObjectKey builds "<destination>/<uuid>_<filename>" with the filename reduced
// to a safe character set.
func ObjectKey(destination, filename string) string {
	dest := strings.Trim(strings.TrimSpace(destination), "/")
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	name = unsafeName.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == "/" {
		name = "blob"
	}
	key := uuid.NewString() + "_" + name
	if dest == "" {
		return key
	}
	return dest + "/" + key
}

// ContentTypeForKey guesses a content type from the key's extension.
func ContentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	switch {
	case strings.HasSuffix(s, ".json"):
		return "application/json"
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".jpg"), strings.HasSuffix(s, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(s, ".h5"), strings.HasSuffix(s, ".keras"):
		return "application/x-hdf5"
	default:
		return "application/octet-stream"
	}
}
