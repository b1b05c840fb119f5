package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/modelhub-backend/internal/platform/blobstore"
	"github.com/yungbote/modelhub-backend/internal/platform/gcp"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
	"github.com/yungbote/modelhub-backend/internal/platform/s3store"
)

var (
	newGCSStore   = gcp.NewBucketStore
	newMinioStore = s3store.NewObjectStore
)

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode   StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorInvalidConfig StorageProviderBootstrapErrorCode = "invalid_config"
	StorageProviderBootstrapErrorConnectFailed StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code  StorageProviderBootstrapErrorCode
	Mode  string
	Cause error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	return fmt.Sprintf("object storage bootstrap failed (code=%s mode=%q): %v", e.Code, e.Mode, e.Cause)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveBlobStore picks the weights blob store for OBJECT_STORAGE_MODE.
func resolveBlobStore(ctx context.Context, log *logger.Logger, cfg Config) (blobstore.Store, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.ObjectStorageMode))
	log.Info("Selecting object storage provider", "mode", mode)

	var (
		store blobstore.Store
		err   error
	)
	switch mode {
	case "", StorageModeMemory:
		log.Warn("Using in-memory blob store; uploaded weights do not survive a restart")
		return blobstore.NewMemory(), nil
	case StorageModeGCS:
		if verr := cfg.GCS.Validate(); verr != nil {
			err = verr
			break
		}
		store, err = newGCSStore(ctx, log, cfg.GCS)
	case StorageModeMinio:
		if verr := cfg.Minio.Validate(); verr != nil {
			err = &StorageProviderBootstrapError{Code: StorageProviderBootstrapErrorInvalidConfig, Mode: mode, Cause: verr}
			break
		}
		store, err = newMinioStore(ctx, log, cfg.Minio)
	default:
		err = &StorageProviderBootstrapError{
			Code:  StorageProviderBootstrapErrorInvalidMode,
			Mode:  mode,
			Cause: fmt.Errorf("unsupported object storage mode %q", mode),
		}
	}
	if err != nil {
		classified := classifyStorageProviderBootstrapError(mode, err)
		log.Error(
			"Object storage provider bootstrap failed",
			"mode", mode,
			"error_code", storageProviderBootstrapErrorCode(classified),
			"error", classified,
		)
		return nil, classified
	}
	return store, nil
}

func classifyStorageProviderBootstrapError(mode string, err error) error {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) {
		return bootstrapErr
	}
	var cfgErr *gcp.ConfigError
	if errors.As(err, &cfgErr) {
		return &StorageProviderBootstrapError{Code: StorageProviderBootstrapErrorInvalidConfig, Mode: mode, Cause: err}
	}
	return &StorageProviderBootstrapError{Code: StorageProviderBootstrapErrorConnectFailed, Mode: mode, Cause: err}
}

func storageProviderBootstrapErrorCode(err error) StorageProviderBootstrapErrorCode {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return StorageProviderBootstrapErrorConnectFailed
}
