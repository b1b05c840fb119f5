package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/modelhub-backend/internal/platform/blobstore"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
)

type bucketStore struct {
	log    *logger.Logger
	client *storage.Client
	bucket string
}

// NewBucketStore opens a GCS-backed blob store for model and contribution weights.
func NewBucketStore(ctx context.Context, log *logger.Logger, cfg Config) (blobstore.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate gcs config: %w", err)
	}
	if cfg.IsEmulator() {
		// the storage client only picks the emulator up from the environment
		_ = os.Setenv("STORAGE_EMULATOR_HOST", strings.TrimRight(cfg.EmulatorHost, "/"))
	}
	opts := append(cfg.ClientOptions(), option.WithScopes(storage.ScopeReadWrite))
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	serviceLog := log.With("service", "BucketStore")
	serviceLog.Info("Object storage initialized", "backend", "gcs", "bucket", cfg.Bucket, "emulator", cfg.IsEmulator())
	return &bucketStore{log: serviceLog, client: client, bucket: cfg.Bucket}, nil
}

func (bs *bucketStore) Store(ctx context.Context, data []byte, filename, destination string) (string, error) {
	key := blobstore.ObjectKey(destination, filename)
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := bs.client.Bucket(bs.bucket).Object(key).NewWriter(ctx)
	w.ContentType = blobstore.ContentTypeForKey(key)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}
	bs.log.Debug("Stored object", "key", key, "bytes", len(data))
	return key, nil
}

func (bs *bucketStore) Read(ctx context.Context, ref string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	r, err := bs.client.Bucket(bs.bucket).Object(strings.TrimSpace(ref)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", blobstore.ErrNotFound, ref)
		}
		return nil, fmt.Errorf("failed to open GCS reader: %w", err)
	}
	defer r.Close()
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read GCS object %q: %w", ref, err)
	}
	return b, nil
}

func (bs *bucketStore) Close() error {
	if bs == nil || bs.client == nil {
		return nil
	}
	return bs.client.Close()
}
