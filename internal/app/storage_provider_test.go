package app

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/modelhub-backend/internal/platform/blobstore"
	"github.com/yungbote/modelhub-backend/internal/platform/gcp"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
	"github.com/yungbote/modelhub-backend/internal/platform/s3store"
)

func TestClassifyStorageProviderBootstrapError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want StorageProviderBootstrapErrorCode
	}{
		{"gcs config", &gcp.ConfigError{Code: gcp.ConfigErrorMissingBucket}, StorageProviderBootstrapErrorInvalidConfig},
		{"already classified", &StorageProviderBootstrapError{Code: StorageProviderBootstrapErrorInvalidMode}, StorageProviderBootstrapErrorInvalidMode},
		{"dial", errors.New("dial tcp: connection refused"), StorageProviderBootstrapErrorConnectFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := classifyStorageProviderBootstrapError("gcs", tc.err)
			if got := storageProviderBootstrapErrorCode(err); got != tc.want {
				t.Fatalf("code: want=%q got=%q", tc.want, got)
			}
		})
	}
}

func TestResolveBlobStoreInvalidMode(t *testing.T) {
	_, err := resolveBlobStore(context.Background(), logger.Nop(), Config{ObjectStorageMode: "floppy"})
	var got *StorageProviderBootstrapError
	if !errors.As(err, &got) {
		t.Fatalf("expected StorageProviderBootstrapError, got=%T", err)
	}
	if got.Code != StorageProviderBootstrapErrorInvalidMode {
		t.Fatalf("code: want=%q got=%q", StorageProviderBootstrapErrorInvalidMode, got.Code)
	}
}

func TestResolveBlobStoreMemory(t *testing.T) {
	store, err := resolveBlobStore(context.Background(), logger.Nop(), Config{ObjectStorageMode: StorageModeMemory})
	if err != nil || store == nil {
		t.Fatalf("memory store: store=%v err=%v", store, err)
	}
}

func TestResolveBlobStoreGCSMode(t *testing.T) {
	orig := newGCSStore
	t.Cleanup(func() { newGCSStore = orig })

	var captured gcp.Config
	expected := blobstore.NewMemory()
	newGCSStore = func(_ context.Context, _ *logger.Logger, cfg gcp.Config) (blobstore.Store, error) {
		captured = cfg
		return expected, nil
	}

	got, err := resolveBlobStore(context.Background(), logger.Nop(), Config{
		ObjectStorageMode: StorageModeGCS,
		GCS:               gcp.Config{Bucket: "weights", EmulatorHost: "http://fake-gcs:4443"},
	})
	if err != nil {
		t.Fatalf("resolveBlobStore: %v", err)
	}
	if got != expected {
		t.Fatalf("store: expected stub instance")
	}
	if captured.Bucket != "weights" || captured.EmulatorHost != "http://fake-gcs:4443" {
		t.Fatalf("config not forwarded: %+v", captured)
	}
}

func TestResolveBlobStoreGCSMissingBucket(t *testing.T) {
	orig := newGCSStore
	t.Cleanup(func() { newGCSStore = orig })
	newGCSStore = func(context.Context, *logger.Logger, gcp.Config) (blobstore.Store, error) {
		t.Fatalf("constructor must not run with an invalid config")
		return nil, nil
	}

	_, err := resolveBlobStore(context.Background(), logger.Nop(), Config{ObjectStorageMode: StorageModeGCS})
	if got := storageProviderBootstrapErrorCode(err); got != StorageProviderBootstrapErrorInvalidConfig {
		t.Fatalf("code: want=%q got=%q", StorageProviderBootstrapErrorInvalidConfig, got)
	}
}

func TestResolveBlobStoreMinioConnectFailure(t *testing.T) {
	orig := newMinioStore
	t.Cleanup(func() { newMinioStore = orig })
	newMinioStore = func(context.Context, *logger.Logger, s3store.Config) (blobstore.Store, error) {
		return nil, errors.New("dial tcp 10.0.0.1:9000: i/o timeout")
	}

	_, err := resolveBlobStore(context.Background(), logger.Nop(), Config{
		ObjectStorageMode: StorageModeMinio,
		Minio:             s3store.Config{Endpoint: "10.0.0.1:9000", AccessKey: "k", SecretKey: "s", Bucket: "modelhub"},
	})
	if got := storageProviderBootstrapErrorCode(err); got != StorageProviderBootstrapErrorConnectFailed {
		t.Fatalf("code: want=%q got=%q", StorageProviderBootstrapErrorConnectFailed, got)
	}
}
