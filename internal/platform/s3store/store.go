package s3store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yungbote/modelhub-backend/internal/platform/blobstore"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
)

type Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Endpoint, validation.Required),
		validation.Field(&c.AccessKey, validation.Required),
		validation.Field(&c.SecretKey, validation.Required),
		validation.Field(&c.Bucket, validation.Required, validation.Length(3, 63)),
	)
}

type objectStore struct {
	log    *logger.Logger
	client *minio.Client
	bucket string
}

// NewObjectStore connects to an S3-compatible endpoint and creates the bucket
// when it does not exist yet.
func NewObjectStore(ctx context.Context, log *logger.Logger, cfg Config) (blobstore.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate minio config: %w", err)
	}
	client, err := minio.New(strings.TrimSpace(cfg.Endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	serviceLog := log.With("service", "MinioObjectStore")

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check minio bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create minio bucket %q: %w", cfg.Bucket, err)
		}
		serviceLog.Info("Created bucket", "bucket", cfg.Bucket)
	}
	serviceLog.Info("Object storage initialized", "backend", "minio", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket)
	return &objectStore{log: serviceLog, client: client, bucket: cfg.Bucket}, nil
}

func (s *objectStore) Store(ctx context.Context, data []byte, filename, destination string) (string, error) {
	key := blobstore.ObjectKey(destination, filename)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: blobstore.ContentTypeForKey(key),
	})
	if err != nil {
		return "", fmt.Errorf("minio put %q: %w", key, err)
	}
	return key, nil
}

func (s *objectStore) Read(ctx context.Context, ref string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, strings.TrimSpace(ref), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("minio get %q: %w", ref, err)
	}
	defer obj.Close()
	b, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", blobstore.ErrNotFound, ref)
		}
		return nil, fmt.Errorf("minio read %q: %w", ref, err)
	}
	return b, nil
}
