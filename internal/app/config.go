package app

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/yungbote/modelhub-backend/internal/data/db"
	"github.com/yungbote/modelhub-backend/internal/observability"
	"github.com/yungbote/modelhub-backend/internal/platform/envutil"
	"github.com/yungbote/modelhub-backend/internal/platform/gcp"
	"github.com/yungbote/modelhub-backend/internal/platform/inference"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
	"github.com/yungbote/modelhub-backend/internal/platform/redisbus"
	"github.com/yungbote/modelhub-backend/internal/platform/s3store"
	"github.com/yungbote/modelhub-backend/internal/platform/yamlconf"
	"github.com/yungbote/modelhub-backend/internal/services"
)

const (
	StorageModeMemory = "memory"
	StorageModeGCS    = "gcs"
	StorageModeMinio  = "minio"
)

type Config struct {
	LogMode     string   `yaml:"log_mode"`
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
	AutoMigrate bool     `yaml:"auto_migrate"`

	DB db.Config `yaml:"db"`

	AuthMode     string `yaml:"auth_mode"`
	JWTSecretKey string `yaml:"jwt_secret_key"`

	ObjectStorageMode string         `yaml:"object_storage_mode"`
	GCS               gcp.Config     `yaml:"gcs"`
	Minio             s3store.Config `yaml:"minio"`

	Redis     redisbus.Config  `yaml:"redis"`
	Inference inference.Config `yaml:"inference"`

	PointsPerContribution int `yaml:"points_per_contribution"`

	MetricsEnabled bool                     `yaml:"metrics_enabled"`
	Otel           observability.OtelConfig `yaml:"otel"`
}

// LoadConfig reads the environment, then overlays CONFIG_FILE when it is set.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		LogMode:     envutil.String("LOG_MODE", "development"),
		Port:        envutil.String("PORT", "8080"),
		CORSOrigins: splitList(envutil.String("CORS_ORIGINS", "")),
		AutoMigrate: envutil.Bool("AUTO_MIGRATE", true),
		DB: db.Config{
			Driver: envutil.String("DB_DRIVER", db.DialectPostgres),
			Postgres: db.PostgresConfig{
				Host:     envutil.String("POSTGRES_HOST", "localhost"),
				Port:     envutil.String("POSTGRES_PORT", "5432"),
				User:     envutil.String("POSTGRES_USER", "postgres"),
				Password: envutil.String("POSTGRES_PASSWORD", ""),
				Name:     envutil.String("POSTGRES_NAME", "modelhub"),
				SSLMode:  envutil.String("POSTGRES_SSLMODE", "disable"),
			},
			SQLitePath: envutil.String("SQLITE_PATH", "modelhub.db"),
		},
		AuthMode:          envutil.String("AUTH_MODE", "jwt"),
		JWTSecretKey:      envutil.String("JWT_SECRET_KEY", ""),
		ObjectStorageMode: envutil.String("OBJECT_STORAGE_MODE", StorageModeMemory),
		GCS:               gcp.ConfigFromEnv(),
		Minio: s3store.Config{
			Endpoint:  envutil.String("MINIO_ENDPOINT", ""),
			AccessKey: envutil.String("MINIO_ACCESS_KEY", ""),
			SecretKey: envutil.String("MINIO_SECRET_KEY", ""),
			Bucket:    envutil.String("MINIO_BUCKET", "modelhub"),
			UseSSL:    envutil.Bool("MINIO_USE_SSL", false),
		},
		Redis: redisbus.Config{
			Addr:    envutil.String("REDIS_ADDR", ""),
			Channel: envutil.String("REDIS_CHANNEL", redisbus.DefaultChannel),
		},
		Inference: inference.Config{
			BaseURL: envutil.String("INFERENCE_URL", ""),
			Timeout: envutil.Seconds("INFERENCE_TIMEOUT_SECONDS", 30*time.Second),
		},
		PointsPerContribution: envutil.Int("POINTS_PER_CONTRIBUTION", services.DefaultPointsPerContribution),
		MetricsEnabled:        envutil.Bool("METRICS_ENABLED", true),
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "modelhub"),
			Environment: envutil.String("OTEL_ENVIRONMENT", ""),
			Version:     envutil.String("OTEL_SERVICE_VERSION", ""),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 0.1),
		},
	}

	file := envutil.String("CONFIG_FILE", "")
	loaded, err := yamlconf.Overlay(file, &cfg)
	if err != nil {
		return Config{}, err
	}
	if loaded {
		log.Info("Config file overlaid", "path", file)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Port, validation.Required),
		validation.Field(&c.AuthMode, validation.Required, validation.In("jwt", "header")),
		validation.Field(&c.JWTSecretKey, validation.When(c.AuthMode == "jwt", validation.Required, validation.Length(16, 0))),
		validation.Field(&c.ObjectStorageMode, validation.Required, validation.In(StorageModeMemory, StorageModeGCS, StorageModeMinio)),
		validation.Field(&c.PointsPerContribution, validation.Min(0)),
		validation.Field(&c.DB, validation.By(func(interface{}) error {
			switch strings.ToLower(strings.TrimSpace(c.DB.Driver)) {
			case db.DialectPostgres, db.DialectSQLite:
				return nil
			}
			return errors.New("driver must be postgres or sqlite")
		})),
	)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
