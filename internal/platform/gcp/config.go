package gcp

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"google.golang.org/api/option"
)

type Config struct {
	Bucket       string `yaml:"bucket"`
	EmulatorHost string `yaml:"emulator_host"`
	// Credentials is either inline service-account JSON or a path to it.
	Credentials string `yaml:"credentials"`
}

func ConfigFromEnv() Config {
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	return Config{
		Bucket:       strings.TrimSpace(os.Getenv("MODEL_GCS_BUCKET_NAME")),
		EmulatorHost: strings.TrimSpace(os.Getenv("STORAGE_EMULATOR_HOST")),
		Credentials:  creds,
	}
}

func (c Config) IsEmulator() bool {
	return strings.TrimSpace(c.EmulatorHost) != ""
}

type ConfigErrorCode string

const (
	ConfigErrorMissingBucket       ConfigErrorCode = "missing_bucket"
	ConfigErrorInvalidEmulatorHost ConfigErrorCode = "invalid_emulator_host"
)

type ConfigError struct {
	Code         ConfigErrorCode
	EmulatorHost string
	Cause        error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid gcs config"
	}
	switch e.Code {
	case ConfigErrorMissingBucket:
		return "missing env var MODEL_GCS_BUCKET_NAME"
	case ConfigErrorInvalidEmulatorHost:
		return fmt.Sprintf("invalid STORAGE_EMULATOR_HOST=%q; expected absolute URL like http://fake-gcs:4443", e.EmulatorHost)
	default:
		return "invalid gcs config"
	}
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Bucket) == "" {
		return &ConfigError{Code: ConfigErrorMissingBucket}
	}
	if !c.IsEmulator() {
		return nil
	}
	u, err := url.Parse(c.EmulatorHost)
	if err != nil || strings.TrimSpace(u.Scheme) == "" || strings.TrimSpace(u.Host) == "" {
		return &ConfigError{Code: ConfigErrorInvalidEmulatorHost, EmulatorHost: c.EmulatorHost, Cause: err}
	}
	return nil
}

// ClientOptions returns the storage client options for c.
func (c Config) ClientOptions() []option.ClientOption {
	if c.IsEmulator() {
		return []option.ClientOption{option.WithoutAuthentication()}
	}
	creds := strings.TrimSpace(c.Credentials)
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}
