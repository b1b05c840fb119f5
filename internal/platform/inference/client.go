package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/modelhub-backend/internal/platform/logger"
)

// Request carries one preprocessed image (height x width x channels, row major)
// plus whatever the service needs to materialize the model.
type Request struct {
	ModelID        uuid.UUID       `json:"model_id"`
	ModelVersion   int             `json:"model_version"`
	WeightsRef     string          `json:"weights_ref,omitempty"`
	WeightsPayload json.RawMessage `json:"weights_payload,omitempty"`
	Shape          [3]int          `json:"shape"`
	Pixels         []float32       `json:"pixels"`
}

type Response struct {
	Scores []float64 `json:"scores"`
}

type Client interface {
	Predict(ctx context.Context, req Request) (Response, error)
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("inference http %d: %s", e.StatusCode, e.Body)
}

type Config struct {
	BaseURL string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
}

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("missing INFERENCE_URL")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &client{
		log:        log.With("client", "InferenceClient"),
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Predict posts once; failures are returned as-is and never retried here.
func (c *client) Predict(ctx context.Context, in Request) (Response, error) {
	var out Response
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(in); err != nil {
		return out, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", &buf)
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return out, fmt.Errorf("inference request: %w", err)
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
	if readErr != nil {
		return out, readErr
	}
	c.log.Debug("inference call", "model_id", in.ModelID, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return out, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("inference decode error: %w", err)
	}
	return out, nil
}
