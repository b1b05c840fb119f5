package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/modelhub-backend/internal/platform/logger"
)

func TestPredict(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{"scores":[0.1,0.7,0.1,0.1]}`))
	}))
	defer srv.Close()

	c, err := NewClient(logger.Nop(), Config{BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	id := uuid.New()
	resp, err := c.Predict(context.Background(), Request{ModelID: id, Shape: [3]int{1, 1, 3}, Pixels: []float32{1, 2, 3}})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(resp.Scores) != 4 || resp.Scores[1] != 0.7 {
		t.Fatalf("scores: got=%v", resp.Scores)
	}
	if got.ModelID != id || len(got.Pixels) != 3 {
		t.Fatalf("request: got=%+v", got)
	}
}

func TestPredictPropagatesHTTPError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "model exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, _ := NewClient(logger.Nop(), Config{BaseURL: srv.URL})
	_, err := c.Predict(context.Background(), Request{})
	var herr *HTTPError
	if !errors.As(err, &herr) || herr.StatusCode != http.StatusBadGateway {
		t.Fatalf("want HTTPError 502 got %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls: want=1 got=%d", calls)
	}
}

func TestNewClientRequiresURL(t *testing.T) {
	if _, err := NewClient(logger.Nop(), Config{}); err == nil {
		t.Fatalf("NewClient: expected error")
	}
}
