package app

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	repotest "github.com/yungbote/modelhub-backend/internal/data/repos/testutil"
	types "github.com/yungbote/modelhub-backend/internal/domain"
	"github.com/yungbote/modelhub-backend/internal/domain/roles"
	"github.com/yungbote/modelhub-backend/internal/observability"
	"github.com/yungbote/modelhub-backend/internal/platform/blobstore"
	"github.com/yungbote/modelhub-backend/internal/platform/inference"
	"github.com/yungbote/modelhub-backend/internal/platform/redisbus"
)

const basePayload = `{"weights":[[[1,2],[3,4]]],"architecture":"{\"class_name\":\"Sequential\"}"}`

type stubInference struct {
	calls int
}

func (s *stubInference) Predict(context.Context, inference.Request) (inference.Response, error) {
	s.calls++
	return inference.Response{Scores: []float64{0.05, 0.05, 0.1, 0.8}}, nil
}

type testServer struct {
	t      *testing.T
	app    *App
	infer  *stubInference
	admin  *types.User
	member *types.User
	res    *types.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := repotest.DB(t)
	log := repotest.Logger(t)
	infer := &stubInference{}
	cfg := Config{
		Port:                  "0",
		AuthMode:              "header",
		ObjectStorageMode:     StorageModeMemory,
		PointsPerContribution: 10,
	}
	a := Assemble(log, cfg, db, Clients{
		Blobs:     blobstore.NewMemory(),
		Bus:       redisbus.Nop(),
		Inference: infer,
	}, observability.NewMetrics())

	return &testServer{
		t:      t,
		app:    a,
		infer:  infer,
		admin:  repotest.SeedUser(t, db, "admin", roles.Admin),
		member: repotest.SeedUser(t, db, "member", roles.Member),
		res:    repotest.SeedUser(t, db, "researcher", roles.Researcher),
	}
}

func (s *testServer) do(user *types.User, method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case string:
		rdr = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			s.t.Fatalf("marshal body: %v", err)
		}
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("X-User-ID", user.ID.String())
	}
	rec := httptest.NewRecorder()
	s.app.Router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) multipart(user *types.User, path string, fields map[string]string, fileField, filename string, data []byte) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, filename)
		if err != nil {
			s.t.Fatalf("CreateFormFile: %v", err)
		}
		_, _ = fw.Write(data)
	}
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-User-ID", user.ID.String())
	rec := httptest.NewRecorder()
	s.app.Router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return out
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *testServer) createModel(payload string) types.Model {
	s.t.Helper()
	rec := s.do(s.admin, http.MethodPost, "/api/models", map[string]any{
		"name":            "tumor-cnn",
		"description":     "baseline",
		"weights_payload": json.RawMessage(payload),
	})
	if rec.Code != http.StatusCreated {
		s.t.Fatalf("create model: status=%d body=%s", rec.Code, rec.Body.String())
	}
	return decode[struct {
		Model types.Model `json:"model"`
	}](s.t, rec).Model
}

func TestHealthcheckAndMetrics(t *testing.T) {
	s := newTestServer(t)
	if rec := s.do(nil, http.MethodGet, "/healthcheck", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthcheck: status=%d", rec.Code)
	}
	rec := s.do(nil, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `mh_api_requests_total{method="GET",route="/healthcheck",status="200"}`) {
		t.Fatalf("metrics: status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestRequestsWithoutCallerAreUnauthorized(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(nil, http.MethodGet, "/api/me", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: want=401 got=%d", rec.Code)
	}
	if body := decode[errorBody](t, rec); body.Error.Code != "unauthorized" {
		t.Fatalf("code: want=unauthorized got=%s", body.Error.Code)
	}
}

func TestPermissionDeniedUsesFixedMessage(t *testing.T) {
	s := newTestServer(t)
	m := s.createModel(basePayload)

	rec := s.do(s.res, http.MethodPost, "/api/models/"+m.ID.String()+"/publish", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status: want=403 got=%d", rec.Code)
	}
	body := decode[errorBody](t, rec)
	if body.Error.Code != "permission_denied" || body.Error.Message != "insufficient permissions" {
		t.Fatalf("envelope: got=%+v", body.Error)
	}
}

func TestContributionToExperimentalModelFlow(t *testing.T) {
	s := newTestServer(t)
	base := s.createModel(basePayload)
	if base.Version != 1 || base.Status != "experimental" {
		t.Fatalf("base model: version=%d status=%s", base.Version, base.Status)
	}

	rec := s.do(s.res, http.MethodPost, "/api/contributions", map[string]any{
		"target_model_id": base.ID,
		"weights_payload": json.RawMessage(`{"weights":[[[3,4],[5,6]]],"architecture":"{\"class_name\":\"Sequential\"}"}`),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: status=%d body=%s", rec.Code, rec.Body.String())
	}
	contrib := decode[struct {
		Contribution types.Contribution `json:"contribution"`
	}](t, rec).Contribution
	if contrib.Status != "pending" {
		t.Fatalf("submit status: want=pending got=%s", contrib.Status)
	}

	rec = s.do(s.admin, http.MethodGet, "/api/contributions", nil)
	review := decode[struct {
		Contributions []types.Contribution `json:"contributions"`
	}](t, rec).Contributions
	if len(review) != 1 || review[0].ID != contrib.ID {
		t.Fatalf("review list: got=%d rows", len(review))
	}

	rec = s.do(s.admin, http.MethodPost, "/api/experimental-models", map[string]any{
		"target_model_id":   base.ID,
		"contribution_ids":  []uuid.UUID{contrib.ID},
		"model_name":        "tumor-cnn v2",
		"model_description": "averaged",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("aggregate: status=%d body=%s", rec.Code, rec.Body.String())
	}
	created := decode[struct {
		Model types.Model `json:"model"`
	}](t, rec).Model
	if created.Version != 2 || created.Status != "experimental" {
		t.Fatalf("experimental model: version=%d status=%s", created.Version, created.Status)
	}

	rec = s.do(s.admin, http.MethodGet, "/api/models/"+created.ID.String()+"/weights", nil)
	var payload struct {
		Weights [][][]float64 `json:"weights"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("weights: %v body=%s", err, rec.Body.String())
	}
	if payload.Weights[0][0][0] != 2 || payload.Weights[0][1][1] != 5 {
		t.Fatalf("averaged weights: got=%v", payload.Weights)
	}

	me := decode[struct {
		Me types.User `json:"me"`
	}](t, s.do(s.res, http.MethodGet, "/api/me", nil)).Me
	if me.TotalPoints != 10 {
		t.Fatalf("researcher points: want=10 got=%d", me.TotalPoints)
	}

	inbox := decode[struct {
		Notifications []types.InboxItem `json:"notifications"`
	}](t, s.do(s.res, http.MethodGet, "/api/notifications", nil)).Notifications
	if len(inbox) != 1 || inbox[0].IsRead {
		t.Fatalf("researcher inbox: got=%+v", inbox)
	}
	if rec := s.do(s.res, http.MethodPost, "/api/notifications/"+inbox[0].ID.String()+"/read", nil); rec.Code != http.StatusOK {
		t.Fatalf("mark read: status=%d body=%s", rec.Code, rec.Body.String())
	}

	listReview := func(query string) []types.Contribution {
		t.Helper()
		rec := s.do(s.admin, http.MethodGet, "/api/contributions"+query, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("review %q: status=%d body=%s", query, rec.Code, rec.Body.String())
		}
		return decode[struct {
			Contributions []types.Contribution `json:"contributions"`
		}](t, rec).Contributions
	}
	if rows := listReview("?status=pending"); len(rows) != 0 {
		t.Fatalf("pending after aggregation: want=0 got=%d", len(rows))
	}
	all := listReview("?status=all")
	if len(all) != 1 || all[0].Status != "aggregated" {
		t.Fatalf("status=all: got=%+v", all)
	}
	if rows := listReview(""); len(rows) != 1 {
		t.Fatalf("no filter: want=1 got=%d", len(rows))
	}
	if rec := s.do(s.admin, http.MethodGet, "/api/contributions?status=merged", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown status: want=400 got=%d", rec.Code)
	}
}

func TestMultipartContributionSubmit(t *testing.T) {
	s := newTestServer(t)
	base := s.createModel(basePayload)

	rec := s.multipart(s.res, "/api/contributions", map[string]string{
		"target_model_id": base.ID.String(),
	}, "file", "weights.json", []byte(basePayload))
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: status=%d body=%s", rec.Code, rec.Body.String())
	}
	contrib := decode[struct {
		Contribution types.Contribution `json:"contribution"`
	}](t, rec).Contribution
	if !strings.HasPrefix(contrib.WeightsRef, blobstore.DestinationContributions+"/") {
		t.Fatalf("weights ref: got=%q", contrib.WeightsRef)
	}

	rec = s.multipart(s.res, "/api/contributions", map[string]string{
		"target_model_id": base.ID.String(),
	}, "file", "weights.json", []byte("not json"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("garbage submit: want=400 got=%d", rec.Code)
	}
}

func TestInvalidPathIDIsValidationError(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(s.member, http.MethodGet, "/api/models/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d", rec.Code)
	}
	if body := decode[errorBody](t, rec); body.Error.Code != "validation" {
		t.Fatalf("code: want=validation got=%s", body.Error.Code)
	}
}

func TestPredictEndpoint(t *testing.T) {
	s := newTestServer(t)
	m := s.createModel(basePayload)

	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png: %v", err)
	}

	rec := s.multipart(s.member, "/api/models/"+m.ID.String()+"/predict", nil, "image", "scan.png", buf.Bytes())
	if rec.Code != http.StatusOK {
		t.Fatalf("predict: status=%d body=%s", rec.Code, rec.Body.String())
	}
	out := decode[struct {
		Prediction string             `json:"prediction"`
		Scores     map[string]float64 `json:"confidence_scores"`
	}](t, rec)
	if out.Prediction != "pituitary" || len(out.Scores) != 4 {
		t.Fatalf("prediction: got=%+v", out)
	}
	if s.infer.calls != 1 {
		t.Fatalf("inference calls: want=1 got=%d", s.infer.calls)
	}

	rec = s.multipart(s.member, "/api/models/"+m.ID.String()+"/predict", nil, "", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing image: want=400 got=%d", rec.Code)
	}
}

func TestAdminUserManagement(t *testing.T) {
	s := newTestServer(t)

	users := decode[struct {
		Users []types.User `json:"users"`
	}](t, s.do(s.admin, http.MethodGet, "/api/users", nil)).Users
	if len(users) != 2 {
		t.Fatalf("list users: want=2 (caller excluded) got=%d", len(users))
	}

	rec := s.do(s.admin, http.MethodPatch, "/api/users/"+s.member.ID.String()+"/role", map[string]string{"role": "Researcher"})
	if rec.Code != http.StatusOK {
		t.Fatalf("assign role: status=%d body=%s", rec.Code, rec.Body.String())
	}

	if rec := s.do(s.admin, http.MethodDelete, "/api/users/"+s.admin.ID.String(), nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("self delete: want=400 got=%d", rec.Code)
	}
	if rec := s.do(s.admin, http.MethodDelete, "/api/users/"+s.member.ID.String(), nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: want=204 got=%d", rec.Code)
	}
}
