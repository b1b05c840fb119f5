package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"github.com/yungbote/modelhub-backend/internal/data/repos"
	domainagg "github.com/yungbote/modelhub-backend/internal/domain/aggregates"
	"github.com/yungbote/modelhub-backend/internal/domain/roles"
	"github.com/yungbote/modelhub-backend/internal/platform/dbctx"
	"github.com/yungbote/modelhub-backend/internal/platform/inference"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
)

const predictionImageSize = 128

// PredictionLabels is the class order the inference service scores in.
var PredictionLabels = []string{"glioma", "meningioma", "no tumor", "pituitary"}

type Prediction struct {
	Label            string             `json:"prediction"`
	ConfidenceScores map[string]float64 `json:"confidence_scores"`
}

type PredictionService interface {
	Predict(ctx context.Context, userID, modelID uuid.UUID, img []byte) (Prediction, error)
}

type predictionService struct {
	log    *logger.Logger
	gate   PermissionGate
	models repos.ModelRepo
	client inference.Client
}

func NewPredictionService(log *logger.Logger, gate PermissionGate, models repos.ModelRepo, client inference.Client) PredictionService {
	return &predictionService{
		log:    log.With("service", "PredictionService"),
		gate:   gate,
		models: models,
		client: client,
	}
}

func (s *predictionService) Predict(ctx context.Context, userID, modelID uuid.UUID, img []byte) (_ Prediction, err error) {
	const op = "PredictionService.Predict"
	ctx, span := tracer.Start(ctx, op)
	defer func() { endSpan(span, err) }()

	if _, err = s.gate.Require(ctx, op, userID, roles.Member); err != nil {
		return Prediction{}, err
	}
	if len(img) == 0 {
		return Prediction{}, domainagg.Invalid(op, "image file required")
	}
	m, err := s.models.GetByID(dbctx.Context{Ctx: ctx}, modelID)
	if err != nil {
		return Prediction{}, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if m == nil {
		return Prediction{}, domainagg.NotFound(op, "model", modelID)
	}
	pixels, err := preprocessImage(img, predictionImageSize)
	if err != nil {
		return Prediction{}, domainagg.Invalid(op, err.Error())
	}
	if s.client == nil {
		return Prediction{}, domainagg.NewError(domainagg.CodeInternal, op, "inference service not configured", nil)
	}

	resp, err := s.client.Predict(ctx, inference.Request{
		ModelID:        m.ID,
		ModelVersion:   m.Version,
		WeightsRef:     m.WeightsRef,
		WeightsPayload: []byte(m.WeightsPayload),
		Shape:          [3]int{predictionImageSize, predictionImageSize, 3},
		Pixels:         pixels,
	})
	if err != nil {
		return Prediction{}, err
	}
	return labelScores(resp.Scores)
}

// preprocessImage decodes a PNG or JPEG, scales it to size x size and returns
// RGB values in 0..255, row major.
func preprocessImage(raw []byte, size int) ([]float32, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	out := make([]float32, 0, size*size*3)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			i := dst.PixOffset(x, y)
			out = append(out, float32(dst.Pix[i]), float32(dst.Pix[i+1]), float32(dst.Pix[i+2]))
		}
	}
	return out, nil
}

func labelScores(scores []float64) (Prediction, error) {
	if len(scores) != len(PredictionLabels) {
		return Prediction{}, fmt.Errorf("inference returned %d scores, want %d", len(scores), len(PredictionLabels))
	}
	best := 0
	out := Prediction{ConfidenceScores: make(map[string]float64, len(scores))}
	for i, sc := range scores {
		out.ConfidenceScores[PredictionLabels[i]] = sc
		if sc > scores[best] {
			best = i
		}
	}
	out.Label = PredictionLabels[best]
	return out, nil
}
