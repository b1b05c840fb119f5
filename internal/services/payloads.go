package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	domainagg "github.com/yungbote/modelhub-backend/internal/domain/aggregates"
	"github.com/yungbote/modelhub-backend/internal/platform/blobstore"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
	"github.com/yungbote/modelhub-backend/internal/platform/redisbus"
)

var tracer = otel.Tracer("github.com/yungbote/modelhub-backend/internal/services")

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(domainagg.CodeOf(err)))
	}
	span.End()
}

// loadPayload returns the stored weights: the inline payload when present,
// otherwise the blob behind ref.
func loadPayload(ctx context.Context, blobs blobstore.Store, inline datatypes.JSON, ref string) (json.RawMessage, error) {
	if len(inline) > 0 {
		return json.RawMessage(inline), nil
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.New("no weights stored")
	}
	if blobs == nil {
		return nil, fmt.Errorf("weights %q live in the blob store but none is configured", ref)
	}
	b, err := blobs.Read(ctx, ref)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

// publishEvents pushes committed fan-outs to the realtime bus. Delivery rows
// are already durable, so failures are only logged.
func publishEvents(ctx context.Context, log *logger.Logger, bus redisbus.Bus, events ...domainagg.NotificationEvent) {
	if bus == nil {
		return
	}
	for _, ev := range events {
		if ev.NotificationID == uuid.Nil || len(ev.Recipients) == 0 {
			continue
		}
		err := bus.Publish(ctx, redisbus.Event{
			NotificationID: ev.NotificationID,
			Message:        ev.Message,
			Recipients:     ev.Recipients,
			SentAt:         ev.SentAt,
		})
		if err != nil {
			log.Warn("notification publish failed", "notification_id", ev.NotificationID, "error", err)
		}
	}
}
