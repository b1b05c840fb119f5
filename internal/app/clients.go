package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/modelhub-backend/internal/platform/blobstore"
	"github.com/yungbote/modelhub-backend/internal/platform/inference"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
	"github.com/yungbote/modelhub-backend/internal/platform/redisbus"
)

type Clients struct {
	Blobs     blobstore.Store
	Bus       redisbus.Bus
	Inference inference.Client
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Blob store
	blobs, err := resolveBlobStore(ctx, log, cfg)
	if err != nil {
		return Clients{}, err
	}

	// Redis
	bus := redisbus.Nop()
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		b, err := redisbus.New(ctx, log, cfg.Redis)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis notification bus: %w", err)
		}
		bus = b
	} else {
		log.Warn("REDIS_ADDR not set; realtime notification push disabled")
	}

	// Inference
	var infer inference.Client
	if strings.TrimSpace(cfg.Inference.BaseURL) != "" {
		c, err := inference.NewClient(log, cfg.Inference)
		if err != nil {
			_ = bus.Close()
			return Clients{}, fmt.Errorf("init inference client: %w", err)
		}
		infer = c
	} else {
		log.Warn("INFERENCE_URL not set; predictions will fail")
	}

	return Clients{Blobs: blobs, Bus: bus, Inference: infer}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
}
