package app

import (
	"context"
	"time"

	"github.com/yungbote/modelhub-backend/internal/observability"
	"github.com/yungbote/modelhub-backend/internal/platform/blobstore"
	"github.com/yungbote/modelhub-backend/internal/platform/redisbus"
)

type instrumentedBlobStore struct {
	provider string
	inner    blobstore.Store
	metrics  *observability.Metrics
}

func instrumentBlobStore(provider string, inner blobstore.Store, m *observability.Metrics) blobstore.Store {
	if inner == nil || m == nil {
		return inner
	}
	return &instrumentedBlobStore{provider: provider, inner: inner, metrics: m}
}

func (s *instrumentedBlobStore) Store(ctx context.Context, data []byte, filename, destination string) (string, error) {
	start := time.Now()
	ref, err := s.inner.Store(ctx, data, filename, destination)
	s.observe("store", err, time.Since(start))
	return ref, err
}

func (s *instrumentedBlobStore) Read(ctx context.Context, ref string) ([]byte, error) {
	start := time.Now()
	out, err := s.inner.Read(ctx, ref)
	s.observe("read", err, time.Since(start))
	return out, err
}

func (s *instrumentedBlobStore) observe(op string, err error, dur time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metrics.ObserveBlobStoreOperation(s.provider, op, status, dur)
}

type instrumentedBus struct {
	redisbus.Bus
	metrics *observability.Metrics
}

func instrumentBus(inner redisbus.Bus, m *observability.Metrics) redisbus.Bus {
	if inner == nil || m == nil {
		return inner
	}
	return &instrumentedBus{Bus: inner, metrics: m}
}

func (b *instrumentedBus) Publish(ctx context.Context, ev redisbus.Event) error {
	err := b.Bus.Publish(ctx, ev)
	b.metrics.IncBusPublish(err == nil)
	return err
}
