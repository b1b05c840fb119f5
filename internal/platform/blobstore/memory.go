package blobstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

type memoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemory returns a process-local store, used in tests and OBJECT_STORAGE_MODE=memory.
func NewMemory() Store {
	return &memoryStore{objects: map[string][]byte{}}
}

func (m *memoryStore) Store(ctx context.Context, data []byte, filename, destination string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := ObjectKey(destination, filename)
	m.mu.Lock()
	m.objects[key] = append([]byte(nil), data...)
	m.mu.Unlock()
	return key, nil
}

func (m *memoryStore) Read(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	b, ok := m.objects[strings.TrimSpace(ref)]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return append([]byte(nil), b...), nil
}
