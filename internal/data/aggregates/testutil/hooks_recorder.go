package testutil

import (
	"sync"
	"time"

	"github.com/yungbote/modelhub-backend/internal/data/aggregates"
)

// HooksRecorder keeps every aggregate hook signal, grouped by operation name.
type HooksRecorder struct {
	mu        sync.Mutex
	ops       []OperationEvent
	conflicts map[string]int
	retries   map[string]int
}

type OperationEvent struct {
	Name     string
	Status   string
	Duration time.Duration
}

var _ aggregates.Hooks = (*HooksRecorder)(nil)

func (h *HooksRecorder) ObserveOperation(name, status string, dur time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ops = append(h.ops, OperationEvent{Name: name, Status: status, Duration: dur})
}

func (h *HooksRecorder) IncConflict(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conflicts == nil {
		h.conflicts = map[string]int{}
	}
	h.conflicts[name]++
}

func (h *HooksRecorder) IncRetry(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.retries == nil {
		h.retries = map[string]int{}
	}
	h.retries[name]++
}

// Operations returns a copy of every observed operation in call order.
func (h *HooksRecorder) Operations() []OperationEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]OperationEvent(nil), h.ops...)
}

// Statuses lists the outcome of each call to op, oldest first.
func (h *HooksRecorder) Statuses(op string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, ev := range h.ops {
		if ev.Name == op {
			out = append(out, ev.Status)
		}
	}
	return out
}

func (h *HooksRecorder) Conflicts(op string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.conflicts[op]
}

func (h *HooksRecorder) Retries(op string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.retries[op]
}
