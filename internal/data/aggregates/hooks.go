package aggregates

import (
	"strings"
	"time"

	"github.com/yungbote/modelhub-backend/internal/platform/logger"
)

// Hooks captures aggregate-level observability events.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
	IncRetry(name string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncRetry(string)                                {}

// slowWrite is the duration above which a successful write is logged at warn.
const slowWrite = 750 * time.Millisecond

type logHooks struct {
	log *logger.Logger
}

// NewLogHooks reports aggregate outcomes through the structured logger.
func NewLogHooks(log *logger.Logger) Hooks {
	if log == nil {
		return noopHooks{}
	}
	return &logHooks{log: log.With("component", "AggregateHooks")}
}

func (h *logHooks) ObserveOperation(name, status string, dur time.Duration) {
	name = strings.TrimSpace(name)
	switch {
	case status != "success":
		h.log.Info("aggregate write failed", "op", name, "status", status, "duration_ms", dur.Milliseconds())
	case dur > slowWrite:
		h.log.Warn("aggregate write slow", "op", name, "duration_ms", dur.Milliseconds())
	default:
		h.log.Debug("aggregate write", "op", name, "duration_ms", dur.Milliseconds())
	}
}

func (h *logHooks) IncConflict(name string) {
	h.log.Warn("aggregate conflict", "op", strings.TrimSpace(name))
}

func (h *logHooks) IncRetry(name string) {
	h.log.Warn("aggregate retryable failure", "op", strings.TrimSpace(name))
}

type multiHooks []Hooks

// CombineHooks fans every signal out to each non-nil hook.
func CombineHooks(hs ...Hooks) Hooks {
	out := make(multiHooks, 0, len(hs))
	for _, h := range hs {
		if h != nil {
			out = append(out, h)
		}
	}
	switch len(out) {
	case 0:
		return noopHooks{}
	case 1:
		return out[0]
	}
	return out
}

func (m multiHooks) ObserveOperation(name, status string, dur time.Duration) {
	for _, h := range m {
		h.ObserveOperation(name, status, dur)
	}
}

func (m multiHooks) IncConflict(name string) {
	for _, h := range m {
		h.IncConflict(name)
	}
}

func (m multiHooks) IncRetry(name string) {
	for _, h := range m {
		h.IncRetry(name)
	}
}
