package aggregates

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	domainagg "github.com/yungbote/modelhub-backend/internal/domain/aggregates"
	"github.com/yungbote/modelhub-backend/internal/platform/dbctx"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
)

// defaultWriteAttempts bounds executeWriteRetry.
const defaultWriteAttempts = 5

type BaseDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Runner   TxRunner
	Hooks    Hooks
	CASGuard CASGuard
	// Attempts caps retries of conflict/retryable writes; 0 means defaultWriteAttempts.
	Attempts int
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.CASGuard.db == nil {
		d.CASGuard = NewCASGuard(d.DB)
	}
	if d.Attempts <= 0 {
		d.Attempts = defaultWriteAttempts
	}
	return d
}

func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate.write"
	}
	err := deps.Runner.InTx(ctx, fn)
	mapped := MapError(op, err)

	status := "success"
	if mapped != nil {
		status = aggregateErrorStatus(mapped)
		if domainagg.IsCode(mapped, domainagg.CodeConflict) {
			deps.Hooks.IncConflict(op)
		}
		if domainagg.IsCode(mapped, domainagg.CodeRetryable) {
			deps.Hooks.IncRetry(op)
		}
	}
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return mapped
}

// executeWriteRetry reruns the whole transaction when it fails with a conflict
// or retryable code. fn must be safe to run more than once.
func executeWriteRetry(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	deps = deps.withDefaults()
	var err error
	for attempt := 1; attempt <= deps.Attempts; attempt++ {
		err = executeWrite(ctx, deps, op, fn)
		if err == nil || !retryableCode(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
		deps.Log.Debug("aggregate write retry", "op", op, "attempt", attempt, "error", err)
		backoff := time.Duration(attempt*attempt) * 5 * time.Millisecond
		select {
		case <-ctx.Done():
			return err
		case <-time.After(backoff):
		}
	}
	return err
}

func retryableCode(err error) bool {
	return domainagg.IsCode(err, domainagg.CodeConflict) || domainagg.IsCode(err, domainagg.CodeRetryable)
}

func aggregateErrorStatus(err error) string {
	if err == nil {
		return "success"
	}
	code := strings.TrimSpace(string(domainagg.CodeOf(err)))
	if code == "" {
		code = strings.TrimSpace(string(domainagg.CodeOf(MapError("aggregate.status", err))))
	}
	if code == "" {
		return "failure"
	}
	return code
}
