package testutil

import (
	"context"
	"sync"

	"github.com/yungbote/modelhub-backend/internal/data/aggregates"
	"github.com/yungbote/modelhub-backend/internal/platform/dbctx"
)

// TxCalls counts what an InjectedTxRunner saw.
type TxCalls struct {
	Begin    int
	Commit   int
	Rollback int
}

// InjectedTxRunner injects failures around an aggregate write. With Delegate
// set the body runs inside the delegate's real transaction, and an injected
// commit failure is returned from inside it so every write is rolled back.
// Without a Delegate the body gets a dbctx.Context with no Tx.
type InjectedTxRunner struct {
	Delegate aggregates.TxRunner

	FailBegin      error
	FailBeforeBody error
	FailCommit     error
	// FailAttempts limits injection to the first N calls; 0 injects on every call.
	FailAttempts int

	mu    sync.Mutex
	calls TxCalls
}

var _ aggregates.TxRunner = (*InjectedTxRunner)(nil)

func (r *InjectedTxRunner) Calls() TxCalls {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *InjectedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.calls.Begin++
	inject := r.FailAttempts <= 0 || r.calls.Begin <= r.FailAttempts
	r.mu.Unlock()

	if inject && r.FailBegin != nil {
		return r.FailBegin
	}
	if inject && r.FailBeforeBody != nil {
		r.count(&r.calls.Rollback)
		return r.FailBeforeBody
	}

	body := func(dbc dbctx.Context) error {
		if fn != nil {
			if err := fn(dbc); err != nil {
				return err
			}
		}
		if inject && r.FailCommit != nil {
			return r.FailCommit
		}
		return nil
	}

	var err error
	if r.Delegate != nil {
		err = r.Delegate.InTx(ctx, body)
	} else {
		err = body(dbctx.Context{Ctx: ctx})
	}
	if err != nil {
		r.count(&r.calls.Rollback)
		return err
	}
	r.count(&r.calls.Commit)
	return nil
}

func (r *InjectedTxRunner) count(n *int) {
	r.mu.Lock()
	*n++
	r.mu.Unlock()
}
