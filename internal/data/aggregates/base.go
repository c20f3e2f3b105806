package aggregates

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	domainagg "github.com/yungbote/skillbharat-backend/internal/domain/aggregates"
	"github.com/yungbote/skillbharat-backend/internal/pkg/dbctx"
	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
)

type BaseDeps struct {
	DB     *gorm.DB
	Log    *logger.Logger
	Runner TxRunner
	Hooks  Hooks
	// Now defaults to time.Now in UTC.
	Now func() time.Time
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = HookFuncs{}
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

func (d BaseDeps) at(t time.Time) time.Time {
	if t.IsZero() {
		return d.Now()
	}
	return t.UTC()
}

// executeWrite runs fn exactly once inside the runner's transaction. A retryable failure is
// counted and returned; whether to try again is the caller's decision.
func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate.write"
	}

	mapped := MapError(op, deps.Runner.InTx(ctx, fn))

	status := "success"
	if mapped != nil {
		status = aggregateErrorStatus(mapped)
		switch {
		case domainagg.IsCode(mapped, domainagg.CodeConflict):
			deps.Hooks.IncConflict(op)
		case domainagg.IsCode(mapped, domainagg.CodeRetryable):
			deps.Hooks.IncRetry(op)
		}
		deps.Log.Debug("aggregate write failed", "op", op, "code", status, "error", mapped)
	}
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return mapped
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
