package aggregates

import (
	"time"

	"github.com/yungbote/skillbharat-backend/internal/observability"
)

// Hooks receives one ObserveOperation per write plus conflict and retryable-failure signals.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
	IncRetry(name string)
}

// HookFuncs adapts plain funcs to Hooks; nil fields are skipped.
type HookFuncs struct {
	Operation func(name, status string, dur time.Duration)
	Conflict  func(name string)
	Retry     func(name string)
}

func (h HookFuncs) ObserveOperation(name, status string, dur time.Duration) {
	if h.Operation != nil {
		h.Operation(name, status, dur)
	}
}

func (h HookFuncs) IncConflict(name string) {
	if h.Conflict != nil {
		h.Conflict(name)
	}
}

func (h HookFuncs) IncRetry(name string) {
	if h.Retry != nil {
		h.Retry(name)
	}
}

// NewObservabilityHooks reports aggregate writes to prometheus; nil metrics yields no-op hooks.
func NewObservabilityHooks(metrics *observability.Metrics) Hooks {
	if metrics == nil {
		return HookFuncs{}
	}
	return HookFuncs{
		Operation: metrics.ObserveAggregateOperation,
		Conflict:  metrics.IncAggregateConflict,
		Retry:     metrics.IncAggregateRetry,
	}
}
