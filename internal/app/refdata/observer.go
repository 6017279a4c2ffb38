package refdata

import (
	"context"
	"time"
)

// Outcomes reported to observers.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// Event describes one finished create, edit or delete.
type Event struct {
	Kind       string
	Op         string
	TenantCode string
	ActorID    string
	EntryID    string
	Outcome    string
	Reason     string
	Duration   time.Duration
}

// Observer is notified after every mutation, whatever its outcome.
type Observer interface {
	Observe(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev Event)

func (f ObserverFunc) Observe(ctx context.Context, ev Event) { f(ctx, ev) }

func outcome(res Result, err error) (string, string) {
	switch {
	case err != nil && IsValidation(err):
		return OutcomeInvalid, err.Error()
	case err != nil:
		return OutcomeError, err.Error()
	case !res.Status:
		return OutcomeRejected, res.Error
	default:
		return OutcomeOK, ""
	}
}
