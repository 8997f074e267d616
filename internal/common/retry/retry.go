// Package retry runs an operation through a bounded, fixed-backoff retry state
// machine. An operation ends either Succeeded or Exhausted; callers decide what
// an exhausted operation degrades to.
package retry

import (
	"context"
	"time"

	"dishprice-workers/internal/common/errors"
)

// State of a retried operation.
type State int

const (
	Attempting State = iota
	Succeeded
	Exhausted
)

func (s State) String() string {
	switch s {
	case Attempting:
		return "attempting"
	case Succeeded:
		return "succeeded"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Policy bounds the number of attempts and the pause between them.
type Policy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultPolicy is two attempts one second apart.
var DefaultPolicy = Policy{
	MaxAttempts: 2,
	Backoff:     1 * time.Second,
}

// Outcome describes how a run ended.
type Outcome struct {
	State    State
	Attempts int
	Err      error // last failure, nil on success
}

// Observer is notified after every failed attempt.
type Observer func(attempt int, err error)

// Machine drives one operation. It is not safe for concurrent use; create one
// per call.
type Machine struct {
	policy   Policy
	observer Observer

	state    State
	attempts int
	lastErr  error
}

// New creates a machine in the Attempting state.
func New(policy Policy, observer Observer) *Machine {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.Backoff < 0 {
		policy.Backoff = 0
	}
	return &Machine{policy: policy, observer: observer, state: Attempting}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Run executes op until it succeeds, fails with a non-retryable error, the
// attempt budget is spent or ctx is done. Backoff happens only between
// attempts, never after the last one.
func (m *Machine) Run(ctx context.Context, op func(ctx context.Context) error) Outcome {
	for m.state == Attempting {
		if err := ctx.Err(); err != nil {
			m.exhaust(err)
			break
		}

		m.attempts++
		err := op(ctx)
		if err == nil {
			m.state = Succeeded
			m.lastErr = nil
			break
		}

		m.lastErr = err
		if m.observer != nil {
			m.observer(m.attempts, err)
		}

		if !errors.IsRetryable(err) || m.attempts >= m.policy.MaxAttempts {
			m.state = Exhausted
			break
		}

		if err := sleep(ctx, m.policy.Backoff); err != nil {
			m.exhaust(err)
		}
	}

	return Outcome{State: m.state, Attempts: m.attempts, Err: m.lastErr}
}

func (m *Machine) exhaust(ctxErr error) {
	m.state = Exhausted
	if m.lastErr == nil {
		m.lastErr = ctxErr
	}
}

// Do runs op through a fresh machine and returns its value. On exhaustion the
// zero value of T is returned alongside the outcome.
func Do[T any](ctx context.Context, policy Policy, observer Observer, op func(ctx context.Context) (T, error)) (T, Outcome) {
	var result T
	outcome := New(policy, observer).Run(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if outcome.State != Succeeded {
		var zero T
		return zero, outcome
	}
	return result, outcome
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
