package retry

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dishprice-workers/internal/common/errors"
)

func transient() error {
	return errors.NewTransientNetworkError("Swiggy", "search", stderrors.New("connection refused"))
}

func TestRun_ExactAttemptsWhenAlwaysFailing(t *testing.T) {
	for _, n := range []int{1, 2, 3} {
		calls := 0
		observed := 0
		m := New(Policy{MaxAttempts: n, Backoff: time.Millisecond}, func(attempt int, err error) {
			observed++
			assert.Equal(t, observed, attempt)
		})

		outcome := m.Run(context.Background(), func(ctx context.Context) error {
			calls++
			return transient()
		})

		assert.Equal(t, n, calls)
		assert.Equal(t, n, observed)
		assert.Equal(t, n, outcome.Attempts)
		assert.Equal(t, Exhausted, outcome.State)
		assert.Equal(t, Exhausted, m.State())
		assert.Equal(t, errors.ErrCodeTransientNetwork, errors.CodeOf(outcome.Err))
	}
}

func TestRun_BackoffBetweenAttemptsOnly(t *testing.T) {
	backoff := 40 * time.Millisecond
	var stamps []time.Time

	start := time.Now()
	New(Policy{MaxAttempts: 3, Backoff: backoff}, nil).Run(context.Background(), func(ctx context.Context) error {
		stamps = append(stamps, time.Now())
		return transient()
	})
	elapsed := time.Since(start)

	require.Len(t, stamps, 3)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), backoff)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), backoff)
	// two pauses, none after the last attempt
	assert.Less(t, elapsed, 3*backoff)
}

func TestRun_SucceedsAfterFailure(t *testing.T) {
	calls := 0
	outcome := New(Policy{MaxAttempts: 3, Backoff: time.Millisecond}, nil).Run(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return errors.NewMalformedResponseError("Zomato", "menu", stderrors.New("bad json"))
		}
		return nil
	})

	assert.Equal(t, 2, calls)
	assert.Equal(t, Succeeded, outcome.State)
	assert.NoError(t, outcome.Err)
}

func TestRun_NonRetryableStopsImmediately(t *testing.T) {
	calls := 0
	outcome := New(Policy{MaxAttempts: 3}, nil).Run(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.NewInvalidCompareInputError("dish")
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, Exhausted, outcome.State)
}

func TestRun_CancelledContextForcesExhausted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	outcome := New(Policy{MaxAttempts: 5}, nil).Run(ctx, func(ctx context.Context) error {
		calls++
		return nil
	})

	assert.Equal(t, 0, calls)
	assert.Equal(t, Exhausted, outcome.State)
	assert.ErrorIs(t, outcome.Err, context.Canceled)
}

func TestRun_DeadlineDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	calls := 0
	start := time.Now()
	outcome := New(Policy{MaxAttempts: 5, Backoff: time.Second}, nil).Run(ctx, func(ctx context.Context) error {
		calls++
		return transient()
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, Exhausted, outcome.State)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, errors.ErrCodeTransientNetwork, errors.CodeOf(outcome.Err))
}

func TestDo_ReturnsZeroOnExhaustion(t *testing.T) {
	got, outcome := Do(context.Background(), Policy{MaxAttempts: 2}, nil, func(ctx context.Context) ([]string, error) {
		return []string{"partial"}, transient()
	})
	assert.Nil(t, got)
	assert.Equal(t, 2, outcome.Attempts)

	got, outcome = Do(context.Background(), DefaultPolicy, nil, func(ctx context.Context) ([]string, error) {
		return []string{"ok"}, nil
	})
	assert.Equal(t, []string{"ok"}, got)
	assert.Equal(t, Succeeded, outcome.State)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "attempting", Attempting.String())
	assert.Equal(t, "succeeded", Succeeded.String())
	assert.Equal(t, "exhausted", Exhausted.String())
}
