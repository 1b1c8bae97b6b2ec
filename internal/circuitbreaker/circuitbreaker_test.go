package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func fail(ctx context.Context) error { return errBoom }

func succeed(ctx context.Context) error { return nil }

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	cb := New(&Config{FailureThreshold: 3, SuccessThreshold: 1, OpenTimeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(ctx, fail), errBoom)
	}
	assert.Equal(t, StateOpen, cb.State())

	err := cb.Execute(ctx, succeed)
	assert.ErrorIs(t, err, ErrOpen)
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := New(&Config{FailureThreshold: 3, SuccessThreshold: 1, OpenTimeout: time.Minute})
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, fail))
	require.Error(t, cb.Execute(ctx, fail))
	require.NoError(t, cb.Execute(ctx, succeed))
	require.Error(t, cb.Execute(ctx, fail))
	require.Error(t, cb.Execute(ctx, fail))

	assert.Equal(t, StateClosed, cb.State())
}

func TestHalfOpenAfterTimeout(t *testing.T) {
	cb := New(&Config{FailureThreshold: 1, SuccessThreshold: 1, OpenTimeout: 10 * time.Millisecond})
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, fail))
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(15 * time.Millisecond)

	// The probe request is allowed and closes the circuit on success.
	require.NoError(t, cb.Execute(ctx, succeed))
	assert.Equal(t, StateClosed, cb.State())
}

func TestFailedProbeReopens(t *testing.T) {
	cb := New(&Config{FailureThreshold: 1, SuccessThreshold: 1, OpenTimeout: 10 * time.Millisecond})
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, fail))
	time.Sleep(15 * time.Millisecond)

	require.ErrorIs(t, cb.Execute(ctx, fail), errBoom)
	assert.Equal(t, StateOpen, cb.State())
}

func TestForceOpen(t *testing.T) {
	cb := New(&Config{FailureThreshold: 5, SuccessThreshold: 1, OpenTimeout: 10 * time.Millisecond})
	ctx := context.Background()

	cb.ForceOpen(time.Hour)
	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(ctx, succeed), ErrOpen)

	// The forced window overrides the short configured timeout.
	time.Sleep(15 * time.Millisecond)
	assert.ErrorIs(t, cb.Execute(ctx, succeed), ErrOpen)
}

func TestResetRestoresConfiguredTimeout(t *testing.T) {
	cb := New(&Config{FailureThreshold: 1, SuccessThreshold: 1, OpenTimeout: time.Minute})
	ctx := context.Background()

	cb.ForceOpen(time.Hour)
	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	assert.NoError(t, cb.Execute(ctx, succeed))
}

func TestOnStateChange(t *testing.T) {
	var transitions []string
	cb := New(&Config{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		OpenTimeout:      5 * time.Millisecond,
		OnStateChange: func(from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, fail))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, cb.Execute(ctx, succeed))

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestGetStats(t *testing.T) {
	cb := New(&Config{FailureThreshold: 1, SuccessThreshold: 1, OpenTimeout: time.Minute})
	ctx := context.Background()

	require.NoError(t, cb.Execute(ctx, succeed))
	require.Error(t, cb.Execute(ctx, fail))
	require.ErrorIs(t, cb.Execute(ctx, succeed), ErrOpen)

	stats := cb.GetStats()
	assert.Equal(t, StateOpen, stats.State)
	assert.Equal(t, int64(2), stats.TotalRequests)
	assert.Equal(t, int64(1), stats.TotalFailures)
	assert.Equal(t, int64(1), stats.TotalRejections)
}
