package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts:  maxAttempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result := New(fastConfig(3)).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, result.Err)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	result := New(fastConfig(5)).Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, result.Err)
	assert.Equal(t, 3, result.Attempts)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	result := New(fastConfig(3)).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return boom
	})

	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, boom)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	result := New(fastConfig(5)).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return &PermanentError{Err: errors.New("bad request")}
	})

	require.Error(t, result.Err)
	assert.Equal(t, 1, calls)
}

func TestDoHonorsRetryIf(t *testing.T) {
	config := fastConfig(5)
	config.RetryIf = func(err error) bool { return false }

	calls := 0
	result := New(config).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("whatever")
	})

	require.Error(t, result.Err)
	assert.Equal(t, 1, calls)
}

func TestDoCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := New(fastConfig(3)).Do(ctx, func(ctx context.Context) error {
		t.Fatal("operation should not run on a cancelled context")
		return nil
	})

	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, context.Canceled)
}

func TestDoCancelledDuringDelay(t *testing.T) {
	config := &Config{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		Multiplier:   2.0,
	}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	result := New(config).Do(ctx, func(ctx context.Context) error {
		calls++
		return errors.New("transient")
	})

	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDefaultRetryIf(t *testing.T) {
	assert.False(t, DefaultRetryIf(nil))
	assert.False(t, DefaultRetryIf(&PermanentError{Err: errors.New("x")}))
	assert.True(t, DefaultRetryIf(&TemporaryError{Err: errors.New("x")}))
	assert.True(t, DefaultRetryIf(errors.New("unclassified")))
}

func TestNextRespectsMaxDelay(t *testing.T) {
	r := New(&Config{
		MaxAttempts:  1,
		InitialDelay: 8 * time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
		Multiplier:   4.0,
	})
	assert.Equal(t, 10*time.Millisecond, r.next(8*time.Millisecond))
}
