package provider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllowExhaustsTokens(t *testing.T) {
	rl := NewRateLimiter(3)
	require.NotNil(t, rl)

	assert.True(t, rl.Allow())
	assert.True(t, rl.Allow())
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())
}

func TestRateLimiterNilIsUnlimited(t *testing.T) {
	var rl *RateLimiter
	assert.True(t, rl.Allow())
	assert.NoError(t, rl.Wait(context.Background()))

	assert.Nil(t, NewRateLimiter(0))
}

func TestRateLimiterWaitCancellation(t *testing.T) {
	rl := NewRateLimiter(1)
	require.True(t, rl.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := rl.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
