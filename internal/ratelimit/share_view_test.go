package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/linkwell/orderdesk/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedWindowAllowsUpToLimit(t *testing.T) {
	w := newFixedWindow(3, time.Minute)

	for i := 0; i < 3; i++ {
		res := w.allow("10.0.0.1")
		assert.True(t, res.Allowed)
		assert.Equal(t, 3, res.Limit)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res := w.allow("10.0.0.1")
	assert.False(t, res.Allowed)
	assert.Zero(t, res.Remaining)
	assert.Greater(t, res.RetryAfter, time.Duration(0))
}

func TestFixedWindowKeysAreIndependent(t *testing.T) {
	w := newFixedWindow(1, time.Minute)

	assert.True(t, w.allow("10.0.0.1").Allowed)
	assert.False(t, w.allow("10.0.0.1").Allowed)
	assert.True(t, w.allow("10.0.0.2").Allowed, "a saturated key must not block others")
}

func TestFixedWindowResets(t *testing.T) {
	w := newFixedWindow(1, 10*time.Millisecond)

	assert.True(t, w.allow("10.0.0.1").Allowed)
	assert.False(t, w.allow("10.0.0.1").Allowed)

	time.Sleep(20 * time.Millisecond)
	assert.True(t, w.allow("10.0.0.1").Allowed, "counter resets after the window")
}

func TestShareViewLimiterFallsBackWithoutRedis(t *testing.T) {
	limiter := NewShareViewLimiter(config.Config{
		ShareViewRate:  2,
		ShareViewBurst: 2,
	})

	res, err := limiter.Allow(context.Background(), "203.0.113.9")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = limiter.Allow(context.Background(), "203.0.113.9")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = limiter.Allow(context.Background(), "203.0.113.9")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
}

func TestShareViewLimiterBlankIP(t *testing.T) {
	limiter := NewShareViewLimiter(config.Config{ShareViewRate: 1})

	res, err := limiter.Allow(context.Background(), "   ")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	// Blank addresses all share the fallback key.
	res, err = limiter.Allow(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
}
