package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiterExhaustion(t *testing.T) {
	limiter := NewRateLimiter(3, time.Hour)

	for i := 0; i < 3; i++ {
		require.True(t, limiter.Allow("10.0.0.1"))
	}
	require.False(t, limiter.Allow("10.0.0.1"))

	// Other keys have their own bucket
	require.True(t, limiter.Allow("10.0.0.2"))
}

func TestRateLimiterRefill(t *testing.T) {
	limiter := NewRateLimiter(1, 10*time.Millisecond)

	require.True(t, limiter.Allow("key"))
	require.False(t, limiter.Allow("key"))

	time.Sleep(15 * time.Millisecond)
	require.True(t, limiter.Allow("key"))
}
