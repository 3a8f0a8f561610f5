package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiterBurstThenRefill(t *testing.T) {
	cur := time.Now()
	clock := func() time.Time { return cur }
	l := newLimiterWithClock(60, 5, clock) // 1 token/sec, burst 5

	for i := 0; i < 5; i++ {
		require.True(t, l.Check(), "acquire %d should succeed within burst", i)
	}
	require.False(t, l.Check(), "burst exhausted, next acquire should fail")

	// Advance past burst/refill_rate + epsilon.
	cur = cur.Add(5*time.Second + 100*time.Millisecond)
	require.True(t, l.Check(), "bucket should be replenished after burst/refill_rate")
}

func TestLimiterZeroRefillRateNeverReplenishes(t *testing.T) {
	cur := time.Now()
	clock := func() time.Time { return cur }
	l := newLimiterWithClock(0, 2, clock)

	require.True(t, l.Check())
	require.True(t, l.Check())
	require.False(t, l.Check())

	cur = cur.Add(time.Hour)
	require.False(t, l.Check(), "refill_rate <= 0 means only the initial burst is ever available")
}

func TestRegistryPerConnectorIsolation(t *testing.T) {
	reg := NewRegistry(Config{
		Default: LimitConfig{MaxRequestsPerMinute: 60, Burst: 1},
		PerConnector: map[string]LimitConfig{
			"slack": {MaxRequestsPerMinute: 60, Burst: 10},
		},
	})

	require.True(t, reg.Check("slack"))
	require.True(t, reg.Check("discord")) // default burst 1
	require.False(t, reg.Check("discord"), "discord's burst should be exhausted")
	require.True(t, reg.Check("slack"), "slack's bucket is independent of discord's")
}
