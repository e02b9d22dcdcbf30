package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r := newRateLimiter(1, 1)
	r.now = func() time.Time { return now }
	r.lastSweep = now

	r.limiterFor("10.0.0.1")
	r.limiterFor("10.0.0.2")
	assert.Equal(t, 2, r.size())

	now = now.Add(limiterIdleTTL / 2)
	r.limiterFor("10.0.0.2")

	// 10.0.0.1 has been idle past the TTL, 10.0.0.2 has not.
	now = now.Add(limiterIdleTTL/2 + time.Second)
	r.limiterFor("10.0.0.3")
	assert.Equal(t, 2, r.size())

	_, ok := r.buckets["10.0.0.1"]
	assert.False(t, ok)
	_, ok = r.buckets["10.0.0.2"]
	assert.True(t, ok)
}

func TestRateLimiter_KeepsBucketWhileActive(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r := newRateLimiter(0.001, 1)
	r.now = func() time.Time { return now }
	r.lastSweep = now

	assert.True(t, r.limiterFor("10.0.0.1").Allow())
	now = now.Add(time.Minute)
	assert.False(t, r.limiterFor("10.0.0.1").Allow(), "same bucket, token already spent")
}
