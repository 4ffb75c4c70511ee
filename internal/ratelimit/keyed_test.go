package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/garyellow/taichung-eats-linebot/internal/metrics"
)

func TestKeyedLimiter_PerKey(t *testing.T) {
	t.Parallel()
	kl := NewKeyedLimiter(KeyedConfig{Name: "user", Burst: 1, RefillRate: 0.001, CleanupPeriod: time.Hour})
	defer kl.Stop()

	assert.True(t, kl.Allow("U1"))
	assert.False(t, kl.Allow("U1"))
	assert.True(t, kl.Allow("U2"))
	assert.Equal(t, 2, kl.ActiveCount())
}

func TestKeyedLimiter_EmptyKeyAlwaysAllowed(t *testing.T) {
	t.Parallel()
	kl := NewKeyedLimiter(KeyedConfig{Name: "user", Burst: 1, RefillRate: 0, CleanupPeriod: time.Hour})
	defer kl.Stop()

	for range 5 {
		assert.True(t, kl.Allow(""))
	}
	assert.Equal(t, 0, kl.ActiveCount())
}

func TestKeyedLimiter_Available(t *testing.T) {
	t.Parallel()
	kl := NewKeyedLimiter(KeyedConfig{Name: "user", Burst: 5, RefillRate: 0, CleanupPeriod: time.Hour})
	defer kl.Stop()

	assert.InDelta(t, 5, kl.Available("nobody"), 0.001)
	kl.Allow("U1")
	assert.InDelta(t, 4, kl.Available("U1"), 0.01)
}

func TestKeyedLimiter_CleanupDropsIdleKeys(t *testing.T) {
	t.Parallel()
	kl := NewKeyedLimiter(KeyedConfig{Name: "user", Burst: 2, RefillRate: 1000, CleanupPeriod: 20 * time.Millisecond})
	defer kl.Stop()

	kl.Allow("U1")
	assert.Equal(t, 1, kl.ActiveCount())

	assert.Eventually(t, func() bool { return kl.ActiveCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestKeyedLimiter_CleanupKeepsBusyKeys(t *testing.T) {
	t.Parallel()
	kl := NewKeyedLimiter(KeyedConfig{Name: "user", Burst: 2, RefillRate: 0, CleanupPeriod: time.Hour})
	defer kl.Stop()

	kl.Allow("U1")
	assert.Equal(t, 1, kl.Cleanup())
}

func TestKeyedLimiter_Metrics(t *testing.T) {
	t.Parallel()
	m := metrics.New(prometheus.NewRegistry())
	kl := NewKeyedLimiter(KeyedConfig{Name: "user", Burst: 1, RefillRate: 0, CleanupPeriod: time.Hour, Metrics: m})
	defer kl.Stop()

	kl.Allow("U1")
	kl.Allow("U1")
	kl.Allow("U1")
	assert.InDelta(t, 2, testutil.ToFloat64(m.RateLimiterDropped.WithLabelValues("user")), 0.001)

	kl.Cleanup()
	assert.InDelta(t, 1, testutil.ToFloat64(m.RateLimiterUsers), 0.001)
}

func TestKeyedLimiter_Concurrent(t *testing.T) {
	t.Parallel()
	kl := NewKeyedLimiter(KeyedConfig{Name: "user", Burst: 10, RefillRate: 0, CleanupPeriod: time.Hour})
	defer kl.Stop()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for range 20 {
				kl.Allow(fmt.Sprintf("U%d", id%4))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 4, kl.ActiveCount())
	for i := range 4 {
		assert.Less(t, kl.Available(fmt.Sprintf("U%d", i)), 1.0)
	}
}

func TestKeyedLimiter_StopIdempotent(t *testing.T) {
	t.Parallel()
	kl := NewKeyedLimiter(KeyedConfig{Name: "user", Burst: 1, RefillRate: 1})
	kl.Stop()
	kl.Stop()
}
