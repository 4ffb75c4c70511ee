package ratelimit

import (
	"sync"
	"time"

	"github.com/garyellow/taichung-eats-linebot/internal/metrics"
)

// KeyedConfig configures a KeyedLimiter.
type KeyedConfig struct {
	Name          string        // metrics label, e.g. "user"
	Burst         float64       // bucket size per key
	RefillRate    float64       // tokens per second per key
	CleanupPeriod time.Duration // idle buckets are dropped on this tick
	Metrics       *metrics.Metrics
}

// KeyedLimiter keeps one Limiter per key (a LINE user ID) and drops idle
// ones in the background. Call Stop when done.
type KeyedLimiter struct {
	mu       sync.RWMutex
	entries  map[string]*Limiter
	cfg      KeyedConfig
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewKeyedLimiter starts the cleanup loop and returns the limiter.
func NewKeyedLimiter(cfg KeyedConfig) *KeyedLimiter {
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = 5 * time.Minute
	}
	kl := &KeyedLimiter{
		entries: make(map[string]*Limiter),
		cfg:     cfg,
		stopCh:  make(chan struct{}),
	}
	go kl.cleanupLoop()
	return kl
}

// Allow consumes a token from key's bucket. An empty key is always allowed
// since there is nobody to attribute the request to.
func (kl *KeyedLimiter) Allow(key string) bool {
	if key == "" {
		return true
	}
	if kl.get(key).Allow() {
		return true
	}
	kl.cfg.Metrics.RecordRateLimiterDrop(kl.cfg.Name)
	return false
}

func (kl *KeyedLimiter) get(key string) *Limiter {
	kl.mu.RLock()
	l, ok := kl.entries[key]
	kl.mu.RUnlock()
	if ok {
		return l
	}

	kl.mu.Lock()
	defer kl.mu.Unlock()
	if l, ok = kl.entries[key]; ok {
		return l
	}
	l = New(kl.cfg.Burst, kl.cfg.RefillRate)
	kl.entries[key] = l
	return l
}

// Available returns the tokens left for key, or Burst for an unseen key.
func (kl *KeyedLimiter) Available(key string) float64 {
	kl.mu.RLock()
	l, ok := kl.entries[key]
	kl.mu.RUnlock()
	if !ok {
		return kl.cfg.Burst
	}
	return l.Available()
}

// ActiveCount returns the number of tracked keys.
func (kl *KeyedLimiter) ActiveCount() int {
	kl.mu.RLock()
	defer kl.mu.RUnlock()
	return len(kl.entries)
}

// Cleanup drops keys whose bucket is full and returns how many remain.
func (kl *KeyedLimiter) Cleanup() int {
	kl.mu.Lock()
	for key, l := range kl.entries {
		if l.IsFull() {
			delete(kl.entries, key)
		}
	}
	n := len(kl.entries)
	kl.mu.Unlock()

	kl.cfg.Metrics.SetRateLimiterUsers(n)
	return n
}

func (kl *KeyedLimiter) cleanupLoop() {
	ticker := time.NewTicker(kl.cfg.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-kl.stopCh:
			return
		case <-ticker.C:
			kl.Cleanup()
		}
	}
}

// Stop ends the cleanup loop. Safe to call more than once.
func (kl *KeyedLimiter) Stop() {
	kl.stopOnce.Do(func() { close(kl.stopCh) })
}
