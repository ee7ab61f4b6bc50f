// Package ratelimit provides a keyed token-bucket limiter used to
// throttle image uploads per client.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// evictAfter drops limiters for keys idle this long. Keys here are
// client addresses, so the map would otherwise grow without bound.
const evictAfter = 10 * time.Minute

// KeyedLimiter manages per-key rate limiting. Each unique key gets an
// independent token bucket; idle buckets are evicted in the background.
type KeyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
	limit    rate.Limit
	burst    int

	done     chan struct{}
	stopOnce sync.Once
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a keyed limiter allowing rps requests per second with the
// given burst per key.
func New(rps float64, burst int) *KeyedLimiter {
	kl := &KeyedLimiter{
		limiters: make(map[string]*entry),
		limit:    rate.Limit(rps),
		burst:    burst,
		done:     make(chan struct{}),
	}

	go kl.cleanup()

	return kl
}

// Allow reports whether a request for the key may proceed, without
// blocking. Use for inbound request protection.
func (kl *KeyedLimiter) Allow(key string) bool {
	return kl.get(key).Allow()
}

// Wait blocks until a request for the key is allowed or the context is
// canceled.
func (kl *KeyedLimiter) Wait(ctx context.Context, key string) error {
	return kl.get(key).Wait(ctx)
}

func (kl *KeyedLimiter) get(key string) *rate.Limiter {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	e, ok := kl.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(kl.limit, kl.burst)}
		kl.limiters[key] = e
	}
	e.lastSeen = time.Now()
	return e.limiter
}

// Stop shuts down the eviction goroutine.
func (kl *KeyedLimiter) Stop() {
	kl.stopOnce.Do(func() {
		close(kl.done)
	})
}

func (kl *KeyedLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-kl.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-evictAfter)
			kl.mu.Lock()
			for key, e := range kl.limiters {
				if e.lastSeen.Before(cutoff) {
					delete(kl.limiters, key)
				}
			}
			kl.mu.Unlock()
		}
	}
}
