package bot

import (
	"sync"
	"time"

	"github.com/ReneKroon/ttlcache/v2"
)

// CooldownLimiter enforces per-command, per-channel call limits over a
// fixed window. The window starts at the first call and does not slide.
type CooldownLimiter struct {
	mu    sync.Mutex
	cache *ttlcache.Cache
	limit int
}

type cooldownCounter struct {
	calls int
}

// NewCooldownLimiter allows limit calls per key within each window.
func NewCooldownLimiter(limit int, window time.Duration) *CooldownLimiter {
	cache := ttlcache.NewCache()
	_ = cache.SetTTL(window)
	cache.SkipTTLExtensionOnHit(true)

	return &CooldownLimiter{
		cache: cache,
		limit: limit,
	}
}

// Allow records a call for the command in the channel and reports
// whether it is within the limit.
func (l *CooldownLimiter) Allow(command, channelID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := command + ":" + channelID

	value, err := l.cache.Get(key)
	if err != nil {
		_ = l.cache.Set(key, &cooldownCounter{calls: 1})
		return true
	}

	counter := value.(*cooldownCounter)
	counter.calls++
	return counter.calls <= l.limit
}

// Close releases the cache's background resources.
func (l *CooldownLimiter) Close() {
	l.cache.Close()
}
