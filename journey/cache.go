package journey

import (
	"time"

	"github.com/bluele/gcache"
)

// Cache is the advisory store used by the travel-time estimator. Entries may
// be evicted at any time; a miss only costs a recomputation, never
// correctness. Implementations must tolerate concurrent use; last write wins.
type Cache interface {
	Get(key string) (time.Duration, bool)
	Set(key string, d time.Duration, ttl time.Duration)
}

type memoryCache struct {
	c gcache.Cache
}

// NewMemoryCache returns an in-process LRU Cache bounded to size entries.
func NewMemoryCache(size int) Cache {
	return &memoryCache{c: gcache.New(size).LRU().Build()}
}

func (m *memoryCache) Get(key string) (time.Duration, bool) {
	v, err := m.c.Get(key)
	if err != nil {
		return 0, false
	}
	d, ok := v.(time.Duration)
	return d, ok
}

func (m *memoryCache) Set(key string, d time.Duration, ttl time.Duration) {
	_ = m.c.SetWithExpire(key, d, ttl)
}
