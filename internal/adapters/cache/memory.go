// Package cache keeps recently fetched tweets in memory.
package cache

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"tribefeed/internal/domain"
)

// MemoryCache is an in-memory cache with TTL support.
type MemoryCache struct {
	tweets sync.Map
	ttl    time.Duration
	stop   chan struct{}
	once   sync.Once
}

type cacheEntry struct {
	tweet     *domain.Tweet
	expiresAt time.Time
}

// NewMemoryCache creates a cache whose entries live for ttl. A background
// sweep removes expired entries every sweep interval until Close.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	c := &MemoryCache{ttl: ttl, stop: make(chan struct{})}
	go c.sweep(sweepInterval(ttl))
	return c
}

func sweepInterval(ttl time.Duration) time.Duration {
	if ttl > 0 && ttl < time.Minute {
		return ttl
	}
	return time.Minute
}

// NormalizedKey returns the cache key for a tweet: /{handle}/status/{id}.
// Handles are case-insensitive on Twitter, so the key is lower-cased.
func NormalizedKey(handle string, id uint64) string {
	return "/" + strings.ToLower(handle) + "/status/" + strconv.FormatUint(id, 10)
}

// Get returns the cached tweet if present and not expired.
func (c *MemoryCache) Get(handle string, id uint64) (*domain.Tweet, bool) {
	key := NormalizedKey(handle, id)
	value, ok := c.tweets.Load(key)
	if !ok {
		return nil, false
	}

	entry := value.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.tweets.Delete(key)
		return nil, false
	}
	return entry.tweet, true
}

// Set stores a tweet under its own handle and id.
func (c *MemoryCache) Set(tweet *domain.Tweet) {
	c.SetAs(tweet.Handle(), tweet)
}

// SetAs stores a tweet under handle, e.g. the old handle of a renamed account.
func (c *MemoryCache) SetAs(handle string, tweet *domain.Tweet) {
	c.tweets.Store(NormalizedKey(handle, tweet.ID()), &cacheEntry{
		tweet:     tweet,
		expiresAt: time.Now().Add(c.ttl),
	})
}

// Len returns the number of entries, expired ones included until swept.
func (c *MemoryCache) Len() int {
	n := 0
	c.tweets.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Close stops the background sweep. The cache stays readable.
func (c *MemoryCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *MemoryCache) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.tweets.Range(func(key, value any) bool {
				if now.After(value.(*cacheEntry).expiresAt) {
					c.tweets.Delete(key)
				}
				return true
			})
		}
	}
}
