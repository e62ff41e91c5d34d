package webhook

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zoobzio/clockz"
)

// ReplayStore remembers which webhook events have already been accepted.
// CheckAndRecord is atomic: the first call for a key records it and returns
// false, every later call inside the window returns true.
type ReplayStore interface {
	CheckAndRecord(ctx context.Context, providerName, eventID string, receivedAt time.Time) (seen bool, err error)
}

// ReplayCache is the in-process ReplayStore. Entries expire after the replay
// window; expired entries are purged lazily on access so an identical event ID
// becomes acceptable again once the window has passed.
type ReplayCache struct {
	mu      sync.Mutex
	entries map[string]time.Time
	window  time.Duration
	clock   clockz.Clock
}

// NewReplayCache creates an in-memory replay cache with the given window
func NewReplayCache(window time.Duration, clock clockz.Clock) *ReplayCache {
	if clock == nil {
		clock = clockz.RealClock
	}

	return &ReplayCache{
		entries: make(map[string]time.Time),
		window:  window,
		clock:   clock,
	}
}

// CheckAndRecord reports whether the (provider, eventID) pair was already
// accepted within the replay window, recording it if not
func (c *ReplayCache) CheckAndRecord(_ context.Context, providerName, eventID string, receivedAt time.Time) (bool, error) {
	key := replayKey(providerName, eventID)
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.purgeExpired(now)

	if _, exists := c.entries[key]; exists {
		return true, nil
	}

	c.entries[key] = receivedAt
	return false, nil
}

// Len reports the number of live entries. Expired entries still pending lazy
// purge are included.
func (c *ReplayCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// purgeExpired must be called with the lock held
func (c *ReplayCache) purgeExpired(now time.Time) {
	for key, recordedAt := range c.entries {
		if now.Sub(recordedAt) > c.window {
			delete(c.entries, key)
		}
	}
}

// RedisReplayStore shares replay state across gateway instances. SET NX with a
// TTL gives the same first-wins semantics as the in-memory cache without a
// separate purge step.
type RedisReplayStore struct {
	client *redis.Client
	window time.Duration
}

// NewRedisReplayStore creates a Redis-backed replay store
func NewRedisReplayStore(client *redis.Client, window time.Duration) *RedisReplayStore {
	return &RedisReplayStore{
		client: client,
		window: window,
	}
}

// CheckAndRecord records the key with SET NX; a failed set means the event was
// already seen
func (s *RedisReplayStore) CheckAndRecord(ctx context.Context, providerName, eventID string, _ time.Time) (bool, error) {
	stored, err := s.client.SetNX(ctx, "paybridge:replay:"+replayKey(providerName, eventID), 1, s.window).Result()
	if err != nil {
		return false, fmt.Errorf("replay store unavailable: %w", err)
	}

	return !stored, nil
}

func replayKey(providerName, eventID string) string {
	return providerName + ":" + eventID
}
