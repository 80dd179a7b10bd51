package places

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// PlaceEntry is one cached text-search result: the place id plus its photo
// name list, so later photo indexes need neither a search nor a details
// fetch. An empty PlaceID marks a negative entry.
type PlaceEntry struct {
	PlaceID string   `json:"place_id"`
	Photos  []string `json:"photos,omitempty"`
}

// Cache stores resolved photo URLs and place entries so repeated lookups for
// the same subject stay off the network. Implementations must be safe for
// concurrent use.
type Cache interface {
	GetPhoto(ctx context.Context, key string) (string, bool)
	SetPhoto(ctx context.Context, key, url string)
	GetPlace(ctx context.Context, key string) (*PlaceEntry, bool)
	SetPlace(ctx context.Context, key string, entry *PlaceEntry)
}

func encodePlaceEntry(entry *PlaceEntry) string {
	if entry == nil {
		entry = &PlaceEntry{}
	}
	b, err := json.Marshal(entry)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func decodePlaceEntry(raw string) (*PlaceEntry, bool) {
	var entry PlaceEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, false
	}
	return &entry, true
}

// PhotoKey identifies one resolved photo: same place, different photoIndex,
// different cache entry.
func PhotoKey(name string, photoIndex int) string {
	return strings.ToLower(strings.TrimSpace(name)) + "|" + strconv.Itoa(photoIndex)
}

// PlaceKey identifies one text-search result.
func PlaceKey(normalizedQuery, locationHint, typeHint, mode string) string {
	return strings.Join([]string{normalizedQuery, strings.ToLower(locationHint), typeHint, mode}, "|")
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache is the default in-process backend. Expired entries are dropped
// lazily on read.
type MemoryCache struct {
	mu     sync.RWMutex
	photos map[string]memoryEntry
	places map[string]memoryEntry
	ttl    time.Duration
	now    func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		photos: make(map[string]memoryEntry),
		places: make(map[string]memoryEntry),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (c *MemoryCache) get(m map[string]memoryEntry, key string) (string, bool) {
	c.mu.RLock()
	entry, ok := m[key]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(m, key)
		c.mu.Unlock()
		return "", false
	}
	return entry.value, true
}

func (c *MemoryCache) set(m map[string]memoryEntry, key, value string) {
	c.mu.Lock()
	m[key] = memoryEntry{value: value, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *MemoryCache) GetPhoto(_ context.Context, key string) (string, bool) {
	return c.get(c.photos, key)
}

func (c *MemoryCache) SetPhoto(_ context.Context, key, url string) {
	c.set(c.photos, key, url)
}

func (c *MemoryCache) GetPlace(_ context.Context, key string) (*PlaceEntry, bool) {
	raw, ok := c.get(c.places, key)
	if !ok {
		return nil, false
	}
	return decodePlaceEntry(raw)
}

func (c *MemoryCache) SetPlace(_ context.Context, key string, entry *PlaceEntry) {
	c.set(c.places, key, encodePlaceEntry(entry))
}

// Sweep removes every expired entry. The scheduler calls this periodically so
// long-idle processes do not accumulate dead entries.
func (c *MemoryCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for _, m := range []map[string]memoryEntry{c.photos, c.places} {
		for k, e := range m {
			if now.After(e.expiresAt) {
				delete(m, k)
				removed++
			}
		}
	}
	return removed
}

// RedisCache shares resolved entries across processes. Redis handles expiry
// itself so there is no sweep.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) get(ctx context.Context, key string) (string, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (c *RedisCache) GetPhoto(ctx context.Context, key string) (string, bool) {
	return c.get(ctx, "photo:"+key)
}

func (c *RedisCache) SetPhoto(ctx context.Context, key, url string) {
	c.client.Set(ctx, "photo:"+key, url, c.ttl)
}

func (c *RedisCache) GetPlace(ctx context.Context, key string) (*PlaceEntry, bool) {
	raw, ok := c.get(ctx, "place:"+key)
	if !ok {
		return nil, false
	}
	return decodePlaceEntry(raw)
}

func (c *RedisCache) SetPlace(ctx context.Context, key string, entry *PlaceEntry) {
	c.client.Set(ctx, "place:"+key, encodePlaceEntry(entry), c.ttl)
}
