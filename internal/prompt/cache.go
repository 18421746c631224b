// internal/prompt/cache.go
package prompt

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"prompt-registry/internal/common/config"
	"prompt-registry/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// Cache is the Redis-backed TTL cache in front of the repository. One
// logical template can occupy several keys at once: its production key
// plus any state- or version-specific keys that were fetched.
type Cache struct {
	rdb      *redis.Client
	ttl      time.Duration
	statsTTL time.Duration
	logger   logger.Logger
}

func NewCache(rdb *redis.Client, cfg config.CacheConfig, log logger.Logger) *Cache {
	return &Cache{
		rdb:      rdb,
		ttl:      cfg.TTL(),
		statsTTL: cfg.StatsTTL(),
		logger:   log.WithFields(map[string]interface{}{"component": "prompt-cache"}),
	}
}

// Enabled reports whether caching is on. TTL <= 0 means every fetch goes
// straight to the store.
func (c *Cache) Enabled() bool {
	return c.ttl > 0
}

// cacheKey derives the slot for a fetch. Priority: explicit version,
// then non-default state, then the production default.
func cacheKey(name string, state State, version int) string {
	if version > 0 {
		return fmt.Sprintf("prompt:%s:version:%d", name, version)
	}
	if state != "" && state != StateProduction {
		return fmt.Sprintf("prompt:%s:state:%s", name, state)
	}
	return fmt.Sprintf("prompt:%s:production", name)
}

// stateKeys returns every state-derived slot for a name. The caller of
// an invalidation cannot know which state key held the stale value, so
// all of them go.
func stateKeys(name string) []string {
	return []string{
		cacheKey(name, StateProduction, 0),
		cacheKey(name, StateDraft, 0),
		cacheKey(name, StateArchived, 0),
	}
}

func stampKey(name string) string  { return fmt.Sprintf("prompt:%s:stamp", name) }
func hitsKey(name string) string   { return fmt.Sprintf("prompt:%s:stats:hits", name) }
func missesKey(name string) string { return fmt.Sprintf("prompt:%s:stats:misses", name) }

// Exists reports whether the key is currently cached. The existence
// check, not the value read, drives hit/miss accounting.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Get reads a cached fetch result. The second return is false when the
// key is absent.
func (c *Cache) Get(ctx context.Context, key string) (Result, bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, err
	}

	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return Result{}, false, err
	}
	return res, true, nil
}

// Set writes a fetch result back with the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, res Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, data, c.ttl).Err()
}

// Delete removes specific keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

// InvalidateName drops every state-derived slot for a name and bumps the
// staleness stamp collaborators poll.
func (c *Cache) InvalidateName(ctx context.Context, name string) error {
	if err := c.rdb.Del(ctx, stateKeys(name)...).Err(); err != nil {
		return err
	}
	return c.BumpStamp(ctx, name)
}

// InvalidateVersion drops only one version-specific slot, then bumps the
// stamp.
func (c *Cache) InvalidateVersion(ctx context.Context, name string, version int) error {
	if err := c.rdb.Del(ctx, cacheKey(name, "", version)).Err(); err != nil {
		return err
	}
	return c.BumpStamp(ctx, name)
}

// BumpStamp records the invalidation time for a name.
func (c *Cache) BumpStamp(ctx context.Context, name string) error {
	return c.rdb.Set(ctx, stampKey(name), time.Now().UTC().Format(time.RFC3339Nano), c.statsTTL).Err()
}

// Stamp returns the last invalidation time for a name; ok is false when
// no stamp exists.
func (c *Cache) Stamp(ctx context.Context, name string) (time.Time, bool, error) {
	val, err := c.rdb.Get(ctx, stampKey(name)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	ts, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, false, err
	}
	return ts, true, nil
}

// RecordHit bumps the per-name hit counter. Read-increment-write:
// concurrent bumps can be lost, which is acceptable for advisory
// telemetry.
func (c *Cache) RecordHit(ctx context.Context, name string) {
	c.bumpCounter(ctx, hitsKey(name))
}

// RecordMiss bumps the per-name miss counter.
func (c *Cache) RecordMiss(ctx context.Context, name string) {
	c.bumpCounter(ctx, missesKey(name))
}

func (c *Cache) bumpCounter(ctx context.Context, key string) {
	current, err := c.rdb.Get(ctx, key).Result()
	if err != nil && err != redis.Nil {
		c.logger.Warn("stats counter read failed", map[string]interface{}{
			"key":   key,
			"error": err,
		})
		return
	}

	n, _ := strconv.ParseInt(current, 10, 64)
	if err := c.rdb.Set(ctx, key, n+1, c.statsTTL).Err(); err != nil {
		c.logger.Warn("stats counter write failed", map[string]interface{}{
			"key":   key,
			"error": err,
		})
	}
}

// Stats reads the hit/miss counters for a name. Absent counters read as
// zero.
func (c *Cache) Stats(ctx context.Context, name string) (hits, misses int64, err error) {
	hits, err = c.readCounter(ctx, hitsKey(name))
	if err != nil {
		return 0, 0, err
	}
	misses, err = c.readCounter(ctx, missesKey(name))
	if err != nil {
		return 0, 0, err
	}
	return hits, misses, nil
}

func (c *Cache) readCounter(ctx context.Context, key string) (int64, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, _ := strconv.ParseInt(val, 10, 64)
	return n, nil
}

// ClearStats resets the counters for every given name.
func (c *Cache) ClearStats(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	keys := make([]string, 0, len(names)*2)
	for _, name := range names {
		keys = append(keys, hitsKey(name), missesKey(name))
	}
	return c.rdb.Del(ctx, keys...).Err()
}
