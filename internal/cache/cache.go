package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

const DefaultTTL = 300 * time.Second

// LoadTimeout bounds a shared load once it no longer follows a caller's ctx.
const LoadTimeout = 30 * time.Second

// Cache serializes values as JSON over a Store. Every failure is logged
// and swallowed: callers only ever see a hit or a miss.
type Cache struct {
	store  Store
	ttl    time.Duration
	prefix string
	logger *slog.Logger
	group  singleflight.Group

	hits, misses, sets, deletes, errs atomic.Int64
}

type Options struct {
	TTL    time.Duration
	Prefix string
}

func New(store Store, opts Options, logger *slog.Logger) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	return &Cache{store: store, ttl: opts.TTL, prefix: opts.Prefix, logger: logger}
}

func (c *Cache) key(k string) string {
	return c.prefix + k
}

// Get decodes the entry at key into dest. A corrupt entry counts as a miss.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	b, err := c.store.Get(ctx, c.key(key))
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.errs.Add(1)
			c.logger.WarnContext(ctx, "cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return false
	}
	if err := json.Unmarshal(b, dest); err != nil {
		c.errs.Add(1)
		c.misses.Add(1)
		c.logger.WarnContext(ctx, "cache entry corrupt", "key", key, "error", err)
		return false
	}
	c.hits.Add(1)
	return true
}

// Set stores value with the default TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	c.SetWithTTL(ctx, key, value, c.ttl)
}

func (c *Cache) SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) {
	b, err := json.Marshal(value)
	if err != nil {
		c.errs.Add(1)
		c.logger.WarnContext(ctx, "cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, c.key(key), b, ttl); err != nil {
		c.errs.Add(1)
		c.logger.WarnContext(ctx, "cache set failed", "key", key, "error", err)
		return
	}
	c.sets.Add(1)
}

func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	if err := c.store.Delete(ctx, full...); err != nil {
		c.errs.Add(1)
		c.logger.WarnContext(ctx, "cache invalidate failed", "keys", keys, "error", err)
		return
	}
	c.deletes.Add(int64(len(keys)))
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Sets    int64 `json:"sets"`
	Deletes int64 `json:"deletes"`
	Errors  int64 `json:"errors"`
}

func (c *Cache) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Sets:    c.sets.Load(),
		Deletes: c.deletes.Load(),
		Errors:  c.errs.Load(),
	}
}

// GetOrLoad returns the cached value at key or calls load, caches its result
// and returns it. Concurrent misses on one key share a single load, which runs
// detached from any one caller's cancellation and bounded by LoadTimeout.
// A caller whose ctx ends stops waiting without failing the others.
func GetOrLoad[T any](ctx context.Context, c *Cache, key string, load func(context.Context) (T, error)) (T, error) {
	var zero T
	var cached T
	if c.Get(ctx, key, &cached) {
		return cached, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), LoadTimeout)
		defer cancel()
		loaded, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.Set(loadCtx, key, loaded)
		return loaded, nil
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
