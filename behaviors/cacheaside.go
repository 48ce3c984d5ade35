package behaviors

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-interceptor/cache"
	"github.com/goliatone/go-interceptor/intercept"
)

// Cache is the cache-aside behavior.
//
// Marker params:
//
//	key  string    key template, see cache.Template
//	ttl  duration  entry lifetime; zero uses the store default
//
// A hit sets the cached value as the return value and short-circuits. A miss
// calls next and stores the return value. Store failures and lookup timeouts
// count as misses; the call never fails because of the cache.
type Cache struct {
	store         cache.Store
	serializer    cache.KeySerializer
	lookupTimeout time.Duration
	logger        *zap.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// CacheOption configures the cache behavior.
type CacheOption func(*Cache)

// WithSerializer sets the key serializer. Nil keeps the default.
func WithSerializer(s cache.KeySerializer) CacheOption {
	return func(c *Cache) {
		if s != nil {
			c.serializer = s
		}
	}
}

// WithLookupTimeout bounds each store read.
func WithLookupTimeout(d time.Duration) CacheOption {
	return func(c *Cache) { c.lookupTimeout = d }
}

// WithCacheLogger sets the logger used for store failures.
func WithCacheLogger(logger *zap.Logger) CacheOption {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCache creates the cache behavior over store.
func NewCache(store cache.Store, opts ...CacheOption) *Cache {
	c := &Cache{
		store:      store,
		serializer: cache.NewDefaultKeySerializer(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) Order() int { return OrderCache }

// ValidateMarker rejects unparsable or negative TTLs.
func (c *Cache) ValidateMarker(m intercept.Marker) error {
	ttl, err := m.Duration("ttl", 0)
	if err != nil {
		return err
	}
	if ttl < 0 {
		return invalidParam(NameCache, "ttl", fmt.Sprintf("ttl must not be negative, got %s", ttl))
	}
	return nil
}

func (c *Cache) Invoke(ctx context.Context, call *intercept.Call, next intercept.Next) error {
	if cache.Skipped(ctx) {
		return next(ctx)
	}
	m := call.Marker()
	method := call.Method()
	key := cache.Template(m.String("key", ""), method.Type, method.Method, call.Args(), c.serializer)

	if !cache.Bypassed(ctx) {
		if v, ok := c.lookup(ctx, key, call); ok {
			c.hits.Add(1)
			return call.SetReturnValue(v)
		}
	}
	c.misses.Add(1)

	if err := next(ctx); err != nil {
		return err
	}
	if !call.HasReturnValue() {
		return nil
	}

	ttl, _ := m.Duration("ttl", 0)
	if err := c.store.Set(ctx, key, call.ReturnValue(), ttl); err != nil {
		c.logger.Warn("cache store failed",
			zap.Stringer("method", method),
			zap.String("key", key),
			zap.Error(err),
		)
	}
	return nil
}

func (c *Cache) lookup(ctx context.Context, key string, call *intercept.Call) (any, bool) {
	if c.lookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.lookupTimeout)
		defer cancel()
	}

	v, ok, err := c.store.Get(ctx, key, call.ResultType())
	if err != nil {
		c.logger.Debug("cache lookup failed, treating as miss",
			zap.Stringer("method", call.Method()),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, false
	}
	return v, ok
}

// Hits returns the number of calls served from the store.
func (c *Cache) Hits() int64 { return c.hits.Load() }

// Misses returns the number of calls that reached next.
func (c *Cache) Misses() int64 { return c.misses.Load() }
