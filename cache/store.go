package cache

import (
	"context"
	"reflect"
	"time"
)

// Store is the backend the cache behavior reads from and writes to.
//
// Get reports a miss with ok=false. hint is the type the caller expects back;
// stores that serialize values use it to decode, in-process stores may ignore
// it. A ttl of zero means the store's default.
type Store interface {
	Get(ctx context.Context, key string, hint reflect.Type) (value any, ok bool, err error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

type bypassKey struct{}

// WithBypass marks ctx so cache lookups are skipped. Fresh results are still
// stored, which makes it a way to force a refresh.
func WithBypass(ctx context.Context) context.Context {
	return context.WithValue(ctx, bypassKey{}, true)
}

// Bypassed reports whether ctx was marked with WithBypass.
func Bypassed(ctx context.Context) bool {
	v, _ := ctx.Value(bypassKey{}).(bool)
	return v
}

type skipKey struct{}

// WithoutCache marks ctx so the cache is neither read nor written. Use it for
// calls whose arguments cannot be keyed, such as query closures.
func WithoutCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipKey{}, true)
}

// Skipped reports whether ctx was marked with WithoutCache.
func Skipped(ctx context.Context) bool {
	v, _ := ctx.Value(skipKey{}).(bool)
	return v
}
