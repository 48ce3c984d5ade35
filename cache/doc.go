// Package cache provides the store abstraction and cache key rendering used by
// the cache-aside behavior.
//
// # Overview
//
// The package exports:
//
//   - Store: a key/value backend with per-entry TTL and prefix deletion
//   - KeySerializer: builds stable cache keys from a prefix and call arguments
//   - Template: expands a marker's key template for one call
//   - NewStore: builds the configured backend (in-memory sturdyc or etcd)
//
// # Key Templates
//
// A cache marker carries an optional key template:
//
//	intercept.NewMarker("cache", "key", "user:{0}", "ttl", "5m")
//
// {type} and {method} expand to the intercepted method identity and {N} to the
// Nth argument rendered with the serializer. A template that references no
// argument gets every argument appended, so two calls with different arguments
// never share a key. An empty template defaults to "Type.Method".
//
// # Key Serialization Strategy
//
// The default serializer walks values with reflection:
//
//   - Basic types: direct string representation
//   - Slices/arrays: recursive serialization of elements
//   - Maps: sorted key-value pairs for deterministic output
//   - Structs: exported fields as name:value pairs
//   - Functions and channels: pointer address, stable within one process
//   - Anything else: JSON, falling back to the type name
//
// Keys longer than the configured maximum have their argument section replaced
// by an xxhash digest. NewMsgpackKeySerializer hashes each argument's msgpack
// encoding instead, which suits shared backends such as etcd.
//
// # Function Criteria
//
// Function pointers are stable only within a single process lifetime. When a
// store is shared across processes, give such methods an explicit key template
// that leaves the function argument out.
//
// # Bypass
//
// WithBypass marks a context so the cache behavior skips the lookup and
// refreshes the entry from the target. WithoutCache skips the store entirely.
package cache
