package cache

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-interceptor/internal/cacheinfra"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendEtcd   = "etcd"
)

// Config exposes cache configuration options for consumers of the cache package.
type Config struct {
	Backend string

	// Memory settings, used by BackendMemory.
	Capacity             int
	NumShards            int
	TTL                  time.Duration
	EvictionPercentage   int
	EarlyRefresh         *EarlyRefreshConfig
	MissingRecordStorage bool
	EvictionInterval     time.Duration

	// Etcd settings, used by BackendEtcd.
	Etcd EtcdConfig

	// LookupTimeout bounds each store read. Zero disables the bound.
	LookupTimeout time.Duration
	// MaxKeyLength hashes the argument part of longer keys. Zero disables it.
	MaxKeyLength int
}

// EarlyRefreshConfig mirrors the underlying sturdyc early refresh options.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration
	MaxAsyncRefreshTime time.Duration
	SyncRefreshTime     time.Duration
	RetryBaseDelay      time.Duration
}

// EtcdConfig configures the etcd backend.
type EtcdConfig struct {
	Endpoints   []string
	DialTimeout time.Duration
	Prefix      string
	DefaultTTL  time.Duration
}

// DefaultConfig returns an in-memory Config populated with sensible defaults.
func DefaultConfig() Config {
	cfg := convertFromInternal(cacheinfra.DefaultConfig())
	cfg.Backend = BackendMemory
	cfg.Etcd = EtcdConfig(cacheinfra.DefaultEtcdConfig())
	cfg.LookupTimeout = 50 * time.Millisecond
	cfg.MaxKeyLength = 250
	return cfg
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendMemory, BackendEtcd)),
		validation.Field(&c.LookupTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.MaxKeyLength, validation.Min(0)),
	); err != nil {
		return err
	}
	if c.Backend == BackendEtcd {
		return cacheinfra.EtcdConfig(c.Etcd).Validate()
	}
	return c.toInternal().Validate()
}

// NewStore constructs the Store selected by cfg.Backend.
func NewStore(cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case BackendEtcd:
		store, err := cacheinfra.NewEtcdStore(cacheinfra.EtcdConfig(cfg.Etcd))
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendMemory:
		store, err := cacheinfra.NewSturdycStore(cfg.toInternal())
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("cache: unknown backend %q", cfg.Backend)
}

// NewKeySerializer returns the serializer matching cfg: msgpack digests for
// shared backends, readable reflection keys for memory.
func NewKeySerializer(cfg Config) KeySerializer {
	if cfg.Backend == BackendEtcd {
		return NewMsgpackKeySerializer()
	}
	if cfg.MaxKeyLength > 0 {
		return NewHashingKeySerializer(cfg.MaxKeyLength)
	}
	return NewDefaultKeySerializer()
}

func (c Config) toInternal() cacheinfra.Config {
	var early *cacheinfra.EarlyRefreshConfig
	if c.EarlyRefresh != nil {
		e := cacheinfra.EarlyRefreshConfig(*c.EarlyRefresh)
		early = &e
	}

	return cacheinfra.Config{
		Capacity:             c.Capacity,
		NumShards:            c.NumShards,
		TTL:                  c.TTL,
		EvictionPercentage:   c.EvictionPercentage,
		EarlyRefresh:         early,
		MissingRecordStorage: c.MissingRecordStorage,
		EvictionInterval:     c.EvictionInterval,
	}
}

func convertFromInternal(cfg cacheinfra.Config) Config {
	var early *EarlyRefreshConfig
	if cfg.EarlyRefresh != nil {
		e := EarlyRefreshConfig(*cfg.EarlyRefresh)
		early = &e
	}

	return Config{
		Capacity:             cfg.Capacity,
		NumShards:            cfg.NumShards,
		TTL:                  cfg.TTL,
		EvictionPercentage:   cfg.EvictionPercentage,
		EarlyRefresh:         early,
		MissingRecordStorage: cfg.MissingRecordStorage,
		EvictionInterval:     cfg.EvictionInterval,
	}
}
