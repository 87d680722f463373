package cache

import (
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fatoora/backend/internal/domain/shared"
)

// ErrRedisRequired is returned when redis is absent and fallback is disabled
var ErrRedisRequired = errors.New("redis required for idempotency but not configured")

// IdempotencyStoreFactory creates idempotency stores based on configuration
type IdempotencyStoreFactory struct {
	client                *redis.Client
	logger                *zap.Logger
	clock                 shared.Clock
	allowInMemoryFallback bool
}

// IdempotencyStoreFactoryOption is a functional option for configuring the factory
type IdempotencyStoreFactoryOption func(*IdempotencyStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.logger = logger
	}
}

// WithClock sets the clock used by the in-memory store
func WithClock(clock shared.Clock) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.clock = clock
	}
}

// WithInMemoryFallback controls whether a nil redis client falls back to the
// in-memory store. Default is true.
func WithInMemoryFallback(allow bool) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewIdempotencyStoreFactory creates a new factory. client may be nil.
func NewIdempotencyStoreFactory(client *redis.Client, opts ...IdempotencyStoreFactoryOption) *IdempotencyStoreFactory {
	f := &IdempotencyStoreFactory{
		client:                client,
		logger:                zap.NewNop(),
		clock:                 shared.SystemClock{},
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns a redis store when a client is available, otherwise
// an in-memory store if fallback is allowed.
func (f *IdempotencyStoreFactory) CreateStore() (shared.IdempotencyStore, error) {
	if f.client != nil {
		f.logger.Info("using Redis idempotency store")
		return NewRedisIdempotencyStore(f.client, DefaultKeyPrefix), nil
	}
	if !f.allowInMemoryFallback {
		return nil, ErrRedisRequired
	}
	f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store. " +
		"Payment callbacks may be applied twice across instances.")
	return NewInMemoryIdempotencyStore(f.clock), nil
}
