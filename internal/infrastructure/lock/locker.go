// Package lock provides per-account mutual exclusion around identifier
// generation: a redis lock shared by all instances, or an in-process mutex
// when redis is not configured.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fatoora/backend/internal/domain/shared"
	"github.com/fatoora/backend/internal/infrastructure/logger"
)

const keyPrefix = "fatoora:lock:account:"

// NewAccountLocker returns a redis-backed locker, or a local one when client is nil
func NewAccountLocker(client *redis.Client, ttl time.Duration, log *zap.Logger) shared.AccountLocker {
	if client == nil {
		log.Warn("redis not configured, account locks are local to this process")
		return NewLocalAccountLocker()
	}
	return NewRedisAccountLocker(client, ttl)
}

// RedisAccountLocker holds a redislock lease for the duration of fn
type RedisAccountLocker struct {
	locker *redislock.Client
	ttl    time.Duration
	retry  redislock.RetryStrategy
}

// NewRedisAccountLocker creates a RedisAccountLocker. Lock attempts retry
// every 50ms until ttl elapses or ctx ends.
func NewRedisAccountLocker(client *redis.Client, ttl time.Duration) *RedisAccountLocker {
	return &RedisAccountLocker{
		locker: redislock.New(client),
		ttl:    ttl,
		retry:  redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), int(ttl/(50*time.Millisecond))),
	}
}

// WithLock runs fn while holding the account's lock. A lock that cannot be
// obtained is a ConflictError.
func (l *RedisAccountLocker) WithLock(ctx context.Context, accountID uuid.UUID, fn func(ctx context.Context) error) error {
	lease, err := l.locker.Obtain(ctx, keyPrefix+accountID.String(), l.ttl, &redislock.Options{
		RetryStrategy: l.retry,
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return shared.NewConflictError("ACCOUNT_BUSY", "another operation on this account is in progress, retry")
	}
	if err != nil {
		return fmt.Errorf("obtain account lock: %w", err)
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.L(ctx).Warn("failed to release account lock",
				zap.String("account_id", accountID.String()), zap.Error(err))
		}
	}()
	return fn(ctx)
}

// LocalAccountLocker serializes per account inside one process
type LocalAccountLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*accountMutex
}

type accountMutex struct {
	sem  chan struct{}
	refs int
}

// NewLocalAccountLocker creates a LocalAccountLocker
func NewLocalAccountLocker() *LocalAccountLocker {
	return &LocalAccountLocker{locks: make(map[uuid.UUID]*accountMutex)}
}

// WithLock runs fn while holding the account's mutex. Waiting stops when ctx ends.
func (l *LocalAccountLocker) WithLock(ctx context.Context, accountID uuid.UUID, fn func(ctx context.Context) error) error {
	m := l.acquire(accountID)
	defer l.release(accountID, m)

	select {
	case m.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-m.sem }()
	return fn(ctx)
}

func (l *LocalAccountLocker) acquire(id uuid.UUID) *accountMutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[id]
	if !ok {
		m = &accountMutex{sem: make(chan struct{}, 1)}
		l.locks[id] = m
	}
	m.refs++
	return m
}

func (l *LocalAccountLocker) release(id uuid.UUID, m *accountMutex) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m.refs--
	if m.refs == 0 {
		delete(l.locks, id)
	}
}

var (
	_ shared.AccountLocker = (*RedisAccountLocker)(nil)
	_ shared.AccountLocker = (*LocalAccountLocker)(nil)
)
