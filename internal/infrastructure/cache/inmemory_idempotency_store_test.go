package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fatoora/backend/internal/domain/shared"
)

var start = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	clock := shared.NewFixedClock(start)
	store := NewInMemoryIdempotencyStore(clock)
	defer store.Close()

	ctx := context.Background()

	t.Run("marks new key as processed", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "cb-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)
	})

	t.Run("returns false for already processed key", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "cb-2", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)

		isNew, err = store.MarkProcessed(ctx, "cb-2", time.Hour)
		require.NoError(t, err)
		assert.False(t, isNew)
	})

	t.Run("allows reprocessing after expiration", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "cb-3", time.Minute)
		require.NoError(t, err)
		assert.True(t, isNew)

		clock.Advance(time.Minute)

		isNew, err = store.MarkProcessed(ctx, "cb-3", time.Minute)
		require.NoError(t, err)
		assert.True(t, isNew)
	})
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	clock := shared.NewFixedClock(start)
	store := NewInMemoryIdempotencyStore(clock)
	defer store.Close()

	ctx := context.Background()

	processed, err := store.IsProcessed(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, processed)

	_, err = store.MarkProcessed(ctx, "cb", time.Hour)
	require.NoError(t, err)

	processed, err = store.IsProcessed(ctx, "cb")
	require.NoError(t, err)
	assert.True(t, processed)

	clock.Advance(2 * time.Hour)
	processed, err = store.IsProcessed(ctx, "cb")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestInMemoryIdempotencyStore_Cleanup(t *testing.T) {
	clock := shared.NewFixedClock(start)
	store := NewInMemoryIdempotencyStore(clock)
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := store.MarkProcessed(ctx, fmt.Sprintf("short-%d", i), time.Minute)
		require.NoError(t, err)
	}
	_, err := store.MarkProcessed(ctx, "long", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 6, store.Size())

	clock.Advance(10 * time.Minute)
	store.cleanup()

	assert.Equal(t, 1, store.Size())
}

func TestInMemoryIdempotencyStore_Concurrent(t *testing.T) {
	store := NewInMemoryIdempotencyStore(shared.NewFixedClock(start))
	defer store.Close()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			isNew, err := store.MarkProcessed(context.Background(), "same-callback", time.Hour)
			assert.NoError(t, err)
			if isNew {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestInMemoryIdempotencyStore_CloseTwice(t *testing.T) {
	store := NewInMemoryIdempotencyStore(nil)
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestIdempotencyStoreFactory(t *testing.T) {
	t.Run("falls back to in-memory without redis", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		store, err := NewIdempotencyStoreFactory(nil, WithLogger(zap.New(core))).CreateStore()
		require.NoError(t, err)
		defer store.Close()

		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("fails when fallback disabled", func(t *testing.T) {
		_, err := NewIdempotencyStoreFactory(nil, WithInMemoryFallback(false)).CreateStore()
		assert.ErrorIs(t, err, ErrRedisRequired)
	})
}
