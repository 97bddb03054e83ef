package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is advanced by hand
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T) (*InMemoryIdempotencyStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)}
	store := newInMemoryIdempotencyStore(clock.Now, time.Hour)
	t.Cleanup(func() { _ = store.Close() })
	return store, clock
}

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	ctx := context.Background()

	t.Run("first claim wins", func(t *testing.T) {
		store, _ := newTestStore(t)

		claimed, err := store.MarkProcessed(ctx, "merge-a", time.Hour)
		require.NoError(t, err)
		assert.True(t, claimed)

		claimed, err = store.MarkProcessed(ctx, "merge-a", time.Hour)
		require.NoError(t, err)
		assert.False(t, claimed, "second claim of a held key")
	})

	t.Run("expired claim can be taken again", func(t *testing.T) {
		store, clock := newTestStore(t)

		_, err := store.MarkProcessed(ctx, "merge-b", 10*time.Minute)
		require.NoError(t, err)

		clock.Advance(10 * time.Minute)

		claimed, err := store.MarkProcessed(ctx, "merge-b", 10*time.Minute)
		require.NoError(t, err)
		assert.True(t, claimed)
	})

	t.Run("released claim can be taken again", func(t *testing.T) {
		store, _ := newTestStore(t)

		_, err := store.MarkProcessed(ctx, "merge-c", time.Hour)
		require.NoError(t, err)
		require.NoError(t, store.Release(ctx, "merge-c"))

		held, err := store.IsProcessed(ctx, "merge-c")
		require.NoError(t, err)
		assert.False(t, held)

		claimed, err := store.MarkProcessed(ctx, "merge-c", time.Hour)
		require.NoError(t, err)
		assert.True(t, claimed)
	})

	t.Run("releasing an unknown key is fine", func(t *testing.T) {
		store, _ := newTestStore(t)
		assert.NoError(t, store.Release(ctx, "never-claimed"))
	})
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	held, err := store.IsProcessed(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, held)

	_, err = store.MarkProcessed(ctx, "merge-d", time.Minute)
	require.NoError(t, err)

	held, err = store.IsProcessed(ctx, "merge-d")
	require.NoError(t, err)
	assert.True(t, held)

	clock.Advance(time.Minute)
	held, err = store.IsProcessed(ctx, "merge-d")
	require.NoError(t, err)
	assert.False(t, held)
}

func TestInMemoryIdempotencyStore_Sweep(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	_, _ = store.MarkProcessed(ctx, "short-1", time.Minute)
	_, _ = store.MarkProcessed(ctx, "short-2", time.Minute)
	_, _ = store.MarkProcessed(ctx, "long", time.Hour)
	assert.Equal(t, 3, store.Size())

	clock.Advance(2 * time.Minute)
	store.sweep()

	assert.Equal(t, 1, store.Size())
	held, err := store.IsProcessed(ctx, "long")
	require.NoError(t, err)
	assert.True(t, held)
}

func TestInMemoryIdempotencyStore_ConcurrentClaims(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	const workers = 100

	results := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		go func() {
			claimed, err := store.MarkProcessed(ctx, "same-merge", time.Hour)
			results <- err == nil && claimed
		}()
	}

	winners := 0
	for i := 0; i < workers; i++ {
		if <-results {
			winners++
		}
	}
	assert.Equal(t, 1, winners, "exactly one concurrent claim succeeds")
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
