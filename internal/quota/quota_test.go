package quota

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRedisStore starts a miniredis instance and returns a store backed by it.
func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err, "miniredis")
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client)
}

// stores runs the conformance suite against both implementations.
func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  newRedisStore(t),
	}
}

func TestCheckAndDecrementConsumesExactly(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
			const allowance = 5

			require.NoError(t, store.Init(ctx, "sess", allowance, now))

			for i := 0; i < allowance; i++ {
				granted, remaining, err := store.CheckAndDecrement(ctx, "sess", now, allowance)
				require.NoError(t, err)
				assert.True(t, granted, "call %d should be granted", i+1)
				assert.Equal(t, allowance-i-1, remaining)
			}

			granted, remaining, err := store.CheckAndDecrement(ctx, "sess", now, allowance)
			require.NoError(t, err)
			assert.False(t, granted, "call past the allowance must be denied")
			assert.Equal(t, 0, remaining)
		})
	}
}

func TestDailyReset(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
			const allowance = 3

			require.NoError(t, store.Init(ctx, "sess", allowance, start))
			for i := 0; i < allowance; i++ {
				granted, _, err := store.CheckAndDecrement(ctx, "sess", start, allowance)
				require.NoError(t, err)
				require.True(t, granted)
			}
			granted, _, err := store.CheckAndDecrement(ctx, "sess", start.Add(23*time.Hour), allowance)
			require.NoError(t, err)
			assert.False(t, granted, "no reset before 24h")

			granted, remaining, err := store.CheckAndDecrement(ctx, "sess", start.Add(24*time.Hour), allowance)
			require.NoError(t, err)
			assert.True(t, granted, "reset at 24h refills the allowance")
			assert.Equal(t, allowance-1, remaining, "reset applies before the decrement")
		})
	}
}

func TestFreshSessionTreatedAsFull(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

			exists, err := store.Exists(ctx, "never-seen")
			require.NoError(t, err)
			assert.False(t, exists)

			// No Init: a missing record behaves as a full fresh session.
			granted, remaining, err := store.CheckAndDecrement(ctx, "never-seen", now, 4)
			require.NoError(t, err)
			assert.True(t, granted)
			assert.Equal(t, 3, remaining)

			exists, err = store.Exists(ctx, "never-seen")
			require.NoError(t, err)
			assert.True(t, exists)
		})
	}
}

func TestCorruptSessionTreatedAsFresh(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := NewRedisStore(client)

	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	mr.HSet("quota:sess", "remaining", "not-a-number", "updated", "garbage")

	granted, remaining, err := store.CheckAndDecrement(ctx, "sess", now, 2)
	require.NoError(t, err)
	assert.True(t, granted, "corrupt payload recovers as a fresh session")
	assert.Equal(t, 1, remaining)
}

func TestConcurrentLastUnitGrantsOnce(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

			require.NoError(t, store.Init(ctx, "sess", 1, now))

			const callers = 16
			var wg sync.WaitGroup
			grants := make(chan bool, callers)
			for i := 0; i < callers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					granted, _, err := store.CheckAndDecrement(ctx, "sess", now, 1)
					assert.NoError(t, err)
					grants <- granted
				}()
			}
			wg.Wait()
			close(grants)

			count := 0
			for granted := range grants {
				if granted {
					count++
				}
			}
			assert.Equal(t, 1, count, "exactly one concurrent caller gets the last unit")
		})
	}
}

func TestConcurrentDistinctSessionsDoNotInterfere(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	const sessions = 8
	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("sess-%d", i)
			granted, remaining, err := store.CheckAndDecrement(ctx, key, now, 2)
			assert.NoError(t, err)
			assert.True(t, granted)
			assert.Equal(t, 1, remaining)
		}(i)
	}
	wg.Wait()
}
