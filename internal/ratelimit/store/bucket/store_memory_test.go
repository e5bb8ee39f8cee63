package bucket

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryBucketStore(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := New()
	store.now = func() time.Time { return clock }

	t.Run("allows up to the limit", func(t *testing.T) {
		for i := range 3 {
			res, err := store.Allow(ctx, "svc-a", 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, res.Allowed)
			assert.Equal(t, 2-i, res.Remaining)
		}
	})

	t.Run("rejects past the limit with a retry hint", func(t *testing.T) {
		clock = clock.Add(20 * time.Second)
		res, err := store.Allow(ctx, "svc-a", 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Equal(t, 40, res.RetryAfter)
	})

	t.Run("keys are independent", func(t *testing.T) {
		res, err := store.Allow(ctx, "svc-b", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("window slides", func(t *testing.T) {
		clock = clock.Add(41 * time.Second)
		res, err := store.Allow(ctx, "svc-a", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})
}

func TestInMemoryBucketStoreConcurrent(t *testing.T) {
	store := New()
	var allowed atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			res, err := store.Allow(context.Background(), "burst", 10, time.Minute)
			if err == nil && res.Allowed {
				allowed.Add(1)
			}
		})
	}
	wg.Wait()
	assert.Equal(t, int32(10), allowed.Load())
}
