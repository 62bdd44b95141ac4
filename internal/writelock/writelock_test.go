package writelock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finvault/finance-tracker/pkg/redis"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	// Unique connection name per test to avoid the global adapter cache.
	connName := t.Name() + "-" + mr.Addr()
	adapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

func TestLocal_Acquire(t *testing.T) {
	ctx := context.Background()

	t.Run("serializes writers of one tenant", func(t *testing.T) {
		l := NewLocal()

		release, err := l.Acquire(ctx, "tenant-1")
		require.NoError(t, err)

		entered := make(chan struct{})
		go func() {
			r, err := l.Acquire(ctx, "tenant-1")
			assert.NoError(t, err)
			close(entered)
			r()
		}()

		select {
		case <-entered:
			t.Fatal("second writer entered while the lock was held")
		case <-time.After(50 * time.Millisecond):
		}

		release()
		select {
		case <-entered:
		case <-time.After(time.Second):
			t.Fatal("second writer never entered after release")
		}
	})

	t.Run("tenants do not block each other", func(t *testing.T) {
		l := NewLocal()

		release1, err := l.Acquire(ctx, "tenant-1")
		require.NoError(t, err)
		defer release1()

		done := make(chan struct{})
		go func() {
			r, err := l.Acquire(ctx, "tenant-2")
			assert.NoError(t, err)
			r()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("independent tenant was blocked")
		}
	})

	t.Run("counter stays consistent under contention", func(t *testing.T) {
		l := NewLocal()
		counter := 0

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				release, err := l.Acquire(ctx, "tenant-1")
				assert.NoError(t, err)
				counter++
				release()
			}()
		}
		wg.Wait()
		assert.Equal(t, 50, counter)
	})

	t.Run("cancelled context is refused", func(t *testing.T) {
		l := NewLocal()
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := l.Acquire(cancelled, "tenant-1")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLease_Acquire(t *testing.T) {
	ctx := context.Background()

	t.Run("acquire holds a key, release drops it", func(t *testing.T) {
		mr, adapter := setupTestRedis(t)
		defer mr.Close()
		lease := NewLease(adapter, DefaultLeaseConfig())

		release, err := lease.Acquire(ctx, "tenant-1")
		require.NoError(t, err)
		assert.True(t, mr.Exists("writelock:tenant-1"))

		release()
		assert.False(t, mr.Exists("writelock:tenant-1"))
	})

	t.Run("second writer waits for release", func(t *testing.T) {
		mr, adapter := setupTestRedis(t)
		defer mr.Close()
		lease := NewLease(adapter, DefaultLeaseConfig())

		release, err := lease.Acquire(ctx, "tenant-1")
		require.NoError(t, err)

		entered := make(chan struct{})
		go func() {
			r, err := lease.Acquire(ctx, "tenant-1")
			assert.NoError(t, err)
			close(entered)
			r()
		}()

		select {
		case <-entered:
			t.Fatal("second writer entered while the lease was held")
		case <-time.After(100 * time.Millisecond):
		}

		release()
		select {
		case <-entered:
		case <-time.After(2 * time.Second):
			t.Fatal("second writer never entered after release")
		}
	})

	t.Run("different tenants hold independent leases", func(t *testing.T) {
		mr, adapter := setupTestRedis(t)
		defer mr.Close()
		lease := NewLease(adapter, DefaultLeaseConfig())

		release1, err := lease.Acquire(ctx, "tenant-1")
		require.NoError(t, err)
		defer release1()

		release2, err := lease.Acquire(ctx, "tenant-2")
		require.NoError(t, err)
		defer release2()

		assert.True(t, mr.Exists("writelock:tenant-1"))
		assert.True(t, mr.Exists("writelock:tenant-2"))
	})

	t.Run("cancellation stops a waiting writer", func(t *testing.T) {
		mr, adapter := setupTestRedis(t)
		defer mr.Close()
		lease := NewLease(adapter, DefaultLeaseConfig())

		release, err := lease.Acquire(ctx, "tenant-1")
		require.NoError(t, err)
		defer release()

		waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer cancel()

		_, err = lease.Acquire(waitCtx, "tenant-1")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("expired lease can be taken over", func(t *testing.T) {
		mr, adapter := setupTestRedis(t)
		defer mr.Close()

		config := DefaultLeaseConfig()
		config.TTL = 200 * time.Millisecond
		lease := NewLease(adapter, config)

		_, err := lease.Acquire(ctx, "tenant-1")
		require.NoError(t, err)

		// The holder crashed; after the TTL the key is gone and the tenant
		// is writable again.
		mr.FastForward(config.TTL + time.Millisecond)

		takeoverCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		release, err := lease.Acquire(takeoverCtx, "tenant-1")
		require.NoError(t, err)
		release()
	})
}
