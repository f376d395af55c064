package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseExclusion проверяет, что под одним ключом в критической секции не больше одного владельца.
func exerciseExclusion(t *testing.T, l Locker) {
	ctx := context.Background()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
		total   int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "user-1post-1")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			total++
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 20, total)
}

func TestKeyedMutex_Exclusion(t *testing.T) {
	m := NewKeyedMutex()
	exerciseExclusion(t, m)
	assert.Zero(t, m.size(), "entries are removed after the last unlock")
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	m := NewKeyedMutex()
	ctx := context.Background()

	unlockA, err := m.Lock(ctx, "a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	unlockB, err := m.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestKeyedMutex_ContextCancelled(t *testing.T) {
	m := NewKeyedMutex()
	unlock, err := m.Lock(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = m.Lock(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock() // повторный вызов безопасен
	assert.Zero(t, m.size())
}

func newRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLocker(client, time.Second), mr
}

func TestRedisLocker_Exclusion(t *testing.T) {
	l, _ := newRedisLocker(t)
	exerciseExclusion(t, l)
}

func TestRedisLocker_ReleaseAndTimeout(t *testing.T) {
	l, mr := newRedisLocker(t)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "k")
	require.NoError(t, err)
	assert.True(t, mr.Exists("lock:k"))

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = l.Lock(waitCtx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.False(t, mr.Exists("lock:k"))

	unlock2, err := l.Lock(ctx, "k")
	require.NoError(t, err)
	unlock2()
}

func TestRedisLocker_DoesNotReleaseForeignLock(t *testing.T) {
	l, mr := newRedisLocker(t)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "k")
	require.NoError(t, err)

	// блокировка истекла и её взял другой владелец
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set("lock:k", "someone-else"))

	unlock()
	got, err := mr.Get("lock:k")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}
