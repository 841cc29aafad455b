package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRankLocker_Exclusive(t *testing.T) {
	l := NewMemoryRankLocker().(*memoryRankLocker)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "k")
			require.NoError(t, err)
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Zero(t, l.held())
}

func TestMemoryRankLocker_IndependentKeys(t *testing.T) {
	l := NewMemoryRankLocker()
	ctx := context.Background()

	a, err := l.Lock(ctx, rankLockKey("u1", "github"))
	require.NoError(t, err)
	defer a()

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	b, err := l.Lock(ctx, rankLockKey("u1", "google"))
	require.NoError(t, err)
	b()
}

func TestMemoryRankLocker_ContextCancelled(t *testing.T) {
	l := NewMemoryRankLocker().(*memoryRankLocker)

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()
	assert.Zero(t, l.held())
}

func TestRankLockKey_Distinct(t *testing.T) {
	assert.NotEqual(t, rankLockKey("a", "bc"), rankLockKey("ab", "c"))
}

func TestNopRankLocker(t *testing.T) {
	unlock, err := NopRankLocker().Lock(context.Background(), "k")
	require.NoError(t, err)
	unlock()
}
