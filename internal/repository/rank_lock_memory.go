package repository

import (
	"context"
	"sync"
)

type memLock struct {
	sem  chan struct{}
	refs int
}

type memoryRankLocker struct {
	mu    sync.Mutex
	locks map[string]*memLock
}

func NewMemoryRankLocker() RankLocker {
	return &memoryRankLocker{
		locks: make(map[string]*memLock),
	}
}

func (l *memoryRankLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &memLock{sem: make(chan struct{}, 1)}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(key, entry)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.sem
			l.release(key, entry)
		})
	}, nil
}

func (l *memoryRankLocker) release(key string, entry *memLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, key)
	}
}

// held reports the number of keys with holders or waiters.
func (l *memoryRankLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
