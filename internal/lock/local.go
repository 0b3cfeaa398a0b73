package lock

import (
	"context"
	"sync"
	"time"
)

// LocalLocker is an in-process Locker for single-process deployments.
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]localHold
	now   func() time.Time
	count uint64
}

type localHold struct {
	id      uint64
	expires time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: map[string]localHold{}, now: time.Now}
}

func (l *LocalLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (Lock, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if h, ok := l.held[key]; ok && now.Before(h.expires) {
		return nil, false, nil
	}
	l.count++
	l.held[key] = localHold{id: l.count, expires: now.Add(ttl)}
	return &localLock{owner: l, key: key, id: l.count}, true, nil
}

type localLock struct {
	owner *LocalLocker
	key   string
	id    uint64
}

func (l *localLock) Unlock(ctx context.Context) error {
	l.owner.mu.Lock()
	defer l.owner.mu.Unlock()
	if h, ok := l.owner.held[l.key]; ok && h.id == l.id {
		delete(l.owner.held, l.key)
	}
	return nil
}
