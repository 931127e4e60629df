package queue

import (
	"context"
)

// Locker guards the queue document. Lock waits until the lock is held or
// ctx is done; TryLock gives up immediately and reports false when the
// lock is busy. Both return the func that releases the lock.
type Locker interface {
	Lock(ctx context.Context) (func(), error)
	TryLock() (func(), bool, error)
}

// ProcessLocker serialises callers inside one process.
type ProcessLocker struct {
	sem chan struct{}
}

func NewProcessLocker() *ProcessLocker {
	return &ProcessLocker{sem: make(chan struct{}, 1)}
}

func (l *ProcessLocker) Lock(ctx context.Context) (func(), error) {
	select {
	case l.sem <- struct{}{}:
		return l.release, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *ProcessLocker) TryLock() (func(), bool, error) {
	select {
	case l.sem <- struct{}{}:
		return l.release, true, nil
	default:
		return nil, false, nil
	}
}

func (l *ProcessLocker) release() {
	<-l.sem
}
