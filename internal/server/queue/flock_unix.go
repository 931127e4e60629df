//go:build unix

package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

const flockRetryInterval = 10 * time.Millisecond

// FileLocker adds an advisory flock(2) on a companion lock file so that
// separate processes sharing the queue document exclude each other.
type FileLocker struct {
	path  string
	local *ProcessLocker
}

func NewFileLocker(path string) (*FileLocker, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("lock file: %w", err)
	}
	_ = f.Close()
	return &FileLocker{path: path, local: NewProcessLocker()}, nil
}

func (l *FileLocker) Lock(ctx context.Context) (func(), error) {
	release, err := l.local.Lock(ctx)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		release()
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	ticker := time.NewTicker(flockRetryInterval)
	defer ticker.Stop()

	for {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return l.unlocker(f, release), nil
		}
		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EINTR) {
			_ = f.Close()
			release()
			return nil, fmt.Errorf("flock: %w", err)
		}

		select {
		case <-ctx.Done():
			_ = f.Close()
			release()
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *FileLocker) TryLock() (func(), bool, error) {
	release, ok, _ := l.local.TryLock()
	if !ok {
		return nil, false, nil
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		release()
		return nil, false, fmt.Errorf("open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		release()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("flock: %w", err)
	}

	return l.unlocker(f, release), true, nil
}

func (l *FileLocker) unlocker(f *os.File, release func()) func() {
	return func() {
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
		_ = f.Close()
		release()
	}
}
