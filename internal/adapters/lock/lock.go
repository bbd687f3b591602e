// Package lock implements cross-process exclusive locks on lock files.
package lock

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/viva/internal/core/domain"
	"go.trai.ch/viva/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultPollInterval is how often Lock retries a held lock.
const DefaultPollInterval = 50 * time.Millisecond

// errWouldBlock is returned by the platform lock call when another holder exists.
var errWouldBlock = errors.New("lock is held")

// Locker implements ports.Locker with OS advisory locks.
// The lock file itself is never deleted so that every process locks the same inode.
type Locker struct {
	pollInterval time.Duration
}

// NewLocker creates a new Locker.
func NewLocker() *Locker {
	return &Locker{pollInterval: DefaultPollInterval}
}

// TryLock acquires the lock at path or fails immediately with domain.ErrLocked.
func (l *Locker) TryLock(path string) (ports.Unlock, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}

	if err := tryLock(f); err != nil {
		_ = f.Close()
		if errors.Is(err, errWouldBlock) {
			return nil, zerr.With(zerr.Wrap(domain.ErrLocked, "lock is held by another process"), "lock_file", path)
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrLockFailed.Error()), "lock_file", path)
	}

	return release(f), nil
}

// Lock waits for the lock at path until it is acquired or ctx is done.
func (l *Locker) Lock(ctx context.Context, path string) (ports.Unlock, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		err := tryLock(f)
		if err == nil {
			return release(f), nil
		}
		if !errors.Is(err, errWouldBlock) {
			_ = f.Close()
			return nil, zerr.With(zerr.Wrap(err, domain.ErrLockFailed.Error()), "lock_file", path)
		}

		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func open(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrLockFailed.Error()), "lock_file", path)
	}
	//nolint:gosec // Lock paths are derived from spec file and store paths
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, domain.PrivateFilePerm)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrLockFailed.Error()), "lock_file", path)
	}
	return f, nil
}

func release(f *os.File) ports.Unlock {
	released := false
	return func() error {
		if released {
			return nil
		}
		released = true
		unlockErr := unlock(f)
		closeErr := f.Close()
		return errors.Join(unlockErr, closeErr)
	}
}
