package ports

import "context"

// Unlock releases a held lock.
type Unlock func() error

// Locker hands out exclusive cross-process locks backed by lock files.
//
//go:generate mockgen -source=lock.go -destination=mocks/mock_lock.go -package=mocks
type Locker interface {
	// TryLock acquires the lock at path without waiting.
	// It returns an error wrapping domain.ErrLocked when another holder exists.
	TryLock(path string) (Unlock, error)

	// Lock acquires the lock at path, waiting until it is free or ctx is done.
	Lock(ctx context.Context, path string) (Unlock, error)
}
