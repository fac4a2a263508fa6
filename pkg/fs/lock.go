package fs

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// ErrWouldBlock is returned by [Locker.TryLock] when the lock is held by
// another process.
var ErrWouldBlock = errors.New("lock would block")

// Locker provides file-based locking using flock(2).
//
// flock is advisory and applies to an inode (an open file), not a pathname.
// All cooperating writers must take the lock for it to have effect.
//
// To lock a logical resource, use a dedicated lock file that is stable on
// disk (for example "users.dank.lock"). Do not replace or unlink that lock
// file while locks may be held.
//
// This implementation is Unix-only.
//
// Locker has no internal mutable state beyond its dependencies. It is safe
// for concurrent use as long as the underlying [FS] implementation is safe
// for concurrent use. Custom [FS]/[File] implementations must provide a
// real OS file descriptor via [File.Fd].
type Locker struct {
	fs    FS
	flock func(fd int, how int) error
}

// NewLocker creates a Locker that uses the given filesystem for file
// operations. Panics if fs is nil.
func NewLocker(fs FS) *Locker {
	if fs == nil {
		panic("fs is nil")
	}

	return &Locker{
		fs:    fs,
		flock: unix.Flock,
	}
}

// Lock represents a held file lock. Call [Lock.Close] to release it.
type Lock struct {
	mu    sync.Mutex
	file  File
	flock func(fd int, how int) error
}

// Close releases the lock and closes the underlying file descriptor.
//
// Close is idempotent - calling it multiple times is safe and subsequent
// calls return nil.
//
// On Unix, closing a file descriptor releases any flock held by it. Close
// attempts an explicit unlock first; if that fails but the close succeeds,
// the lock is usually still released. If both fail, Close returns an error
// wrapping both causes (see [errors.Join]).
func (lk *Lock) Close() error {
	lk.mu.Lock()
	defer lk.mu.Unlock()

	if lk.file == nil {
		return nil
	}

	fd := int(lk.file.Fd())

	unlockErr := flockRetryEINTR(lk.flock, fd, unix.LOCK_UN)
	closeErr := lk.file.Close()
	lk.file = nil

	if unlockErr != nil {
		unlockErr = fmt.Errorf("unlocking: %w", unlockErr)
	}

	if closeErr != nil {
		closeErr = fmt.Errorf("closing lock fd: %w", closeErr)
	}

	return errors.Join(unlockErr, closeErr)
}

// Lock acquires an exclusive lock on the file at path, blocking until the
// lock is available. The lock file is created if it doesn't exist.
func (l *Locker) Lock(path string) (*Lock, error) {
	return l.acquire(path, unix.LOCK_EX)
}

// TryLock attempts to acquire an exclusive lock on the file at path without
// blocking. Returns [ErrWouldBlock] if the lock is held elsewhere.
func (l *Locker) TryLock(path string) (*Lock, error) {
	lock, err := l.acquire(path, unix.LOCK_EX|unix.LOCK_NB)
	if err != nil {
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrWouldBlock
		}

		return nil, err
	}

	return lock, nil
}

func (l *Locker) acquire(path string, how int) (*Lock, error) {
	file, err := l.fs.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file %q: %w", path, err)
	}

	flockErr := flockRetryEINTR(l.flock, int(file.Fd()), how)
	if flockErr != nil {
		closeErr := file.Close()

		return nil, errors.Join(
			fmt.Errorf("flock %q: %w", path, flockErr),
			closeErr,
		)
	}

	return &Lock{file: file, flock: l.flock}, nil
}

// flockRetryEINTR retries flock when interrupted by a signal.
func flockRetryEINTR(flock func(fd int, how int) error, fd int, how int) error {
	for {
		err := flock(fd, how)
		if !errors.Is(err, unix.EINTR) {
			return err
		}
	}
}
