// Package instancelock implements the exclusive instance lock file
// (spec.md §4.5 step 4, §6 "Lock file"): a single running instance claims
// an OS-level advisory lock on a fixed path so a second launch against the
// same instance id can detect and refuse to start rather than silently
// racing the first one.
package instancelock

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/eclipse-openvehicle-api/openvehicle-api-sub008/sdverrors"
)

// Lock holds an open, flock'd file descriptor for the lifetime of the
// process. Release drops the lock and removes the file.
type Lock struct {
	path string
	file *os.File
}

// Acquire opens (or creates) path and takes an exclusive, non-blocking
// flock on it. A stale lock file left behind by a crashed prior instance
// (spec.md §8 boundary behavior: a lock file with no live holder must not
// wedge a fresh start) is tolerated transparently: unix.Flock only fails
// here if another process currently holds the lock, never merely because
// the file already exists.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("instancelock: open %s: %w", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("instancelock: %s is held by another instance: %w: %w", path, sdverrors.ErrAccessDenied, err)
	}
	if err := f.Truncate(0); err == nil {
		fmt.Fprintf(f, "%d\n", os.Getpid())
	}
	return &Lock{path: path, file: f}, nil
}

// Release drops the flock and removes the backing file. Safe to call once;
// a second call is a no-op.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	err := l.file.Close()
	l.file = nil
	_ = os.Remove(l.path)
	return err
}
