package instancelock

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "instance.lock")
	l, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("lock file missing after Acquire: %v", err)
	}
	if err := l.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("lock file still present after Release")
	}
}

func TestAcquireTwiceRefused(t *testing.T) {
	path := filepath.Join(t.TempDir(), "instance.lock")
	l, err := Acquire(path)
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	defer l.Release()

	if _, err := Acquire(path); err == nil {
		t.Fatalf("second Acquire of the same path must be refused while the first holds the lock")
	}
}

func TestAcquireToleratesStaleLockFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "instance.lock")
	// Simulate a stale lock file left behind by a crashed prior instance: a
	// plain file with no live flock holder must not block a fresh Acquire.
	if err := os.WriteFile(path, []byte("12345\n"), 0o644); err != nil {
		t.Fatalf("seed stale file: %v", err)
	}
	l, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire over a stale lock file must succeed, got: %v", err)
	}
	l.Release()
}

func TestReleaseIsSafeToCallOnce(t *testing.T) {
	var l *Lock
	if err := l.Release(); err != nil {
		t.Fatalf("Release on a nil *Lock must be a no-op, got: %v", err)
	}
}
