package lock

import (
	"path/filepath"
	"testing"
)

func TestAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fbu.lock")

	first, err := Acquire(path)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	if _, err := Acquire(path); err == nil {
		t.Fatal("expected second acquire to fail while lock is held")
	}

	if err := first.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}

	second, err := Acquire(path)
	if err != nil {
		t.Fatalf("re-acquire after release: %v", err)
	}
	if err := second.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
}

func TestReleaseNil(t *testing.T) {
	var l *Lock
	if err := l.Release(); err != nil {
		t.Fatalf("nil release should be a no-op, got %v", err)
	}
}
