package heartbeat

import (
	"path/filepath"
	"testing"
	"time"
)

func TestWriteRead(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "heartbeat.txt")
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	if err := Write(path, now); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !got.Equal(now) {
		t.Fatalf("expected %v, got %v", now, got)
	}
}

func TestStale(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	maxAge := time.Minute

	t.Run("fresh heartbeat", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "heartbeat.txt")
		if err := Write(path, now.Add(-30*time.Second)); err != nil {
			t.Fatalf("write: %v", err)
		}
		if Stale(path, now, maxAge) {
			t.Fatal("expected fresh heartbeat")
		}
	})

	t.Run("old heartbeat", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "heartbeat.txt")
		if err := Write(path, now.Add(-2*time.Minute)); err != nil {
			t.Fatalf("write: %v", err)
		}
		if !Stale(path, now, maxAge) {
			t.Fatal("expected stale heartbeat")
		}
	})

	t.Run("missing file is stale", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "absent.txt")
		if !Stale(path, now, maxAge) {
			t.Fatal("expected missing heartbeat to be stale")
		}
	})
}

func TestClear(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "heartbeat.txt")
	if err := Write(path, time.Now()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := Clear(path); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := Clear(path); err != nil {
		t.Fatalf("second clear should be a no-op, got %v", err)
	}
}
