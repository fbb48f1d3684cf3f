package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scores.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 16)
	if err := File(ctx, path, func() { changed <- struct{}{} }); err != nil {
		t.Fatalf("File() error = %v", err)
	}

	// Unrelated files in the same directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changed:
		t.Fatal("notified for another file")
	case <-time.After(100 * time.Millisecond):
	}

	t.Run("write", func(t *testing.T) {
		if err := os.WriteFile(path, []byte(`{"a":1}`), 0o644); err != nil {
			t.Fatal(err)
		}
		wait(t, changed)
	})
	t.Run("rename over", func(t *testing.T) {
		tmp := filepath.Join(dir, ".scores.json.tmp")
		if err := os.WriteFile(tmp, []byte(`{"a":2}`), 0o644); err != nil {
			t.Fatal(err)
		}
		drain(changed)
		if err := os.Rename(tmp, path); err != nil {
			t.Fatal(err)
		}
		wait(t, changed)
	})
}

func TestFileMissingDirectory(t *testing.T) {
	err := File(context.Background(), filepath.Join(t.TempDir(), "missing", "db.json"), func() {})
	if err == nil {
		t.Fatal("File() on a missing directory succeeded")
	}
}

func wait(t *testing.T, c <-chan struct{}) {
	t.Helper()
	select {
	case <-c:
	case <-time.After(5 * time.Second):
		t.Fatal("no notification")
	}
}

func drain(c <-chan struct{}) {
	for {
		select {
		case <-c:
		default:
			return
		}
	}
}
