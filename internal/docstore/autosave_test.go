package docstore

import (
	"bytes"
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/maruel/plugindata/internal/errors"
	"github.com/maruel/plugindata/internal/location"
)

// syncBuffer is a bytes.Buffer safe for concurrent use by a log handler.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestAutoSave(t *testing.T) {
	owner := newOwner(t)
	ctx, cancel := context.WithCancel(context.Background())
	s, err := New(ctx, owner, "scores", location.OwnerPrivate, WithLogger(quietLogger()), WithAutoSave(10*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	// Stop the loop before the temporary directory is removed.
	t.Cleanup(func() {
		cancel()
		s.WaitAutoSave()
	})
	if !s.AutoSaveRunning() {
		t.Fatal("autosave not running")
	}
	if err := s.Set("a", 1); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "autosave to write a", func() bool {
		data, _ := os.ReadFile(s.Path())
		return string(data) == `{"a":1}`
	})
}

func TestAutoSaveStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s, err := New(ctx, newOwner(t), "scores", location.SharedRoot, WithLogger(quietLogger()), WithAutoSave(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	// The first run happens at once even with a long interval.
	waitFor(t, "first autosave", func() bool {
		data, _ := os.ReadFile(s.Path())
		return string(data) == "{}"
	})
	cancel()
	s.WaitAutoSave()
	if s.AutoSaveRunning() {
		t.Error("autosave still running after cancel")
	}
	if err := s.AutoSaveErr(); err != nil {
		t.Errorf("AutoSaveErr() = %v", err)
	}
}

func TestAutoSaveFailStop(t *testing.T) {
	diskFull := syscall.ENOSPC
	var writes atomic.Int32
	writeFile = func(path string, data []byte) error {
		// The first save succeeds, every later one fails.
		if writes.Add(1) == 1 {
			return writeFileAtomic(path, data)
		}
		return diskFull
	}
	t.Cleanup(func() { writeFile = writeFileAtomic })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logs := &syncBuffer{}
	var calls atomic.Int32
	handled := make(chan error, 4)
	s, err := New(ctx, newOwner(t), "scores", location.OwnerPrivate,
		WithLogger(slog.New(slog.NewTextHandler(logs, nil))),
		WithAutoSave(5*time.Millisecond),
		WithErrorHandler(func(err error) {
			calls.Add(1)
			handled <- err
		}),
	)
	if err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-handled:
		if !stderrors.Is(err, errors.StorageIOError) || !stderrors.Is(err, diskFull) {
			t.Errorf("handler got %v, want StorageIOError wrapping ENOSPC", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("error handler not called")
	}
	s.WaitAutoSave()
	if s.AutoSaveRunning() {
		t.Error("autosave still running after failure")
	}
	if !stderrors.Is(s.AutoSaveErr(), errors.StorageIOError) {
		t.Errorf("AutoSaveErr() = %v", s.AutoSaveErr())
	}
	// Leave room for a retry that must not happen.
	time.Sleep(30 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("handler called %d times, want 1", n)
	}
	if n := writes.Load(); n != 2 {
		t.Errorf("%d writes, want 2", n)
	}
	if !strings.Contains(logs.String(), "Autosave failed") {
		t.Errorf("failure not logged: %s", logs.String())
	}
	if got := readFile(t, s.Path()); got != "{}" {
		t.Errorf("file = %q, want the last good save", got)
	}

	// Foreground saves still report the error to the caller.
	if err := s.Save(); !stderrors.Is(err, errors.StorageIOError) {
		t.Errorf("Save() error = %v", err)
	}
}

func TestAutoSaveDisabled(t *testing.T) {
	s := newStore(t, newOwner(t), location.SharedRoot)
	if s.AutoSaveRunning() {
		t.Error("autosave running")
	}
	if s.AutoSaveErr() != nil {
		t.Error("unexpected autosave error")
	}
	s.WaitAutoSave()
}
