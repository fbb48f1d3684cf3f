// Package watch reports modifications of a single file.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// File calls fn each time the file at path is created, written or replaced,
// until ctx is done.
//
// The parent directory is watched rather than the file itself so that a
// rename over path, which is how stores save, is still reported. File returns
// once the watcher is installed; events are delivered from a goroutine.
func File(ctx context.Context, path string, fn func()) error {
	path = filepath.Clean(path)
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}
	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path {
					continue
				}
				if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename) {
					fn()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.WarnContext(ctx, "Error watching file", "path", path, "err", err)
			}
		}
	}()
	return nil
}
