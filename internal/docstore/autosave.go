package docstore

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type autoSaver struct {
	done chan struct{}

	mu  sync.Mutex
	err error
}

// startAutoSave saves once immediately, then once per interval, until ctx is
// done or a save fails.
func (s *Store) startAutoSave(ctx context.Context, interval time.Duration, onError func(error)) {
	a := &autoSaver{done: make(chan struct{})}
	s.autoSave = a
	// Burst of one: the first Wait returns at once, later ones are paced.
	lim := rate.NewLimiter(rate.Every(interval), 1)
	s.log.Debug("Autosave started", "interval", interval)
	go func() {
		defer close(a.done)
		for {
			if err := lim.Wait(ctx); err != nil {
				s.log.Debug("Autosave stopped", "reason", err)
				return
			}
			if err := s.Save(); err != nil {
				a.mu.Lock()
				a.err = err
				a.mu.Unlock()
				s.metrics.autoSaveStopped(s.owner.Name(), s.name)
				s.log.ErrorContext(ctx, "Autosave failed, no further autosaves will run", "path", s.path, "err", err)
				if onError != nil {
					onError(err)
				}
				return
			}
		}
	}()
}

// AutoSaveRunning reports whether the autosave loop is active.
func (s *Store) AutoSaveRunning() bool {
	if s.autoSave == nil {
		return false
	}
	select {
	case <-s.autoSave.done:
		return false
	default:
		return true
	}
}

// AutoSaveErr returns the error that stopped autosave, if any.
func (s *Store) AutoSaveErr() error {
	if s.autoSave == nil {
		return nil
	}
	s.autoSave.mu.Lock()
	defer s.autoSave.mu.Unlock()
	return s.autoSave.err
}

// WaitAutoSave blocks until the autosave loop has exited. It returns at once
// when autosave is disabled.
func (s *Store) WaitAutoSave() {
	if s.autoSave == nil {
		return
	}
	<-s.autoSave.done
}
