package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// seedWatcher reports changes of one file. the parent directory is watched so
// editors that replace the file by rename are still seen.
type seedWatcher struct {
	fsw      *fsnotify.Watcher
	path     string
	debounce time.Duration
	warn     func(format string, args ...any)
}

func newSeedWatcher(path string, debounce time.Duration, warn func(format string, args ...any)) (*seedWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve seed path: %w", err)
	}
	if dir, evalErr := filepath.EvalSymlinks(filepath.Dir(abs)); evalErr == nil {
		abs = filepath.Join(dir, filepath.Base(abs))
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &seedWatcher{fsw: fsw, path: abs, debounce: debounce, warn: warn}, nil
}

// Changes emits once per burst of writes to the file, after debounce of quiet.
// the channel is closed when ctx is done or the watcher is closed.
func (w *seedWatcher) Changes(ctx context.Context) <-chan struct{} {
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				if !w.relevant(ev) {
					continue
				}
				fire = time.After(w.debounce)
			case err, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
				if w.warn != nil {
					w.warn("watch %s: %v", w.path, err)
				}
			case <-fire:
				fire = nil
				select {
				case out <- struct{}{}:
				default: // a change is already pending
				}
			}
		}
	}()
	return out
}

func (w *seedWatcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

// Close stops watching.
func (w *seedWatcher) Close() error {
	if err := w.fsw.Close(); err != nil {
		return fmt.Errorf("close watcher: %w", err)
	}
	return nil
}
