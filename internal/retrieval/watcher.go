package retrieval

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce collapses the burst of events a single file write produces.
const reloadDebounce = 500 * time.Millisecond

// Watch reloads the snapshot file whenever it changes, until ctx is done.
// The parent directory is watched so that atomic renames are seen too.
// A snapshot that fails to load leaves the previous one active.
func (l *Loader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create index watcher: %w", err)
	}

	target := filepath.Clean(l.Path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	go func() {
		defer watcher.Close()

		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(reloadDebounce)
				} else {
					timer.Reset(reloadDebounce)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				if err := l.LoadFile(); err != nil {
					l.Logger.Error("index reload failed, keeping previous snapshot", "path", target, "error", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.Logger.Error("index watcher error", "error", err)
			}
		}
	}()

	l.Logger.Info("watching exercise index", "path", target)
	return nil
}
