// pattern: Imperative Shell

package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval is how often the watcher re-checks the registry file
// in case a filesystem event was missed.
const DefaultPollInterval = 5 * time.Second

// Watcher reloads a Registry whenever its file changes on disk, such as
// when another workbench process adds or removes a workspace.
type Watcher struct {
	reg          *Registry
	watcher      *fsnotify.Watcher
	PollInterval time.Duration

	lastSize    int64
	lastModTime time.Time
}

// NewWatcher creates a watcher for reg's file.
func NewWatcher(reg *Registry) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		reg:          reg,
		watcher:      watcher,
		PollInterval: DefaultPollInterval,
	}, nil
}

// Start watches until ctx is cancelled, reloading the registry and calling
// onReload after every change. It closes the watcher before returning.
func (w *Watcher) Start(ctx context.Context, onReload func()) error {
	defer func() { _ = w.watcher.Close() }()

	// Watch the directory; saves replace the file by rename.
	if err := w.watcher.Add(filepath.Dir(w.reg.path)); err != nil {
		return fmt.Errorf("failed to watch registry directory: %w", err)
	}
	w.changed()

	ticker := time.NewTicker(w.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.reg.path) {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				if w.changed() {
					w.reload(onReload)
				}
			}

		case <-ticker.C:
			if w.changed() {
				w.reload(onReload)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.reg.logger.Warn("registry watcher error", "error", err)
		}
	}
}

// changed records the file's current size and modification time and
// reports whether they differ from the last observation.
func (w *Watcher) changed() bool {
	var size int64
	var modTime time.Time
	if info, err := os.Stat(w.reg.path); err == nil {
		size, modTime = info.Size(), info.ModTime()
	}
	if size == w.lastSize && modTime.Equal(w.lastModTime) {
		return false
	}
	w.lastSize, w.lastModTime = size, modTime
	return true
}

func (w *Watcher) reload(onReload func()) {
	if err := w.reg.Load(); err != nil {
		w.reg.logger.Warn("failed to reload registry", "error", err)
		return
	}
	w.reg.logger.Info("registry reloaded", "workspaces", w.reg.Len())
	if onReload != nil {
		onReload()
	}
}
