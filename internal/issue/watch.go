package issue

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long WatchFile waits for a burst of writes to
// settle before reporting a change.
const DefaultDebounce = 100 * time.Millisecond

// WatchFile calls onChange whenever the file at path is written or
// replaced, until ctx is done. Bursts of events within debounce collapse
// into one call. The file's directory is watched so editors and atomic
// writers that replace the file by rename are seen too.
func WatchFile(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch directory: %w", err)
	}

	target := filepath.Base(abs)
	// Idle until the first event; stopped timers never deliver.
	debounceTimer := time.NewTimer(debounce)
	debounceTimer.Stop()
	defer debounceTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			debounceTimer.Reset(debounce)

		case <-debounceTimer.C:
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("file watcher failed: %w", err)
		}
	}
}
