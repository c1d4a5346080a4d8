package companion

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-reads the snapshot on the reader's own refresh schedule and,
// when the snapshot file changes, earlier than that.
type Watcher struct {
	reader *Reader
	path   string
}

// NewWatcher creates a Watcher for the snapshot file at path.
func NewWatcher(reader *Reader, path string) *Watcher {
	return &Watcher{reader: reader, path: path}
}

// Run calls render with a fresh timeline after every read until ctx is
// done.
func (w *Watcher) Run(ctx context.Context, render func(*Timeline)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: the publisher replaces the file by rename.
	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	name := filepath.Base(w.path)

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	read := func() {
		timeline := w.reader.Read(ctx)
		render(timeline)
		wait := time.Until(timeline.NextRefresh)
		if wait < 0 {
			wait = 0
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)
	}

	read()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			read()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("snapshot watcher error", "error", err)
		case <-timer.C:
			read()
		}
	}
}
