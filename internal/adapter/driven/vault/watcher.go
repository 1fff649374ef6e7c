package vault

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanadium23/obsidian-digital-garden/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Watcher = (*Watcher)(nil)

// DefaultDebounce is the quiet period after the last file event before
// onChange fires.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reports vault changes using fsnotify. Bursts of events (editors
// write temp files, rename, then chmod) collapse into one callback.
type Watcher struct {
	root     string
	debounce time.Duration
}

// NewWatcher creates a Watcher for root. A non-positive debounce uses
// DefaultDebounce.
func NewWatcher(root string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{root: root, debounce: debounce}
}

// Watch blocks until ctx is cancelled.
func (w *Watcher) Watch(ctx context.Context, onChange func()) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := addDirsRecursive(fw, w.root); err != nil {
		return err
	}

	slog.Info("vault watcher started", "root", w.root)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("vault watcher stopped")
			return nil

		case <-timer.C:
			onChange()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if isHidden(info.Name()) {
						continue
					}
					if addErr := addDirsRecursive(fw, ev.Name); addErr != nil {
						slog.Warn("vault watcher: add new dir failed", "path", ev.Name, "error", addErr)
					}
					timer.Reset(w.debounce)
					continue
				}
			}

			if !isMarkdown(ev.Name) || ev.Op == fsnotify.Chmod {
				continue
			}
			slog.Debug("vault change", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(w.debounce)

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Error("vault watcher error", "error", watchErr)
		}
	}
}

// addDirsRecursive adds root and its non-hidden subdirectories to fw.
func addDirsRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return fw.Add(p)
	})
}
