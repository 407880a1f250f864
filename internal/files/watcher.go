package files

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// PathSource lists the file paths currently registered on documents.
type PathSource interface {
	AllFilePaths() (map[string]struct{}, error)
}

// EventCallback is called when a registered document file changes
// availability. kind is "file.missing" or "file.restored"; path is
// the file path as stored on the document.
type EventCallback func(kind string, path string)

// Watch starts an fsnotify watcher on the library root and tracks
// whether registered document files are present on disk, until ctx
// is cancelled. Transitions are reported through cb (if non-nil).
//
// The watcher never touches the files themselves. New directories
// created at runtime are added to the watch list, and events are
// debounced into a single reconciliation pass because one file
// operation often arrives as several events.
func Watch(ctx context.Context, src PathSource, root *Root, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root.Dir()); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root.Dir()))

	// The initial snapshot is the baseline; only later transitions
	// are reported.
	missing, _ := missingSet(src, root, logger)

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			missing = reconcile(src, root, missing, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", ev.Name))
					}
				}
			}

			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcile recomputes the missing set and reports the differences
// against prev. On a lookup failure prev is kept so a transient
// error does not fire spurious transitions.
func reconcile(src PathSource, root *Root, prev map[string]struct{}, logger *slog.Logger, cb EventCallback) map[string]struct{} {
	next, ok := missingSet(src, root, logger)
	if !ok {
		return prev
	}
	for p := range next {
		if _, was := prev[p]; !was {
			logger.Warn("watcher: document file missing", slog.String("path", p))
			if cb != nil {
				cb("file.missing", p)
			}
		}
	}
	for p := range prev {
		if _, still := next[p]; !still {
			logger.Info("watcher: document file restored", slog.String("path", p))
			if cb != nil {
				cb("file.restored", p)
			}
		}
	}
	return next
}

// missingSet returns the registered paths that currently lack a file
// on disk.
func missingSet(src PathSource, root *Root, logger *slog.Logger) (map[string]struct{}, bool) {
	paths, err := src.AllFilePaths()
	if err != nil {
		logger.Warn("watcher: list file paths failed", slog.String("error", err.Error()))
		return nil, false
	}
	out := make(map[string]struct{})
	for _, p := range root.Missing(paths) {
		out[p] = struct{}{}
	}
	return out, true
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
