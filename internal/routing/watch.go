package routing

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 250 * time.Millisecond

// Watch reloads path into router whenever the file changes, until ctx is
// done. Invalid files are logged and the previous rules stay active.
//
// The parent directory is watched rather than the file itself so that
// editors which replace the file on save keep triggering reloads.
func Watch(ctx context.Context, path string, router *Router, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	reload := make(chan struct{}, 1)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(reloadDebounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		case <-reload:
			rules, err := LoadRules(abs)
			if err != nil {
				logger.Warn("routing rules not reloaded", "path", abs, "error", err)
				continue
			}
			router.Swap(rules)
			logger.Info("routing rules reloaded", "path", abs, "groups", len(rules.Groups))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("routing watcher error", "error", err)
		}
	}
}
