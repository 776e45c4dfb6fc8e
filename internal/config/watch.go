package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// reloadOps are the events on the config path that trigger a reload. An
// atomic save renames a temp file over the path, which the directory watch
// reports as Create.
const reloadOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename

// Watch calls onChange with the newly loaded Config each time the file at
// path changes. It runs until ctx is cancelled.
//
// The parent directory is watched rather than the file, so the watch
// survives the file being replaced. A reload that fails to parse or validate
// is logged and skipped; the caller keeps whatever config it had.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	path = filepath.Clean(path)
	dir := filepath.Dir(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("config: watch %s: %w", dir, err)
	}
	slog.Info("config: watching for changes", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path || event.Op&reloadOps == 0 {
				continue
			}

			cfg, err := Load(path)
			if err != nil {
				slog.Error("config: reload failed, keeping previous config",
					"path", path, "op", event.Op.String(), "err", err)
				continue
			}
			slog.Info("config: reloaded", "path", path, "op", event.Op.String())
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}
