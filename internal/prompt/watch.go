package prompt

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch reloads the template file into st whenever it changes, until ctx is
// done. The directory is watched so editors that replace the file by rename
// are picked up. A file that fails to parse leaves the previous set active.
func Watch(ctx context.Context, st *Store, path string, logger *zap.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", path, err)
	}

	go func() {
		defer func() { _ = w.Close() }()
		target := filepath.Clean(path)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				reload(st, path, logger)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("Prompt watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}

func reload(st *Store, path string, logger *zap.Logger) {
	s, err := LoadFile(path)
	if err != nil {
		logger.Warn("Prompt reload failed, keeping previous templates",
			zap.String("path", path), zap.String("version", st.Current().Version()), zap.Error(err))
		return
	}
	prev := st.Current().Version()
	st.Replace(s)
	logger.Info("Prompts reloaded", zap.String("path", path),
		zap.String("previous_version", prev), zap.String("version", s.Version()))
}
