package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Change kinds reported by Watch.
const (
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// ChangeCallback is called when another process changes or removes a key.
type ChangeCallback func(kind, key string)

// Watch observes the store directory until ctx is cancelled and reports
// external edits of keys this provider has seen. Writes made through Set are
// recognised by checksum and not reported.
func (f *FS) Watch(ctx context.Context, logger *slog.Logger, cb ChangeCallback) error {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(f.root); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", f.root))

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if !strings.HasSuffix(name, fileExt) {
				continue
			}
			key, known := f.lookup(name)
			if !known {
				logger.Debug("watcher: unknown file", slog.String("name", name))
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := os.ReadFile(ev.Name)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("key", key), slog.String("error", readErr.Error()))
					continue
				}
				if f.ownWrite(name, data) {
					continue
				}
				logger.Debug("watcher: external update", slog.String("key", key))
				if cb != nil {
					cb(ChangeUpdated, key)
				}

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				f.forget(name)
				logger.Debug("watcher: external delete", slog.String("key", key))
				if cb != nil {
					cb(ChangeDeleted, key)
				}
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
