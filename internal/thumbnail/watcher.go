package thumbnail

import (
	"context"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// EventCallback is called after a watcher-driven cache eviction.
// kind is "updated" or "deleted", matching what happened to the content.
type EventCallback func(kind string, id int64)

// Watch starts an fsnotify watcher on the upload root and evicts the
// cached thumbnail whenever a content file is replaced in place or
// removed out of band. Without this, a thumbnail generated before a
// content overwrite would be served forever.
//
// The upload root is flat, so no recursive watching is needed. Temp
// files from in-flight atomic writes are ignored; the rename that
// completes the write is what triggers the eviction.
func Watch(ctx context.Context, uploadRoot string, cache *Cache, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(uploadRoot); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", uploadRoot))

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			id, ok := contentID(ev.Name)
			if !ok {
				continue
			}

			var kind string
			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				kind = "updated"
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				kind = "deleted"
			default:
				continue
			}

			if err := cache.Invalidate(id); err != nil {
				logger.Warn("watcher: invalidate failed",
					slog.Int64("id", id),
					slog.String("error", err.Error()))
				continue
			}
			logger.Debug("watcher: thumbnail evicted",
				slog.Int64("id", id),
				slog.String("kind", kind))
			if cb != nil {
				cb(kind, id)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: error", slog.String("error", err.Error()))
		}
	}
}

// contentID parses a meme id out of a "{id}.{ext}" content file name.
// Anything else (temp files, dotfiles) is not watched content.
func contentID(path string) (int64, bool) {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return 0, false
	}
	stem, _, found := strings.Cut(base, ".")
	if !found {
		return 0, false
	}
	id, err := strconv.ParseInt(stem, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
