package store

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"scope-z/src/settings"
)

const watchDebounce = 150 * time.Millisecond

// Watch reports external edits of the settings file until ctx is cancelled. The parent directory
// is watched because editors and Save both replace the file by rename. Writes made by this store
// and documents that fail to parse are ignored.
func (s *Store) Watch(ctx context.Context, onChange func(settings.Settings)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return err
	}
	s.logger.Info("settings: watching for external edits", "path", s.path)
	go s.watchLoop(ctx, w, onChange)
	return nil
}

func (s *Store) watchLoop(ctx context.Context, w *fsnotify.Watcher, onChange func(settings.Settings)) {
	defer w.Close()
	target := filepath.Clean(s.path)
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				fire = time.After(watchDebounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.logger.Warn("settings: watcher error", "error", err)
		case <-fire:
			fire = nil
			s.reload(onChange)
		}
	}
}

func (s *Store) reload(onChange func(settings.Settings)) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	if s.isOwnWrite(data) {
		return
	}
	v, err := settings.Decode(data)
	if err != nil {
		s.logger.Warn("settings: ignoring unparsable external edit", "path", s.path, "error", err)
		return
	}
	s.remember(data)
	s.logger.Info("settings: reloaded external edit", "path", s.path)
	if onChange != nil {
		onChange(v)
	}
}
