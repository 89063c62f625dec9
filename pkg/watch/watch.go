package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Func is called after the watched file settles.
type Func func(ctx context.Context) error

// Watcher re-runs a Func whenever one file changes. Bursts of events
// closer together than the debounce window trigger a single call.
type Watcher struct {
	path     string
	debounce time.Duration
	fn       Func
	log      *zap.Logger
}

func New(path string, debounce time.Duration, fn Func, log *zap.Logger) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{path: filepath.Clean(path), debounce: debounce, fn: fn, log: log}
}

// Run watches until ctx is cancelled. The parent directory is watched
// rather than the file so that editors replacing the file by rename are
// still seen. Errors from the callback are logged and watching goes on.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.log.Info("watching", zap.String("path", w.path), zap.Duration("debounce", w.debounce))

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("watch stopped")
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.log.Debug("change", zap.String("op", event.Op.String()))
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		case <-timer.C:
			if err := w.fn(ctx); err != nil {
				w.log.Error("run failed", zap.String("path", w.path), zap.Error(err))
			}
		}
	}
}
