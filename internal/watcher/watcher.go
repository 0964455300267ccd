// Package watcher reloads a file when it changes on disk.
package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher watches a single file and calls onChange after writes settle
type Watcher struct {
	path     string
	onChange func(ctx context.Context) error
	debounce time.Duration
	log      logrus.FieldLogger
}

// New creates a new file watcher
func New(path string, onChange func(ctx context.Context) error, log logrus.FieldLogger) *Watcher {
	return &Watcher{
		path:     path,
		onChange: onChange,
		debounce: 500 * time.Millisecond,
		log:      log.WithField("component", "watcher"),
	}
}

// WithDebounce sets the debounce duration
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// Watch blocks until ctx is cancelled. onChange errors are logged and do
// not stop the watcher.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	// Watch the directory so editors that replace the file are seen
	dir := filepath.Dir(w.path)
	filename := filepath.Base(w.path)

	if err := fw.Add(dir); err != nil {
		return err
	}

	w.log.WithField("path", w.path).Info("watching for changes")

	var (
		timer *time.Timer
		wg    sync.WaitGroup
	)
	defer wg.Wait()

	fire := func() {
		defer wg.Done()
		if ctx.Err() != nil {
			return
		}
		w.log.WithField("path", w.path).Info("file changed, reloading")
		if err := w.onChange(ctx); err != nil {
			w.log.WithError(err).WithField("path", w.path).Error("reload failed")
		}
	}

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			// a timer stopped before firing hands its wg slot to the next one
			if timer == nil || !timer.Stop() {
				wg.Add(1)
			}
			timer = time.AfterFunc(w.debounce, fire)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("watcher error")

		case <-ctx.Done():
			if timer != nil && timer.Stop() {
				wg.Done()
			}
			return ctx.Err()
		}
	}
}
