package catalog

import (
	"context"
	"path/filepath"

	"github.com/howeyc/fsnotify"
	"github.com/pkg/errors"

	"github.com/CMSgov/scrub-app/log"
)

// Watch reloads the catalog whenever the file at path is written. The watch
// stops when ctx is done.
func (c *Catalog) Watch(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve catalog path %s", path)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create catalog watcher")
	}

	// Watch the directory so editors that replace the file are still seen.
	if err := watcher.Watch(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return errors.Wrapf(err, "failed to watch %s", filepath.Dir(abs))
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Event:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs || ev.IsDelete() {
					continue
				}
				if err := c.Reload(abs); err != nil {
					log.API.Errorf("Failed to reload rule catalog %s: %s", abs, err.Error())
					continue
				}
				log.API.Infof("Reloaded rule catalog from %s", abs)
			case err, ok := <-watcher.Error:
				if !ok {
					return
				}
				log.API.Warnf("Rule catalog watcher error: %s", err.Error())
			}
		}
	}()

	return nil
}
