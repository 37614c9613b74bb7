// Package watch reloads a dataset's manifest when its backing file
// changes on disk: one fsnotify watcher, one goroutine, reload-on-write.
package watch

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/neurovol/neurovol/internal/logger"
	"github.com/neurovol/neurovol/internal/manifest"
	apperrors "github.com/neurovol/neurovol/pkg/errors"
)

// Reader loads manifest bytes for the watched path; store.DataStore
// satisfies this directly via GetManifest.
type Reader interface {
	GetManifest(ctx context.Context) ([]byte, error)
}

// ManifestWatcher watches a manifest file on a local filesystem and calls
// onReload with the freshly parsed Manifest whenever the file is written
// or created. Cloud backends are not watched.
type ManifestWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onReload func(*manifest.Manifest)
	stopCh   chan struct{}
}

// NewFileWatcher watches path (the manifest JSON file on a filesystem
// backend) and invokes onReload after every write event that parses
// successfully. Parse failures are logged and the previous manifest is
// kept in effect.
func NewFileWatcher(path string, onReload func(*manifest.Manifest)) (*ManifestWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIOFailure, "failed to create manifest watcher", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, apperrors.Wrap(apperrors.CodeIOFailure, "failed to watch "+path, err)
	}
	return &ManifestWatcher{watcher: w, path: path, onReload: onReload, stopCh: make(chan struct{})}, nil
}

// Start runs the watch loop until ctx is cancelled or Stop is called.
func (mw *ManifestWatcher) Start(ctx context.Context) {
	go mw.loop(ctx)
}

func (mw *ManifestWatcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-mw.stopCh:
			return
		case event, ok := <-mw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(mw.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			mw.reload()
		case err, ok := <-mw.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("manifest watcher error: %v", err)
		}
	}
}

func (mw *ManifestWatcher) reload() {
	data, err := os.ReadFile(mw.path)
	if err != nil {
		logger.Warn("manifest watcher: failed to read %s: %v", mw.path, err)
		return
	}
	m, err := manifest.Parse(data)
	if err != nil {
		logger.Warn("manifest watcher: failed to parse %s after change: %v", mw.path, err)
		return
	}
	logger.Info("manifest watcher: reloaded %s", mw.path)
	mw.onReload(m)
}

// Stop halts the watch loop and releases the underlying fsnotify watcher.
func (mw *ManifestWatcher) Stop() error {
	close(mw.stopCh)
	return mw.watcher.Close()
}
