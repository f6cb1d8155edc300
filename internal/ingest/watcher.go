package ingest

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// settleDelay gives the producing process time to finish writing a file
// before the pipeline reads it.
const settleDelay = 250 * time.Millisecond

// Watcher feeds newly appearing files in the inbox directory (depth 0)
// into the pipeline. Files already present at startup are ingested too.
type Watcher struct {
	dir      string
	pipeline *Pipeline
	log      zerolog.Logger
}

func NewWatcher(dir string, pipeline *Pipeline, log zerolog.Logger) *Watcher {
	return &Watcher{dir: dir, pipeline: pipeline, log: log}
}

// Start scans the directory, then watches it until ctx is cancelled.
// It returns once the underlying watch is established; events are handled
// on a background goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return err
	}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		fsw.Close()
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		go w.ingest(ctx, filepath.Join(w.dir, entry.Name()))
	}

	go w.loop(ctx, fsw)

	w.log.Info().Str("watched_directory", w.dir).Msg("media watcher started")
	return nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	defer fsw.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if info, err := os.Stat(event.Name); err != nil || info.IsDir() {
				continue
			}
			go w.ingest(ctx, event.Name)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("media watcher error")
		}
	}
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(settleDelay):
	}

	if _, err := w.pipeline.ProcessFile(ctx, path); err != nil && !Skipped(err) {
		w.log.Error().Err(err).Str("file", path).Msg("failed to ingest media asset")
	}
}
