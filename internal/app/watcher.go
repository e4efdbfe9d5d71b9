package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/m3rciful/postbot/core/logger"
	"github.com/m3rciful/postbot/internal/fanout"
)

const reloadDebounce = 250 * time.Millisecond

// routingWatcher reloads the routing table when the config file changes.
// A file that fails to load or validate leaves the current table in place.
type routingWatcher struct {
	path   string
	live   *fanout.LiveRouting
	load   func(path string) (fanout.Routing, error)
	delay  time.Duration
	loaded func()
}

func newRoutingWatcher(path string, live *fanout.LiveRouting) *routingWatcher {
	return &routingWatcher{path: path, live: live, load: LoadRouting, delay: reloadDebounce}
}

// Run watches the directory of the config file until ctx is done. Editors
// often replace the file, so the directory is watched rather than the file.
func (w *routingWatcher) Run(ctx context.Context) error {
	dir, file := filepath.Split(filepath.Clean(w.path))
	if dir == "" {
		dir = "."
	}
	target := filepath.Join(dir, file)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("routing watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("routing watcher: watch %s: %w", dir, err)
	}
	logger.Info(ctx, "app", "routing.watch", slog.String("path", target))

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()
	schedule := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.delay, func() { w.reload(ctx) })
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) == target && ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				schedule()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn(ctx, "app", "routing.watch_error", slog.String("err", err.Error()))
		}
	}
}

func (w *routingWatcher) reload(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	r, err := w.load(w.path)
	if err != nil {
		logger.Warn(ctx, "app", "routing.reload",
			slog.String("status", "fail"),
			slog.String("path", w.path),
			slog.String("err", err.Error()),
		)
		return
	}
	w.live.Store(r)
	logger.Info(ctx, "app", "routing.reload",
		slog.String("status", "ok"),
		slog.Int("routes", len(r.Routes)),
		slog.Int("fixed", len(r.Fixed)),
	)
	if w.loaded != nil {
		w.loaded()
	}
}
