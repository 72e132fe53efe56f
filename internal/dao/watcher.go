package dao

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	defaultDebounce     = 200 * time.Millisecond
	defaultPollInterval = 10 * time.Second
)

// Notifier is woken when the database file changes on disk.
type Notifier interface {
	Notify()
}

// Watcher notices writes made to the database file by other processes
// (e.g. `wishlist add` while `wishlist watch` runs) and forwards them to a
// Notifier so live sequences re-query.
type Watcher struct {
	dbPath       string
	target       Notifier
	logger       *slog.Logger
	debounce     time.Duration
	pollInterval time.Duration
	pollOnly     bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets how long to wait for file events to settle (default 200ms).
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithPollInterval sets the stat-poll interval used when fsnotify is unavailable (default 10s).
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithPollOnly disables fsnotify.
func WithPollOnly() WatcherOption {
	return func(w *Watcher) {
		w.pollOnly = true
	}
}

// NewWatcher creates a watcher for the database file at dbPath.
func NewWatcher(dbPath string, target Notifier, logger *slog.Logger, opts ...WatcherOption) *Watcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	w := &Watcher{
		dbPath:       dbPath,
		target:       target,
		logger:       logger,
		debounce:     defaultDebounce,
		pollInterval: defaultPollInterval,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Run watches until ctx is cancelled. If fsnotify fails to initialize it
// falls back to polling file size and mtime.
func (w *Watcher) Run(ctx context.Context) {
	if w.pollOnly {
		w.pollLoop(ctx)
		return
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn("fsnotify init failed, using poll", "error", err)
		w.pollLoop(ctx)
		return
	}
	defer fw.Close()

	dir := filepath.Dir(w.dbPath)
	if err := fw.Add(dir); err != nil {
		w.logger.Warn("fsnotify watch failed, using poll", "dir", dir, "error", err)
		w.pollLoop(ctx)
		return
	}

	w.watchLoop(ctx, fw)
}

// watchLoop debounces relevant fsnotify events into Notify calls.
func (w *Watcher) watchLoop(ctx context.Context, fw *fsnotify.Watcher) {
	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("fsnotify error", "error", err)
		case <-timerC:
			timerC = nil
			w.logger.Debug("database changed on disk")
			w.target.Notify()
		}
	}
}

// relevant reports whether ev is a write to the database or its WAL.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	name := filepath.Base(ev.Name)
	base := filepath.Base(w.dbPath)
	return name == base || name == base+"-wal"
}

// pollLoop notifies when the size or mtime of the database files changes.
func (w *Watcher) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	last := w.stamp()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cur := w.stamp()
			if cur != last {
				last = cur
				w.target.Notify()
			}
		}
	}
}

type fileStamp struct {
	dbSize, walSize int64
	dbMod, walMod   int64
}

func (w *Watcher) stamp() fileStamp {
	var s fileStamp
	if fi, err := os.Stat(w.dbPath); err == nil {
		s.dbSize, s.dbMod = fi.Size(), fi.ModTime().UnixNano()
	}
	if fi, err := os.Stat(w.dbPath + "-wal"); err == nil {
		s.walSize, s.walMod = fi.Size(), fi.ModTime().UnixNano()
	}
	return s
}
