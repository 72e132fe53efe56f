// Package dao is the data access layer over the wish table.
//
// Reads are live sequences: a channel that receives the current state as soon
// as it is opened and again after every committed write. Writes report whether
// they changed anything; inserting a duplicate id, or updating or deleting a
// missing id, is a silent no-op rather than an error.
package dao

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/hpungsan/wishlist/internal/db"
	"github.com/hpungsan/wishlist/internal/errors"
	"github.com/hpungsan/wishlist/internal/wish"
)

// WriteResult reports the outcome of a write.
type WriteResult struct {
	// ID is the id of the affected wish (assigned by SQLite for new inserts).
	ID int64 `json:"id" yaml:"id"`

	// Changed is false when the write matched nothing or hit an existing id.
	Changed bool `json:"changed" yaml:"changed"`
}

// DAO is the data access contract for wishes.
type DAO interface {
	Insert(ctx context.Context, w wish.Wish) (WriteResult, error)
	ListAll(ctx context.Context) <-chan []wish.Wish
	GetByID(ctx context.Context, id int64) <-chan wish.Wish
	Update(ctx context.Context, w wish.Wish) (WriteResult, error)
	Delete(ctx context.Context, w wish.Wish) (WriteResult, error)
}

// SQLite implements DAO on top of the db package.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger

	version atomic.Uint64

	mu        sync.Mutex
	listeners map[uint64]func()
	nextID    uint64
}

var _ DAO = (*SQLite)(nil)

// New creates a SQLite DAO. A nil logger discards log output.
func New(database *sql.DB, logger *slog.Logger) *SQLite {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLite{
		db:        database,
		logger:    logger,
		listeners: make(map[uint64]func()),
	}
}

// Insert adds a new row. See db.Insert for conflict semantics.
func (d *SQLite) Insert(ctx context.Context, w wish.Wish) (WriteResult, error) {
	id, inserted, err := db.Insert(ctx, d.db, w)
	if err != nil {
		return WriteResult{}, err
	}
	if inserted {
		d.Notify()
	} else {
		d.logger.Debug("insert ignored: id exists", "id", id)
	}
	return WriteResult{ID: id, Changed: inserted}, nil
}

// Update overwrites the row matching w.ID.
func (d *SQLite) Update(ctx context.Context, w wish.Wish) (WriteResult, error) {
	if w.IsNew() {
		return WriteResult{}, nil
	}
	changed, err := db.Update(ctx, d.db, w)
	if err != nil {
		return WriteResult{}, err
	}
	if changed {
		d.Notify()
	}
	return WriteResult{ID: w.ID, Changed: changed}, nil
}

// Delete removes the row matching w.ID.
func (d *SQLite) Delete(ctx context.Context, w wish.Wish) (WriteResult, error) {
	if w.IsNew() {
		return WriteResult{}, nil
	}
	changed, err := db.Delete(ctx, d.db, w.ID)
	if err != nil {
		return WriteResult{}, err
	}
	if changed {
		d.Notify()
	}
	return WriteResult{ID: w.ID, Changed: changed}, nil
}

// ListAll returns a live sequence of every wish in insertion order.
func (d *SQLite) ListAll(ctx context.Context) <-chan []wish.Wish {
	return live(ctx, d, "list", func(ctx context.Context) ([]wish.Wish, bool, error) {
		items, err := db.ListAll(ctx, d.db)
		return items, err == nil, err
	})
}

// GetByID returns a live sequence of the wish with the given id.
// Nothing is sent while no row matches.
func (d *SQLite) GetByID(ctx context.Context, id int64) <-chan wish.Wish {
	return live(ctx, d, "get", func(ctx context.Context) (wish.Wish, bool, error) {
		w, err := db.GetByID(ctx, d.db, id)
		if errors.Is(err, errors.ErrNotFound) {
			return wish.Wish{}, false, nil
		}
		if err != nil {
			return wish.Wish{}, false, err
		}
		return *w, true, nil
	})
}

// AddListener registers fn to be called after every committed write.
// fn runs on the writer's goroutine and must not block.
func (d *SQLite) AddListener(fn func()) (remove func()) {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.listeners[id] = fn
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.listeners, id)
			d.mu.Unlock()
		})
	}
}

// Notify bumps the version and wakes every listener. Writers call it after
// commit; the external watcher calls it when another process writes.
func (d *SQLite) Notify() {
	d.version.Add(1)

	d.mu.Lock()
	fns := make([]func(), 0, len(d.listeners))
	for _, fn := range d.listeners {
		fns = append(fns, fn)
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Version returns the number of change notifications seen so far.
func (d *SQLite) Version() uint64 {
	return d.version.Load()
}

// listenerCount is used by tests to check that sequences unregister.
func (d *SQLite) listenerCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners)
}
