// Package state holds the presentation-facing application state: the live
// wish list, the add/edit form drafts, and asynchronous CRUD delegations.
package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hpungsan/wishlist/internal/dao"
	"github.com/hpungsan/wishlist/internal/errors"
	"github.com/hpungsan/wishlist/internal/wish"
)

const defaultLookupTimeout = time.Second

// Repository is the storage surface the holder depends on.
type Repository interface {
	AddWish(ctx context.Context, w wish.Wish) (dao.WriteResult, error)
	Wishes(ctx context.Context) <-chan []wish.Wish
	WishByID(ctx context.Context, id int64) <-chan wish.Wish
	UpdateWish(ctx context.Context, w wish.Wish) (dao.WriteResult, error)
	DeleteWish(ctx context.Context, w wish.Wish) (dao.WriteResult, error)
}

// Result is the completion signal of an asynchronous write.
type Result struct {
	ID      int64
	Changed bool
	Err     error
}

// Holder owns the state of one screen. Background work it starts is bound
// to its lifetime and stopped by Close.
type Holder struct {
	repo          Repository
	logger        *slog.Logger
	lookupTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu               sync.RWMutex
	closed           bool
	titleDraft       string
	descriptionDraft string
	editID           int64
	wishes           []wish.Wish
	observers        map[uint64]func([]wish.Wish)
	nextObserver     uint64

	// dispatchMu keeps observer callbacks in emission order
	dispatchMu sync.Mutex

	loaded     chan struct{}
	loadedOnce sync.Once
}

// Option configures a Holder.
type Option func(*Holder)

// WithLookupTimeout bounds how long Open waits for an existing wish before
// reporting it as not found (default 1s).
func WithLookupTimeout(d time.Duration) Option {
	return func(h *Holder) {
		if d > 0 {
			h.lookupTimeout = d
		}
	}
}

// New creates a holder and starts following the live wish list. Until the
// first emission arrives AllWishes returns an empty list.
func New(repo Repository, logger *slog.Logger, opts ...Option) *Holder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Holder{
		repo:          repo,
		logger:        logger,
		lookupTimeout: defaultLookupTimeout,
		ctx:           ctx,
		cancel:        cancel,
		wishes:        []wish.Wish{},
		observers:     make(map[uint64]func([]wish.Wish)),
		loaded:        make(chan struct{}),
	}
	for _, o := range opts {
		o(h)
	}

	h.wg.Add(1)
	go h.follow()

	return h
}

// follow swaps each emission of the live list into place and republishes it.
func (h *Holder) follow() {
	defer h.wg.Done()

	for items := range h.repo.Wishes(h.ctx) {
		h.dispatchMu.Lock()

		h.mu.Lock()
		h.wishes = items
		fns := make([]func([]wish.Wish), 0, len(h.observers))
		for _, fn := range h.observers {
			fns = append(fns, fn)
		}
		h.mu.Unlock()

		h.loadedOnce.Do(func() { close(h.loaded) })
		for _, fn := range fns {
			fn(items)
		}

		h.dispatchMu.Unlock()
	}
}

// Loaded is closed once the first list emission has been applied.
func (h *Holder) Loaded() <-chan struct{} {
	return h.loaded
}

// AllWishes returns the latest known list. Never nil.
func (h *Holder) AllWishes() []wish.Wish {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.wishes
}

// OnWishes registers fn to receive every list emission. If the list has
// already loaded, fn is called once with the current list before OnWishes
// returns. fn runs on the holder's goroutine and should not block.
func (h *Holder) OnWishes(fn func([]wish.Wish)) (remove func()) {
	h.dispatchMu.Lock()
	h.mu.Lock()
	id := h.nextObserver
	h.nextObserver++
	h.observers[id] = fn
	current := h.wishes
	h.mu.Unlock()

	select {
	case <-h.loaded:
		fn(current)
	default:
	}
	h.dispatchMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.observers, id)
			h.mu.Unlock()
		})
	}
}

// WishByID returns the live sequence for a single wish.
func (h *Holder) WishByID(ctx context.Context, id int64) <-chan wish.Wish {
	return h.repo.WishByID(ctx, id)
}

// SetTitleDraft sets the title form field.
func (h *Holder) SetTitleDraft(s string) {
	h.mu.Lock()
	h.titleDraft = s
	h.mu.Unlock()
}

// SetDescriptionDraft sets the description form field.
func (h *Holder) SetDescriptionDraft(s string) {
	h.mu.Lock()
	h.descriptionDraft = s
	h.mu.Unlock()
}

// TitleDraft returns the title form field.
func (h *Holder) TitleDraft() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.titleDraft
}

// DescriptionDraft returns the description form field.
func (h *Holder) DescriptionDraft() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.descriptionDraft
}

// AddWish inserts w in the background.
func (h *Holder) AddWish(w wish.Wish) <-chan Result {
	return h.launch("add", func(ctx context.Context) (dao.WriteResult, error) {
		return h.repo.AddWish(ctx, w)
	})
}

// UpdateWish updates w in the background.
func (h *Holder) UpdateWish(w wish.Wish) <-chan Result {
	return h.launch("update", func(ctx context.Context) (dao.WriteResult, error) {
		return h.repo.UpdateWish(ctx, w)
	})
}

// DeleteWish deletes w in the background.
func (h *Holder) DeleteWish(w wish.Wish) <-chan Result {
	return h.launch("delete", func(ctx context.Context) (dao.WriteResult, error) {
		return h.repo.DeleteWish(ctx, w)
	})
}

// launch runs fn on a goroutine scoped to the holder. The returned channel
// receives exactly one Result and may be ignored.
func (h *Holder) launch(op string, fn func(context.Context) (dao.WriteResult, error)) <-chan Result {
	out := make(chan Result, 1)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		out <- Result{Err: errors.NewInternal(context.Canceled)}
		return out
	}
	h.wg.Add(1)
	h.mu.Unlock()

	go func() {
		defer h.wg.Done()
		res, err := fn(h.ctx)
		if err != nil {
			h.logger.Error("write failed", "op", op, "id", res.ID, "error", err)
			out <- Result{Err: err}
			return
		}
		h.logger.Debug("write done", "op", op, "id", res.ID, "changed", res.Changed)
		out <- Result{ID: res.ID, Changed: res.Changed}
	}()

	return out
}

// Close cancels all background work started by the holder and waits for it.
func (h *Holder) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.mu.Unlock()

	h.cancel()
	h.wg.Wait()
}
