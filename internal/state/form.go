package state

import (
	"context"

	"github.com/hpungsan/wishlist/internal/errors"
	"github.com/hpungsan/wishlist/internal/wish"
)

// Mode is the add/edit screen mode.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Messages shown after a successful submit.
const (
	MsgCreated = "Wish has been created"
	MsgUpdated = "Wish has been updated"
)

// Outcome describes a successful form submission.
type Outcome struct {
	ID      int64  `json:"id" yaml:"id"`
	Mode    Mode   `json:"mode" yaml:"mode"`
	Changed bool   `json:"changed" yaml:"changed"`
	Message string `json:"message" yaml:"message"`
}

// Open puts the form into Create mode (id == 0, empty drafts) or Edit mode
// (drafts pre-populated from the stored wish). In Edit mode it waits for the
// wish to appear, bounded by ctx and the holder's lookup timeout, and
// returns NOT_FOUND if it does not.
func (h *Holder) Open(ctx context.Context, id int64) error {
	if id == 0 {
		h.mu.Lock()
		h.editID = 0
		h.titleDraft = ""
		h.descriptionDraft = ""
		h.mu.Unlock()
		return nil
	}
	if id < 0 {
		return errors.NewInvalidRequest("id must be positive")
	}

	w, err := h.Lookup(ctx, id)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.editID = w.ID
	h.titleDraft = w.Title
	h.descriptionDraft = w.Description
	h.mu.Unlock()
	return nil
}

// Lookup returns the first emission of the wish's live sequence. Since the
// sequence stays silent for a missing row, no emission within the lookup
// timeout is reported as NOT_FOUND.
func (h *Holder) Lookup(ctx context.Context, id int64) (wish.Wish, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, h.lookupTimeout)
	defer cancel()

	select {
	case w, ok := <-h.repo.WishByID(lookupCtx, id):
		if ok {
			return w, nil
		}
	case <-lookupCtx.Done():
	}

	if err := ctx.Err(); err != nil {
		return wish.Wish{}, errors.NewInternal(err)
	}
	return wish.Wish{}, errors.NewNotFound(id)
}

// Mode reports the current form mode.
func (h *Holder) Mode() Mode {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.editID != 0 {
		return ModeEdit
	}
	return ModeCreate
}

// EditID returns the id being edited, or 0 in Create mode.
func (h *Holder) EditID() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.editID
}

// Submit validates the drafts and persists the trimmed values: an insert in
// Create mode, an update in Edit mode. A blank title yields a
// VALIDATION_FAILED error and nothing is written.
func (h *Holder) Submit(ctx context.Context) (Outcome, error) {
	h.mu.RLock()
	draft := wish.Draft{Title: h.titleDraft, Description: h.descriptionDraft}
	id := h.editID
	h.mu.RUnlock()

	if err := wish.Validate(draft); err != nil {
		return Outcome{}, err
	}

	w := draft.Wish(id)
	mode, msg := ModeCreate, MsgCreated
	var done <-chan Result
	if id == 0 {
		done = h.AddWish(w)
	} else {
		mode, msg = ModeEdit, MsgUpdated
		done = h.UpdateWish(w)
	}

	select {
	case res := <-done:
		if res.Err != nil {
			return Outcome{}, res.Err
		}
		return Outcome{ID: res.ID, Mode: mode, Changed: res.Changed, Message: msg}, nil
	case <-ctx.Done():
		return Outcome{}, errors.NewInternal(ctx.Err())
	}
}
