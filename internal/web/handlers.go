package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hpungsan/wishlist/internal/errors"
	"github.com/hpungsan/wishlist/internal/state"
	"github.com/hpungsan/wishlist/internal/wish"
)

// Handlers contains HTTP route handlers for the web UI.
// Each request gets its own state.Holder, closed when the request ends.
type Handlers struct {
	repo       state.Repository
	logger     *slog.Logger
	renderer   *Renderer
	holderOpts []state.Option
}

func (h *Handlers) newHolder() *state.Holder {
	return state.New(h.repo, h.logger, h.holderOpts...)
}

// HandleList handles GET /wishes — the live list at request time.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	hold := h.newHolder()
	defer hold.Close()

	select {
	case <-hold.Loaded():
	case <-r.Context().Done():
		h.renderer.renderError(w, r, errors.NewInternal(r.Context().Err()))
		return
	}
	items := hold.AllWishes()

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, map[string]any{"items": items})
		return
	}

	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData: h.renderer.page("Wishes", "wishes"),
		Items:    items,
		Message:  r.URL.Query().Get("msg"),
	})
}

// HandleDetail handles GET /wishes/{id} — view a single wish.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	hold := h.newHolder()
	defer hold.Close()

	item, err := hold.Lookup(r.Context(), id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, item)
		return
	}

	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData:     h.renderer.page(item.Title, "wishes"),
		Wish:         item,
		RenderedHTML: renderMarkdown(item.Description),
	})
}

// HandleNew handles GET /wishes/new — the form in Create mode.
func (h *Handlers) HandleNew(w http.ResponseWriter, r *http.Request) {
	hold := h.newHolder()
	defer hold.Close()

	if err := hold.Open(r.Context(), 0); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.renderForm(w, r, http.StatusOK, hold, "")
}

// HandleEdit handles GET /wishes/{id}/edit — the form in Edit mode.
func (h *Handlers) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	hold := h.newHolder()
	defer hold.Close()

	if err := hold.Open(r.Context(), id); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.renderForm(w, r, http.StatusOK, hold, "")
}

// HandleCreate handles POST /wishes.
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, 0)
}

// HandleUpdate handles POST /wishes/{id}.
func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.submit(w, r, id)
}

// submit runs the form state machine for one POST: open, fill drafts, submit.
func (h *Handlers) submit(w http.ResponseWriter, r *http.Request, id int64) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	hold := h.newHolder()
	defer hold.Close()

	if err := hold.Open(r.Context(), id); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	hold.SetTitleDraft(r.FormValue("title"))
	hold.SetDescriptionDraft(r.FormValue("description"))

	out, err := hold.Submit(r.Context())
	if err != nil {
		if errors.Is(err, errors.ErrValidationFailed) && !wantsJSON(r) {
			h.renderForm(w, r, http.StatusUnprocessableEntity, hold, errors.As(err).Message)
			return
		}
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		status := http.StatusOK
		if out.Mode == state.ModeCreate {
			status = http.StatusCreated
		}
		renderJSON(w, status, out)
		return
	}

	target := "/wishes?msg=" + url.QueryEscape(out.Message)
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handlers) renderForm(w http.ResponseWriter, r *http.Request, status int, hold *state.Holder, msg string) {
	title := "New wish"
	if hold.Mode() == state.ModeEdit {
		title = "Edit wish"
	}
	h.renderer.renderPageStatus(w, r, status, "form", FormPageData{
		PageData:    h.renderer.page(title, "new"),
		Mode:        hold.Mode(),
		ID:          hold.EditID(),
		TitleDraft:  hold.TitleDraft(),
		Description: hold.DescriptionDraft(),
		Error:       msg,
	})
}

// HandleDelete handles DELETE /wishes/{id} and POST /wishes/{id}/delete.
// Deleting a missing wish is a no-op, reported as deleted=false.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	hold := h.newHolder()
	defer hold.Close()

	var res state.Result
	select {
	case res = <-hold.DeleteWish(wish.Wish{ID: id}):
	case <-r.Context().Done():
		res.Err = errors.NewInternal(r.Context().Err())
	}
	if res.Err != nil {
		h.renderer.renderError(w, r, res.Err)
		return
	}

	// HTMX request: redirect via HX-Redirect header
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/wishes")
		w.WriteHeader(http.StatusOK)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, map[string]any{
			"deleted": res.Changed,
			"id":      id,
		})
		return
	}

	http.Redirect(w, r, "/wishes", http.StatusSeeOther)
}

// HandleEvents handles GET /wishes/events — a server-sent event stream
// carrying the full list as JSON on every change. A slow client skips
// intermediate lists but always receives the latest.
func (h *Handlers) HandleEvents(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	hold := h.newHolder()
	defer hold.Close()

	latest := make(chan []wish.Wish, 1)
	remove := hold.OnWishes(func(items []wish.Wish) {
		select {
		case <-latest:
		default:
		}
		latest <- items
	})
	defer remove()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.logger.Warn("event stream not flushable", "error", err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case items := <-latest:
			if err := writeEvent(w, "wishes", items); err != nil {
				h.logger.Debug("event stream closed", "error", err)
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}

// parseID parses the {id} path value as a positive wish id.
func parseID(r *http.Request) (int64, error) {
	s := r.PathValue("id")
	if s == "" {
		return 0, errors.NewInvalidRequest("wish ID is required")
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidRequest("wish ID must be a positive integer")
	}
	return id, nil
}
