package v1

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Xunop/e-shelf/internal/http/response"
	"github.com/Xunop/e-shelf/internal/log"
	"github.com/Xunop/e-shelf/internal/reader"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type openRequest struct {
	ID     string  `json:"id"`
	Layout *layout `json:"layout"`
}

type renderedRequest struct {
	Indices []int `json:"indices"`
}

type zoomRequest struct {
	Zoom int `json:"zoom"`
}

type jumpRequest struct {
	Page int `json:"page"`
}

// readerResponse is the engine state plus the scroll offset the UI has to
// apply, if the engine asked for one.
type readerResponse struct {
	reader.State
	ScrollTo *float64 `json:"scroll_to,omitempty"`
}

func (h *Handler) readerState(w http.ResponseWriter, r *http.Request) {
	h.readerMu.Lock()
	defer h.readerMu.Unlock()
	h.writeState(w, r)
}

func (h *Handler) openBook(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ID == "" {
		response.BadRequest(w, r, errors.New("book id is required"))
		return
	}

	h.readerMu.Lock()
	defer h.readerMu.Unlock()
	ctx := r.Context()

	book, err := h.library.GetBook(ctx, req.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	openID, err := h.engine.OpenBookID(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if openID != book.ID {
		h.viewport.reset()
	}
	if err := h.engine.Open(ctx, book, h.viewport); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Layout != nil {
		if err := h.applyLayout(ctx, *req.Layout); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if err := h.library.RememberOpened(ctx, book.ID); err != nil {
		log.Warn("Failed to remember last opened book", zap.String("bookID", book.ID), zap.Error(err))
	}
	h.writeState(w, r)
}

// reportLayout takes the geometry the UI measured after a scroll, resize or
// render.
func (h *Handler) reportLayout(w http.ResponseWriter, r *http.Request) {
	var l layout
	if !decode(w, r, &l) {
		return
	}

	h.readerMu.Lock()
	defer h.readerMu.Unlock()
	if err := h.applyLayout(r.Context(), l); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeState(w, r)
}

func (h *Handler) applyLayout(ctx context.Context, l layout) error {
	if h.viewport.update(l) {
		if err := h.engine.SetPages(ctx, h.viewport.handles()); err != nil {
			return err
		}
	}
	return h.engine.ViewportChanged(ctx)
}

func (h *Handler) pagesRendered(w http.ResponseWriter, r *http.Request) {
	var req renderedRequest
	if !decode(w, r, &req) {
		return
	}

	h.readerMu.Lock()
	defer h.readerMu.Unlock()
	for _, index := range req.Indices {
		if err := h.engine.PageRendered(r.Context(), index); err != nil {
			writeError(w, r, err)
			return
		}
	}
	h.writeState(w, r)
}

func (h *Handler) rerender(w http.ResponseWriter, r *http.Request) {
	h.readerMu.Lock()
	defer h.readerMu.Unlock()
	if err := h.engine.Rerender(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeState(w, r)
}

func (h *Handler) setZoom(w http.ResponseWriter, r *http.Request) {
	var req zoomRequest
	if !decode(w, r, &req) {
		return
	}

	h.readerMu.Lock()
	defer h.readerMu.Unlock()
	if err := h.engine.SetZoom(r.Context(), req.Zoom); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeState(w, r)
}

func (h *Handler) jumpTo(w http.ResponseWriter, r *http.Request) {
	var req jumpRequest
	if !decode(w, r, &req) {
		return
	}

	h.readerMu.Lock()
	defer h.readerMu.Unlock()
	if err := h.engine.JumpTo(r.Context(), req.Page); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeState(w, r)
}

func (h *Handler) closeBook(w http.ResponseWriter, r *http.Request) {
	h.readerMu.Lock()
	defer h.readerMu.Unlock()
	if err := h.engine.Close(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	h.viewport.reset()
	response.NoContent(w, r)
}

// writeState must be called with readerMu held.
func (h *Handler) writeState(w http.ResponseWriter, r *http.Request) {
	st, err := h.engine.State(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, r, readerResponse{State: st, ScrollTo: h.viewport.takeScroll()})
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.BadRequest(w, r, errors.Wrap(err, "invalid request body"))
		return false
	}
	return true
}
