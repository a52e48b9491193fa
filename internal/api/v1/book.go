package v1

import (
	"encoding/json"
	"net/http"

	"github.com/Xunop/e-shelf/internal/http/request"
	"github.com/Xunop/e-shelf/internal/http/response"
	"github.com/Xunop/e-shelf/internal/log"
	"github.com/Xunop/e-shelf/internal/model"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type importRequest struct {
	Paths []string `json:"paths"`
}

func (h *Handler) listBooks(w http.ResponseWriter, r *http.Request) {
	find := &model.FindBook{
		Name:       request.QueryStringParam(r, "name"),
		IsFavorite: request.QueryBoolParam(r, "favorite"),
		IsOpen:     request.QueryBoolParam(r, "open"),
		Limit:      request.QueryIntParam(r, "limit"),
	}
	books, err := h.library.ListBooks(r.Context(), find)
	if err != nil {
		log.Error("Error listing books", zap.Error(err))
		writeError(w, r, err)
		return
	}
	response.OK(w, r, response.BookListResponse(books))
}

// importBooks copies local files into the library. The UI hands over paths
// picked in its file dialog.
func (h *Handler) importBooks(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, errors.Wrap(err, "invalid import request"))
		return
	}
	if len(req.Paths) == 0 {
		response.BadRequest(w, r, errors.New("no paths given"))
		return
	}

	books, err := h.library.AddBooks(r.Context(), req.Paths)
	if err != nil {
		log.Error("Failed to import books", zap.Int("imported", len(books)), zap.Error(err))
		writeError(w, r, err)
		return
	}
	response.Created(w, r, response.BookListResponse(books))
}

func (h *Handler) getBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.library.GetBook(r.Context(), request.RouteStringParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, r, book)
}

func (h *Handler) updateBook(w http.ResponseWriter, r *http.Request) {
	var update model.Book
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		response.BadRequest(w, r, errors.Wrap(err, "invalid book"))
		return
	}
	update.ID = request.RouteStringParam(r, "id")

	book, err := h.library.UpdateBook(r.Context(), &update)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, r, book)
}

func (h *Handler) deleteBook(w http.ResponseWriter, r *http.Request) {
	if err := h.library.DeleteBook(r.Context(), request.RouteStringParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	response.NoContent(w, r)
}
