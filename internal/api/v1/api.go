package v1

import (
	"net/http"
	"sync"

	"github.com/Xunop/e-shelf/internal/library"
	"github.com/Xunop/e-shelf/internal/middleware"
	"github.com/Xunop/e-shelf/internal/reader"
	"github.com/gorilla/mux"
)

type Handler struct {
	library *library.Service
	engine  *reader.Engine

	// readerMu keeps a layout report and the transitions it triggers together.
	readerMu sync.Mutex
	viewport *remoteViewport
}

// NewHandler is a constructor for the v1.Handler
func NewHandler(lib *library.Service, engine *reader.Engine) *Handler {
	return &Handler{
		library:  lib,
		engine:   engine,
		viewport: &remoteViewport{},
	}
}

func Server(router *mux.Router, handler *Handler, mw *middleware.Middleware) {
	sr := router.PathPrefix("/api/v1").Subrouter()
	sr.Use(mw.HandleCORS)
	sr.Use(mw.LoggingRequest)
	sr.Methods(http.MethodOptions)

	sr.HandleFunc("/books", handler.listBooks).Methods(http.MethodGet)
	sr.HandleFunc("/books", handler.importBooks).Methods(http.MethodPost)
	sr.HandleFunc("/book/{id}", handler.getBook).Methods(http.MethodGet)
	sr.HandleFunc("/book/{id}", handler.updateBook).Methods(http.MethodPut)
	sr.HandleFunc("/book/{id}", handler.deleteBook).Methods(http.MethodDelete)

	sr.HandleFunc("/settings/theme", handler.getTheme).Methods(http.MethodGet)
	sr.HandleFunc("/settings/theme", handler.setTheme).Methods(http.MethodPut)
	sr.HandleFunc("/settings/general", handler.getGeneralSettings).Methods(http.MethodGet)

	sr.HandleFunc("/reader", handler.readerState).Methods(http.MethodGet)
	sr.HandleFunc("/reader/open", handler.openBook).Methods(http.MethodPost)
	sr.HandleFunc("/reader/layout", handler.reportLayout).Methods(http.MethodPost)
	sr.HandleFunc("/reader/rendered", handler.pagesRendered).Methods(http.MethodPost)
	sr.HandleFunc("/reader/rerender", handler.rerender).Methods(http.MethodPost)
	sr.HandleFunc("/reader/zoom", handler.setZoom).Methods(http.MethodPost)
	sr.HandleFunc("/reader/jump", handler.jumpTo).Methods(http.MethodPost)
	sr.HandleFunc("/reader/close", handler.closeBook).Methods(http.MethodPost)
}
