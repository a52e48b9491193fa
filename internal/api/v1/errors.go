package v1

import (
	"net/http"
	"os"

	"github.com/Xunop/e-shelf/internal/http/response"
	"github.com/Xunop/e-shelf/internal/library"
	"github.com/Xunop/e-shelf/internal/reader"
	"github.com/Xunop/e-shelf/internal/storage"
	"github.com/Xunop/e-shelf/internal/store"
	"github.com/Xunop/e-shelf/internal/validator"
	"github.com/pkg/errors"
)

// writeError maps library and reader errors to a response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		response.NotFound(w, r)
	case errors.Is(err, reader.ErrNoBookOpen), errors.Is(err, reader.ErrWrongBook):
		response.Conflict(w, r, err)
	case errors.Is(err, reader.ErrStopped):
		response.ServiceUnavailable(w, r, err)
	case errors.Is(err, reader.ErrPageOutOfRange),
		errors.Is(err, reader.ErrInvalidZoom),
		errors.Is(err, reader.ErrNoPages),
		errors.Is(err, storage.ErrUnsupportedType),
		errors.Is(err, library.ErrEmptyBook),
		errors.Is(err, library.ErrInvalidTheme),
		errors.Is(err, validator.ErrInvalidBook),
		errors.Is(err, os.ErrNotExist):
		response.BadRequest(w, r, err)
	default:
		response.ServerError(w, r, err)
	}
}
