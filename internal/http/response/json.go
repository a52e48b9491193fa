package response // import "github.com/Xunop/e-shelf/internal/http/response"

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Xunop/e-shelf/internal/http/request"
	"github.com/Xunop/e-shelf/internal/log"
	"go.uber.org/zap"
)

const contentTypeHeader = `application/json`

// OK creates a new JSON response with a 200 status code.
func OK(w http.ResponseWriter, r *http.Request, body interface{}) {
	builder := New(w, r)
	builder.WithHeader("Content-Type", contentTypeHeader)
	builder.WithBody(toJSON(body))
	builder.Write()
}

// Created sends a created response to the client.
func Created(w http.ResponseWriter, r *http.Request, body interface{}) {
	builder := New(w, r)
	builder.WithStatus(http.StatusCreated)
	builder.WithHeader("Content-Type", contentTypeHeader)
	builder.WithBody(toJSON(body))
	builder.Write()
}

// NoContent sends a no content response to the client.
func NoContent(w http.ResponseWriter, r *http.Request) {
	builder := New(w, r)
	builder.WithStatus(http.StatusNoContent)
	builder.WithHeader("Content-Type", contentTypeHeader)
	builder.Write()
}

// ServerError sends an internal error to the client.
func ServerError(w http.ResponseWriter, r *http.Request, err error) {
	log.Error(http.StatusText(http.StatusInternalServerError),
		append(requestFields(r, http.StatusInternalServerError), zap.Error(err))...,
	)
	writeError(w, r, http.StatusInternalServerError, err)
}

// BadRequest sends a bad request error to the client.
func BadRequest(w http.ResponseWriter, r *http.Request, err error) {
	log.Warn(http.StatusText(http.StatusBadRequest),
		append(requestFields(r, http.StatusBadRequest), zap.Any("error", err))...,
	)
	writeError(w, r, http.StatusBadRequest, err)
}

// Conflict is sent when the request is valid but the reader is not in a state
// to accept it, e.g. no book is open.
func Conflict(w http.ResponseWriter, r *http.Request, err error) {
	log.Warn(http.StatusText(http.StatusConflict),
		append(requestFields(r, http.StatusConflict), zap.Any("error", err))...,
	)
	writeError(w, r, http.StatusConflict, err)
}

// ServiceUnavailable is sent once the reader has shut down.
func ServiceUnavailable(w http.ResponseWriter, r *http.Request, err error) {
	log.Warn(http.StatusText(http.StatusServiceUnavailable),
		append(requestFields(r, http.StatusServiceUnavailable), zap.Any("error", err))...,
	)
	writeError(w, r, http.StatusServiceUnavailable, err)
}

// NotFound sends a page not found error to the client.
func NotFound(w http.ResponseWriter, r *http.Request) {
	log.Warn(http.StatusText(http.StatusNotFound), requestFields(r, http.StatusNotFound)...)
	writeError(w, r, http.StatusNotFound, errors.New("resource not found"))
}

func requestFields(r *http.Request, status int) []zap.Field {
	return []zap.Field{
		zap.String("client_ip", request.ClientIP(r)),
		zap.String("request.method", r.Method),
		zap.String("request.uri", r.RequestURI),
		zap.String("request.user_agent", r.UserAgent()),
		zap.Int("response.status_code", status),
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	builder := New(w, r)
	builder.WithStatus(status)
	builder.WithHeader("Content-Type", contentTypeHeader)
	builder.WithBody(toJSONError(err))
	builder.Write()
}

func toJSONError(err error) []byte {
	type errorMsg struct {
		ErrorMessage string `json:"error_message"`
	}

	return toJSON(errorMsg{ErrorMessage: err.Error()})
}

func toJSON(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error("Unable to marshal JSON response", zap.Any("error", err))
		return []byte("")
	}

	return b
}
