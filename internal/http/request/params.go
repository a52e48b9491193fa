package request

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// RouteIntParam returns an URL route parameter as int.
func RouteIntParam(r *http.Request, param string) int {
	vars := mux.Vars(r)
	value, err := strconv.Atoi(vars[param])
	if err != nil {
		return 0
	}

	if value < 0 {
		return 0
	}

	return value
}

// RouteStringParam returns a URL route parameter as string.
func RouteStringParam(r *http.Request, param string) string {
	return mux.Vars(r)[param]
}

// QueryBoolParam returns a query string parameter as a bool pointer, nil when
// absent or malformed.
func QueryBoolParam(r *http.Request, param string) *bool {
	value, err := strconv.ParseBool(r.URL.Query().Get(param))
	if err != nil {
		return nil
	}
	return &value
}

// QueryIntParam returns a query string parameter as an int pointer, nil when
// absent, malformed or negative.
func QueryIntParam(r *http.Request, param string) *int {
	value, err := strconv.Atoi(r.URL.Query().Get(param))
	if err != nil || value < 0 {
		return nil
	}
	return &value
}

// QueryStringParam returns a query string parameter as a string pointer, nil
// when empty.
func QueryStringParam(r *http.Request, param string) *string {
	value := r.URL.Query().Get(param)
	if value == "" {
		return nil
	}
	return &value
}
