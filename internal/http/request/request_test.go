package request

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
)

func TestFindClientIP(t *testing.T) {
	scenarios := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded", map[string]string{"X-Forwarded-For": "203.0.113.4, 10.0.0.1"}, "127.0.0.1:9000", "203.0.113.4"},
		{"real ip", map[string]string{"X-Real-Ip": "fe80::1%eth0"}, "127.0.0.1:9000", "fe80::1"},
		{"invalid header", map[string]string{"X-Forwarded-For": "not-an-ip"}, "192.168.1.2:80", "192.168.1.2"},
		{"remote only", nil, "10.1.1.1:1234", "10.1.1.1"},
	}

	for _, s := range scenarios {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = s.remote
		for k, v := range s.headers {
			r.Header.Set(k, v)
		}
		if got := FindClientIP(r); got != s.want {
			t.Errorf("%s: got %q, want %q", s.name, got, s.want)
		}
	}
}

func TestClientIPPrefersContext(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(context.WithValue(r.Context(), ClientIPContextKey, "198.51.100.7"))
	if got := ClientIP(r); got != "198.51.100.7" {
		t.Fatalf("got %q", got)
	}
}

func TestRouteAndQueryParams(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/book/abc?favorite=true&limit=3&name=du", nil)
	r = mux.SetURLVars(r, map[string]string{"id": "abc", "page": "-2"})

	if got := RouteStringParam(r, "id"); got != "abc" {
		t.Fatalf("got %q", got)
	}
	if got := RouteIntParam(r, "page"); got != 0 {
		t.Fatalf("negative route param should be 0, got %d", got)
	}
	if v := QueryBoolParam(r, "favorite"); v == nil || !*v {
		t.Fatalf("favorite not parsed")
	}
	if v := QueryBoolParam(r, "open"); v != nil {
		t.Fatalf("missing bool should be nil")
	}
	if v := QueryIntParam(r, "limit"); v == nil || *v != 3 {
		t.Fatalf("limit not parsed")
	}
	if v := QueryStringParam(r, "name"); v == nil || *v != "du" {
		t.Fatalf("name not parsed")
	}
}
