package server

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Xunop/e-shelf/internal/config"
	"github.com/Xunop/e-shelf/internal/model"
	"github.com/Xunop/e-shelf/internal/store"
	"github.com/Xunop/e-shelf/internal/store/db"
	"github.com/Xunop/e-shelf/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	d, err := db.NewDB(filepath.Join(t.TempDir(), "test_for_server.db"))
	require.NoError(t, err)
	require.NoError(t, d.Migrate(context.Background()))
	s := store.NewStore(d.DB)
	t.Cleanup(func() { s.Close() })
	return s
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServerLifecycle(t *testing.T) {
	config.GetDefaultOptions()
	config.Opts.Port = 0
	config.Opts.Data = t.TempDir()
	ctx := context.Background()

	s := newTestStore(t)
	require.NoError(t, s.AddBook(ctx, &model.Book{ID: "a", Name: "A", PageCount: 3, IsOpen: true}))

	srv, err := NewServer(ctx, s)
	require.NoError(t, err)

	book, err := s.GetBook(ctx, "a")
	require.NoError(t, err)
	assert.False(t, book.IsOpen, "stale open flags are cleared at startup")

	require.NoError(t, srv.Start(ctx))
	base := "http://" + srv.Addr()

	code, body := get(t, base+"/healthcheck")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK", body)

	code, body = get(t, base+"/version")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, version.GetCurrentVersion(), body)

	resp, err := http.Post(base+"/api/v1/reader/open", "application/json", strings.NewReader(`{"id": "a"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(shutdownCtx))

	// shutting down closes the open book and flushes its snapshot
	book, err = s.GetBook(ctx, "a")
	require.NoError(t, err)
	assert.False(t, book.IsOpen)
	assert.NotNil(t, book.LastTimeOpened)

	_, open := <-srv.Err()
	assert.False(t, open)
}
