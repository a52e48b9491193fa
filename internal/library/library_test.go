package library

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/Xunop/e-shelf/internal/config"
	"github.com/Xunop/e-shelf/internal/log"
	"github.com/Xunop/e-shelf/internal/model"
	"github.com/Xunop/e-shelf/internal/reader"
	"github.com/Xunop/e-shelf/internal/storage"
	"github.com/Xunop/e-shelf/internal/store"
	"github.com/Xunop/e-shelf/internal/store/db"
	"github.com/Xunop/e-shelf/internal/validator"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	config.GetDefaultOptions()
}

type fixedCounter struct {
	pages int
	err   error
}

func (c fixedCounter) PageCount(rs io.ReadSeeker) (int, error) {
	if _, err := io.ReadAll(rs); err != nil {
		return 0, err
	}
	return c.pages, c.err
}

// fakeReader stands in for the engine with one open book.
type fakeReader struct {
	open    *model.Book
	morphs  []*model.Book
	zooms   []int
	closed  int
	stopped bool
}

func (r *fakeReader) OpenBookID(ctx context.Context) (string, error) {
	if r.stopped {
		return "", reader.ErrStopped
	}
	if r.open == nil {
		return "", nil
	}
	return r.open.ID, nil
}

func (r *fakeReader) State(ctx context.Context) (reader.State, error) {
	if r.stopped {
		return reader.State{}, reader.ErrStopped
	}
	if r.open == nil {
		return reader.State{}, nil
	}
	return reader.State{BookID: r.open.ID, Book: r.open.Clone()}, nil
}

func (r *fakeReader) Morph(ctx context.Context, book *model.Book) error {
	if r.open == nil {
		return reader.ErrNoBookOpen
	}
	if book.ID != r.open.ID {
		return reader.ErrWrongBook
	}
	r.morphs = append(r.morphs, book.Clone())
	r.open.ApplyDetails(book)
	return nil
}

func (r *fakeReader) SetZoom(ctx context.Context, zoom int) error {
	r.zooms = append(r.zooms, zoom)
	return nil
}

func (r *fakeReader) Close(ctx context.Context) error {
	if r.open == nil {
		return reader.ErrNoBookOpen
	}
	r.open = nil
	r.closed++
	return nil
}

type fixture struct {
	svc     *Service
	store   *store.Store
	storage *storage.LocalStorage
	reader  *fakeReader
	srcDir  string
}

func newFixture(t *testing.T, pages int) *fixture {
	t.Helper()
	dir := t.TempDir()
	d, err := db.NewDB(filepath.Join(dir, "test_for_library.db"))
	require.NoError(t, err)
	require.NoError(t, d.Migrate(context.Background()))
	s := store.NewStore(d.DB)
	t.Cleanup(func() { s.Close() })

	st := storage.NewLocalStorage(filepath.Join(dir, "data"))
	r := &fakeReader{}
	return &fixture{
		svc:     NewService(s, st, fixedCounter{pages: pages}, r, nil),
		store:   s,
		storage: st,
		reader:  r,
		srcDir:  t.TempDir(),
	}
}

func (f *fixture) source(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(f.srcDir, name)
	require.NoError(t, os.WriteFile(p, []byte("%PDF-1.7 fake"), 0644))
	return p
}

func (f *fixture) importOne(t *testing.T, name string) *model.Book {
	t.Helper()
	books, err := f.svc.AddBooks(context.Background(), []string{f.source(t, name)})
	require.NoError(t, err)
	require.Len(t, books, 1)
	return books[0]
}

func TestAddBooks(t *testing.T) {
	f := newFixture(t, 412)
	ctx := context.Background()

	books, err := f.svc.AddBooks(ctx, []string{f.source(t, "Dune.pdf"), f.source(t, "Emma.pdf")})
	require.NoError(t, err)
	require.Len(t, books, 2)

	dune := books[0]
	assert.Equal(t, "Dune", dune.Name)
	assert.Equal(t, 412, dune.PageCount)
	assert.Equal(t, 0, dune.CurrentPage)
	assert.Equal(t, model.DefaultZoom, dune.Zoom)
	assert.Equal(t, int64(len("%PDF-1.7 fake")), dune.FileSize)
	assert.Equal(t, filepath.Join(f.storage.Path, "books", dune.ID+".pdf"), dune.BookPath)
	assert.FileExists(t, dune.BookPath)
	assert.NotEqual(t, dune.ID, books[1].ID)

	stored, err := f.store.GetBook(ctx, dune.ID)
	require.NoError(t, err)
	assert.Equal(t, dune.BookPath, stored.BookPath)
}

func TestAddBooksRejectsBadInput(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()

	_, err := f.svc.AddBooks(ctx, []string{filepath.Join(f.srcDir, "missing.pdf")})
	assert.Error(t, err)

	_, err = f.svc.AddBooks(ctx, []string{f.source(t, "notes.txt")})
	assert.ErrorIs(t, err, storage.ErrUnsupportedType)

	empty := newFixture(t, 0)
	_, err = empty.svc.AddBooks(ctx, []string{empty.source(t, "blank.pdf")})
	assert.ErrorIs(t, err, ErrEmptyBook)
	entries, _ := os.ReadDir(filepath.Join(empty.storage.Path, "books"))
	assert.Empty(t, entries, "a rejected import leaves no file behind")

	broken := newFixture(t, 5)
	broken.svc.inspector = fixedCounter{err: errors.New("corrupt xref")}
	_, err = broken.svc.AddBooks(ctx, []string{broken.source(t, "broken.pdf")})
	assert.Error(t, err)
	all, err := broken.store.ListBooks(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpdateClosedBook(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()
	book := f.importOne(t, "Dune.pdf")

	update := book.Clone()
	update.Name = "Dune (annotated)"
	update.IsFavorite = true
	update.CurrentPage = 3
	update.Zoom = 150
	update.PageCount = 999
	update.BookPath = "/elsewhere.pdf"

	got, err := f.svc.UpdateBook(ctx, update)
	require.NoError(t, err)
	assert.Equal(t, "Dune (annotated)", got.Name)
	assert.True(t, got.IsFavorite)
	assert.Equal(t, 3, got.CurrentPage)
	assert.Equal(t, 150, got.Zoom)
	assert.Equal(t, 10, got.PageCount, "page count is measured, not edited")
	assert.Equal(t, book.BookPath, got.BookPath)
	assert.Equal(t, 30.0, got.Progress())

	update.CurrentPage = 11
	_, err = f.svc.UpdateBook(ctx, update)
	assert.ErrorIs(t, err, reader.ErrPageOutOfRange)

	_, err = f.svc.UpdateBook(ctx, &model.Book{ID: "missing"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.svc.UpdateBook(ctx, &model.Book{ID: book.ID})
	assert.ErrorIs(t, err, validator.ErrInvalidBook, "a partial edit must not blank the name")

	assert.Empty(t, f.reader.morphs)
}

func TestUpdateOpenBookGoesThroughReader(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()
	book := f.importOne(t, "Dune.pdf")
	f.reader.open = book.Clone()
	f.reader.open.IsOpen = true

	update := book.Clone()
	update.Name = "Renamed"
	update.CurrentPage = 4
	update.Zoom = 125

	got, err := f.svc.UpdateBook(ctx, update)
	require.NoError(t, err)
	require.Len(t, f.reader.morphs, 1)
	assert.Equal(t, 4, f.reader.morphs[0].CurrentPage)
	assert.Equal(t, []int{125}, f.reader.zooms)
	assert.Equal(t, "Renamed", got.Name)
	assert.True(t, got.IsOpen)

	// the store is written by the reader's persister, not here
	stored, err := f.store.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", stored.Name)
}

func TestGetAndListPreferOpenBook(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()
	a := f.importOne(t, "A.pdf")
	f.importOne(t, "B.pdf")

	live := a.Clone()
	live.CurrentPage = 7
	live.IsOpen = true
	f.reader.open = live

	got, err := f.svc.GetBook(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.CurrentPage)

	all, err := f.svc.ListBooks(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, b := range all {
		if b.ID == a.ID {
			assert.True(t, b.IsOpen)
		} else {
			assert.False(t, b.IsOpen)
		}
	}

	f.reader.stopped = true
	got, err = f.svc.GetBook(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentPage)
}

func TestDeleteBook(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()
	book := f.importOne(t, "Dune.pdf")
	other := f.importOne(t, "Emma.pdf")
	f.reader.open = other.Clone()

	require.NoError(t, f.svc.DeleteBook(ctx, book.ID))
	assert.Equal(t, 0, f.reader.closed, "deleting another book leaves the open one alone")
	assert.NoFileExists(t, book.BookPath)
	_, err := f.svc.GetBook(ctx, book.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, f.svc.DeleteBook(ctx, other.ID))
	assert.Equal(t, 1, f.reader.closed)
	assert.Nil(t, f.reader.open)

	assert.ErrorIs(t, f.svc.DeleteBook(ctx, other.ID), store.ErrNotFound)
}

func TestDeleteBookLogsOnce(t *testing.T) {
	f := newFixture(t, 10)
	book := f.importOne(t, "Dune.pdf")

	core, logs := observer.New(zap.InfoLevel)
	prev := log.Logger
	log.Logger = zap.New(core)
	t.Cleanup(func() { log.Logger = prev })

	require.NoError(t, f.svc.DeleteBook(context.Background(), book.ID))
	assert.Equal(t, 1, logs.FilterMessage("Book deleted").Len())
}

func TestTheme(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	theme, err := f.svc.GetTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, config.Opts.Theme, theme)

	require.NoError(t, f.svc.SetTheme(ctx, "light"))
	theme, err = f.svc.GetTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, "light", theme)

	assert.ErrorIs(t, f.svc.SetTheme(ctx, "  "), ErrInvalidTheme)
}

func TestServiceWithoutReader(t *testing.T) {
	f := newFixture(t, 3)
	f.svc.reader = nil
	ctx := context.Background()
	book := f.importOne(t, "Dune.pdf")

	update := book.Clone()
	update.CurrentPage = 3
	got, err := f.svc.UpdateBook(ctx, update)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.Progress())

	require.NoError(t, f.svc.DeleteBook(ctx, book.ID))
}

func TestRememberOpened(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	require.NoError(t, f.svc.RememberOpened(ctx, "abc"))
	general, err := f.svc.GetGeneralSetting(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", general.LastOpenedBook)
}

// memoryQueue holds snapshots until flush writes them.
type memoryQueue struct {
	store  *store.Store
	queued map[string]*model.Book
}

func (q *memoryQueue) Pending(id string) (*model.Book, bool) {
	b, ok := q.queued[id]
	if !ok {
		return nil, false
	}
	return b.Clone(), true
}

func (q *memoryQueue) Persist(id string, b *model.Book) {
	q.queued[id] = b.Clone()
}

func (q *memoryQueue) flush(t *testing.T) {
	for id, b := range q.queued {
		require.NoError(t, q.store.UpdateBook(context.Background(), b))
		delete(q.queued, id)
	}
}

func TestQueuedSnapshotsAreVisible(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()
	book := f.importOne(t, "Dune.pdf")
	q := &memoryQueue{store: f.store, queued: map[string]*model.Book{}}
	f.svc.queue = q

	// the reader closed the book at page 6 but the write has not landed
	closed := book.Clone()
	closed.CurrentPage = 6
	closed.TimeSpent = 90
	q.Persist(book.ID, closed)

	got, err := f.svc.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.CurrentPage)

	all, err := f.svc.ListBooks(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 6, all[0].CurrentPage)

	update := book.Clone()
	update.IsFavorite = true
	got, err = f.svc.UpdateBook(ctx, update)
	require.NoError(t, err)
	assert.Equal(t, 6, got.CurrentPage)
	assert.Equal(t, int64(90), got.TimeSpent, "an edit keeps the queued reading state")

	q.flush(t)
	stored, err := f.store.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsFavorite)
	assert.Equal(t, int64(90), stored.TimeSpent)
}
