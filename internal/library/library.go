package library // import "github.com/Xunop/e-shelf/internal/library"

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/Xunop/e-shelf/internal/config"
	"github.com/Xunop/e-shelf/internal/log"
	"github.com/Xunop/e-shelf/internal/model"
	"github.com/Xunop/e-shelf/internal/reader"
	"github.com/Xunop/e-shelf/internal/storage"
	"github.com/Xunop/e-shelf/internal/store"
	"github.com/Xunop/e-shelf/internal/validator"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	ErrEmptyBook    = errors.New("document has no pages")
	ErrInvalidTheme = errors.New("theme must not be empty")
)

// Reader is the part of the reader engine the library needs to keep the
// open book consistent with the store.
type Reader interface {
	OpenBookID(ctx context.Context) (string, error)
	State(ctx context.Context) (reader.State, error)
	Morph(ctx context.Context, book *model.Book) error
	SetZoom(ctx context.Context, zoom int) error
	Close(ctx context.Context) error
}

// SnapshotQueue holds book snapshots that are not in the store yet.
type SnapshotQueue interface {
	Pending(bookID string) (*model.Book, bool)
	Persist(bookID string, snapshot *model.Book)
}

type Service struct {
	store     *store.Store
	storage   storage.Storage
	inspector PageCounter
	reader    Reader
	queue     SnapshotQueue
}

// NewService builds the library. reader and queue may be nil when no reader
// view is running, e.g. for command line imports.
func NewService(s *store.Store, st storage.Storage, inspector PageCounter, r Reader, q SnapshotQueue) *Service {
	return &Service{store: s, storage: st, inspector: inspector, reader: r, queue: q}
}

// AddBooks imports the files at paths. It stops at the first failure and
// returns the books imported so far.
func (s *Service) AddBooks(ctx context.Context, paths []string) ([]*model.Book, error) {
	books := make([]*model.Book, 0, len(paths))
	for _, path := range paths {
		book, err := s.addBook(ctx, path)
		if err != nil {
			return books, err
		}
		log.Info("Book imported",
			zap.String("bookID", book.ID),
			zap.String("name", book.Name),
			zap.Int("pageCount", book.PageCount))
		books = append(books, book)
	}
	return books, nil
}

func (s *Service) addBook(ctx context.Context, path string) (*model.Book, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat %s", path)
	}
	if fi.IsDir() {
		return nil, errors.Errorf("%s is a directory", path)
	}

	id := uuid.NewString()
	stored, err := s.storage.Store(path, id)
	if err != nil {
		return nil, err
	}

	count, err := s.pageCount(stored.Path)
	if err == nil && count <= 0 {
		err = errors.Wrapf(ErrEmptyBook, "%s", path)
	}
	if err != nil {
		s.discard(stored)
		return nil, err
	}

	base := filepath.Base(path)
	book := &model.Book{
		ID:            id,
		Name:          strings.TrimSuffix(base, filepath.Ext(base)),
		PageCount:     count,
		Zoom:          config.Opts.ReaderDefaultZoom,
		FileSize:      stored.Size,
		BookPath:      stored.Path,
		ThumbnailPath: stored.ThumbnailPath,
	}
	if err := s.store.AddBook(ctx, book); err != nil {
		s.discard(stored)
		return nil, err
	}
	return book, nil
}

func (s *Service) pageCount(path string) (int, error) {
	f, err := s.storage.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return s.inspector.PageCount(f)
}

func (s *Service) discard(stored *storage.StoredFile) {
	if err := s.storage.Remove(stored.Path, stored.ThumbnailPath); err != nil {
		log.Warn("Failed to discard imported file", zap.String("path", stored.Path), zap.Error(err))
	}
}

// ListBooks returns the library, with the open book's live state in place
// of its stored row.
func (s *Service) ListBooks(ctx context.Context, find *model.FindBook) ([]*model.Book, error) {
	books, err := s.store.ListBooks(ctx, find)
	if err != nil {
		return nil, err
	}
	for i, b := range books {
		if queued, ok := s.pending(b.ID); ok {
			books[i] = queued
		}
	}
	open, err := s.openBook(ctx)
	if err != nil || open == nil {
		return books, err
	}
	for i, b := range books {
		if b.ID == open.ID {
			books[i] = open
		}
	}
	return books, nil
}

func (s *Service) GetBook(ctx context.Context, id string) (*model.Book, error) {
	open, err := s.openBook(ctx)
	if err != nil {
		return nil, err
	}
	if open != nil && open.ID == id {
		return open, nil
	}
	return s.storedBook(ctx, id)
}

// storedBook returns the newest known state of a book that is not open.
func (s *Service) storedBook(ctx context.Context, id string) (*model.Book, error) {
	book, err := s.store.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	if queued, ok := s.pending(id); ok {
		return queued, nil
	}
	return book, nil
}

func (s *Service) pending(id string) (*model.Book, bool) {
	if s.queue == nil {
		return nil, false
	}
	return s.queue.Pending(id)
}

// UpdateBook applies a client edit. Edits to the open book go through the
// reader so the current page is debounced like a scroll.
func (s *Service) UpdateBook(ctx context.Context, update *model.Book) (*model.Book, error) {
	if update == nil || update.ID == "" {
		return nil, errors.New("book id is required")
	}
	if update.Zoom < 0 {
		return nil, reader.ErrInvalidZoom
	}
	current, err := s.GetBook(ctx, update.ID)
	if err != nil {
		return nil, err
	}
	if err := validator.ValidateBookUpdate(update, current.PageCount); err != nil {
		return nil, err
	}

	if s.reader != nil {
		err := s.reader.Morph(ctx, update)
		switch {
		case err == nil:
			if update.Zoom > 0 {
				if err := s.reader.SetZoom(ctx, update.Zoom); err != nil && !isClosed(err) {
					return nil, err
				}
			}
			return s.GetBook(ctx, update.ID)
		case !isClosed(err):
			return nil, err
		}
	}

	book, err := s.storedBook(ctx, update.ID)
	if err != nil {
		return nil, err
	}
	book.ApplyDetails(update)
	if update.CurrentPage != 0 && update.CurrentPage != book.CurrentPage {
		if !book.ValidPage(update.CurrentPage) {
			return nil, reader.ErrPageOutOfRange
		}
		book.CurrentPage = update.CurrentPage
	}
	if update.Zoom > 0 {
		book.Zoom = update.Zoom
	}
	// Queued behind earlier snapshots of the book so it cannot be overwritten
	// by them.
	if s.queue != nil {
		s.queue.Persist(book.ID, book.Clone())
		return book, nil
	}
	if err := s.store.UpdateBook(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// DeleteBook closes the book if it is being read, then removes its row and
// its files.
func (s *Service) DeleteBook(ctx context.Context, id string) error {
	book, err := s.store.GetBook(ctx, id)
	if err != nil {
		return err
	}
	if s.reader != nil {
		openID, err := s.reader.OpenBookID(ctx)
		if err != nil && !errors.Is(err, reader.ErrStopped) {
			return err
		}
		if openID == id {
			if err := s.reader.Close(ctx); err != nil && !isClosed(err) {
				return err
			}
		}
	}
	if err := s.store.RemoveBook(ctx, id); err != nil {
		return err
	}
	if err := s.storage.Remove(book.BookPath, book.ThumbnailPath); err != nil {
		log.Warn("Failed to remove book files", zap.String("bookID", id), zap.Error(err))
	}
	log.Info("Book deleted", zap.String("bookID", id))
	return nil
}

func (s *Service) GetTheme(ctx context.Context) (string, error) {
	return s.store.GetTheme(ctx, config.Opts.Theme)
}

func (s *Service) SetTheme(ctx context.Context, theme string) error {
	theme = strings.TrimSpace(theme)
	if theme == "" {
		return ErrInvalidTheme
	}
	return s.store.SetTheme(ctx, theme)
}

// RememberOpened records id as the last book opened in the reader.
func (s *Service) RememberOpened(ctx context.Context, id string) error {
	return s.store.SetGeneralSetting(ctx, &model.SystemSettingGeneral{LastOpenedBook: id})
}

func (s *Service) GetGeneralSetting(ctx context.Context) (*model.SystemSettingGeneral, error) {
	return s.store.GetGeneralSetting(ctx)
}

func (s *Service) openBook(ctx context.Context) (*model.Book, error) {
	if s.reader == nil {
		return nil, nil
	}
	st, err := s.reader.State(ctx)
	if errors.Is(err, reader.ErrStopped) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return st.Book, nil
}

// isClosed reports errors meaning the book is not open in the reader.
func isClosed(err error) bool {
	return errors.Is(err, reader.ErrNoBookOpen) ||
		errors.Is(err, reader.ErrWrongBook) ||
		errors.Is(err, reader.ErrStopped)
}
