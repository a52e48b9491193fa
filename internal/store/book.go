package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Xunop/e-shelf/internal/log"
	"github.com/Xunop/e-shelf/internal/model"
	"github.com/pkg/errors"
)

const bookColumns = `id, name, description, current_page, page_count, zoom, score, is_favorite,
	is_open, time_spent, completed_at, last_time_opened, text_highlights, file_size,
	book_path, thumbnail_path`

// AddBook inserts a new book.
func (s *Store) AddBook(ctx context.Context, book *model.Book) error {
	args, err := bookArgs(book)
	if err != nil {
		return err
	}
	stmt := `INSERT INTO book (` + bookColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	log.Fallback("Debug", fmt.Sprintf("AddBook: %s\n", stmt))

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrapf(err, "failed to insert book %s", book.ID)
	}
	s.bookCache.SetDefault(book.ID, book.Clone())
	return nil
}

// UpdateBook writes every field of book over the stored row. It never
// creates a row, so a late write cannot bring back a deleted book.
func (s *Store) UpdateBook(ctx context.Context, book *model.Book) error {
	args, err := bookArgs(book)
	if err != nil {
		return err
	}
	stmt := `
	UPDATE book SET
		name = ?, description = ?, current_page = ?, page_count = ?, zoom = ?, score = ?,
		is_favorite = ?, is_open = ?, time_spent = ?, completed_at = ?, last_time_opened = ?,
		text_highlights = ?, file_size = ?, book_path = ?, thumbnail_path = ?,
		updated_ts = strftime('%s', 'now')
	WHERE id = ?`

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	updateArgs := append(append([]any{}, args[1:]...), args[0])
	res, err := s.db.ExecContext(ctx, stmt, updateArgs...)
	if err != nil {
		return errors.Wrapf(err, "failed to update book %s", book.ID)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		s.bookCache.Delete(book.ID)
		return errors.Wrapf(ErrNotFound, "book %s", book.ID)
	}
	s.bookCache.SetDefault(book.ID, book.Clone())
	return nil
}

// GetBook returns the book with id. A cache miss is filled under dbLock so a
// concurrent write cannot be overwritten by the row read before it.
func (s *Store) GetBook(ctx context.Context, id string) (*model.Book, error) {
	if cached, ok := s.bookCache.Get(id); ok {
		return cached.(*model.Book).Clone(), nil
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	if cached, ok := s.bookCache.Get(id); ok {
		return cached.(*model.Book).Clone(), nil
	}
	list, err := s.ListBooks(ctx, &model.FindBook{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "book %s", id)
	}

	book := list[0]
	s.bookCache.SetDefault(book.ID, book.Clone())
	return book, nil
}

// ListBooks returns the books matching find, most recently opened first.
func (s *Store) ListBooks(ctx context.Context, find *model.FindBook) ([]*model.Book, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find != nil {
		if v := find.ID; v != nil {
			where, args = append(where, "id = ?"), append(args, *v)
		}
		if v := find.Name; v != nil {
			where, args = append(where, "name LIKE ?"), append(args, "%"+*v+"%")
		}
		if v := find.IsFavorite; v != nil {
			where, args = append(where, "is_favorite = ?"), append(args, *v)
		}
		if v := find.IsOpen; v != nil {
			where, args = append(where, "is_open = ?"), append(args, *v)
		}
	}

	query := `SELECT ` + bookColumns + ` FROM book WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY last_time_opened IS NULL, last_time_opened DESC, name ASC`
	if find != nil && find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}
	log.Fallback("Debug", fmt.Sprintf("ListBooks: %s\n", query))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query books")
	}
	defer rows.Close()

	list := make([]*model.Book, 0)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, book)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate books")
	}
	return list, nil
}

// RemoveBook deletes the book record. The file is the caller's concern.
func (s *Store) RemoveBook(ctx context.Context, id string) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM book WHERE id = ?", id)
	if err != nil {
		return errors.Wrapf(err, "failed to delete book %s", id)
	}
	s.bookCache.Delete(id)
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(ErrNotFound, "book %s", id)
	}
	return nil
}

// ResetOpenFlags marks every book closed, used at startup after an unclean
// shutdown left books flagged open.
func (s *Store) ResetOpenFlags(ctx context.Context) (int64, error) {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	res, err := s.db.ExecContext(ctx, "UPDATE book SET is_open = 0 WHERE is_open = 1")
	if err != nil {
		return 0, errors.Wrap(err, "failed to reset open books")
	}
	s.bookCache.Flush()
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*model.Book, error) {
	var (
		book           model.Book
		score          sql.NullFloat64
		completedAt    sql.NullInt64
		lastTimeOpened sql.NullInt64
		highlights     string
	)
	if err := row.Scan(
		&book.ID,
		&book.Name,
		&book.Description,
		&book.CurrentPage,
		&book.PageCount,
		&book.Zoom,
		&score,
		&book.IsFavorite,
		&book.IsOpen,
		&book.TimeSpent,
		&completedAt,
		&lastTimeOpened,
		&highlights,
		&book.FileSize,
		&book.BookPath,
		&book.ThumbnailPath,
	); err != nil {
		return nil, errors.Wrap(err, "failed to scan book")
	}
	if score.Valid {
		v := float32(score.Float64)
		book.Score = &v
	}
	book.CompletedAt = fromMillis(completedAt)
	book.LastTimeOpened = fromMillis(lastTimeOpened)
	book.TextHighlights = []model.TextHighlight{}
	if highlights != "" {
		if err := json.Unmarshal([]byte(highlights), &book.TextHighlights); err != nil {
			return nil, errors.Wrapf(err, "invalid highlights for book %s", book.ID)
		}
	}
	return &book, nil
}

// bookArgs returns the column values in bookColumns order.
func bookArgs(book *model.Book) ([]any, error) {
	if book == nil || book.ID == "" {
		return nil, errors.New("book id is required")
	}
	highlights := book.TextHighlights
	if highlights == nil {
		highlights = []model.TextHighlight{}
	}
	rawHighlights, err := json.Marshal(highlights)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode highlights")
	}
	var score sql.NullFloat64
	if book.Score != nil {
		score = sql.NullFloat64{Float64: float64(*book.Score), Valid: true}
	}
	zoom := book.Zoom
	if zoom <= 0 {
		zoom = model.DefaultZoom
	}
	return []any{
		book.ID,
		book.Name,
		book.Description,
		book.CurrentPage,
		book.PageCount,
		zoom,
		score,
		book.IsFavorite,
		book.IsOpen,
		book.TimeSpent,
		toMillis(book.CompletedAt),
		toMillis(book.LastTimeOpened),
		string(rawHighlights),
		book.FileSize,
		book.BookPath,
		book.ThumbnailPath,
	}, nil
}

func toMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64)
	return &t
}
