package reader

import (
	"time"

	"github.com/Xunop/e-shelf/internal/model"
)

// Session is the state of one book-opening. The zero value is unbound.
type Session struct {
	BookID            string
	Loading           bool
	LastCommittedPage int
	RestoredOnce      bool
	// SavedPage is the page stored when the book was opened, the restore target.
	SavedPage int
	Zoom      int
	OpenedAt  time.Time

	book     *model.Book
	rendered map[int]struct{}
}

func (s *Session) Bound() bool { return s.BookID != "" }

// Bind starts a new book-opening. Every ephemeral field is replaced in one
// assignment so no state from the previous book survives.
func (s *Session) Bind(book *model.Book, defaultZoom int, now time.Time) PersistEffect {
	b := book.Clone()
	opened := now
	b.IsOpen = true
	b.LastTimeOpened = &opened
	if b.Zoom <= 0 {
		b.Zoom = defaultZoom
	}
	saved := b.CurrentPage
	if !b.ValidPage(saved) {
		saved = 0
	}
	*s = Session{
		BookID:    b.ID,
		Loading:   true,
		SavedPage: saved,
		Zoom:      b.Zoom,
		OpenedAt:  now,
		book:      b,
		rendered:  make(map[int]struct{}),
	}
	return PersistEffect{BookID: b.ID, Snapshot: b.Clone()}
}

// Unbind tears the session down.
func (s *Session) Unbind() {
	*s = Session{}
}

func (s *Session) PageCount() int {
	if s.book == nil {
		return 0
	}
	return s.book.PageCount
}

func (s *Session) CurrentPage() int {
	if s.book == nil {
		return 0
	}
	return s.book.CurrentPage
}

// Snapshot returns a copy of the bound book.
func (s *Session) Snapshot() *model.Book {
	return s.book.Clone()
}

// Commit makes page the current page of the bound book.
func (s *Session) Commit(page int, now time.Time) (PersistEffect, error) {
	if !s.Bound() {
		return PersistEffect{}, ErrNoBookOpen
	}
	if !s.book.ValidPage(page) {
		return PersistEffect{}, ErrPageOutOfRange
	}
	b := s.book.Clone()
	b.CurrentPage = page
	if page == b.PageCount && b.CompletedAt == nil {
		completed := now
		b.CompletedAt = &completed
	}
	s.book = b
	s.LastCommittedPage = page
	return PersistEffect{BookID: b.ID, Snapshot: b.Clone()}, nil
}

// MarkRendered records a first successful render of the page at index and
// reports whether this completed the set.
func (s *Session) MarkRendered(index int) bool {
	if !s.Bound() || index < 0 || index >= s.PageCount() {
		return false
	}
	s.rendered[index] = struct{}{}
	return s.refreshLoading()
}

func (s *Session) RenderedCount() int { return len(s.rendered) }

// Rerender forgets render completions, the pages are drawn again.
func (s *Session) Rerender() {
	if !s.Bound() {
		return
	}
	s.Loading = true
	s.rendered = make(map[int]struct{})
}

// Resize changes the page count of the bound book.
func (s *Session) Resize(pageCount int) {
	b := s.book.Clone()
	b.PageCount = pageCount
	if b.CurrentPage > pageCount {
		b.CurrentPage = 0
	}
	s.book = b
	for index := range s.rendered {
		if index >= pageCount {
			delete(s.rendered, index)
		}
	}
	if s.SavedPage > pageCount {
		s.SavedPage = 0
	}
	if s.LastCommittedPage > pageCount {
		s.LastCommittedPage = 0
	}
	s.Loading = true
	s.refreshLoading()
}

func (s *Session) SetZoom(zoom int) {
	b := s.book.Clone()
	b.Zoom = zoom
	s.book = b
	s.Zoom = zoom
}

// Morph copies the descriptive fields of update onto the bound book.
// Reading state (current page, open flag, time spent) is left alone.
func (s *Session) Morph(update *model.Book) PersistEffect {
	b := s.book.Clone()
	b.ApplyDetails(update)
	s.book = b
	return PersistEffect{BookID: b.ID, Snapshot: b.Clone()}
}

// Close produces the final snapshot of the opening and unbinds.
func (s *Session) Close(now time.Time) PersistEffect {
	b := s.book.Clone()
	b.IsOpen = false
	if elapsed := now.Sub(s.OpenedAt); elapsed > 0 {
		b.TimeSpent += int64(elapsed / time.Second)
	}
	s.Unbind()
	return PersistEffect{BookID: b.ID, Snapshot: b}
}

func (s *Session) refreshLoading() bool {
	was := s.Loading
	count := s.PageCount()
	s.Loading = !(count > 0 && len(s.rendered) == count)
	return was && !s.Loading
}
