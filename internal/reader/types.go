package reader

import (
	"time"

	"github.com/Xunop/e-shelf/internal/model"
	"github.com/pkg/errors"
)

var (
	ErrPageOutOfRange = errors.New("page out of range")
	ErrNoBookOpen     = errors.New("no book open")
	ErrWrongBook      = errors.New("book is not the open book")
	ErrInvalidZoom    = errors.New("zoom must be positive")
	ErrStopped        = errors.New("reader engine stopped")
	ErrNoPages        = errors.New("book has no pages")
)

// Viewport is the scrollable container the pages live in. Bounds are in the
// same coordinate space as PageHandle.Rect.
type Viewport interface {
	Bounds() model.Rect
	ScrollTop() float64
	ScrollTo(offset float64)
}

// PageHandle is one rendered page surface, index = page number - 1.
type PageHandle interface {
	// Marker returns the page number the surface claims to show.
	Marker() (int, bool)
	// Rect returns the current on-screen box, false while it cannot be measured.
	Rect() (model.Rect, bool)
}

// Persister stores book snapshots. Persist must not block the caller.
type Persister interface {
	Persist(bookID string, snapshot *model.Book)
}

type Timer interface {
	Stop() bool
}

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Effect is a side effect produced by a state transition and executed by
// the engine after the transition is applied.
type Effect interface {
	isEffect()
}

// PersistEffect asks for the snapshot to be written.
type PersistEffect struct {
	BookID   string
	Snapshot *model.Book
}

// ScrollEffect asks for the viewport to be scrolled to Offset.
type ScrollEffect struct {
	BookID string
	Offset float64
}

func (PersistEffect) isEffect() {}
func (ScrollEffect) isEffect()  {}

// State is a read-only view of the engine, returned by Engine.State.
type State struct {
	BookID            string      `json:"book_id"`
	Book              *model.Book `json:"book"`
	Loading           bool        `json:"loading"`
	LastCommittedPage int         `json:"last_committed_page"`
	SavedPage         int         `json:"saved_page"`
	RestoredOnce      bool        `json:"restored_once"`
	RenderedPages     int         `json:"rendered_pages"`
	PendingPage       int         `json:"pending_page"`
	Tracking          bool        `json:"tracking"`
	Zoom              int         `json:"zoom"`
}
