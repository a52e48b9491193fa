package reader

import (
	"context"
	"sync"
	"time"

	"github.com/Xunop/e-shelf/internal/config"
	"github.com/Xunop/e-shelf/internal/log"
	"github.com/Xunop/e-shelf/internal/model"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Config struct {
	Debounce       time.Duration
	ViewportMargin float64
	Thresholds     []float64
	DefaultZoom    int
	Clock          Clock
}

// ConfigFrom maps the reader_* options.
func ConfigFrom(opts *config.Options) Config {
	return Config{
		Debounce:       time.Duration(opts.ReaderDebounceMs) * time.Millisecond,
		ViewportMargin: opts.ReaderViewportMargin,
		Thresholds:     opts.ReaderThresholds,
		DefaultZoom:    opts.ReaderDefaultZoom,
	}
}

// Engine owns the reading session of one reader view. Every operation is a
// transition run on the goroutine started by Run; callers block until their
// transition is applied.
type Engine struct {
	cfg       Config
	clock     Clock
	persister Persister

	ops      chan func()
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	// owned by the Run goroutine
	session  Session
	tracker  *Tracker
	resolver *Resolver
	restorer Restorer
	viewport Viewport
	handles  []PageHandle
	layout   uint64
}

func NewEngine(cfg Config, persister Persister) *Engine {
	if cfg.Clock == nil {
		cfg.Clock = systemClock{}
	}
	if cfg.DefaultZoom <= 0 {
		cfg.DefaultZoom = model.DefaultZoom
	}
	if len(cfg.Thresholds) == 0 {
		cfg.Thresholds = []float64{0, 0.25, 0.5, 0.75, 1}
	}
	e := &Engine{
		cfg:       cfg,
		clock:     cfg.Clock,
		persister: persister,
		ops:       make(chan func()),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	e.resolver = NewResolver(cfg.Debounce, e.schedule)
	return e
}

// Run processes transitions until ctx is cancelled or Stop is called. An
// open book is closed on the way out.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)
	for {
		select {
		case op := <-e.ops:
			op()
		case <-e.quit:
			e.unmount()
			return nil
		case <-ctx.Done():
			e.unmount()
			return ctx.Err()
		}
	}
}

func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.quit) })
}

// Done is closed once Run has returned.
func (e *Engine) Done() <-chan struct{} { return e.done }

func (e *Engine) do(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	op := func() { errc <- fn() }
	select {
	case e.ops <- op:
	case <-e.done:
		return ErrStopped
	case <-e.quit:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-errc
}

// post queues fn from a timer goroutine.
func (e *Engine) post(fn func()) {
	select {
	case e.ops <- fn:
	case <-e.done:
	case <-e.quit:
	}
}

func (e *Engine) schedule(d time.Duration, gen uint64) Timer {
	return e.clock.AfterFunc(d, func() {
		e.post(func() { e.commitPending(gen) })
	})
}

// Open binds book to the reader view. Opening the book that is already open
// only picks up a changed page count.
func (e *Engine) Open(ctx context.Context, book *model.Book, vp Viewport) error {
	if book == nil || book.ID == "" {
		return errors.New("book id is required")
	}
	if book.PageCount <= 0 {
		return errors.Wrapf(ErrNoPages, "book %s", book.ID)
	}
	return e.do(ctx, func() error {
		if e.session.Bound() && e.session.BookID == book.ID {
			if vp != nil {
				e.viewport = vp
			}
			if book.PageCount != e.session.PageCount() {
				e.session.Resize(book.PageCount)
				e.resolver.Reset(book.PageCount)
				e.retrack()
				e.settle()
			}
			return nil
		}
		if e.session.Bound() {
			e.closeSession()
		}

		e.resolver.Reset(book.PageCount)
		e.stopTracker()
		e.restorer.Reset()
		e.handles = nil
		e.viewport = vp
		eff := e.session.Bind(book, e.cfg.DefaultZoom, e.clock.Now())
		log.Info("Book opened", zap.String("bookID", book.ID), zap.Int("savedPage", e.session.SavedPage))
		e.apply(eff)
		return nil
	})
}

// SetPages replaces the page handles of the open book.
func (e *Engine) SetPages(ctx context.Context, handles []PageHandle) error {
	return e.do(ctx, func() error {
		if !e.session.Bound() {
			return ErrNoBookOpen
		}
		e.handles = append([]PageHandle(nil), handles...)
		e.layout++
		e.retrack()
		e.settle()
		return nil
	})
}

// PageRendered records the first successful render of the page at index.
// Indices outside the book are ignored.
func (e *Engine) PageRendered(ctx context.Context, index int) error {
	return e.do(ctx, func() error {
		if !e.session.Bound() {
			return ErrNoBookOpen
		}
		if e.session.MarkRendered(index) {
			log.Debug("All pages rendered", zap.String("bookID", e.session.BookID))
			e.retrack()
			e.settle()
		}
		return nil
	})
}

// Rerender marks the pages as being drawn again. The restorer is not re-armed.
func (e *Engine) Rerender(ctx context.Context) error {
	return e.do(ctx, func() error {
		if !e.session.Bound() {
			return ErrNoBookOpen
		}
		e.rerender()
		return nil
	})
}

func (e *Engine) SetZoom(ctx context.Context, zoom int) error {
	if zoom <= 0 {
		return ErrInvalidZoom
	}
	return e.do(ctx, func() error {
		if !e.session.Bound() {
			return ErrNoBookOpen
		}
		if zoom == e.session.Zoom {
			return nil
		}
		e.session.SetZoom(zoom)
		e.rerender()
		return nil
	})
}

// ViewportChanged is called after the container scrolled or resized.
func (e *Engine) ViewportChanged(ctx context.Context) error {
	return e.do(ctx, func() error {
		if !e.session.Bound() {
			return ErrNoBookOpen
		}
		e.settle()
		return nil
	})
}

// JumpTo scrolls to page and proposes it as the current page.
func (e *Engine) JumpTo(ctx context.Context, page int) error {
	return e.do(ctx, func() error {
		if !e.session.Bound() {
			return ErrNoBookOpen
		}
		if page < 1 || page > e.session.PageCount() {
			return ErrPageOutOfRange
		}
		if e.viewport != nil && page-1 < len(e.handles) && e.handles[page-1] != nil {
			if rect, ok := e.handles[page-1].Rect(); ok && !rect.Empty() {
				e.apply(ScrollEffect{BookID: e.session.BookID, Offset: leadingEdgeOffset(e.viewport, rect)})
			}
		}
		return e.resolver.Propose(page, e.session.LastCommittedPage)
	})
}

// Morph updates the descriptive fields of the open book. A different current
// page is proposed instead of written.
func (e *Engine) Morph(ctx context.Context, book *model.Book) error {
	if book == nil {
		return errors.New("book is required")
	}
	return e.do(ctx, func() error {
		if !e.session.Bound() {
			return ErrNoBookOpen
		}
		if book.ID != e.session.BookID {
			return ErrWrongBook
		}
		moved := book.CurrentPage != 0 && book.CurrentPage != e.session.CurrentPage()
		if moved && (book.CurrentPage < 1 || book.CurrentPage > e.session.PageCount()) {
			return ErrPageOutOfRange
		}
		e.apply(e.session.Morph(book))
		if moved {
			return e.resolver.Propose(book.CurrentPage, e.session.LastCommittedPage)
		}
		return nil
	})
}

// Close ends the book-opening and persists the closed book.
func (e *Engine) Close(ctx context.Context) error {
	return e.do(ctx, func() error {
		if !e.session.Bound() {
			return ErrNoBookOpen
		}
		e.closeSession()
		return nil
	})
}

func (e *Engine) State(ctx context.Context) (State, error) {
	var st State
	err := e.do(ctx, func() error {
		st = State{
			BookID:            e.session.BookID,
			Loading:           e.session.Loading,
			LastCommittedPage: e.session.LastCommittedPage,
			SavedPage:         e.session.SavedPage,
			RestoredOnce:      e.session.RestoredOnce,
			RenderedPages:     e.session.RenderedCount(),
			PendingPage:       e.resolver.Pending(),
			Tracking:          e.tracker.Active(),
			Zoom:              e.session.Zoom,
		}
		if e.session.Bound() {
			st.Book = e.session.Snapshot()
		}
		return nil
	})
	return st, err
}

// OpenBookID returns the id of the open book, or "".
func (e *Engine) OpenBookID(ctx context.Context) (string, error) {
	var id string
	err := e.do(ctx, func() error {
		id = e.session.BookID
		return nil
	})
	return id, err
}

func (e *Engine) commitPending(gen uint64) {
	page, ok := e.resolver.Fire(gen)
	if !ok {
		return
	}
	eff, err := e.session.Commit(page, e.clock.Now())
	if err != nil {
		log.Debug("Dropped page commit", zap.Int("page", page), zap.Error(err))
		return
	}
	log.Debug("Page committed", zap.String("bookID", eff.BookID), zap.Int("page", page))
	e.apply(eff)
}

// settle retries the restorer and feeds the tracker into the resolver.
func (e *Engine) settle() {
	if eff, ok := e.restorer.Try(&e.session, e.handles, e.viewport); ok {
		log.Debug("Restoring reading position",
			zap.String("bookID", eff.BookID),
			zap.Int("page", e.session.SavedPage),
			zap.Float64("offset", eff.Offset))
		e.apply(eff)
	}
	if batch, ok := e.tracker.Observe(e.viewport); ok {
		e.resolver.Apply(batch, e.session.LastCommittedPage)
	}
}

// retrack makes sure the tracker matches the open book and handle set, and
// only observes once the pages are rendered.
func (e *Engine) retrack() {
	if e.session.Loading || len(e.handles) == 0 || e.viewport == nil {
		e.stopTracker()
		return
	}
	key := trackerKey{bookID: e.session.BookID, pageCount: e.session.PageCount(), layout: e.layout}
	if e.tracker.Active() && e.tracker.Key() == key {
		return
	}
	e.stopTracker()
	e.resolver.clearVisible()
	e.tracker = newTracker(key, e.handles, e.cfg.ViewportMargin, e.cfg.Thresholds)
}

func (e *Engine) stopTracker() {
	if e.tracker != nil {
		e.tracker.Stop()
		e.tracker = nil
	}
}

func (e *Engine) rerender() {
	e.session.Rerender()
	e.stopTracker()
	e.resolver.cancel()
}

func (e *Engine) closeSession() {
	e.resolver.Reset(0)
	e.stopTracker()
	e.restorer.Reset()
	e.handles = nil
	e.viewport = nil
	id := e.session.BookID
	e.apply(e.session.Close(e.clock.Now()))
	log.Info("Book closed", zap.String("bookID", id))
}

func (e *Engine) unmount() {
	if e.session.Bound() {
		e.closeSession()
	}
}

func (e *Engine) apply(effects ...Effect) {
	for _, eff := range effects {
		switch eff := eff.(type) {
		case PersistEffect:
			if e.persister != nil {
				e.persister.Persist(eff.BookID, eff.Snapshot)
			}
		case ScrollEffect:
			if e.viewport != nil {
				e.viewport.ScrollTo(eff.Offset)
			}
		}
	}
}
