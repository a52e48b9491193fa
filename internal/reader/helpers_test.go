package reader

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Xunop/e-shelf/internal/model"
	"github.com/stretchr/testify/require"
)

const (
	testDebounce   = 150 * time.Millisecond
	viewportHeight = 1000.0
	pageHeight     = 1000.0
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock *fakeClock
	when  time.Time
	f     func()
	done  bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, when: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward and runs the callbacks of expired timers.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.done && !t.when.After(c.now) {
			t.done = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].when.Before(due[j].when) })
	for _, t := range due {
		t.f()
	}
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.done
	t.done = true
	return was
}

// fakeViewport lays pages out back to back, each pageHeight tall.
type fakeViewport struct {
	mu        sync.Mutex
	scrollTop float64
	scrolls   []float64
}

func (v *fakeViewport) Bounds() model.Rect {
	return model.Rect{Width: 800, Height: viewportHeight}
}

func (v *fakeViewport) ScrollTop() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scrollTop
}

func (v *fakeViewport) ScrollTo(offset float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scrollTop = offset
	v.scrolls = append(v.scrolls, offset)
}

// userScroll moves the viewport without it being a programmatic scroll.
func (v *fakeViewport) userScroll(offset float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scrollTop = offset
}

func (v *fakeViewport) scrollCalls() []float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]float64(nil), v.scrolls...)
}

func (v *fakeViewport) pages(n int) []PageHandle {
	handles := make([]PageHandle, n)
	for i := range handles {
		handles[i] = &fakePage{vp: v, index: i}
	}
	return handles
}

type fakePage struct {
	vp    *fakeViewport
	index int
}

func (p *fakePage) Marker() (int, bool) { return p.index + 1, true }

func (p *fakePage) Rect() (model.Rect, bool) {
	return model.Rect{Y: float64(p.index)*pageHeight - p.vp.ScrollTop(), Width: 800, Height: pageHeight}, true
}

type recordingPersister struct {
	mu        sync.Mutex
	snapshots []*model.Book
}

func (p *recordingPersister) Persist(_ string, snapshot *model.Book) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, snapshot)
}

func (p *recordingPersister) all() []*model.Book {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*model.Book(nil), p.snapshots...)
}

func (p *recordingPersister) last() *model.Book {
	all := p.all()
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}

func (p *recordingPersister) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = nil
}

func newTestEngine(t *testing.T) (*Engine, *fakeClock, *recordingPersister) {
	t.Helper()
	clock := newFakeClock()
	p := &recordingPersister{}
	e := NewEngine(Config{Debounce: testDebounce, ViewportMargin: 0.2, Clock: clock}, p)

	ctx, cancel := context.WithCancel(context.Background())
	go e.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-e.Done()
	})
	return e, clock, p
}

// openLoaded opens book and reports every page as rendered.
func openLoaded(t *testing.T, e *Engine, book *model.Book, vp *fakeViewport) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.Open(ctx, book, vp))
	require.NoError(t, e.SetPages(ctx, vp.pages(book.PageCount)))
	renderAll(t, e, book.PageCount)
}

func renderAll(t *testing.T, e *Engine, pageCount int) {
	t.Helper()
	for i := 0; i < pageCount; i++ {
		require.NoError(t, e.PageRendered(context.Background(), i))
	}
}

// scrollToPage puts page at the top of the viewport like a user would.
func scrollToPage(t *testing.T, e *Engine, vp *fakeViewport, page int) {
	t.Helper()
	vp.userScroll(float64(page-1) * pageHeight)
	require.NoError(t, e.ViewportChanged(context.Background()))
}

// currentState waits for every queued transition to be applied.
func currentState(t *testing.T, e *Engine) State {
	t.Helper()
	st, err := e.State(context.Background())
	require.NoError(t, err)
	return st
}

func pagesOf(books []*model.Book) []int {
	pages := make([]int, len(books))
	for i, b := range books {
		pages[i] = b.CurrentPage
	}
	return pages
}
