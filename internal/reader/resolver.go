package reader

import (
	"math"
	"time"
)

// scheduleFunc arms a timer that reports back with gen once d elapsed.
type scheduleFunc func(d time.Duration, gen uint64) Timer

// Resolver picks the page closest to the viewport center and debounces it
// before it may be committed.
type Resolver struct {
	debounce  time.Duration
	schedule  scheduleFunc
	pageCount int

	// visible maps page number to its center in content coordinates, so
	// entries stay comparable across scroll positions.
	visible   map[int]float64
	candidate int
	timer     Timer
	gen       uint64
}

func NewResolver(debounce time.Duration, schedule scheduleFunc) *Resolver {
	return &Resolver{
		debounce: debounce,
		schedule: schedule,
		visible:  make(map[int]float64),
	}
}

// Reset drops everything known about the previous book.
func (r *Resolver) Reset(pageCount int) {
	r.cancel()
	r.pageCount = pageCount
	r.clearVisible()
}

func (r *Resolver) clearVisible() {
	r.visible = make(map[int]float64)
}

// Apply folds a batch into the visible set and re-evaluates the candidate
// against last, the most recently committed page.
func (r *Resolver) Apply(b Batch, last int) {
	for _, e := range b.Entries {
		if !r.valid(e.Page) {
			continue
		}
		if e.Intersecting {
			r.visible[e.Page] = e.Rect.CenterY() - b.Root.Top() + b.ScrollTop
		} else {
			delete(r.visible, e.Page)
		}
	}
	best, ok := r.best(b.ScrollTop + b.Root.Height/2)
	if !ok {
		r.cancel()
		return
	}
	r.consider(best, last)
}

// Propose feeds an externally chosen page into the same debounce path.
func (r *Resolver) Propose(page, last int) error {
	if !r.valid(page) {
		return ErrPageOutOfRange
	}
	r.consider(page, last)
	return nil
}

func (r *Resolver) consider(page, last int) {
	switch {
	case page == last:
		r.cancel()
	case page == r.candidate && r.timer != nil:
	default:
		r.cancel()
		r.arm(page)
	}
}

// Fire is called when the timer armed with gen expires. It returns the page
// to commit, or false if the timer was superseded.
func (r *Resolver) Fire(gen uint64) (int, bool) {
	if gen != r.gen || r.timer == nil {
		return 0, false
	}
	page := r.candidate
	r.timer = nil
	r.candidate = 0
	r.gen++
	return page, true
}

// Pending returns the candidate waiting for its debounce window, or 0.
func (r *Resolver) Pending() int {
	if r.timer == nil {
		return 0
	}
	return r.candidate
}

func (r *Resolver) best(center float64) (int, bool) {
	best, bestDist := 0, math.Inf(1)
	for page, c := range r.visible {
		d := math.Abs(c - center)
		if d < bestDist || (d == bestDist && page < best) {
			best, bestDist = page, d
		}
	}
	return best, best > 0
}

func (r *Resolver) valid(page int) bool {
	return page >= 1 && page <= r.pageCount
}

func (r *Resolver) arm(page int) {
	r.gen++
	r.candidate = page
	r.timer = r.schedule(r.debounce, r.gen)
}

func (r *Resolver) cancel() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.candidate = 0
	r.gen++
}
