package reader

import (
	"sort"

	"github.com/Xunop/e-shelf/internal/model"
)

// trackerKey identifies what a tracker observes. A tracker is only
// recreated when its key changes, never on page commits.
type trackerKey struct {
	bookID    string
	pageCount int
	layout    uint64
}

// Entry is the visibility state of one page handle.
type Entry struct {
	Page         int
	Intersecting bool
	Ratio        float64
	Rect         model.Rect
}

// Batch holds the entries whose visibility level changed since the previous
// observation, plus the viewport geometry they were measured against.
type Batch struct {
	Root      model.Rect
	ScrollTop float64
	Entries   []Entry
}

// Tracker reports which pages overlap the central band of the viewport.
type Tracker struct {
	key        trackerKey
	handles    []PageHandle
	margin     float64
	thresholds []float64
	levels     []int
	primed     bool
	stopped    bool
}

func newTracker(key trackerKey, handles []PageHandle, margin float64, thresholds []float64) *Tracker {
	ts := append([]float64(nil), thresholds...)
	sort.Float64s(ts)
	if margin < 0 {
		margin = 0
	}
	if margin > 0.45 {
		margin = 0.45
	}
	return &Tracker{
		key:        key,
		handles:    append([]PageHandle(nil), handles...),
		margin:     margin,
		thresholds: ts,
		levels:     make([]int, len(handles)),
	}
}

func (t *Tracker) Key() trackerKey { return t.key }

// Stop cancels observation. A stopped tracker never yields another batch.
func (t *Tracker) Stop() { t.stopped = true }

func (t *Tracker) Active() bool { return t != nil && !t.stopped }

// Observe measures every handle against vp; a nil handle is never
// measurable. The first observation reports every handle, later ones only
// handles whose level changed. The returned batch always carries the
// current scroll position, even with no entries.
func (t *Tracker) Observe(vp Viewport) (Batch, bool) {
	if !t.Active() || vp == nil {
		return Batch{}, false
	}
	root := vp.Bounds()
	band := centralBand(root, t.margin)
	batch := Batch{Root: root, ScrollTop: vp.ScrollTop()}

	for i, h := range t.handles {
		level, ratio := -1, 0.0
		var (
			rect model.Rect
			ok   bool
		)
		if h != nil {
			rect, ok = h.Rect()
		}
		if ok && !rect.Empty() {
			if overlap := band.VerticalOverlap(rect); overlap > 0 {
				ratio = overlap / rect.Height
				level = t.levelFor(ratio)
			}
		}
		if t.primed && t.levels[i] == level {
			continue
		}
		t.levels[i] = level

		page := 0
		if h != nil {
			if marker, marked := h.Marker(); marked {
				page = marker
			}
		}
		batch.Entries = append(batch.Entries, Entry{
			Page:         page,
			Intersecting: level >= 0,
			Ratio:        ratio,
			Rect:         rect,
		})
	}
	t.primed = true
	return batch, true
}

// levelFor counts the thresholds reached by ratio.
func (t *Tracker) levelFor(ratio float64) int {
	level := 0
	for _, th := range t.thresholds {
		if ratio+1e-9 >= th {
			level++
		}
	}
	return level
}

func centralBand(root model.Rect, margin float64) model.Rect {
	inset := root.Height * margin
	return model.Rect{
		X:      root.X,
		Y:      root.Y + inset,
		Width:  root.Width,
		Height: root.Height - 2*inset,
	}
}
