package v1

import (
	"sync"

	"github.com/Xunop/e-shelf/internal/model"
	"github.com/Xunop/e-shelf/internal/reader"
)

// layout is what the reader UI reports after a scroll, resize or render:
// the container box, its scroll offset and the on-screen box of every page
// (null while a page cannot be measured). Boxes use client coordinates.
type layout struct {
	Bounds    model.Rect    `json:"bounds"`
	ScrollTop float64       `json:"scroll_top"`
	Pages     []*model.Rect `json:"pages"`
}

// remoteViewport mirrors the UI's scroll container. Scrolls requested by the
// engine are applied to the mirror at once and handed back to the UI.
type remoteViewport struct {
	mu        sync.Mutex
	bounds    model.Rect
	scrollTop float64
	pages     []*model.Rect
	scrollTo  *float64
}

func (v *remoteViewport) Bounds() model.Rect {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.bounds
}

func (v *remoteViewport) ScrollTop() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scrollTop
}

func (v *remoteViewport) ScrollTo(offset float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delta := offset - v.scrollTop
	v.scrollTop = offset
	for _, r := range v.pages {
		if r != nil {
			r.Y -= delta
		}
	}
	v.scrollTo = &offset
}

// update replaces the mirror with l and reports whether the number of
// pages changed.
func (v *remoteViewport) update(l layout) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.bounds = l.Bounds
	v.scrollTop = l.ScrollTop
	changed := len(l.Pages) != len(v.pages)
	v.pages = make([]*model.Rect, len(l.Pages))
	for i, r := range l.Pages {
		if r != nil {
			rect := *r
			v.pages[i] = &rect
		}
	}
	return changed
}

func (v *remoteViewport) reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.bounds = model.Rect{}
	v.scrollTop = 0
	v.pages = nil
	v.scrollTo = nil
}

// takeScroll returns and clears the pending scroll request.
func (v *remoteViewport) takeScroll() *float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.scrollTo
	v.scrollTo = nil
	return s
}

func (v *remoteViewport) handles() []reader.PageHandle {
	v.mu.Lock()
	n := len(v.pages)
	v.mu.Unlock()
	handles := make([]reader.PageHandle, n)
	for i := range handles {
		handles[i] = &remotePage{vp: v, index: i}
	}
	return handles
}

type remotePage struct {
	vp    *remoteViewport
	index int
}

func (p *remotePage) Marker() (int, bool) { return p.index + 1, true }

func (p *remotePage) Rect() (model.Rect, bool) {
	p.vp.mu.Lock()
	defer p.vp.mu.Unlock()
	if p.index >= len(p.vp.pages) || p.vp.pages[p.index] == nil {
		return model.Rect{}, false
	}
	return *p.vp.pages[p.index], true
}
