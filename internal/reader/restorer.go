package reader

import "github.com/Xunop/e-shelf/internal/model"

// Restorer scrolls back to the saved page once per book-opening.
// PENDING is done == false, DONE is done == true.
type Restorer struct {
	done bool
}

// Reset arms the restorer again, only on a book identity change.
func (r *Restorer) Reset() { r.done = false }

func (r *Restorer) Done() bool { return r.done }

// Try fires when every page has rendered and the saved page can be measured.
// Anything else leaves it pending.
func (r *Restorer) Try(s *Session, handles []PageHandle, vp Viewport) (ScrollEffect, bool) {
	if r.done || !s.Bound() || s.Loading || s.SavedPage < 1 || vp == nil {
		return ScrollEffect{}, false
	}
	index := s.SavedPage - 1
	if index >= len(handles) || handles[index] == nil {
		return ScrollEffect{}, false
	}
	rect, ok := handles[index].Rect()
	if !ok || rect.Empty() {
		return ScrollEffect{}, false
	}
	r.done = true
	s.RestoredOnce = true
	return ScrollEffect{BookID: s.BookID, Offset: leadingEdgeOffset(vp, rect)}, true
}

// leadingEdgeOffset is the scroll offset that puts rect's top at the top of vp.
func leadingEdgeOffset(vp Viewport, rect model.Rect) float64 {
	return vp.ScrollTop() + rect.Top() - vp.Bounds().Top()
}
