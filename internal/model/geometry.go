package model

// Rect is an axis-aligned box in viewport coordinates, y grows downwards.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Top() float64     { return r.Y }
func (r Rect) Bottom() float64  { return r.Y + r.Height }
func (r Rect) CenterY() float64 { return r.Y + r.Height/2 }

// Empty reports whether the box has no measurable area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// VerticalOverlap returns the height shared by r and o.
func (r Rect) VerticalOverlap(o Rect) float64 {
	top := max(r.Top(), o.Top())
	bottom := min(r.Bottom(), o.Bottom())
	if bottom <= top {
		return 0
	}
	return bottom - top
}
