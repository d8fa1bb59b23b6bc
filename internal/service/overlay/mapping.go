package overlay

import (
	"errors"

	"github.com/uninspired/inspire-wall/backend/internal/service/layout"
)

// ErrDegenerateBox is returned when the rendered element has no area, which
// happens while it is hidden or not yet laid out.
var ErrDegenerateBox = errors.New("overlay: rendered box has zero size")

// Point is a 2D coordinate in either device or logical space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Box is the on-screen bounding rectangle of the rendered wall.
type Box struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Mapping converts between device pixels and the fixed logical canvas, one
// axis at a time.
type Mapping struct {
	Logical  layout.Size
	Rendered Box
}

// NewMapping rejects rendered boxes with zero or negative extent.
func NewMapping(logical layout.Size, rendered Box) (Mapping, error) {
	if rendered.Width <= 0 || rendered.Height <= 0 || logical.Width <= 0 || logical.Height <= 0 {
		return Mapping{}, ErrDegenerateBox
	}
	return Mapping{Logical: logical, Rendered: rendered}, nil
}

// ToLogical maps a device point onto the canvas.
func (m Mapping) ToLogical(p Point) Point {
	return Point{
		X: (p.X - m.Rendered.Left) * m.Logical.Width / m.Rendered.Width,
		Y: (p.Y - m.Rendered.Top) * m.Logical.Height / m.Rendered.Height,
	}
}

// ToDevice is the inverse of ToLogical.
func (m Mapping) ToDevice(p Point) Point {
	return Point{
		X: p.X*m.Rendered.Width/m.Logical.Width + m.Rendered.Left,
		Y: p.Y*m.Rendered.Height/m.Logical.Height + m.Rendered.Top,
	}
}
