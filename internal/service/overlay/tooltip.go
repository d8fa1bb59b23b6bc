package overlay

import (
	"math"

	"github.com/google/uuid"

	"github.com/uninspired/inspire-wall/backend/internal/model/thread"
)

// Tooltip placement relative to the pointer and viewport, in CSS pixels.
const (
	tooltipOffsetX   = 20.0
	tooltipOffsetY   = -80.0
	tooltipMaxWidth  = 300.0
	tooltipMaxHeight = 160.0
	tooltipMinTop    = 20.0
)

// Viewport is the browser window size. Zero values disable the upper clamp.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Tooltip is the companion card shown next to the pointer. Each instance has
// its own ID; clients drop the element when the ID is destroyed.
type Tooltip struct {
	ID       string  `json:"id"`
	Left     float64 `json:"left"`
	Top      float64 `json:"top"`
	ThreadID string  `json:"threadId"`
	Label    string  `json:"label"`
	Message  string  `json:"message"`
	Emotion  string  `json:"emotion"`
	Color    string  `json:"color"`
}

func newTooltip(client Point, vp Viewport, t thread.Thread) *Tooltip {
	left, top := placeTooltip(client, vp)
	return &Tooltip{
		ID:       uuid.NewString(),
		Left:     left,
		Top:      top,
		ThreadID: t.ID,
		Label:    t.Label(),
		Message:  t.Message,
		Emotion:  t.Emotion.Label(),
		Color:    t.Color(),
	}
}

// placeTooltip keeps the card inside the viewport; the lower bounds win when
// the viewport is too small for both.
func placeTooltip(client Point, vp Viewport) (left, top float64) {
	left = client.X + tooltipOffsetX
	top = client.Y + tooltipOffsetY
	if vp.Width > 0 {
		left = math.Min(left, vp.Width-tooltipMaxWidth)
	}
	if vp.Height > 0 {
		top = math.Min(top, vp.Height-tooltipMaxHeight)
	}
	return math.Max(0, left), math.Max(tooltipMinTop, top)
}
