package overlay

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/uninspired/inspire-wall/backend/internal/model/thread"
)

// Lens geometry, in logical units relative to the pointer.
const (
	BackdropRadius = 75.0
	MaskRadius     = 80.0
	RingRadius     = 60.0
	OuterRadius    = 85.0
	HandleStart    = 60.0
	HandleEnd      = 95.0

	backdropFill = "rgba(0,0,0,0.85)"
	outerStroke  = "#ff360a"
	innerStroke  = "#f8ff00"
	lensFont     = "'Koulen', sans-serif"
)

// Lens is the magnifier drawn at the pointer while a zone is hovered.
type Lens struct {
	Center   Point  `json:"center"`
	ThreadID string `json:"threadId"`
	Word     string `json:"word"`
	Ordinal  string `json:"ordinal"`
	Emotion  string `json:"emotion"`
	Color    string `json:"color"`
}

// NewLens centres a lens on p showing t's digest.
func NewLens(p Point, t thread.Thread) Lens {
	emotion := string(t.Emotion)
	if emotion == "" {
		emotion = "unknown"
	}
	return Lens{
		Center:   p,
		ThreadID: t.ID,
		Word:     t.Digest(),
		Ordinal:  t.Label(),
		Emotion:  emotion,
		Color:    t.Color(),
	}
}

// SVG renders the lens as children of the wall's magnifyGroup. The caller
// moves the magnifyMask circle to Center.
func (l Lens) SVG() string {
	x, y := l.Center.X, l.Center.Y
	var b strings.Builder
	w := func(format string, args ...any) { fmt.Fprintf(&b, format, args...) }

	w(`<circle cx="%s" cy="%s" r="%s" fill="%s" clip-path="url(#magnifyMask)"/>`,
		f(x), f(y), f(BackdropRadius), backdropFill)
	w(`<circle cx="%s" cy="%s" r="%s" fill="none" stroke="%s" stroke-width="2" opacity="0.7" clip-path="url(#magnifyMask)"/>`,
		f(x), f(y), f(RingRadius), esc(l.Color))
	w(`<text x="%s" y="%s" text-anchor="middle" fill="%s" font-size="16" font-family="%s" font-weight="bold" clip-path="url(#magnifyMask)">%s</text>`,
		f(x), f(y-5), esc(l.Color), lensFont, esc(l.Word))
	w(`<text x="%s" y="%s" text-anchor="middle" fill="white" font-size="11" font-family="%s" clip-path="url(#magnifyMask)">%s</text>`,
		f(x), f(y+15), lensFont, esc(l.Ordinal))
	w(`<text x="%s" y="%s" text-anchor="middle" fill="%s" font-size="9" font-family="%s" clip-path="url(#magnifyMask)">%s</text>`,
		f(x), f(y+30), esc(l.Color), lensFont, esc(l.Emotion))
	w(`<circle cx="%s" cy="%s" r="%s" fill="none" stroke="%s" stroke-width="4"/>`,
		f(x), f(y), f(OuterRadius), outerStroke)
	w(`<circle cx="%s" cy="%s" r="%s" fill="none" stroke="%s" stroke-width="2"/>`,
		f(x), f(y), f(MaskRadius), innerStroke)
	w(`<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="6" stroke-linecap="round"/>`,
		f(x+HandleStart), f(y+HandleStart), f(x+HandleEnd), f(y+HandleEnd), outerStroke)
	return b.String()
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func esc(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
