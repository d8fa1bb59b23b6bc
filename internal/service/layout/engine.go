package layout

import (
	"fmt"
	"math"
	"math/rand"
	"unicode/utf8"

	"github.com/uninspired/inspire-wall/backend/internal/model/thread"
)

// GlyphRun is one positioned word drawn inside the silhouette.
type GlyphRun struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	ThreadID    string  `json:"threadId"`
	ThreadIndex int     `json:"threadIndex"`
	Word        string  `json:"word"`
	FontSize    float64 `json:"fontSize"`
	Color       string  `json:"color"`
}

// HoverZone is an interactive rectangle bound to one thread.
type HoverZone struct {
	Index       int     `json:"index"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	ThreadID    string  `json:"threadId"`
	ThreadIndex int     `json:"threadIndex"`
}

// Contains reports whether the logical point lies inside the zone.
func (z HoverZone) Contains(x, y float64) bool {
	return x >= z.X && x < z.X+z.Width && y >= z.Y && y < z.Y+z.Height
}

// Layout is the full output of one Compute call.
type Layout struct {
	Canvas      Size        `json:"canvas"`
	Runs        []GlyphRun  `json:"runs"`
	Zones       []HoverZone `json:"zones"`
	Placeholder bool        `json:"placeholder"`
	Binding     ZoneBinding `json:"binding"`
	Seed        int64       `json:"seed"`
}

// Zone hit-tests a logical point against the hover zones.
func (l Layout) Zone(x, y float64) (HoverZone, bool) {
	for _, z := range l.Zones {
		if z.Contains(x, y) {
			return z, true
		}
	}
	return HoverZone{}, false
}

// LayoutError marks a zone that could not be resolved to a thread. It is
// recovered by drawing neutral placeholder content.
type LayoutError struct {
	ZoneIndex int
	ThreadID  string
	Reason    string
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("layout: zone %d (thread %q): %s", e.ZoneIndex, e.ThreadID, e.Reason)
}

// Engine packs threads into the silhouette. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine validates cfg and returns an Engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine's constants.
func (e *Engine) Config() Config {
	return e.cfg
}

// Compute lays out threads. The same threads and seed always produce the
// same layout.
func (e *Engine) Compute(threads []thread.Thread, seed int64) Layout {
	out := Layout{
		Canvas:  e.cfg.Canvas,
		Binding: e.cfg.Binding,
		Seed:    seed,
		Runs:    []GlyphRun{},
		Zones:   []HoverZone{},
	}
	if len(threads) == 0 {
		out.Placeholder = true
		return out
	}

	out.Runs = e.packText(threads, rand.New(rand.NewSource(seed)))
	out.Zones = e.scanZones(threads, out.Runs)
	return out
}

func (e *Engine) packText(threads []thread.Thread, rng *rand.Rand) []GlyphRun {
	grid := e.cfg.Text
	n := len(threads)
	runs := make([]GlyphRun, 0, 512)

	// Sizes are drawn once per thread visit, in visit order.
	next := 0
	for x := grid.Left; x <= grid.Right; x += grid.Step {
		y := grid.Top
		placed := 0
		for y < grid.Bottom && placed < grid.MaxWordsPerColumn {
			idx := next % n
			t := threads[idx]
			size := e.fontSize(t, rng)
			color := t.Color()
			for _, word := range t.Words() {
				if y >= grid.Bottom || placed >= grid.MaxWordsPerColumn {
					break
				}
				runs = append(runs, GlyphRun{
					X:           x,
					Y:           y,
					ThreadID:    t.ID,
					ThreadIndex: idx,
					Word:        word,
					FontSize:    size,
					Color:       color,
				})
				y += float64(utf8.RuneCountInString(word))*size*grid.CharFactor + grid.WordPadding
				placed++
			}
			y += grid.ThreadGap
			next++
		}
	}
	return runs
}

func (e *Engine) fontSize(t thread.Thread, rng *rand.Rand) float64 {
	rule := e.cfg.Font
	size := rule.Base
	if rule.Jitter > 0 {
		size += float64(rng.Intn(rule.Jitter))
	}
	size += float64(thread.TotalReactions(t)) * rule.ReactionFactor

	runes := utf8.RuneCountInString(t.Message)
	switch {
	case runes < rule.ShortRunes:
		size++
	case runes > rule.LongRunes:
		size--
	}

	size = math.Max(rule.Min, math.Min(rule.Max, size))
	return math.Round(size*10) / 10
}

func (e *Engine) scanZones(threads []thread.Thread, runs []GlyphRun) []HoverZone {
	grid := e.cfg.Zones
	n := len(threads)
	zones := make([]HoverZone, 0, 64)

	k := 0
	for x := grid.Left; x <= grid.Right; x += grid.StepX {
		for y := grid.Top; y <= grid.Bottom; y += grid.StepY {
			zone := HoverZone{Index: k, X: x, Y: y, Width: grid.Width, Height: grid.Height}
			idx := k % n
			if e.cfg.Binding == BindGlyph {
				if run, ok := firstRunInside(runs, zone); ok {
					idx = run.ThreadIndex
				}
			}
			zone.ThreadIndex = idx
			zone.ThreadID = threads[idx].ID
			zones = append(zones, zone)
			k++
		}
	}
	return zones
}

func firstRunInside(runs []GlyphRun, zone HoverZone) (GlyphRun, bool) {
	for _, r := range runs {
		if zone.Contains(r.X, r.Y) {
			return r, true
		}
	}
	return GlyphRun{}, false
}
