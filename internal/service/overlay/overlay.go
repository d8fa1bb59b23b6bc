package overlay

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/uninspired/inspire-wall/backend/internal/model/thread"
	"github.com/uninspired/inspire-wall/backend/internal/service/layout"
)

// DefaultHideDelay is how long the lens survives after the pointer leaves
// every zone, so crossing the gap between two zones does not flicker.
const DefaultHideDelay = 300 * time.Millisecond

// State of one pointer's overlay.
type State string

const (
	Idle     State = "idle"
	Tracking State = "tracking"
)

// Timer is the handle returned by Clock.AfterFunc.
type Timer interface {
	Stop() bool
}

// Clock schedules the debounced hide.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Wall is what an overlay reads on every move: the current layout and the
// threads behind its zones.
type Wall interface {
	Layout() layout.Layout
	Find(id string) (thread.Thread, bool)
}

// PointerEvent is one pointer move as reported by the client. The element box
// travels with every event because the wall can reflow at any time.
type PointerEvent struct {
	Client   Point    `json:"client"`
	Box      Box      `json:"box"`
	Viewport Viewport `json:"viewport"`
	// Leave is set when the pointer left the wall element altogether.
	Leave bool `json:"leave,omitempty"`
}

// Frame is what the client should draw after an event.
type Frame struct {
	State            State    `json:"state"`
	Logical          *Point   `json:"logical,omitempty"`
	Zone             *int     `json:"zone,omitempty"`
	Lens             *Lens    `json:"lens,omitempty"`
	LensSVG          string   `json:"lensSvg,omitempty"`
	Tooltip          *Tooltip `json:"tooltip,omitempty"`
	TooltipDestroyed string   `json:"tooltipDestroyed,omitempty"`
	HidePending      bool     `json:"hidePending,omitempty"`
}

// Config tunes an Overlay. Zero values select defaults.
type Config struct {
	Clock     Clock
	HideDelay time.Duration
	// Emit receives frames produced outside Move, i.e. the debounced hide.
	Emit   func(Frame)
	Logger *zap.Logger
}

// Overlay is the lens state machine for a single pointer. Move and the hide
// timer may run on different goroutines.
type Overlay struct {
	wall      Wall
	clock     Clock
	hideDelay time.Duration
	emit      func(Frame)
	logger    *zap.Logger

	mu        sync.Mutex
	state     State
	zone      layout.HoverZone
	bound     thread.Thread
	tooltip   *Tooltip
	hideTimer Timer
	hideSeq   uint64
	closed    bool
}

// New returns an Idle overlay over wall.
func New(wall Wall, cfg Config) *Overlay {
	o := &Overlay{
		wall:      wall,
		clock:     cfg.Clock,
		hideDelay: cfg.HideDelay,
		emit:      cfg.Emit,
		logger:    cfg.Logger,
		state:     Idle,
	}
	if o.clock == nil {
		o.clock = realClock{}
	}
	if o.hideDelay <= 0 {
		o.hideDelay = DefaultHideDelay
	}
	if o.emit == nil {
		o.emit = func(Frame) {}
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// State reports the current state.
func (o *Overlay) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Move advances the state machine by one pointer event. A degenerate element
// box is reported as ErrDegenerateBox and leaves the state untouched.
func (o *Overlay) Move(ev PointerEvent) (Frame, error) {
	l := o.wall.Layout()
	mapping, err := NewMapping(l.Canvas, ev.Box)
	if err != nil && !ev.Leave {
		return Frame{}, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return Frame{State: Idle}, errors.New("overlay: closed")
	}

	if ev.Leave {
		return o.leaveLocked(), nil
	}

	p := mapping.ToLogical(ev.Client)
	zone, ok := l.Zone(p.X, p.Y)
	if !ok {
		frame := o.leaveLocked()
		frame.Logical = &p
		return frame, nil
	}

	o.cancelHideLocked()

	frame := Frame{State: Tracking, Logical: &p}
	if o.state == Idle || zone.Index != o.zone.Index || zone.ThreadID != o.zone.ThreadID {
		if o.tooltip != nil {
			frame.TooltipDestroyed = o.tooltip.ID
		}
		o.state = Tracking
		o.zone = zone
		o.bound = o.resolve(zone)
		o.tooltip = newTooltip(ev.Client, ev.Viewport, o.bound)
	}

	idx := o.zone.Index
	lens := NewLens(p, o.bound)
	frame.Zone = &idx
	frame.Lens = &lens
	frame.LensSVG = lens.SVG()
	frame.Tooltip = o.tooltip
	return frame, nil
}

// Close cancels any pending hide. Later events are rejected.
func (o *Overlay) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cancelHideLocked()
	o.closed = true
	o.state = Idle
	o.tooltip = nil
}

func (o *Overlay) leaveLocked() Frame {
	if o.state == Idle {
		return Frame{State: Idle}
	}
	if o.hideTimer == nil {
		o.hideSeq++
		seq := o.hideSeq
		o.hideTimer = o.clock.AfterFunc(o.hideDelay, func() { o.fireHide(seq) })
	}
	return Frame{State: Tracking, HidePending: true}
}

func (o *Overlay) cancelHideLocked() {
	if o.hideTimer != nil {
		o.hideTimer.Stop()
		o.hideTimer = nil
	}
	// Invalidate a callback that already started but has not taken the lock.
	o.hideSeq++
}

func (o *Overlay) fireHide(seq uint64) {
	o.mu.Lock()
	if o.closed || seq != o.hideSeq || o.state != Tracking {
		o.mu.Unlock()
		return
	}
	frame := Frame{State: Idle}
	if o.tooltip != nil {
		frame.TooltipDestroyed = o.tooltip.ID
	}
	o.state = Idle
	o.tooltip = nil
	o.hideTimer = nil
	o.bound = thread.Thread{}
	o.zone = layout.HoverZone{}
	o.mu.Unlock()

	o.emit(frame)
}

// resolve looks up the zone's thread, degrading to neutral placeholder
// content when the store no longer holds it.
func (o *Overlay) resolve(zone layout.HoverZone) thread.Thread {
	if zone.ThreadID != "" {
		if t, ok := o.wall.Find(zone.ThreadID); ok {
			return t
		}
	}
	err := &layout.LayoutError{ZoneIndex: zone.Index, ThreadID: zone.ThreadID, Reason: "zone has no bound thread"}
	o.logger.Warn("render neutral lens", zap.Error(err))
	return thread.Thread{ID: zone.ThreadID}
}
