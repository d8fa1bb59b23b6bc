package overlay

import (
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/uninspired/inspire-wall/backend/internal/model/thread"
	"github.com/uninspired/inspire-wall/backend/internal/service/layout"
)

type fakeTimer struct {
	clock   *fakeClock
	due     time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, due: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.due <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].due < due[j].due })
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

type fakeWall struct {
	layout layout.Layout
	store  *thread.Store
}

func (w *fakeWall) Layout() layout.Layout                 { return w.layout }
func (w *fakeWall) Find(id string) (thread.Thread, bool) { return w.store.Find(id) }

func newFakeWall(t *testing.T) *fakeWall {
	t.Helper()
	engine, err := layout.NewEngine(layout.DefaultConfig())
	require.NoError(t, err)
	threads := thread.Sample()
	return &fakeWall{
		layout: engine.Compute(threads, 1),
		store:  thread.NewStore(thread.DefaultDrop(), threads, thread.SourceSample),
	}
}

// Half-scale rendering: logical = (device - (100, 50)) * 2.
var testBox = Box{Left: 100, Top: 50, Width: 450, Height: 120}

func at(logicalX, logicalY float64) PointerEvent {
	return PointerEvent{
		Client:   Point{X: 100 + logicalX/2, Y: 50 + logicalY/2},
		Box:      testBox,
		Viewport: Viewport{Width: 1280, Height: 800},
	}
}

type recorder struct {
	mu     sync.Mutex
	frames []Frame
}

func (r *recorder) emit(f Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
}

func (r *recorder) all() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Frame(nil), r.frames...)
}

func newTestOverlay(t *testing.T) (*Overlay, *fakeClock, *recorder, *fakeWall) {
	t.Helper()
	wall := newFakeWall(t)
	clock := &fakeClock{}
	rec := &recorder{}
	o := New(wall, Config{Clock: clock, Emit: rec.emit})
	t.Cleanup(o.Close)
	return o, clock, rec, wall
}

func TestEnterZoneStartsTracking(t *testing.T) {
	o, _, _, wall := newTestOverlay(t)

	frame, err := o.Move(at(60, 60))
	require.NoError(t, err)

	assert.Equal(t, Tracking, frame.State)
	require.NotNil(t, frame.Zone)
	assert.Equal(t, 0, *frame.Zone)
	require.NotNil(t, frame.Lens)
	assert.InDelta(t, 60.0, frame.Lens.Center.X, 1e-9)

	want, ok := wall.store.Find(wall.layout.Zones[0].ThreadID)
	require.True(t, ok)
	assert.Equal(t, want.Digest(), frame.Lens.Word)
	assert.Equal(t, want.Label(), frame.Lens.Ordinal)
	assert.Equal(t, want.Color(), frame.Lens.Color)

	require.NotNil(t, frame.Tooltip)
	assert.NotEmpty(t, frame.Tooltip.ID)
	assert.Equal(t, want.Message, frame.Tooltip.Message)
	assert.Empty(t, frame.TooltipDestroyed)
}

func TestMoveWithinZoneKeepsTooltip(t *testing.T) {
	o, _, _, _ := newTestOverlay(t)

	first, err := o.Move(at(60, 60))
	require.NoError(t, err)
	second, err := o.Move(at(70, 75))
	require.NoError(t, err)

	assert.Equal(t, first.Tooltip.ID, second.Tooltip.ID)
	assert.Empty(t, second.TooltipDestroyed)
	assert.InDelta(t, 70.0, second.Lens.Center.X, 1e-9)
	assert.InDelta(t, 75.0, second.Lens.Center.Y, 1e-9)
}

func TestCrossingZonesRebinds(t *testing.T) {
	o, _, _, wall := newTestOverlay(t)

	first, err := o.Move(at(60, 60))
	require.NoError(t, err)
	second, err := o.Move(at(120, 60))
	require.NoError(t, err)

	require.NotNil(t, second.Zone)
	assert.Equal(t, 3, *second.Zone)
	assert.Equal(t, first.Tooltip.ID, second.TooltipDestroyed)
	assert.NotEqual(t, first.Tooltip.ID, second.Tooltip.ID)
	assert.Equal(t, wall.layout.Zones[3].ThreadID, second.Lens.ThreadID)
}

func TestLeaveHidesAfterDebounce(t *testing.T) {
	o, clock, rec, _ := newTestOverlay(t)

	entered, err := o.Move(at(60, 60))
	require.NoError(t, err)

	frame, err := o.Move(at(97, 60))
	require.NoError(t, err)
	assert.True(t, frame.HidePending)
	assert.Equal(t, Tracking, o.State())

	clock.Advance(299 * time.Millisecond)
	assert.Equal(t, Tracking, o.State())
	assert.Empty(t, rec.all())

	clock.Advance(time.Millisecond)
	assert.Equal(t, Idle, o.State())
	frames := rec.all()
	require.Len(t, frames, 1)
	assert.Equal(t, Idle, frames[0].State)
	assert.Equal(t, entered.Tooltip.ID, frames[0].TooltipDestroyed)
}

func TestReenterCancelsHide(t *testing.T) {
	o, clock, rec, _ := newTestOverlay(t)

	_, err := o.Move(at(60, 60))
	require.NoError(t, err)
	_, err = o.Move(PointerEvent{Leave: true})
	require.NoError(t, err)

	clock.Advance(150 * time.Millisecond)
	frame, err := o.Move(at(62, 62))
	require.NoError(t, err)
	assert.Equal(t, Tracking, frame.State)

	clock.Advance(time.Second)
	assert.Equal(t, Tracking, o.State())
	assert.Empty(t, rec.all())
}

func TestIdleOutsideZones(t *testing.T) {
	o, clock, rec, _ := newTestOverlay(t)

	frame, err := o.Move(at(5, 5))
	require.NoError(t, err)
	assert.Equal(t, Idle, frame.State)
	assert.Nil(t, frame.Lens)

	clock.Advance(time.Second)
	assert.Empty(t, rec.all())
}

func TestDegenerateBoxKeepsState(t *testing.T) {
	o, _, _, _ := newTestOverlay(t)

	_, err := o.Move(at(60, 60))
	require.NoError(t, err)

	ev := at(60, 60)
	ev.Box.Width = 0
	_, err = o.Move(ev)
	assert.ErrorIs(t, err, ErrDegenerateBox)
	assert.Equal(t, Tracking, o.State())
}

func TestMissingThreadRendersNeutralLens(t *testing.T) {
	o, _, _, wall := newTestOverlay(t)
	wall.store.Replace(thread.DefaultDrop(), nil, thread.SourceSample)

	frame, err := o.Move(at(60, 60))
	require.NoError(t, err)

	require.NotNil(t, frame.Lens)
	assert.Equal(t, thread.DefaultColor, frame.Lens.Color)
	assert.Equal(t, "thread", frame.Lens.Word)
	assert.Equal(t, "#000", frame.Lens.Ordinal)
	assert.Contains(t, frame.LensSVG, `stroke="#8a8a8a"`)
}

func TestLensSVGGeometry(t *testing.T) {
	lens := NewLens(Point{X: 100, Y: 100}, thread.Sample()[6])
	svg := lens.SVG()

	assert.Contains(t, svg, `r="75" fill="rgba(0,0,0,0.85)"`)
	assert.Contains(t, svg, `r="60" fill="none" stroke="#ff2eff" stroke-width="2" opacity="0.7"`)
	assert.Contains(t, svg, `y="95" text-anchor="middle" fill="#ff2eff" font-size="16"`)
	assert.Contains(t, svg, `>#007</text>`)
	assert.Contains(t, svg, `y="130" text-anchor="middle" fill="#ff2eff" font-size="9"`)
	assert.Contains(t, svg, `r="85" fill="none" stroke="#ff360a" stroke-width="4"`)
	assert.Contains(t, svg, `r="80" fill="none" stroke="#f8ff00" stroke-width="2"`)
	assert.Contains(t, svg, `x1="160" y1="160" x2="195" y2="195"`)
	assert.Equal(t, 4, strings.Count(svg, "<circle"))
}

func TestPlaceTooltipClamps(t *testing.T) {
	vp := Viewport{Width: 1000, Height: 700}

	left, top := placeTooltip(Point{X: 100, Y: 300}, vp)
	assert.Equal(t, 120.0, left)
	assert.Equal(t, 220.0, top)

	left, top = placeTooltip(Point{X: 950, Y: 10}, vp)
	assert.Equal(t, 700.0, left)
	assert.Equal(t, 20.0, top)

	_, top = placeTooltip(Point{X: 10, Y: 690}, vp)
	assert.Equal(t, 540.0, top)

	left, top = placeTooltip(Point{X: 10, Y: 100}, Viewport{Width: 200, Height: 100})
	assert.Equal(t, 0.0, left)
	assert.Equal(t, 20.0, top)
}

func TestRealClockHideDoesNotLeak(t *testing.T) {
	defer goleak.VerifyNone(t)

	wall := newFakeWall(t)
	hidden := make(chan Frame, 1)
	o := New(wall, Config{HideDelay: 10 * time.Millisecond, Emit: func(f Frame) { hidden <- f }})
	defer o.Close()

	_, err := o.Move(at(60, 60))
	require.NoError(t, err)
	_, err = o.Move(PointerEvent{Leave: true})
	require.NoError(t, err)

	select {
	case f := <-hidden:
		assert.Equal(t, Idle, f.State)
	case <-time.After(2 * time.Second):
		t.Fatal("hide was never emitted")
	}
}
