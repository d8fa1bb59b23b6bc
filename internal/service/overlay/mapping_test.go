package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uninspired/inspire-wall/backend/internal/service/layout"
)

func TestMappingRoundTrip(t *testing.T) {
	logical := layout.Size{Width: 900, Height: 240}
	boxes := []Box{
		{Left: 0, Top: 0, Width: 900, Height: 240},
		{Left: 12.5, Top: 310, Width: 1440, Height: 384},
		{Left: -40, Top: 7, Width: 333.3, Height: 91.7},
	}
	for _, box := range boxes {
		m, err := NewMapping(logical, box)
		require.NoError(t, err)

		for _, p := range []Point{{0, 0}, {17, 803}, {box.Left + box.Width, box.Top + box.Height}, {-5.25, 1e4}} {
			back := m.ToDevice(m.ToLogical(p))
			assert.InDelta(t, p.X, back.X, 1e-9)
			assert.InDelta(t, p.Y, back.Y, 1e-9)
		}
	}
}

func TestMappingScalesEachAxis(t *testing.T) {
	m, err := NewMapping(layout.Size{Width: 900, Height: 240}, Box{Left: 100, Top: 50, Width: 450, Height: 60})
	require.NoError(t, err)

	got := m.ToLogical(Point{X: 325, Y: 80})
	assert.InDelta(t, 450.0, got.X, 1e-9)
	assert.InDelta(t, 120.0, got.Y, 1e-9)
}

func TestMappingDegenerateBox(t *testing.T) {
	_, err := NewMapping(layout.Size{Width: 900, Height: 240}, Box{Width: 0, Height: 100})
	assert.ErrorIs(t, err, ErrDegenerateBox)

	_, err = NewMapping(layout.Size{Width: 900, Height: 240}, Box{Width: 100, Height: -1})
	assert.ErrorIs(t, err, ErrDegenerateBox)
}
