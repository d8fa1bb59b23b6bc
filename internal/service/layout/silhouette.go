package layout

// Shape is one element of the static silhouette clip. Exactly one of Path or
// the rect fields is used.
type Shape struct {
	Path       string
	X, Y, W, H float64
}

// Silhouette returns the "U INSPIRE" letterforms for the 900x240 canvas.
func Silhouette() []Shape {
	return []Shape{
		// U
		{Path: "M40 40 L40 160 Q40 200 80 200 L120 200 Q160 200 160 160 L160 40 L140 40 L140 150 Q140 180 120 180 L80 180 Q60 180 60 150 L60 40 Z"},
		// I
		{X: 200, Y: 40, W: 30, H: 160},
		{X: 190, Y: 40, W: 50, H: 20},
		{X: 190, Y: 180, W: 50, H: 20},
		// N
		{Path: "M280 40 L280 200 L300 200 L300 80 L320 200 L340 200 L340 40 L320 40 L320 160 L300 40 Z"},
		// S
		{X: 380, Y: 40, W: 70, H: 20},
		{X: 380, Y: 60, W: 20, H: 50},
		{X: 380, Y: 110, W: 70, H: 20},
		{X: 430, Y: 130, W: 20, H: 50},
		{X: 380, Y: 180, W: 70, H: 20},
		// P
		{Path: "M490 40 L490 200 L510 200 L510 130 L540 130 Q570 130 570 100 L570 70 Q570 40 540 40 Z M510 60 L540 60 Q550 60 550 70 L550 100 Q550 110 540 110 L510 110 Z"},
		// I
		{X: 610, Y: 40, W: 30, H: 160},
		{X: 600, Y: 40, W: 50, H: 20},
		{X: 600, Y: 180, W: 50, H: 20},
		// R
		{Path: "M690 40 L690 200 L710 200 L710 130 L730 130 L750 200 L770 200 L745 125 Q760 120 760 100 L760 70 Q760 40 730 40 Z M710 60 L730 60 Q740 60 740 70 L740 100 Q740 110 730 110 L710 110 Z"},
		// E
		{X: 810, Y: 40, W: 80, H: 20},
		{X: 810, Y: 60, W: 25, H: 60},
		{X: 810, Y: 120, W: 70, H: 20},
		{X: 810, Y: 140, W: 25, H: 40},
		{X: 810, Y: 180, W: 80, H: 20},
	}
}
