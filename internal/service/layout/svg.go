package layout

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	svgBackground = "#f7f5f0"
	svgFontFamily = "'Koulen', sans-serif"
	placeholder   = "LOADING THREADS"
)

// RenderSVG writes the wall as a standalone SVG document: the silhouette
// clip, the clipped glyph-runs, transparent hover zones and an empty lens
// group for the client to fill.
func RenderSVG(w io.Writer, l Layout) error {
	bw := bufio.NewWriter(w)
	p := func(format string, args ...any) {
		fmt.Fprintf(bw, format, args...)
	}

	p(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s" width="%s" height="%s" style="background-color:%s">`,
		num(l.Canvas.Width), num(l.Canvas.Height), num(l.Canvas.Width), num(l.Canvas.Height), svgBackground)
	p(`<defs><clipPath id="letterClip">`)
	for _, s := range Silhouette() {
		if s.Path != "" {
			p(`<path d="%s"/>`, s.Path)
			continue
		}
		p(`<rect x="%s" y="%s" width="%s" height="%s"/>`, num(s.X), num(s.Y), num(s.W), num(s.H))
	}
	p(`</clipPath><clipPath id="magnifyMask"><circle cx="0" cy="0" r="%s"/></clipPath></defs>`, num(lensMaskRadius))

	p(`<g id="textGroup" clip-path="url(#letterClip)">`)
	if l.Placeholder {
		p(`<text x="%s" y="%s" text-anchor="middle" font-size="24" font-family="%s" fill="#8a8a8a">%s</text>`,
			num(l.Canvas.Width/2), num(l.Canvas.Height/2), svgFontFamily, placeholder)
	}
	for _, r := range l.Runs {
		p(`<text x="%s" y="%s" fill="%s" font-size="%s" font-family="%s" writing-mode="vertical-rl" text-orientation="mixed" data-thread-id="%s">`,
			num(r.X), num(r.Y), attr(r.Color), num(r.FontSize), svgFontFamily, attr(r.ThreadID))
		_ = xml.EscapeText(bw, []byte(r.Word))
		p(`</text>`)
	}
	p(`</g>`)

	p(`<g id="hoverGroup">`)
	for _, z := range l.Zones {
		p(`<rect x="%s" y="%s" width="%s" height="%s" fill="transparent" data-zone="%d" data-thread-id="%s"/>`,
			num(z.X), num(z.Y), num(z.Width), num(z.Height), z.Index, attr(z.ThreadID))
	}
	p(`</g>`)
	p(`<g id="magnifyGroup" style="display:none"></g>`)
	p(`</svg>`)

	return bw.Flush()
}

// lensMaskRadius matches the lens clip in the overlay package.
const lensMaskRadius = 80.0

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func attr(v string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(v))
	return b.String()
}
