// Package export renders runs as standalone SVG images.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/atomsim/internal/viz"
)

const svgHeader = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`

// CanvasToSVG draws every raised dot of a Braille canvas as a circle,
// scale pixels apart.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	dw, dh := canvas.DotSize()
	width, height := float64(dw)*scale, float64(dh)*scale

	var sb strings.Builder
	fmt.Fprintf(&sb, svgHeader, width, height, width, height)
	sb.WriteString("<g fill=\"#ff66cc\">\n")

	r := scale * 0.4
	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			if canvas.IsSet(x, y) {
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
					float64(x)*scale+scale/2, float64(y)*scale+scale/2, r)
			}
		}
	}

	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// SeriesToSVG draws a metric time series as a polyline with a caption.
// Non-finite samples break the line. At least two samples are needed.
func SeriesToSVG(times, values []float64, caption string, width, height int, stroke string) string {
	n := min(len(times), len(values))
	if n < 2 {
		return ""
	}

	minX, maxX := times[0], times[n-1]
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, v := range values[:n] {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		minY, maxY = math.Min(minY, v), math.Max(maxY, v)
	}
	if math.IsInf(minY, 1) {
		return ""
	}

	lo, hi := minY, maxY
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = math.Max(math.Abs(maxY), 1)
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	w, h := float64(width), float64(height)
	var sb strings.Builder
	fmt.Fprintf(&sb, svgHeader, w, h, w, h)
	fmt.Fprintf(&sb, "<text x=\"8\" y=\"16\" fill=\"#aaaaaa\" font-family=\"monospace\" font-size=\"12\">%s [%.3g, %.3g]</text>\n",
		escape(caption), lo, hi)
	fmt.Fprintf(&sb, "<path fill=\"none\" stroke=\"%s\" stroke-width=\"1.5\" d=\"", stroke)

	pen := false
	for i := 0; i < n; i++ {
		v := values[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			pen = false
			continue
		}
		x := (times[i] - minX) / rangeX * w
		y := h - (v-minY)/rangeY*h
		if pen {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " M%.1f,%.1f", x, y)
			pen = true
		}
	}

	sb.WriteString("\"/>\n</svg>\n")
	return sb.String()
}

var svgEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string { return svgEscaper.Replace(s) }
