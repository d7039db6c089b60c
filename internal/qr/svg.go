package qr

import (
	"fmt"
	"html"
	"strconv"
	"strings"
)

const svgNamespace = "http://www.w3.org/2000/svg"

// Canvas is rendered vector markup together with its pixel dimension.
type Canvas struct {
	Size   int
	Markup string
}

// RenderSVG emits one rect per module, blanking the logo keep-out zone.
func RenderSVG(m Matrix, cfg RenderConfig, img ImagePlacement) Canvas {
	size := cfg.BlockSize * m.Size
	radius := formatFloat(float64(cfg.BlockSize) / 2 * cfg.Radius.Fraction())
	margin := (cfg.ImageMargin / cfg.BlockSize) * cfg.BlockSize
	ignoreStart := img.Position - margin
	ignoreEnd := img.Position + img.Size + margin

	fg := paintAttrs(cfg.ForegroundColor)
	bg := paintAttrs(cfg.BackgroundColor)

	// The keep-out zone takes the background color unless inverted. Inverted
	// output fills it with the foreground, which reads as "empty" only in the
	// un-inverted sense.
	keepOut := bg
	if cfg.Inverted {
		keepOut = fg
	}

	var b strings.Builder
	b.Grow(m.Size * m.Size * 64)
	writeSVGOpen(&b, size)
	for row := 0; row < m.Size; row++ {
		for col := 0; col < m.Size; col++ {
			x := col * cfg.BlockSize
			y := row * cfg.BlockSize

			fill := bg
			if m.At(row, col) != cfg.Inverted {
				fill = fg
			}
			if cfg.AddImage && insideSquare(x, y, ignoreStart, ignoreEnd) {
				fill = keepOut
			}

			fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%d" height="%d" rx="%s" ry="%s" %s/>`,
				x, y, cfg.BlockSize, cfg.BlockSize, radius, radius, fill)
		}
	}
	b.WriteString(svgClose)

	return Canvas{Size: size, Markup: b.String()}
}

const svgClose = `</svg>`

func writeSVGOpen(b *strings.Builder, size int) {
	fmt.Fprintf(b, `<svg version="1.1" width="%d" height="%d" viewBox="0 0 %d %d" xmlns="%s">`,
		size, size, size, size, svgNamespace)
}

// paintAttrs renders color as fill attributes. Colors that fail ParsePaint
// are written as-is, escaped; Resolve never lets them through.
func paintAttrs(color string) string {
	p, err := ParsePaint(color)
	if err != nil {
		return `fill="` + html.EscapeString(color) + `"`
	}
	return p.attrs()
}

func insideSquare(x, y, start, end int) bool {
	return x >= start && x < end && y >= start && y < end
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
