package qr

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"github.com/srwiley/oksvg"
)

// Paint is a fill the vector renderer can draw: an opaque SVG color plus an
// opacity in [0,1].
type Paint struct {
	Fill    string
	Opacity float64
}

// ParsePaint accepts the CSS colors oksvg understands (names, #rgb, #rrggbb,
// rgb(), hsl()) and the alpha forms it does not (transparent, #rgba,
// #rrggbbaa, rgba(), hsla()), which are split into a color and an opacity.
func ParsePaint(s string) (Paint, error) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)

	var (
		p   Paint
		err error
	)
	switch {
	case lower == "" || lower == "none" || strings.HasPrefix(lower, "url"):
		return Paint{}, fmt.Errorf("unsupported color %q", s)
	case lower == "transparent":
		return Paint{Fill: "#000000", Opacity: 0}, nil
	case strings.HasPrefix(lower, "#"):
		p, err = parseHexPaint(lower)
	case strings.HasPrefix(lower, "rgb"), strings.HasPrefix(lower, "hsl"):
		p, err = parseFuncPaint(lower)
	default:
		p = Paint{Fill: lower, Opacity: 1}
	}
	if err != nil {
		return Paint{}, err
	}

	c, err := oksvg.ParseSVGColor(p.Fill)
	if err != nil || c == nil {
		return Paint{}, fmt.Errorf("unsupported color %q", s)
	}
	return p, nil
}

func parseHexPaint(s string) (Paint, error) {
	hex := s[1:]
	alpha := "ff"
	switch len(hex) {
	case 3, 6:
	case 4:
		alpha = strings.Repeat(hex[3:], 2)
		hex = hex[:3]
	case 8:
		alpha = hex[6:]
		hex = hex[:6]
	default:
		return Paint{}, fmt.Errorf("hex color %q must have 3, 4, 6 or 8 digits", s)
	}
	a, err := strconv.ParseUint(alpha, 16, 8)
	if err != nil {
		return Paint{}, fmt.Errorf("hex color %q: %w", s, err)
	}
	return Paint{Fill: "#" + hex, Opacity: float64(a) / 255}, nil
}

// parseFuncPaint handles rgb(), rgba(), hsl() and hsla() with comma-separated
// arguments.
func parseFuncPaint(s string) (Paint, error) {
	name, args, ok := strings.Cut(s, "(")
	if !ok || !strings.HasSuffix(args, ")") {
		return Paint{}, fmt.Errorf("malformed color %q", s)
	}
	parts := strings.Split(strings.TrimSuffix(args, ")"), ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return Paint{}, fmt.Errorf("malformed color %q", s)
		}
	}

	base := strings.TrimSuffix(strings.TrimSpace(name), "a")
	if base != "rgb" && base != "hsl" {
		return Paint{}, fmt.Errorf("unsupported color function %q", name)
	}

	opacity := 1.0
	switch len(parts) {
	case 3:
	case 4:
		a, err := parseAlpha(parts[3])
		if err != nil {
			return Paint{}, fmt.Errorf("color %q: %w", s, err)
		}
		opacity = a
		parts = parts[:3]
	default:
		return Paint{}, fmt.Errorf("color %q needs 3 or 4 arguments", s)
	}
	if base == "hsl" && (!strings.HasSuffix(parts[1], "%") || !strings.HasSuffix(parts[2], "%")) {
		return Paint{}, fmt.Errorf("hsl color %q needs percentage saturation and lightness", s)
	}
	return Paint{Fill: base + "(" + strings.Join(parts, ",") + ")", Opacity: opacity}, nil
}

func parseAlpha(s string) (float64, error) {
	pct := strings.HasSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil || math.IsNaN(v) {
		return 0, fmt.Errorf("invalid alpha %q", s)
	}
	if pct {
		v /= 100
	}
	return math.Max(0, math.Min(1, v)), nil
}

// attrs renders p as fill attributes, omitting fill-opacity when opaque.
func (p Paint) attrs() string {
	fill := `fill="` + html.EscapeString(p.Fill) + `"`
	if p.Opacity >= 1 {
		return fill
	}
	return fill + ` fill-opacity="` + formatFloat(math.Round(p.Opacity*1000)/1000) + `"`
}
