package qr

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"go.uber.org/zap"
)

// Logos loads logo images. *LogoLoader is the production implementation.
type Logos interface {
	Load(ctx context.Context, source string, size int) (image.Image, error)
}

// Compositor turns rendered vector markup into the final encoded image.
type Compositor struct {
	Logos       Logos
	JPEGQuality int
	Log         *zap.Logger
}

// Compose encodes canvas in the requested format, drawing the logo when img.Show
// is set, and returns a data URI. Raster formats skip a logo that cannot be
// loaded; the svg format returns the error.
func (c *Compositor) Compose(ctx context.Context, canvas Canvas, img ImagePlacement, format Format) (string, error) {
	if format == FormatSVG {
		return c.composeSVG(ctx, canvas, img)
	}
	return c.composeRaster(ctx, canvas, img, format)
}

func (c *Compositor) composeRaster(ctx context.Context, canvas Canvas, img ImagePlacement, format Format) (string, error) {
	surface, err := rasterizeSVG(strings.NewReader(canvas.Markup), canvas.Size, canvas.Size, oksvg.StrictErrorMode)
	if err != nil {
		return "", fmt.Errorf("rasterize qr: %w", err)
	}

	var out image.Image = surface
	if img.Show {
		logo, err := c.Logos.Load(ctx, img.Image, img.Size)
		if err != nil {
			c.logger().Warn("logo skipped", zap.String("source", img.Image), zap.Error(err))
		} else {
			out = imaging.Overlay(surface, logo, image.Pt(img.Position, img.Position), 1.0)
		}
	}

	var (
		buf     bytes.Buffer
		imgFmt  = imaging.PNG
		options []imaging.EncodeOption
	)
	if format == FormatJPEG {
		imgFmt = imaging.JPEG
		options = append(options, imaging.JPEGQuality(c.jpegQuality()))
	}
	if err := imaging.Encode(&buf, out, imgFmt, options...); err != nil {
		return "", fmt.Errorf("encode %s: %w", format, err)
	}
	return DataURI(string(format), buf.Bytes()), nil
}

func (c *Compositor) composeSVG(ctx context.Context, canvas Canvas, img ImagePlacement) (string, error) {
	doc := canvas.Markup
	if img.Show {
		logo, err := c.Logos.Load(ctx, img.Image, img.Size)
		if err != nil {
			return "", err
		}
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, logo, imaging.PNG); err != nil {
			return "", fmt.Errorf("encode logo: %w", err)
		}
		element := fmt.Sprintf(`<image x="%d" y="%d" width="%d" height="%d" preserveAspectRatio="none" href="%s"/>`,
			img.Position, img.Position, img.Size, img.Size, DataURI("png", buf.Bytes()))
		doc = strings.TrimSuffix(doc, svgClose) + element + svgClose
	}
	return DataURI("svg", []byte(doc)), nil
}

func (c *Compositor) jpegQuality() int {
	if c.JPEGQuality <= 0 || c.JPEGQuality > 100 {
		return 75
	}
	return c.JPEGQuality
}

func (c *Compositor) logger() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}

// DataURI returns data:image/<subtype>;base64,<payload>.
func DataURI(subtype string, payload []byte) string {
	return "data:image/" + subtype + ";base64," + base64.StdEncoding.EncodeToString(payload)
}

// rasterizeSVG draws the SVG document in r onto a w x h RGBA surface.
func rasterizeSVG(r io.Reader, w, h int, mode oksvg.ErrorMode) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(r, mode)
	if err != nil {
		return nil, err
	}
	if icon.ViewBox.W <= 0 || icon.ViewBox.H <= 0 {
		icon.ViewBox.W, icon.ViewBox.H = float64(w), float64(h)
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	surface := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, surface, surface.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)
	return surface, nil
}

func rasterizeLogoSVG(data []byte, size int) (image.Image, error) {
	surface, err := rasterizeSVG(bytes.NewReader(data), size, size, oksvg.WarnErrorMode)
	if err != nil {
		return nil, err
	}
	if transparent(surface) {
		return nil, fmt.Errorf("svg logo rendered nothing")
	}
	return surface, nil
}

// transparent reports whether every pixel of img is fully transparent.
func transparent(img image.Image) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0 {
				return false
			}
		}
	}
	return true
}
