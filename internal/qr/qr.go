// Package qr renders styled QR codes as data URIs.
//
// Rendering runs in four steps: the Encoder produces the module matrix,
// PlaceImage computes the centered logo box, RenderSVG emits one rect per
// module, and the Compositor rasterizes (or keeps vector output), overlays
// the logo and encodes the result.
package qr

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
)

// Generator runs the full rendering pipeline. It holds no per-request state
// and is safe for concurrent use.
type Generator struct {
	Encoder Encoder
	Compose *Compositor
	// MaxImageSize bounds the output edge in pixels. Zero falls back to
	// math.MaxInt32, which only guards against overflow.
	MaxImageSize int
	Log          *zap.Logger
}

// Generate renders cfg and returns the encoded image as a data URI.
func (g *Generator) Generate(ctx context.Context, cfg RenderConfig) (string, error) {
	m, err := g.Encoder.Encode(cfg.Data, cfg.ErrorCorrectionLevel)
	if err != nil {
		return "", err
	}

	if err := g.checkEdge(m.Size, cfg.BlockSize); err != nil {
		return "", err
	}

	img := PlaceImage(m.Size, cfg)
	canvas := RenderSVG(m, cfg, img)

	if g.Log != nil {
		g.Log.Debug("qr rendered",
			zap.Int("modules", m.Size),
			zap.Int("size", canvas.Size),
			zap.String("format", string(cfg.Format)),
			zap.Bool("logo", img.Show),
		)
	}

	uri, err := g.Compose.Compose(ctx, canvas, img, cfg.Format)
	if err != nil {
		return "", fmt.Errorf("compose %s: %w", cfg.Format, err)
	}
	return uri, nil
}

// checkEdge rejects outputs whose edge would exceed MaxImageSize. It divides
// instead of multiplying so huge block sizes cannot wrap past the limit.
func (g *Generator) checkEdge(modules, blockSize int) error {
	limit := g.MaxImageSize
	if limit <= 0 {
		limit = math.MaxInt32
	}
	if modules <= 0 {
		return fmt.Errorf("encoder returned an empty matrix")
	}
	if blockSize > limit/modules {
		return invalidf("image edge of %d modules x %dpx exceeds limit of %dpx, lower blockSize", modules, blockSize, limit)
	}
	return nil
}
