package qr

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// LogoLoader resolves a logo source reference and decodes it to a square image.
//
// Supported sources are http(s) URLs, data: URIs and, when AllowFiles is set,
// local file paths. SVG logos are rasterized directly at the requested size.
type LogoLoader struct {
	Client     *http.Client
	Timeout    time.Duration
	MaxBytes   int64
	AllowFiles bool
	// MaxPixels bounds the declared width*height of raster logos. Zero disables the check.
	MaxPixels int
}

// DefaultLogoMaxPixels is 4096x4096.
const DefaultLogoMaxPixels = 4096 * 4096

// NewLogoLoader returns a loader with an HTTP client bounded by timeout.
func NewLogoLoader(timeout time.Duration, maxBytes int64, allowFiles bool) *LogoLoader {
	return &LogoLoader{
		Client:     &http.Client{Timeout: timeout},
		Timeout:    timeout,
		MaxBytes:   maxBytes,
		AllowFiles: allowFiles,
		MaxPixels:  DefaultLogoMaxPixels,
	}
}

// Load fetches source and returns it scaled to size x size.
// All failures wrap ErrLogoUnavailable.
func (l *LogoLoader) Load(ctx context.Context, source string, size int) (image.Image, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: non-positive logo size %d", ErrLogoUnavailable, size)
	}
	data, mediaType, err := l.read(ctx, strings.TrimSpace(source))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLogoUnavailable, err)
	}
	img, err := l.decode(data, mediaType, size)
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrLogoUnavailable, err)
	}
	return img, nil
}

func (l *LogoLoader) read(ctx context.Context, source string) ([]byte, string, error) {
	switch {
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return l.fetch(ctx, source)
	case strings.HasPrefix(source, "data:"):
		return parseDataURI(source)
	case l.AllowFiles && source != "":
		f, err := os.Open(source)
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		b, err := l.readLimited(f)
		return b, "", err
	}
	return nil, "", fmt.Errorf("unsupported logo source %q", source)
}

func (l *LogoLoader) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", "image/*")

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}
	b, err := l.readLimited(resp.Body)
	return b, resp.Header.Get("Content-Type"), err
}

func (l *LogoLoader) readLimited(r io.Reader) ([]byte, error) {
	if l.MaxBytes <= 0 {
		return io.ReadAll(r)
	}
	b, err := io.ReadAll(io.LimitReader(r, l.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > l.MaxBytes {
		return nil, fmt.Errorf("logo exceeds %d bytes", l.MaxBytes)
	}
	return b, nil
}

// parseDataURI decodes data:[<mediatype>][;base64],<data>.
func parseDataURI(uri string) ([]byte, string, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, "", fmt.Errorf("malformed data URI")
	}
	mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
	if isBase64 {
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", fmt.Errorf("data URI: %w", err)
		}
		return b, mediaType, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, "", fmt.Errorf("data URI: %w", err)
	}
	return []byte(s), mediaType, nil
}

func (l *LogoLoader) decode(data []byte, mediaType string, size int) (image.Image, error) {
	if isSVG(data, mediaType) {
		return rasterizeLogoSVG(data, size)
	}
	if l.MaxPixels > 0 {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > l.MaxPixels/cfg.Height {
			return nil, fmt.Errorf("logo dimensions %dx%d exceed %d pixels", cfg.Width, cfg.Height, l.MaxPixels)
		}
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	return imaging.Resize(img, size, size, imaging.Lanczos), nil
}

func isSVG(data []byte, mediaType string) bool {
	if strings.Contains(strings.ToLower(mediaType), "svg") {
		return true
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(head, []byte("<svg"))
}
