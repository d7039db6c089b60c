package qr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput marks errors caused by caller-supplied values.
	ErrInvalidInput = errors.New("invalid input")
	// ErrLogoUnavailable marks logo fetch or decode failures.
	ErrLogoUnavailable = errors.New("logo unavailable")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Percent is a percentage restricted to [0,100].
type Percent float64

// NewPercent validates v and returns it as a Percent.
func NewPercent(v float64) (Percent, error) {
	if v < 0 || v > 100 {
		return 0, invalidf("percentage %v out of range [0,100]", v)
	}
	return Percent(v), nil
}

// Fraction returns p as a value in [0,1].
func (p Percent) Fraction() float64 { return float64(p) * 0.01 }

// ECLevel is a QR error correction level.
type ECLevel string

const (
	ECLevelL ECLevel = "L"
	ECLevelM ECLevel = "M"
	ECLevelQ ECLevel = "Q"
	ECLevelH ECLevel = "H"
)

// ParseECLevel accepts the single letter form or the long name, case-insensitive.
func ParseECLevel(s string) (ECLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "l", "low":
		return ECLevelL, nil
	case "m", "medium":
		return ECLevelM, nil
	case "q", "quartile":
		return ECLevelQ, nil
	case "h", "high":
		return ECLevelH, nil
	}
	return "", invalidf("unknown error correction level %q", s)
}

// Format is the encoded output format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatSVG  Format = "svg"
)

// ParseFormat maps a requested format to a Format. Unknown values fall back to png.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "svg":
		return FormatSVG
	case "jpg", "jpeg":
		return FormatJPEG
	default:
		return FormatPNG
	}
}

// ValidColor reports whether s is a color the SVG renderer understands.
// See ParsePaint for the accepted forms.
func ValidColor(s string) bool {
	_, err := ParsePaint(s)
	return err == nil
}

// RenderConfig is the fully resolved set of rendering options.
type RenderConfig struct {
	Data                 string
	Inverted             bool
	BlockSize            int
	Radius               Percent
	ForegroundColor      string
	BackgroundColor      string
	AddImage             bool
	Image                string
	ImageSize            Percent
	ImageMargin          int
	ErrorCorrectionLevel ECLevel
	Format               Format
}

// Request carries caller-supplied options. Zero values mean "use the default",
// except for the pointer fields, which are defaulted only when nil.
type Request struct {
	Data                 string
	Inverted             *bool
	BlockSize            int
	Radius               float64
	ForegroundColor      string
	BackgroundColor      string
	AddImage             *bool
	Image                string
	ImageSize            float64
	ImageMargin          int
	ErrorCorrectionLevel string
	Format               string
}

// Defaults holds the process-wide default values. It is never mutated after startup.
type Defaults struct {
	Data                 string
	Inverted             bool
	BlockSize            int
	Radius               float64
	ForegroundColor      string
	BackgroundColor      string
	AddImage             bool
	Image                string
	ImageSize            float64
	ImageMargin          int
	ErrorCorrectionLevel string
	Format               string
}

// DefaultData and DefaultImage are the built-in fallbacks for Data and Image.
const (
	DefaultData  = "https://moodle.ingenieria.lasalle.mx/course/view.php?id=41"
	DefaultImage = "https://upload.wikimedia.org/wikipedia/commons/thumb/9/93/Logo_de_la_Universidad_La_Salle_sin_letras.svg/1200px-Logo_de_la_Universidad_La_Salle_sin_letras.svg.png"
)

// DefaultDefaults returns the built-in defaults table.
func DefaultDefaults() Defaults {
	return Defaults{
		Data:                 DefaultData,
		BlockSize:            10,
		ForegroundColor:      "#000000",
		BackgroundColor:      "#ffffff",
		AddImage:             true,
		Image:                DefaultImage,
		ImageSize:            30,
		ImageMargin:          10,
		ErrorCorrectionLevel: "H",
		Format:               "png",
	}
}

// Resolve merges req over d and validates the result. It does not modify its inputs.
func Resolve(req Request, d Defaults) (RenderConfig, error) {
	cfg := RenderConfig{
		Data:            orString(req.Data, d.Data),
		Inverted:        orBool(req.Inverted, d.Inverted),
		BlockSize:       orInt(req.BlockSize, d.BlockSize),
		ForegroundColor: orString(req.ForegroundColor, d.ForegroundColor),
		BackgroundColor: orString(req.BackgroundColor, d.BackgroundColor),
		AddImage:        orBool(req.AddImage, d.AddImage),
		Image:           orString(req.Image, d.Image),
		ImageMargin:     orInt(req.ImageMargin, d.ImageMargin),
		Format:          ParseFormat(orString(req.Format, d.Format)),
	}

	if cfg.BlockSize <= 0 {
		return RenderConfig{}, invalidf("blockSize must be positive, got %d", cfg.BlockSize)
	}
	if cfg.ImageMargin < 0 {
		return RenderConfig{}, invalidf("imageMargin must not be negative, got %d", cfg.ImageMargin)
	}

	var err error
	if cfg.Radius, err = NewPercent(orFloat(req.Radius, d.Radius)); err != nil {
		return RenderConfig{}, fmt.Errorf("radius: %w", err)
	}
	if cfg.ImageSize, err = NewPercent(orFloat(req.ImageSize, d.ImageSize)); err != nil {
		return RenderConfig{}, fmt.Errorf("imageSize: %w", err)
	}
	if cfg.ErrorCorrectionLevel, err = ParseECLevel(orString(req.ErrorCorrectionLevel, d.ErrorCorrectionLevel)); err != nil {
		return RenderConfig{}, err
	}

	if !ValidColor(cfg.ForegroundColor) {
		return RenderConfig{}, invalidf("foregroundColor %q is not a valid color", cfg.ForegroundColor)
	}
	if !ValidColor(cfg.BackgroundColor) {
		return RenderConfig{}, invalidf("backgroundColor %q is not a valid color", cfg.BackgroundColor)
	}

	return cfg, nil
}

func orString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orFloat(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func orBool(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
