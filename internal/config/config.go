// Package config loads service settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/cristianadrielbraun/qrstyle/internal/qr"
	"github.com/cristianadrielbraun/qrstyle/web/components"
)

// Config is the process-wide configuration. It is read once at startup.
type Config struct {
	Port            string        `env:"PORT" envDefault:"3000"`
	GinMode         string        `env:"GIN_MODE" envDefault:"release"`
	Debug           bool          `env:"DEBUG" envDefault:"false"`
	MaxBodyBytes    int64         `env:"MAX_BODY_BYTES" envDefault:"1048576"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	QR   QRConfig   `envPrefix:"QR_"`
	Logo LogoConfig `envPrefix:"LOGO_"`
	Page PageConfig `envPrefix:"PAGE_"`
}

// QRConfig selects the matrix encoder and the rendering defaults.
type QRConfig struct {
	Encoder        string `env:"ENCODER" envDefault:"yeqown"`
	DefaultData    string `env:"DEFAULT_DATA"`
	DefaultImage   string `env:"DEFAULT_IMAGE"`
	MaxImagePixels int    `env:"MAX_IMAGE_PIXELS" envDefault:"4096"`
	JPEGQuality    int    `env:"JPEG_QUALITY" envDefault:"75"`
}

// LogoConfig bounds logo loading.
type LogoConfig struct {
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT" envDefault:"10s"`
	MaxBytes     int64         `env:"MAX_BYTES" envDefault:"10485760"`
	AllowFiles   bool          `env:"ALLOW_FILES" envDefault:"false"`
	MaxPixels    int           `env:"MAX_PIXELS" envDefault:"16777216"`
}

// PageConfig styles the home page.
type PageConfig struct {
	Stylesheet  string `env:"STYLESHEET" envDefault:"https://cdn.jsdelivr.net/npm/tailwindcss@2.2.19/dist/tailwind.min.css"`
	BodyClass   string `env:"BODY_CLASS"`
	FormClass   string `env:"FORM_CLASS"`
	ButtonClass string `env:"BUTTON_CLASS"`
}

// Load reads .env files (if present) and parses the environment into a Config.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Addr is the listen address derived from Port.
func (c Config) Addr() string {
	return ":" + c.Port
}

// Defaults returns the rendering defaults with env overrides applied.
func (c Config) Defaults() qr.Defaults {
	d := qr.DefaultDefaults()
	if c.QR.DefaultData != "" {
		d.Data = c.QR.DefaultData
	}
	if c.QR.DefaultImage != "" {
		d.Image = c.QR.DefaultImage
	}
	return d
}

// PageStyle returns the home page style overrides.
func (c Config) PageStyle() components.PageStyle {
	return components.PageStyle{
		Stylesheet:  c.Page.Stylesheet,
		BodyClass:   c.Page.BodyClass,
		FormClass:   c.Page.FormClass,
		ButtonClass: c.Page.ButtonClass,
	}
}
