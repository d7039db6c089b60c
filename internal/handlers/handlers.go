package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cristianadrielbraun/qrstyle/internal/qr"
	"github.com/cristianadrielbraun/qrstyle/web/components"
	"github.com/cristianadrielbraun/qrstyle/web/pages"
)

// Handler holds the dependencies shared by the HTTP handlers.
// It keeps no per-request state.
type Handler struct {
	gen      *qr.Generator
	defaults qr.Defaults
	style    components.PageStyle
	log      *zap.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithPageStyle sets the stylesheet and class overrides of the home page.
func WithPageStyle(style components.PageStyle) Option {
	return func(h *Handler) { h.style = style }
}

// New returns a new Handler instance.
func New(gen *qr.Generator, defaults qr.Defaults, log *zap.Logger, opts ...Option) *Handler {
	registerValidators()
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{gen: gen, defaults: defaults, log: log}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

var validatorsOnce sync.Once

// registerValidators adds the custom binding rules used by request structs.
func registerValidators() {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("svgcolor", func(fl validator.FieldLevel) bool {
			return qr.ValidColor(fl.Field().String())
		})
		_ = v.RegisterValidation("eclevel", func(fl validator.FieldLevel) bool {
			_, err := qr.ParseECLevel(fl.Field().String())
			return err == nil
		})
	})
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// HomePage renders the form that posts to /api/qr.
func (h *Handler) HomePage(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)

	props := components.FormDefaults{
		Endpoint:        "/api/qr",
		Data:            h.defaults.Data,
		BlockSize:       h.defaults.BlockSize,
		Radius:          h.defaults.Radius,
		ForegroundColor: h.defaults.ForegroundColor,
		BackgroundColor: h.defaults.BackgroundColor,
		AddImage:        h.defaults.AddImage,
		Image:           h.defaults.Image,
		ImageSize:       h.defaults.ImageSize,
		ImageMargin:     h.defaults.ImageMargin,
		Level:           h.defaults.ErrorCorrectionLevel,
		Format:          h.defaults.Format,
		Style:           h.style,
	}
	if err := pages.HomePage(props).Render(c.Request.Context(), c.Writer); err != nil {
		h.log.Error("render home page", zap.Error(err))
	}
}
