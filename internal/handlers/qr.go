package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cristianadrielbraun/qrstyle/internal/logger"
	"github.com/cristianadrielbraun/qrstyle/internal/qr"
)

// errGenerate is the only failure detail clients see for pipeline errors.
const errGenerate = "Error generating QR code"

// qrRequest is the JSON body of POST /api/qr. Every field is optional.
type qrRequest struct {
	Data                 string  `json:"data"`
	Inverted             *bool   `json:"inverted"`
	BlockSize            int     `json:"blockSize" binding:"omitempty,gt=0"`
	Radius               float64 `json:"radius" binding:"omitempty,gte=0,lte=100"`
	ForegroundColor      string  `json:"foregroundColor" binding:"omitempty,svgcolor"`
	BackgroundColor      string  `json:"backgroundColor" binding:"omitempty,svgcolor"`
	AddImage             *bool   `json:"addImage"`
	Image                string  `json:"image"`
	ImageSize            float64 `json:"imageSize" binding:"omitempty,gte=0,lte=100"`
	ImageMargin          int     `json:"imageMargin" binding:"omitempty,gte=0"`
	ErrorCorrectionLevel string  `json:"errorCorrectionLevel" binding:"omitempty,eclevel"`
	Format               string  `json:"format"`
}

func (r qrRequest) toRequest() qr.Request {
	return qr.Request{
		Data:                 r.Data,
		Inverted:             r.Inverted,
		BlockSize:            r.BlockSize,
		Radius:               r.Radius,
		ForegroundColor:      r.ForegroundColor,
		BackgroundColor:      r.BackgroundColor,
		AddImage:             r.AddImage,
		Image:                r.Image,
		ImageSize:            r.ImageSize,
		ImageMargin:          r.ImageMargin,
		ErrorCorrectionLevel: r.ErrorCorrectionLevel,
		Format:               r.Format,
	}
}

// QRCodeHandler renders the requested QR code and answers with its data URI as text/plain.
func (h *Handler) QRCodeHandler(c *gin.Context) {
	log := logger.From(c, h.log)

	var req qrRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.badRequest(c, err)
		return
	}

	cfg, err := qr.Resolve(req.toRequest(), h.defaults)
	if err != nil {
		h.badRequest(c, err)
		return
	}

	uri, err := h.gen.Generate(c.Request.Context(), cfg)
	if err != nil {
		if errors.Is(err, qr.ErrInvalidInput) {
			h.badRequest(c, err)
			return
		}
		log.Error("generate qr", zap.Error(err), zap.String("format", string(cfg.Format)))
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, errGenerate)
		return
	}

	c.Header("Access-Control-Allow-Origin", "*")
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(uri))
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	_ = c.Error(err)

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.String(http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		c.String(http.StatusBadRequest, "invalid value for %s: failed %q rule", jsonFieldName(fe), fe.Tag())
		return
	}
	c.String(http.StatusBadRequest, "%s", err.Error())
}

// jsonFieldName maps the struct field in fe back to its json key.
func jsonFieldName(fe validator.FieldError) string {
	switch fe.Field() {
	case "BlockSize":
		return "blockSize"
	case "Radius":
		return "radius"
	case "ForegroundColor":
		return "foregroundColor"
	case "BackgroundColor":
		return "backgroundColor"
	case "ImageSize":
		return "imageSize"
	case "ImageMargin":
		return "imageMargin"
	case "ErrorCorrectionLevel":
		return "errorCorrectionLevel"
	}
	return fe.Field()
}
