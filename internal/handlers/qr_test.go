package handlers

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristianadrielbraun/qrstyle/internal/qr"
	"github.com/cristianadrielbraun/qrstyle/web/components"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// recordingEncoder remembers the last text it was asked to encode.
type recordingEncoder struct {
	mu   sync.Mutex
	last string
}

func (r *recordingEncoder) Encode(text string, level qr.ECLevel) (qr.Matrix, error) {
	r.mu.Lock()
	r.last = text
	r.mu.Unlock()
	return qr.YeqownEncoder{}.Encode(text, level)
}

func (r *recordingEncoder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func logoPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type testEnv struct {
	router  *gin.Engine
	encoder *recordingEncoder
	logoURL string
	deadURL string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logo := logoPNG(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/logo.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(logo)
	}))
	t.Cleanup(srv.Close)

	enc := &recordingEncoder{}
	gen := &qr.Generator{
		Encoder:      enc,
		Compose:      &qr.Compositor{Logos: qr.NewLogoLoader(5*time.Second, 1<<20, false)},
		MaxImageSize: 4096,
	}

	defaults := qr.DefaultDefaults()
	defaults.Image = srv.URL + "/logo.png"

	h := New(gen, defaults, nil)
	r := gin.New()
	r.POST("/api/qr", h.QRCodeHandler)
	r.GET("/healthz", h.Health)
	r.GET("/", h.HomePage)

	return &testEnv{
		router:  r,
		encoder: enc,
		logoURL: srv.URL + "/logo.png",
		deadURL: srv.URL + "/missing.png",
	}
}

func (e *testEnv) post(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/qr", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func payload(t *testing.T, body, prefix string) []byte {
	t.Helper()
	rest, ok := strings.CutPrefix(body, prefix)
	require.True(t, ok, "body %.60q lacks prefix %q", body, prefix)
	b, err := base64.StdEncoding.DecodeString(rest)
	require.NoError(t, err)
	return b
}

func TestQRCodeHandlerPNG(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	w := env.post(t, `{"data":"hello","blockSize":10,"addImage":false,"format":"png"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))

	m, err := qr.YeqownEncoder{}.Encode("hello", qr.ECLevelH)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(payload(t, w.Body.String(), "data:image/png;base64,")))
	require.NoError(t, err)
	assert.Equal(t, 10*m.Size, img.Bounds().Dx())
	assert.Equal(t, 10*m.Size, img.Bounds().Dy())
	assert.Equal(t, "hello", env.encoder.Last())
}

func TestQRCodeHandlerSVGWithLogo(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	w := env.post(t, `{"data":"hello","format":"svg","addImage":true,"imageSize":30,"image":"`+env.logoURL+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	doc := string(payload(t, w.Body.String(), "data:image/svg;base64,"))
	assert.Contains(t, doc, `<image x="`)
	assert.Contains(t, doc, `href="data:image/png;base64,`)
}

func TestQRCodeHandlerEmptyDataUsesDefault(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	w := env.post(t, `{"errorCorrectionLevel":"L","data":"","addImage":false}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, qr.DefaultData, env.encoder.Last())
}

func TestQRCodeHandlerEmptyBody(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/qr", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, strings.HasPrefix(w.Body.String(), "data:image/png;base64,"))
	assert.Equal(t, qr.DefaultData, env.encoder.Last())
}

func TestQRCodeHandlerUnreachableLogoPNGSucceeds(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	w := env.post(t, `{"data":"hello","format":"png","image":"`+env.deadURL+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, strings.HasPrefix(w.Body.String(), "data:image/png;base64,"))
}

func TestQRCodeHandlerUnreachableLogoSVGFails(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	w := env.post(t, `{"data":"hello","format":"svg","image":"`+env.deadURL+`"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, errGenerate, w.Body.String())
}

func TestQRCodeHandlerJPEG(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	for _, format := range []string{"jpg", "jpeg"} {
		w := env.post(t, `{"data":"hello","addImage":false,"format":"`+format+`"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.True(t, strings.HasPrefix(w.Body.String(), "data:image/jpeg;base64,"), format)
	}
}

func TestQRCodeHandlerAcceptsTranslucentColors(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	for _, body := range []string{
		`{"data":"hello","addImage":false,"backgroundColor":"transparent"}`,
		`{"data":"hello","addImage":false,"foregroundColor":"rgba(0,0,0,0.5)"}`,
		`{"data":"hello","addImage":false,"foregroundColor":"#ff000080","format":"svg"}`,
	} {
		w := env.post(t, body)
		assert.Equal(t, http.StatusOK, w.Code, "%s: %s", body, w.Body.String())
	}
}

func TestQRCodeHandlerRejectsInvalidInput(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "malformed json", body: `{"data":`},
		{name: "wrong type", body: `{"blockSize":"big"}`},
		{name: "negative block size", body: `{"blockSize":-3}`, want: "blockSize"},
		{name: "radius out of range", body: `{"radius":101}`, want: "radius"},
		{name: "image size out of range", body: `{"imageSize":-1}`, want: "imageSize"},
		{name: "negative margin", body: `{"imageMargin":-1}`, want: "imageMargin"},
		{name: "bad color", body: `{"foregroundColor":"\"/><script>"}`, want: "foregroundColor"},
		{name: "unknown level", body: `{"errorCorrectionLevel":"Z"}`, want: "errorCorrectionLevel"},
		{name: "too large", body: `{"data":"hello","blockSize":1000,"addImage":false}`, want: "exceeds"},
		{name: "wrapping block size", body: `{"data":"hello","blockSize":878416384462359596,"addImage":false}`, want: "exceeds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.post(t, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			if tt.want != "" {
				assert.Contains(t, w.Body.String(), tt.want)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestHomePage(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), `id="qrForm"`)
	assert.Contains(t, w.Body.String(), `data-endpoint="/api/qr"`)
}

func TestHomePageWithStyle(t *testing.T) {
	t.Parallel()

	h := New(&qr.Generator{}, qr.DefaultDefaults(), nil, WithPageStyle(components.PageStyle{Stylesheet: "/app.css", FormClass: "gap-6"}))
	r := gin.New()
	r.GET("/", h.HomePage)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `<link rel="stylesheet" href="/app.css">`)
	assert.Contains(t, w.Body.String(), `class="flex flex-col gap-6"`)
}
