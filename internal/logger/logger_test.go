package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNew(t *testing.T) {
	log := New(Config{Debug: true})
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	log = New(Config{})
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
}

func TestMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	var scoped *zap.Logger
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Header("X-Request-ID", "abc")
		c.Next()
	})
	r.Use(Middleware(log, "X-Request-ID"))
	r.GET("/ok", func(c *gin.Context) {
		scoped = From(c, nil)
		c.String(http.StatusOK, "fine")
	})
	r.GET("/bad", func(c *gin.Context) {
		c.String(http.StatusBadRequest, "nope")
	})
	r.GET("/boom", func(c *gin.Context) {
		c.String(http.StatusInternalServerError, "boom")
	})

	for _, path := range []string{"/ok", "/bad", "/boom"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.NotNil(t, scoped)
	entries := logs.FilterMessage("request").AllUntimed()
	require.Len(t, entries, 3)

	levels := []zapcore.Level{zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	for i, e := range entries {
		assert.Equal(t, levels[i], e.Level)
		fields := e.ContextMap()
		assert.Equal(t, "abc", fields["request_id"])
		assert.Equal(t, http.MethodGet, fields["method"])
	}
	assert.Equal(t, int64(http.StatusOK), entries[0].ContextMap()["status"])
	assert.Equal(t, "/bad", entries[1].ContextMap()["path"])
}

func TestFromFallback(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	fallback := zap.NewNop()
	assert.Same(t, fallback, From(c, fallback))

	c.Set(ctxKeyName, "not a logger")
	assert.Same(t, fallback, From(c, fallback))
}
