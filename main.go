package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cristianadrielbraun/qrstyle/internal/config"
	"github.com/cristianadrielbraun/qrstyle/internal/handlers"
	"github.com/cristianadrielbraun/qrstyle/internal/logger"
	"github.com/cristianadrielbraun/qrstyle/internal/middleware"
	"github.com/cristianadrielbraun/qrstyle/internal/qr"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Config{Debug: cfg.Debug, Color: cfg.GinMode != gin.ReleaseMode})
	defer func() { _ = log.Sync() }()

	encoder, err := qr.NewEncoder(cfg.QR.Encoder)
	if err != nil {
		log.Fatal("select encoder", zap.Error(err))
	}

	logos := qr.NewLogoLoader(cfg.Logo.FetchTimeout, cfg.Logo.MaxBytes, cfg.Logo.AllowFiles)
	logos.MaxPixels = cfg.Logo.MaxPixels

	gen := &qr.Generator{
		Encoder: encoder,
		Compose: &qr.Compositor{
			Logos:       logos,
			JPEGQuality: cfg.QR.JPEGQuality,
			Log:         log.Named("compose"),
		},
		MaxImageSize: cfg.QR.MaxImagePixels,
		Log:          log.Named("qr"),
	}

	gin.SetMode(cfg.GinMode)
	r := newRouter(handlers.New(gen, cfg.Defaults(), log, handlers.WithPageStyle(cfg.PageStyle())), log, cfg.MaxBodyBytes)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
	}

	go func() {
		log.Info("listening", zap.String("addr", srv.Addr), zap.String("encoder", cfg.QR.Encoder))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("serve", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	log.Info("stopped")
}

func newRouter(h *handlers.Handler, log *zap.Logger, maxBody int64) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(logger.Middleware(log, middleware.RequestIDHeader))
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())

	r.GET("/", h.HomePage)
	r.GET("/healthz", h.Health)

	api := r.Group("/api")
	api.Use(middleware.BodyLimit(maxBody))
	{
		api.POST("/qr", h.QRCodeHandler)
	}

	return r
}
