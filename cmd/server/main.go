package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"crown_back_end/internal/app"
	"crown_back_end/internal/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	envFile := flag.String("env", ".env", "path to an optional .env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("❌ config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ config: %v", err)
	}

	logger, err := app.NewLogger(cfg)
	if err != nil {
		log.Fatalf("❌ logger: %v", err)
	}
	defer logger.Sync()
	if cfg.EnvFile != "" {
		logger.Info("✅ loaded env file", zap.String("path", cfg.EnvFile))
	}
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("❌ startup failed", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("❌ server stopped", zap.Error(err))
			stop()
		}
	}()
	logger.Info("🚀 Crown back end listening", zap.String("port", cfg.Port), zap.String("store", cfg.StoreDriver))

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("❌ graceful shutdown", zap.Error(err))
	}
	if err := a.Close(shutdownCtx); err != nil {
		logger.Error("❌ closing backends", zap.Error(err))
	}
	logger.Info("server exited")
}
