// Command server hosts the care-symbol classification function over HTTP.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nvr-ai/care-symbols/config"
	"github.com/nvr-ai/care-symbols/enrich"
	"github.com/nvr-ai/care-symbols/function"
	"github.com/nvr-ai/care-symbols/inference/providers"
	"github.com/nvr-ai/care-symbols/logging"
	"github.com/nvr-ai/care-symbols/server"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Server.LogLevel)
	if err != nil {
		logger = zap.Must(zap.NewProduction())
		logger.Warn("falling back to info logging", zap.Error(err))
	}
	defer func() { _ = logger.Sync() }()

	opts := []function.Option{function.WithLogger(logger)}

	var cache *redis.Client
	if cfg.Redis.Addr != "" {
		cache = redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  3 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := cache.Ping(pingCtx).Err(); err != nil {
			logger.Warn("metadata cache unreachable, continuing without it", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = cache.Close()
			cache = nil
		} else {
			opts = append(opts, function.WithCache(enrich.NewRedisCache(cache, cfg.Redis.TTL)))
		}
		cancel()
	}

	handler := function.New(cfg, opts...)

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           server.NewRouter(handler, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	if err := handler.Runtime().Close(); err != nil {
		logger.Error("failed to close model session", zap.Error(err))
	}
	if err := providers.Shutdown(); err != nil {
		logger.Error("failed to release onnxruntime", zap.Error(err))
	}
	if cache != nil {
		_ = cache.Close()
	}
	logger.Info("server stopped")
}
