package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"estatecast/internal/ratelimit"
	"estatecast/internal/util"
	"estatecast/pkg/contentgen"
	"estatecast/services/studio/internal/app"
	"estatecast/services/studio/internal/config"
	"estatecast/services/studio/internal/server"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger("studio", cfg.LogLevel)
	trustedProxies, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		log.Fatalf("failed to parse trusted proxy cidrs: %v", err)
	}

	var limiter *ratelimit.FixedWindowLimiter
	if cfg.GenerateRateLimitPerMinute > 0 {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		limiter, err = ratelimit.NewFixedWindowLimiter(redisClient, "estatecast:studio:ratelimit", cfg.GenerateRateLimitPerMinute, time.Minute)
		if err != nil {
			log.Fatalf("failed to init rate limiter: %v", err)
		}
	}

	httpServer, err := server.New(server.Config{
		App:            app.New(contentgen.New()),
		Limiter:        limiter,
		TrustedProxies: trustedProxies,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("studio server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
