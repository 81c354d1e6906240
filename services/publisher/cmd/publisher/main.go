package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"estatecast/internal/util"
	"estatecast/services/publisher/internal/app"
	"estatecast/services/publisher/internal/config"
	"estatecast/services/publisher/internal/server"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger("publisher", cfg.LogLevel)

	appCore, err := app.New(app.Config{
		DatabaseURL:         cfg.DatabaseURL,
		FacebookAppID:       cfg.FacebookAppID,
		FacebookAppSecret:   cfg.FacebookAppSecret,
		FacebookRedirectURL: cfg.FacebookRedirectURL,
		TokenSealKey:        cfg.TokenSealKey,
		MediaURL:            cfg.MediaURL,
		InternalTokenSecret: cfg.InternalTokenSecret,
		PublicBaseURL:       cfg.PublicBaseURL,
		RedisAddr:           cfg.RedisAddr,
		RedisPassword:       cfg.RedisPassword,
		QueueName:           cfg.QueueName,
		QueueGroup:          cfg.QueueGroup,
		QueueMaxRetries:     cfg.QueueMaxRetries,
		PublishConcurrency:  cfg.PublishConcurrency,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	// Workers and the scheduler stop when the process is told to exit.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCore.StartWorkers(ctx)
	go appCore.RunScheduler(ctx, time.Duration(cfg.SchedulerIntervalSeconds)*time.Second)

	httpServer, err := server.New(server.Config{App: appCore})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:        addr,
		Handler:     httpServer.Router(),
		ReadTimeout: 15 * time.Second,
		// Post creation can wait on a media-service image generation.
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("publisher server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}
