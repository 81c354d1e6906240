package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"estatecast/internal/util"
	"estatecast/services/media/internal/app"
	"estatecast/services/media/internal/config"
	"estatecast/services/media/internal/server"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger("media", cfg.LogLevel)

	appCore, err := app.New(app.Config{
		DatabaseURL:       cfg.DatabaseURL,
		OutputDir:         cfg.OutputDir,
		HuggingFaceAPIKey: cfg.HuggingFaceAPIKey,
		OpenAIAPIKey:      cfg.OpenAIAPIKey,
		MinioEndpoint:     cfg.MinioEndpoint,
		MinioAccessKey:    cfg.MinioAccessKey,
		MinioSecretKey:    cfg.MinioSecretKey,
		MinioBucket:       cfg.MinioBucket,
		MinioUseSSL:       cfg.MinioUseSSL,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:                 appCore,
		InternalTokenSecret: cfg.InternalTokenSecret,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:        addr,
		Handler:     httpServer.Router(),
		ReadTimeout: 15 * time.Second,
		// Generation holds the connection for a provider round-trip plus
		// one fallback attempt, each with a 60s budget.
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("media server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
