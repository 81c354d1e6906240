// Package app holds the media service's image pipeline: generation records
// moving pending → completed/failed, local files, and optional archival.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"estatecast/pkg/domain"
	"estatecast/pkg/imagegen"
	"estatecast/pkg/storage"
	"estatecast/pkg/store"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL       string
	Store             store.Store
	OutputDir         string
	Images            *imagegen.Client
	HuggingFaceAPIKey string
	OpenAIAPIKey      string
	Objects           storage.ObjectStore
	MinioEndpoint     string
	MinioAccessKey    string
	MinioSecretKey    string
	MinioBucket       string
	MinioUseSSL       bool
}

// App is the core application service wiring generation, files, and records.
type App struct {
	store         store.Store
	images        *imagegen.Client
	files         *storage.ImageStore
	objects       storage.ObjectStore
	presignExpiry time.Duration
}

// New constructs the application. The object store is optional; without it
// downloads fall back to local paths.
func New(cfg Config) (*App, error) {
	outputDir := cfg.OutputDir
	if outputDir == "" {
		outputDir = "generated_images"
	}
	files, err := storage.NewImageStore(outputDir)
	if err != nil {
		return nil, err
	}
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}
	images := cfg.Images
	if images == nil {
		images = imagegen.New(imagegen.Config{
			HuggingFaceAPIKey: cfg.HuggingFaceAPIKey,
			OpenAIAPIKey:      cfg.OpenAIAPIKey,
			OutputDir:         outputDir,
		})
	}
	objects := cfg.Objects
	if objects == nil && cfg.MinioEndpoint != "" {
		objects, err = storage.NewMinioStore(storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("init object store: %w", err)
		}
	}
	return &App{
		store:         dataStore,
		images:        images,
		files:         files,
		objects:       objects,
		presignExpiry: 15 * time.Minute,
	}, nil
}

// GenerateImageParams describes one image generation request after decoding.
type GenerateImageParams struct {
	Prompt         string
	Provider       string
	Model          string
	Platform       string
	ContentType    string
	Width          int
	Height         int
	Steps          int
	Guidance       float64
	NegativePrompt string
}

// GenerateImage runs one generation attempt and records its lifecycle. The
// returned record carries completed or failed status; only infrastructure
// failures (record save, file save) surface as errors.
func (a *App) GenerateImage(ctx context.Context, p GenerateImageParams) (domain.ImageGeneration, error) {
	prompt := strings.TrimSpace(p.Prompt)
	if prompt == "" {
		return domain.ImageGeneration{}, ErrPromptRequired
	}
	var platform domain.Platform
	if p.Platform != "" {
		var ok bool
		platform, ok = domain.ParsePlatform(p.Platform)
		if !ok {
			return domain.ImageGeneration{}, ErrUnknownPlatform
		}
	}

	provider := strings.TrimSpace(p.Provider)
	if provider == "" {
		provider = imagegen.ProviderAuto
	}
	model := strings.TrimSpace(p.Model)
	if model == "" {
		model = imagegen.DefaultModel
	}
	now := time.Now().UTC()
	gen := domain.ImageGeneration{
		ID:        uuid.NewString(),
		Prompt:    prompt,
		Provider:  provider,
		Model:     model,
		Status:    domain.GenerationPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.SaveGeneration(gen); err != nil {
		return domain.ImageGeneration{}, fmt.Errorf("save generation: %w", err)
	}

	params := imagegen.Params{
		Width:          p.Width,
		Height:         p.Height,
		Steps:          p.Steps,
		Guidance:       p.Guidance,
		NegativePrompt: p.NegativePrompt,
	}
	var result domain.ImageResult
	var genErr error
	if platform != "" {
		result, genErr = a.images.GenerateForSocialMedia(ctx, imagegen.SocialRequest{
			Prompt:      prompt,
			Platform:    platform,
			ContentType: p.ContentType,
			Model:       model,
			Provider:    provider,
			Params:      params,
		})
	} else {
		result, genErr = a.images.Generate(ctx, imagegen.Request{
			Prompt:   prompt,
			Model:    model,
			Provider: provider,
			Params:   params,
		})
	}

	gen.Provider = result.Provider
	gen.Model = result.Model
	gen.ElapsedSecs = result.ElapsedSecs
	gen.UpdatedAt = time.Now().UTC()
	if result.Success {
		gen.Status = domain.GenerationCompleted
		gen.ImagePath = result.ImagePath
		a.archive(ctx, &gen)
	} else {
		gen.Status = domain.GenerationFailed
		gen.ErrorMessage = result.Error
	}
	if err := a.store.SaveGeneration(gen); err != nil {
		return gen, fmt.Errorf("save generation: %w", err)
	}
	if genErr != nil && !errors.Is(genErr, imagegen.ErrUnavailable) {
		return gen, genErr
	}
	return gen, nil
}

// archive copies the generated file into the object store when one is
// configured. Archival failures only cost the presigned download path, so
// they are logged rather than raised.
func (a *App) archive(ctx context.Context, gen *domain.ImageGeneration) {
	if a.objects == nil || gen.ImagePath == "" {
		return
	}
	filename := path.Base(gen.ImagePath)
	data, err := a.files.Read(filename)
	if err != nil {
		slog.Warn("image archive read failed", "generation_id", gen.ID, "err", err)
		return
	}
	key := "images/" + filename
	if err := a.objects.PutPNG(ctx, key, data); err != nil {
		slog.Warn("image archive upload failed", "generation_id", gen.ID, "err", err)
		return
	}
	gen.ObjectKey = key
}

// GetImage retrieves a generation record by ID.
func (a *App) GetImage(id string) (domain.ImageGeneration, bool, error) {
	return a.store.GetGeneration(id)
}

// ListImages returns recent generation records, newest first.
func (a *App) ListImages(limit int) ([]domain.ImageGeneration, error) {
	return a.store.ListGenerations(limit)
}

// DownloadURL returns a download location and filename for a completed
// generation: a pre-signed URL when the image is archived, else the local
// serving path.
func (a *App) DownloadURL(ctx context.Context, id string) (string, string, error) {
	gen, ok, err := a.store.GetGeneration(id)
	if err != nil {
		return "", "", err
	}
	if !ok {
		return "", "", ErrImageNotFound
	}
	if gen.Status != domain.GenerationCompleted || gen.ImagePath == "" {
		return "", "", ErrImageNotReady
	}
	filename := path.Base(gen.ImagePath)
	if a.objects != nil && gen.ObjectKey != "" {
		url, err := a.objects.PresignGet(ctx, gen.ObjectKey, a.presignExpiry)
		if err != nil {
			return "", "", fmt.Errorf("presign download: %w", err)
		}
		return url, filename, nil
	}
	return gen.ImagePath, filename, nil
}

// OpenImage opens a stored image file for serving.
func (a *App) OpenImage(filename string) (*os.File, time.Time, error) {
	return a.files.Open(filename)
}
