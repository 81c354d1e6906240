package imagegen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"estatecast/pkg/domain"
)

// Client routes generation requests to providers and writes results to the
// local output directory. Safe for concurrent use.
type Client struct {
	huggingface  *HuggingFaceClient
	openai       *OpenAIClient
	pollinations *PollinationsClient
	outputDir    string
	now          func() time.Time
}

// Config holds provider credentials and the output directory. Base URLs
// default to the public endpoints and exist for tests.
type Config struct {
	HuggingFaceAPIKey   string
	OpenAIAPIKey        string
	OutputDir           string
	HuggingFaceBaseURL  string
	OpenAIBaseURL       string
	PollinationsBaseURL string
}

// Option customizes a Client.
type Option func(*Client)

// WithNow overrides the clock used for file timestamps, mainly for tests.
func WithNow(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New constructs a Client. An empty output directory defaults to
// "generated_images" relative to the working directory.
func New(cfg Config, opts ...Option) *Client {
	outputDir := cfg.OutputDir
	if outputDir == "" {
		outputDir = "generated_images"
	}
	c := &Client{
		huggingface:  NewHuggingFaceClient(cfg.HuggingFaceBaseURL, cfg.HuggingFaceAPIKey),
		openai:       NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey),
		pollinations: NewPollinationsClient(cfg.PollinationsBaseURL),
		outputDir:    outputDir,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate produces an image and saves it locally. The returned result
// always describes the attempt; a failed paid provider falls back to
// pollinations once, and only when that fallback also fails is the error
// non-nil. A direct pollinations failure yields Success=false with a nil
// error since there is no cheaper provider left to try.
func (c *Client) Generate(ctx context.Context, req Request) (domain.ImageResult, error) {
	params := req.Params.withDefaults()
	model := req.Model
	if model == "" {
		model = DefaultModel
	}
	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	switch provider {
	case ProviderHuggingFace, ProviderOpenAI, ProviderPollinations:
	case "", ProviderAuto:
		provider = c.selectProvider()
	default:
		// Unknown names go to the free provider rather than failing.
		provider = ProviderPollinations
	}

	start := time.Now()
	data, usedModel, err := c.generateWith(ctx, provider, req.Prompt, model, params)
	usedProvider := provider
	if err != nil && provider != ProviderPollinations {
		if fbData, fbModel, fbErr := c.pollinations.Generate(ctx, req.Prompt, params); fbErr == nil {
			data, usedModel, err = fbData, fbModel, nil
			usedProvider = ProviderPollinations
		} else {
			return domain.ImageResult{
				Provider:    provider,
				Model:       model,
				Prompt:      req.Prompt,
				ElapsedSecs: time.Since(start).Seconds(),
				Error:       err.Error(),
			}, ErrUnavailable
		}
	}
	if err != nil {
		return domain.ImageResult{
			Provider:    provider,
			Model:       model,
			Prompt:      req.Prompt,
			ElapsedSecs: time.Since(start).Seconds(),
			Error:       err.Error(),
		}, nil
	}

	filename, err := saveImage(c.outputDir, usedProvider, data, c.now())
	if err != nil {
		return domain.ImageResult{
			Provider:    usedProvider,
			Model:       usedModel,
			Prompt:      req.Prompt,
			ElapsedSecs: time.Since(start).Seconds(),
			Error:       err.Error(),
		}, fmt.Errorf("save image: %w", err)
	}

	return domain.ImageResult{
		Success:     true,
		ImagePath:   "/generated_images/" + filename,
		Provider:    usedProvider,
		Model:       usedModel,
		Prompt:      req.Prompt,
		ElapsedSecs: time.Since(start).Seconds(),
	}, nil
}

// selectProvider picks the first provider with a configured credential,
// falling back to the free one.
func (c *Client) selectProvider() string {
	if c.huggingface.Available() {
		return ProviderHuggingFace
	}
	if c.openai.Available() {
		return ProviderOpenAI
	}
	return ProviderPollinations
}

func (c *Client) generateWith(ctx context.Context, provider, prompt, model string, params Params) ([]byte, string, error) {
	switch provider {
	case ProviderHuggingFace:
		return c.huggingface.Generate(ctx, prompt, model, params)
	case ProviderOpenAI:
		return c.openai.Generate(ctx, prompt, params)
	default:
		return c.pollinations.Generate(ctx, prompt, params)
	}
}
