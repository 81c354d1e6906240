// Package imagegen generates marketing images through pluggable providers.
// Paid providers require API keys; pollinations is free and serves as the
// fallback when a paid provider fails.
package imagegen

import "errors"

// Provider names accepted in generation requests.
const (
	ProviderAuto         = "auto"
	ProviderHuggingFace  = "huggingface"
	ProviderOpenAI       = "openai"
	ProviderPollinations = "pollinations"
)

// DefaultModel is used when a request does not name one.
const DefaultModel = "stable-diffusion-v1-5"

const defaultNegativePrompt = "blurry, low quality, distorted, deformed, ugly, bad anatomy"

// ErrUnavailable is returned when a provider failed and the free fallback
// could not produce an image either.
var ErrUnavailable = errors.New("all free image generation services unavailable")

// Params are tunable generation parameters. Zero values fall back to the
// defaults below.
type Params struct {
	Width          int
	Height         int
	Steps          int
	Guidance       float64
	NegativePrompt string
}

func (p Params) withDefaults() Params {
	if p.Width <= 0 {
		p.Width = 1024
	}
	if p.Height <= 0 {
		p.Height = 1024
	}
	if p.Steps <= 0 {
		p.Steps = 20
	}
	if p.Guidance <= 0 {
		p.Guidance = 7.5
	}
	if p.NegativePrompt == "" {
		p.NegativePrompt = defaultNegativePrompt
	}
	return p
}

// Request describes one image generation call. Provider defaults to auto
// selection; Model defaults to DefaultModel and is only meaningful for the
// huggingface provider.
type Request struct {
	Prompt   string
	Model    string
	Provider string
	Params   Params
}
