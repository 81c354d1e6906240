package imagegen

import (
	"context"
	"strings"

	"estatecast/pkg/domain"
)

// Content types for social media image requests.
const (
	ContentTypePost  = "post"
	ContentTypeStory = "story"
	ContentTypeCover = "cover"
)

var platformStyles = map[domain.Platform]map[string]string{
	domain.PlatformInstagram: {
		ContentTypePost:  "high quality, professional photography, vibrant colors, Instagram-worthy, clean composition, good lighting",
		ContentTypeStory: "vertical format, mobile-friendly, eye-catching, bold text overlay space, story format",
		ContentTypeCover: "professional headshot, clean background, business portrait style",
	},
	domain.PlatformFacebook: {
		ContentTypePost:  "engaging, shareable, professional quality, clear subject, good contrast",
		ContentTypeStory: "vertical format, mobile-optimized, attention-grabbing",
		ContentTypeCover: "landscape format, professional, brand-appropriate, cover photo style",
	},
}

var realEstatePhrases = []string{
	"professional real estate photography",
	"architectural photography",
	"property showcase",
	"clean modern style",
	"high-end real estate marketing",
}

var realEstateTriggers = []string{"house", "home", "property", "real estate", "listing"}

var socialQualityEnhancers = []string{
	"professional photography",
	"high resolution",
	"sharp focus",
	"excellent lighting",
	"commercial quality",
}

// OptimizePrompt decorates a base prompt with platform styling, real estate
// context when the prompt is about property, and standard quality enhancers.
func OptimizePrompt(base string, platform domain.Platform, contentType string) string {
	prompt := base
	if style := platformStyles[platform][contentType]; style != "" {
		prompt += ", " + style
	}

	lower := strings.ToLower(base)
	for _, trigger := range realEstateTriggers {
		if strings.Contains(lower, trigger) {
			prompt += ", " + strings.Join(realEstatePhrases[:2], ", ")
			break
		}
	}

	return prompt + ", " + strings.Join(socialQualityEnhancers[:3], ", ")
}

// SocialRequest describes a platform-targeted generation call.
type SocialRequest struct {
	Prompt      string
	Platform    domain.Platform
	ContentType string
	Model       string
	Provider    string
	Params      Params
}

// GenerateForSocialMedia optimizes the prompt for the platform, pins the
// platform's canonical dimensions, and generates the image. Unknown
// platforms keep the caller's dimensions.
func (c *Client) GenerateForSocialMedia(ctx context.Context, req SocialRequest) (domain.ImageResult, error) {
	prompt := OptimizePrompt(req.Prompt, req.Platform, req.ContentType)

	params := req.Params
	switch req.Platform {
	case domain.PlatformInstagram:
		if req.ContentType == ContentTypeStory {
			params.Width, params.Height = 1080, 1920
		} else {
			params.Width, params.Height = 1080, 1080
		}
	case domain.PlatformFacebook:
		if req.ContentType == ContentTypeCover {
			params.Width, params.Height = 1200, 630
		} else {
			params.Width, params.Height = 1200, 1200
		}
	}

	return c.Generate(ctx, Request{
		Prompt:   prompt,
		Model:    req.Model,
		Provider: req.Provider,
		Params:   params,
	})
}
