package contentgen

import (
	"strings"

	"estatecast/pkg/domain"
)

// ImagePrompt composes a text-to-image prompt for the category: one of its
// base prompts with placeholders filled, plus three sampled quality
// enhancers. Overrides replace the stock placeholder values.
func (g *Generator) ImagePrompt(category domain.Category, location string, overrides map[string]string) string {
	prompts, ok := imageBasePrompts[category]
	if !ok {
		prompts = imageBasePrompts[domain.CategoryCommunity]
	}
	if location == "" {
		location = referenceLocation
	}

	vars := map[string]string{
		"location":      location,
		"property_type": "family home",
		"room":          "living room",
		"topic":         "home buying process",
	}
	for k, v := range overrides {
		vars[k] = v
	}

	prompt, _ := renderTemplate(choice(g.rand, prompts), vars)
	enhancers := sample(g.rand, qualityEnhancers, 3)
	return prompt + ", " + strings.Join(enhancers, ", ")
}
