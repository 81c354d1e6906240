package contentgen

import (
	"regexp"
	"strings"

	"estatecast/pkg/domain"
)

var placeholderRE = regexp.MustCompile(`\{([a-z_]+)\}`)

// buildBody assembles the post text: hook, category-specific sections, and a
// call to action joined by a structure template. Unknown categories use the
// community template set.
func (g *Generator) buildBody(category domain.Category, location string, overrides map[string]string) string {
	template, ok := contentTemplates[category]
	if !ok {
		template = contentTemplates[domain.CategoryCommunity]
	}

	fields := g.categoryFields(category, location, overrides)

	hookVars := map[string]string{"location": location}
	for k, v := range fields {
		hookVars[k] = v
	}
	for k, v := range overrides {
		hookVars[k] = v
	}
	hook, _ := renderTemplate(choice(g.rand, template.hooks), hookVars)

	cta := choice(g.rand, ctaPools[ctaPoolFor(category)])

	vars := map[string]string{"hook": hook, "call_to_action": cta}
	for k, v := range fields {
		vars[k] = v
	}
	body, ok := renderTemplate(choice(g.rand, template.structures), vars)
	if !ok {
		// A structure referencing a field this category never produces must
		// still yield a post.
		return hook + "\n\nGreat opportunity in " + location + "!\n\n" + cta
	}
	return body
}

func ctaPoolFor(category domain.Category) string {
	switch category {
	case domain.CategoryPropertyShowcase:
		return ctaPropertyInquiry
	case domain.CategoryMarketUpdate:
		return ctaMarketConsultation
	default:
		return ctaGeneralEngagement
	}
}

// categoryFields produces the substitution values for one category's
// structure templates. Overrides win over sampled values where a field
// supports them. The topic field is always present so educational hooks can
// reference it.
func (g *Generator) categoryFields(category domain.Category, location string, overrides map[string]string) map[string]string {
	switch category {
	case domain.CategoryPropertyShowcase:
		propertyType := overrideOr(overrides, "property_type", func() string { return choice(g.rand, propertyTypes) })
		return map[string]string{
			"property_description": "Beautiful " + propertyType + " in the heart of " + location + ". This property offers everything you're looking for in your next home.",
			"key_features": "✨ Key features:\n• " + titleCase(choice(g.rand, propertyFeatures)) +
				"\n• " + titleCase(choice(g.rand, propertyFeatures)) +
				"\n• " + titleCase(choice(g.rand, propertyFeatures)),
			"price_info":        overrideOr(overrides, "price", func() string { return "Competitively priced" }),
			"location_details":  "Located in desirable " + location + ", close to amenities and transportation.",
			"neighborhood_info": location + " offers the perfect blend of community charm and urban convenience.",
			"investment_angle":  "Excellent investment opportunity in " + location + "'s growing market.",
		}
	case domain.CategoryMarketUpdate:
		trend := choice(g.rand, marketTrends)
		return map[string]string{
			"market_data":        "Recent data shows " + trend + " in the " + location + " real estate market.",
			"trend_summary":      "The " + location + " market continues to show positive indicators for both buyers and sellers.",
			"analysis":           "What this means: " + location + " remains an attractive market for real estate investment and homeownership.",
			"impact_explanation": "These trends indicate continued stability and growth potential in " + location + ".",
			"advice":             "Now is a great time to explore your options in this market.",
		}
	case domain.CategoryEducational:
		topic := overrideOr(overrides, "topic", func() string { return choice(g.rand, educationalTopics) })
		return map[string]string{
			"topic":                 topic,
			"educational_content":   "Understanding " + topic + " is crucial for success in the " + location + " real estate market.",
			"practical_application": "Here's how this applies to your " + location + " property search or sale.",
			"myth_busting":          "Common myth: " + topic + " isn't important in smaller markets like " + location + ".",
			"correct_information":   "Reality: " + topic + " is just as important in " + location + " as anywhere else.",
		}
	default:
		feature := overrideOr(overrides, "feature", func() string { return choice(g.rand, communityFeatures) })
		return map[string]string{
			"community_feature":        "One of the things I love most about " + location + " is our amazing " + feature + ".",
			"local_business_spotlight": "Shoutout to the incredible " + feature + " that make " + location + " special!",
			"personal_connection":      "As a local real estate professional, I'm proud to call " + location + " home.",
			"community_value":          "This is what makes " + location + " such a desirable place to live and invest.",
		}
	}
}

func overrideOr(overrides map[string]string, key string, fallback func() string) string {
	if v, ok := overrides[key]; ok && v != "" {
		return v
	}
	return fallback()
}

// renderTemplate substitutes {name} placeholders from vars. The second
// return is false when any placeholder had no value; the placeholder is left
// intact in that case so callers can fall back.
func renderTemplate(template string, vars map[string]string) (string, bool) {
	complete := true
	out := placeholderRE.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		if v, ok := vars[name]; ok {
			return v
		}
		complete = false
		return match
	})
	return out, complete
}

// titleCase uppercases the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(word)
		if len(runes) > 0 {
			runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
