package contentgen

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"estatecast/pkg/domain"
)

var sentenceSplitRE = regexp.MustCompile(`[.!?]+`)

// seoScore applies the additive rubric: location mention, keyword coverage,
// length band, call to action, engagement elements. Capped at 100.
func seoScore(content, location string) float64 {
	score := 0.0
	lower := strings.ToLower(content)

	if strings.Contains(lower, strings.ToLower(location)) {
		score += 20
	}

	keywordCount := len(matchedKeywords(content))
	score += minFloat(float64(keywordCount)*3, 30)

	length := utf8.RuneCountInString(content)
	switch {
	case length >= 100 && length <= 300:
		score += 20
	case (length >= 50 && length < 100) || (length > 300 && length <= 500):
		score += 15
	case length > 500:
		score += 10
	}

	if containsAnyFold(lower, ctaIndicators) {
		score += 15
	}

	engagementCount := 0
	for _, indicator := range engagementIndicators {
		if strings.Contains(lower, indicator) {
			engagementCount++
		}
	}
	score += minFloat(float64(engagementCount)*3, 15)

	return minFloat(score, 100)
}

// readabilityScore maps average sentence length to a coarse band. Content
// with no sentences scores zero.
func readabilityScore(content string) float64 {
	sentences := 0
	for _, part := range sentenceSplitRE.Split(content, -1) {
		if strings.TrimSpace(part) != "" {
			sentences++
		}
	}
	if sentences == 0 {
		return 0
	}
	words := len(strings.Fields(content))
	avg := float64(words) / float64(sentences)
	switch {
	case avg <= 15:
		return 90
	case avg <= 20:
		return 70
	case avg <= 25:
		return 50
	default:
		return 30
	}
}

// engagementScore estimates engagement from content quality, hashtag fit,
// and platform-specific signals. Capped at 100.
func engagementScore(content string, hashtags []string, platform domain.Platform) float64 {
	score := 0.0
	lower := strings.ToLower(content)

	// Content quality carries 40% of the reference-location SEO score.
	score += seoScore(content, referenceLocation) / 100 * 40

	strategy, ok := hashtagStrategies[platform]
	if !ok {
		strategy = hashtagStrategies[domain.PlatformInstagram]
	}
	count := len(hashtags)
	if count >= strategy.minTags && count <= strategy.maxTags {
		score += 30
	} else {
		distance := minInt(absInt(count-strategy.minTags), absInt(count-strategy.maxTags))
		score += maxFloat(30-float64(distance)*5, 0)
	}

	if platform == domain.PlatformFacebook {
		if utf8.RuneCountInString(content) >= 100 {
			score += 10
		}
		if strings.Contains(content, "?") {
			score += 10
		}
	} else {
		if containsAnyFold(lower, visualWords) {
			score += 10
		}
		if utf8.RuneCountInString(content) <= 300 {
			score += 10
		}
	}

	if containsAnyFold(lower, engagementCTAs) {
		score += 10
	}

	return minFloat(score, 100)
}

// matchedKeywords returns the catalog keywords present in content, primary
// list first, preserving catalog order.
func matchedKeywords(content string) []string {
	lower := strings.ToLower(content)
	var matched []string
	for _, list := range [][]string{primaryKeywords, longTailKeywords} {
		for _, keyword := range list {
			if strings.Contains(lower, strings.ToLower(keyword)) {
				matched = append(matched, keyword)
			}
		}
	}
	return matched
}

// keywordDensity counts occurrences of each matched catalog keyword.
func keywordDensity(content string) map[string]int {
	lower := strings.ToLower(content)
	density := make(map[string]int)
	for _, keyword := range matchedKeywords(content) {
		density[keyword] = strings.Count(lower, strings.ToLower(keyword))
	}
	return density
}

func metaDescription(content, location string) string {
	snippet := content
	if runes := []rune(snippet); len(runes) > 100 {
		snippet = string(runes[:100])
	}
	return "Real estate content for " + location + ". " + snippet + "..."
}

// containsAnyFold reports whether lower (already lowercased) contains any of
// the needles, compared case-insensitively.
func containsAnyFold(lower string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(lower, strings.ToLower(needle)) {
			return true
		}
	}
	return false
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
