package contentgen

import (
	"strings"

	"estatecast/pkg/domain"
)

// Hashtags builds a platform-sized tag set: a mix of high, medium, and niche
// volume tags per the platform strategy, plus category and location tags,
// deduplicated and truncated to the drawn target count.
func (g *Generator) Hashtags(category domain.Category, platform domain.Platform, location string) []string {
	strategy, ok := hashtagStrategies[platform]
	if !ok {
		strategy = hashtagStrategies[domain.PlatformInstagram]
	}
	if location == "" {
		location = referenceLocation
	}

	target := intBetween(g.rand, strategy.minTags, strategy.maxTags)
	highCount := int(float64(target) * strategy.highMix)
	mediumCount := int(float64(target) * strategy.mediumMix)
	nicheCount := target - highCount - mediumCount

	selected := make([]string, 0, target+4)
	selected = append(selected, sample(g.rand, highVolumeTags, highCount)...)
	selected = append(selected, sample(g.rand, mediumVolumeTags, mediumCount)...)
	selected = append(selected, sample(g.rand, nicheTags, nicheCount)...)

	if tags, ok := categoryTags[category]; ok {
		selected = append(selected, tags...)
	} else {
		selected = append(selected, categoryTags[domain.CategoryCommunity]...)
	}
	selected = append(selected, locationTags(location)...)

	seen := make(map[string]struct{}, len(selected))
	unique := make([]string, 0, len(selected))
	for _, tag := range selected {
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		unique = append(unique, tag)
	}
	if len(unique) > target {
		unique = unique[:target]
	}
	return unique
}

func locationTags(location string) []string {
	compact := strings.NewReplacer(" ", "", "-", "").Replace(location)
	return []string{"#" + compact, "#" + compact + "RealEstate"}
}
