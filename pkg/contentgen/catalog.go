package contentgen

import "estatecast/pkg/domain"

// ContentType describes one supported post category for catalog listings.
type ContentType struct {
	ID          domain.Category `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
}

// PostingWindow is one optimal posting slot in catalog form.
type PostingWindow struct {
	StartHour int `json:"startHour"`
	EndHour   int `json:"endHour"`
}

// PlatformPostingTimes lists a platform's weekday and weekend windows.
type PlatformPostingTimes struct {
	Weekday []PostingWindow `json:"weekday"`
	Weekend []PostingWindow `json:"weekend"`
}

// ContentTypes returns the supported categories in catalog order.
func ContentTypes() []ContentType {
	return []ContentType{
		{domain.CategoryPropertyShowcase, "Property Showcase", "Highlight a listing with features, pricing, and neighborhood context"},
		{domain.CategoryMarketUpdate, "Market Update", "Share market trends and what they mean for buyers and sellers"},
		{domain.CategoryEducational, "Educational", "Teach a real estate concept relevant to the local market"},
		{domain.CategoryCommunity, "Community", "Celebrate local places, events, and people"},
	}
}

// Locations returns the primary and neighborhood location catalogs.
func Locations() (primary, secondary []string) {
	return append([]string(nil), primaryLocations...), append([]string(nil), neighborhoods...)
}

// Keywords returns the primary and long-tail keyword catalogs.
func Keywords() (primary, longTail []string) {
	return append([]string(nil), primaryKeywords...), append([]string(nil), longTailKeywords...)
}

// PostingTimes returns every platform's optimal posting windows.
func PostingTimes() map[domain.Platform]PlatformPostingTimes {
	out := make(map[domain.Platform]PlatformPostingTimes, len(optimalPostingWindows))
	for platform, windows := range optimalPostingWindows {
		out[platform] = PlatformPostingTimes{
			Weekday: toCatalogWindows(windows.weekday),
			Weekend: toCatalogWindows(windows.weekend),
		}
	}
	return out
}

func toCatalogWindows(ranges []hourRange) []PostingWindow {
	out := make([]PostingWindow, len(ranges))
	for i, r := range ranges {
		out[i] = PostingWindow{StartHour: r.start, EndHour: r.end}
	}
	return out
}
