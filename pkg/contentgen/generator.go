package contentgen

import (
	"strings"
	"time"
	"unicode/utf8"

	"estatecast/pkg/domain"
)

// Generator produces SEO-optimized social media content for the
// Windsor-Essex real estate market. A Generator is immutable after
// construction and safe for concurrent use.
type Generator struct {
	rand Rand
	now  func() time.Time
}

// Option customizes a Generator.
type Option func(*Generator)

// WithRand overrides the random source, mainly for tests.
func WithRand(r Rand) Option {
	return func(g *Generator) {
		if r != nil {
			g.rand = r
		}
	}
}

// WithNow overrides the clock, mainly for tests.
func WithNow(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// New constructs a Generator with the shared random source and wall clock.
func New(opts ...Option) *Generator {
	g := &Generator{
		rand: sharedRand{},
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Request describes one content generation call. Category falls back to the
// community template set when unrecognized; Platform falls back to instagram
// defaults. Location defaults to a random primary market location. Overrides
// supply caller values for template fields such as price, topic, or
// property_type.
type Request struct {
	Category  domain.Category
	Platform  domain.Platform
	Location  string
	Overrides map[string]string
}

// Generate produces a single platform-ready piece of content. It never
// fails: unknown categories and platforms degrade to defaults and template
// rendering always yields a usable body.
func (g *Generator) Generate(req Request) domain.GeneratedContent {
	location := req.Location
	if location == "" {
		location = choice(g.rand, primaryLocations)
	}
	body := g.buildBody(req.Category, location, req.Overrides)
	hashtags := g.Hashtags(req.Category, req.Platform, location)
	now := g.now()
	return domain.GeneratedContent{
		Category:        req.Category,
		Platform:        req.Platform,
		Location:        location,
		Body:            body,
		Hashtags:        hashtags,
		ImagePrompt:     g.ImagePrompt(req.Category, location, req.Overrides),
		PostingTime:     g.PostingTime(req.Platform),
		SEOScore:        int(seoScore(body, location)),
		EngagementScore: int(engagementScore(body, hashtags, req.Platform)),
		SEOMetadata:     seoMetadata(body, location),
		CreatedAt:       now,
	}
}

// seoMetadata builds the per-post keyword breakdown from the rendered body.
func seoMetadata(body, location string) domain.SEOMetadata {
	return domain.SEOMetadata{
		KeywordDensity:   keywordDensity(body),
		MetaDescription:  metaDescription(body, location),
		PrimaryKeywords:  firstN(matchedKeywords(body), 5),
		LocationMentions: strings.Count(strings.ToLower(body), strings.ToLower(location)),
		ReadabilityScore: int(readabilityScore(body)),
		ContentLength:    utf8.RuneCountInString(body),
	}
}

// Calendar builds a posting plan covering the next days starting today. Some
// days are intentionally left empty to avoid over-posting, so the result
// holds at most one entry per day and may be shorter than days.
func (g *Generator) Calendar(days int, platform domain.Platform) []domain.CalendarEntry {
	entries := make([]domain.CalendarEntry, 0, days)
	now := g.now()
	for day := 0; day < days; day++ {
		if g.rand.Float64() < 0.3 {
			continue
		}
		date := now.AddDate(0, 0, day)
		content := g.Generate(Request{
			Category: weightedCategory(g.rand, calendarWeights),
			Platform: platform,
			Location: choice(g.rand, primaryLocations),
		})
		entries = append(entries, domain.CalendarEntry{
			Date:    date,
			Weekday: date.Weekday().String(),
			Content: content,
		})
	}
	return entries
}

// Batch generates count pieces rotating through the given categories and
// locations; nil slices fall back to the full catalogs.
func (g *Generator) Batch(count int, platform domain.Platform, categories []domain.Category, locations []string) []domain.GeneratedContent {
	if count <= 0 {
		return nil
	}
	if len(categories) == 0 {
		categories = domain.Categories()
	}
	if len(locations) == 0 {
		locations = primaryLocations
	}
	out := make([]domain.GeneratedContent, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, g.Generate(Request{
			Category: categories[i%len(categories)],
			Platform: platform,
			Location: locations[i%len(locations)],
		}))
	}
	return out
}

// Optimize scores existing content and reports concrete improvements plus a
// fresh hashtag set for the platform.
func (g *Generator) Optimize(content string, platform domain.Platform) domain.OptimizationReport {
	score := seoScore(content, referenceLocation)
	lower := strings.ToLower(content)

	var suggestions []string
	if !containsAnyFold(lower, primaryLocations) {
		suggestions = append(suggestions, "Add location-specific keywords (Windsor, Essex County, etc.)")
	}
	if !containsAnyFold(lower, primaryKeywords) && !containsAnyFold(lower, longTailKeywords) {
		suggestions = append(suggestions, "Include real estate-specific keywords")
	}
	if !containsAnyFold(lower, optimizeCTAs) {
		suggestions = append(suggestions, "Add a clear call-to-action")
	}
	if utf8.RuneCountInString(content) < 50 {
		suggestions = append(suggestions, "Expand content for better engagement (aim for 100-300 characters)")
	} else if utf8.RuneCountInString(content) > 500 {
		suggestions = append(suggestions, "Consider shortening content for better readability")
	}

	return domain.OptimizationReport{
		CurrentScore: int(score),
		Suggestions:  suggestions,
		// A category outside the catalog lands on the community tag set,
		// which suits content of unknown type.
		Hashtags:             g.Hashtags("general", platform, referenceLocation),
		EstimatedImprovement: int(minFloat(100-score, 30)),
	}
}

// Analyze reports SEO characteristics of existing content. Engagement is
// included only when a platform is supplied.
func (g *Generator) Analyze(content, location string, platform domain.Platform, hashtags []string) domain.ContentAnalysis {
	if location == "" {
		location = referenceLocation
	}
	analysis := domain.ContentAnalysis{
		SEOScore:         int(seoScore(content, location)),
		ReadabilityScore: int(readabilityScore(content)),
		KeywordDensity:   keywordDensity(content),
		CharacterCount:   utf8.RuneCountInString(content),
		MetaDescription:  metaDescription(content, location),
		PrimaryKeywords:  firstN(matchedKeywords(content), 5),
		LocationMentions: strings.Count(strings.ToLower(content), strings.ToLower(location)),
	}
	if platform != "" {
		analysis.EngagementScore = int(engagementScore(content, hashtags, platform))
	}
	return analysis
}

func firstN(items []string, n int) []string {
	if n > len(items) {
		n = len(items)
	}
	out := make([]string, n)
	copy(out, items[:n])
	return out
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
