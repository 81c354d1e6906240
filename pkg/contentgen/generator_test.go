package contentgen

import (
	"encoding/json"
	"math/rand/v2"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"estatecast/pkg/domain"
)

// stubRand returns fixed values: IntN yields n (clamped below the bound),
// Float64 yields f, Perm is the identity permutation.
type stubRand struct {
	n int
	f float64
}

func (s stubRand) IntN(n int) int {
	if s.n >= n {
		return n - 1
	}
	return s.n
}

func (s stubRand) Float64() float64 { return s.f }

func (s stubRand) Perm(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func testRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func TestGenerateFillsAllFields(t *testing.T) {
	now := time.Date(2026, 8, 19, 8, 0, 0, 0, time.UTC)
	g := New(WithRand(testRand(7)), WithNow(func() time.Time { return now }))

	content := g.Generate(Request{
		Category: domain.CategoryPropertyShowcase,
		Platform: domain.PlatformInstagram,
		Location: "Windsor",
	})

	if content.Category != domain.CategoryPropertyShowcase {
		t.Fatalf("category = %q, want %q", content.Category, domain.CategoryPropertyShowcase)
	}
	if content.Platform != domain.PlatformInstagram {
		t.Fatalf("platform = %q, want %q", content.Platform, domain.PlatformInstagram)
	}
	if content.Location != "Windsor" {
		t.Fatalf("location = %q, want Windsor", content.Location)
	}
	if !strings.Contains(content.Body, "Windsor") {
		t.Fatalf("body missing location: %q", content.Body)
	}
	if n := len(content.Hashtags); n < 8 || n > 12 {
		t.Fatalf("hashtag count = %d, want 8-12", n)
	}
	if content.ImagePrompt == "" || strings.Contains(content.ImagePrompt, "{") {
		t.Fatalf("image prompt = %q", content.ImagePrompt)
	}
	if !content.PostingTime.After(now) {
		t.Fatalf("posting time %v not after %v", content.PostingTime, now)
	}
	if content.SEOScore < 0 || content.SEOScore > 100 {
		t.Fatalf("seo score = %d, want 0-100", content.SEOScore)
	}
	if content.EngagementScore < 0 || content.EngagementScore > 100 {
		t.Fatalf("engagement score = %d, want 0-100", content.EngagementScore)
	}
	if !content.CreatedAt.Equal(now) {
		t.Fatalf("created at = %v, want %v", content.CreatedAt, now)
	}
}

func TestGenerateAttachesSEOMetadata(t *testing.T) {
	g := New(WithRand(testRand(7)))
	content := g.Generate(Request{
		Category: domain.CategoryPropertyShowcase,
		Platform: domain.PlatformInstagram,
		Location: "Windsor",
	})

	meta := content.SEOMetadata
	if !strings.HasPrefix(meta.MetaDescription, "Real estate content for Windsor") {
		t.Fatalf("meta description = %q", meta.MetaDescription)
	}
	if want := utf8.RuneCountInString(content.Body); meta.ContentLength != want {
		t.Fatalf("content length = %d, want %d", meta.ContentLength, want)
	}
	if meta.LocationMentions < 1 {
		t.Fatalf("location mentions = %d, want at least 1", meta.LocationMentions)
	}
	if meta.ReadabilityScore < 0 || meta.ReadabilityScore > 100 {
		t.Fatalf("readability = %d, want 0-100", meta.ReadabilityScore)
	}
	if meta.KeywordDensity == nil {
		t.Fatal("keyword density missing")
	}
	if len(meta.PrimaryKeywords) > 5 {
		t.Fatalf("primary keywords = %v, want at most 5", meta.PrimaryKeywords)
	}

	raw, err := json.Marshal(content)
	if err != nil {
		t.Fatalf("marshal content: %v", err)
	}
	keys := []string{"metaDescription", "keywordDensity", "primaryKeywords", "locationMentions", "readabilityScore", "contentLength"}
	for _, key := range keys {
		if !strings.Contains(string(raw), `"`+key+`"`) {
			t.Fatalf("serialized content missing %q: %s", key, raw)
		}
	}
}

func TestGenerateDefaultsToCatalogLocation(t *testing.T) {
	g := New(WithRand(testRand(3)))
	content := g.Generate(Request{
		Category: domain.CategoryCommunity,
		Platform: domain.PlatformFacebook,
	})
	found := false
	for _, loc := range primaryLocations {
		if content.Location == loc {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("location %q not from the primary catalog", content.Location)
	}
}

func TestCalendarCoversRequestedDays(t *testing.T) {
	now := time.Date(2026, 8, 19, 8, 0, 0, 0, time.UTC)
	g := New(WithRand(stubRand{f: 0.9}), WithNow(func() time.Time { return now }))

	entries := g.Calendar(30, domain.PlatformInstagram)
	if len(entries) != 30 {
		t.Fatalf("entries = %d, want 30 with no skips", len(entries))
	}
	for i, entry := range entries {
		wantDate := now.AddDate(0, 0, i)
		if !entry.Date.Equal(wantDate) {
			t.Fatalf("entry %d date = %v, want %v", i, entry.Date, wantDate)
		}
		if entry.Weekday != wantDate.Weekday().String() {
			t.Fatalf("entry %d weekday = %q, want %q", i, entry.Weekday, wantDate.Weekday().String())
		}
		if entry.Content.Body == "" {
			t.Fatalf("entry %d has empty content", i)
		}
	}
}

func TestCalendarSkipsLowDrawDays(t *testing.T) {
	g := New(WithRand(stubRand{f: 0.1}))
	if entries := g.Calendar(10, domain.PlatformInstagram); len(entries) != 0 {
		t.Fatalf("entries = %d, want 0 when every draw skips", len(entries))
	}
}

func TestCalendarWeightsPickCategory(t *testing.T) {
	// A draw of 0.9 walks the cumulative weights to the community bucket.
	g := New(WithRand(stubRand{f: 0.9}))
	entries := g.Calendar(1, domain.PlatformInstagram)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Content.Category != domain.CategoryCommunity {
		t.Fatalf("category = %q, want %q", entries[0].Content.Category, domain.CategoryCommunity)
	}
}

func TestBatchRotatesCategoriesAndLocations(t *testing.T) {
	g := New(WithRand(testRand(5)))
	categories := []domain.Category{domain.CategoryPropertyShowcase, domain.CategoryMarketUpdate}
	locations := []string{"Windsor", "Tecumseh", "LaSalle"}

	out := g.Batch(6, domain.PlatformInstagram, categories, locations)
	if len(out) != 6 {
		t.Fatalf("batch size = %d, want 6", len(out))
	}
	for i, content := range out {
		if content.Category != categories[i%2] {
			t.Fatalf("item %d category = %q, want %q", i, content.Category, categories[i%2])
		}
		if content.Location != locations[i%3] {
			t.Fatalf("item %d location = %q, want %q", i, content.Location, locations[i%3])
		}
	}
}

func TestBatchDefaultsToCatalogs(t *testing.T) {
	g := New(WithRand(testRand(11)))
	out := g.Batch(4, domain.PlatformFacebook, nil, nil)
	if len(out) != 4 {
		t.Fatalf("batch size = %d, want 4", len(out))
	}
	for i, want := range domain.Categories() {
		if out[i].Category != want {
			t.Fatalf("item %d category = %q, want %q", i, out[i].Category, want)
		}
	}
	if out[0].Location != primaryLocations[0] {
		t.Fatalf("item 0 location = %q, want %q", out[0].Location, primaryLocations[0])
	}
}

func TestBatchRejectsNonPositiveCount(t *testing.T) {
	g := New(WithRand(testRand(1)))
	if out := g.Batch(0, domain.PlatformInstagram, nil, nil); out != nil {
		t.Fatalf("batch = %v, want nil", out)
	}
}

func TestOptimizeWeakContent(t *testing.T) {
	g := New(WithRand(testRand(9)))
	report := g.Optimize("Just a short note.", domain.PlatformInstagram)

	if report.CurrentScore != 0 {
		t.Fatalf("current score = %d, want 0", report.CurrentScore)
	}
	if report.EstimatedImprovement != 30 {
		t.Fatalf("estimated improvement = %d, want 30", report.EstimatedImprovement)
	}
	wantSuggestions := []string{
		"Add location-specific keywords (Windsor, Essex County, etc.)",
		"Include real estate-specific keywords",
		"Add a clear call-to-action",
		"Expand content for better engagement (aim for 100-300 characters)",
	}
	if len(report.Suggestions) != len(wantSuggestions) {
		t.Fatalf("suggestions = %v, want %v", report.Suggestions, wantSuggestions)
	}
	for i := range wantSuggestions {
		if report.Suggestions[i] != wantSuggestions[i] {
			t.Fatalf("suggestion %d = %q, want %q", i, report.Suggestions[i], wantSuggestions[i])
		}
	}
	if n := len(report.Hashtags); n < 8 || n > 12 {
		t.Fatalf("hashtag count = %d, want 8-12", n)
	}
}

func TestOptimizeStrongContentHasNoSuggestions(t *testing.T) {
	g := New(WithRand(testRand(9)))
	report := g.Optimize("Beautiful Windsor real estate! DM me to see this property today.", domain.PlatformFacebook)

	if len(report.Suggestions) != 0 {
		t.Fatalf("suggestions = %v, want none", report.Suggestions)
	}
	if n := len(report.Hashtags); n < 2 || n > 5 {
		t.Fatalf("hashtag count = %d, want 2-5", n)
	}
	if report.CurrentScore+report.EstimatedImprovement > 100 {
		t.Fatalf("score %d + improvement %d exceeds 100", report.CurrentScore, report.EstimatedImprovement)
	}
}

func TestOptimizeFlagsOverlongContent(t *testing.T) {
	g := New(WithRand(testRand(2)))
	report := g.Optimize("Windsor real estate dm "+strings.Repeat("a", 500), domain.PlatformInstagram)
	found := false
	for _, s := range report.Suggestions {
		if s == "Consider shortening content for better readability" {
			found = true
		}
	}
	if !found {
		t.Fatalf("suggestions = %v, want shortening advice", report.Suggestions)
	}
}

func TestAnalyzeReportsContentShape(t *testing.T) {
	g := New()
	content := "Windsor property market is strong. Windsor homes sell fast."
	analysis := g.Analyze(content, "", "", nil)

	if analysis.SEOScore != 38 {
		t.Fatalf("seo score = %d, want 38", analysis.SEOScore)
	}
	if analysis.ReadabilityScore != 90 {
		t.Fatalf("readability = %d, want 90", analysis.ReadabilityScore)
	}
	if analysis.EngagementScore != 0 {
		t.Fatalf("engagement = %d, want 0 without a platform", analysis.EngagementScore)
	}
	if analysis.CharacterCount != 59 {
		t.Fatalf("character count = %d, want 59", analysis.CharacterCount)
	}
	if analysis.LocationMentions != 2 {
		t.Fatalf("location mentions = %d, want 2", analysis.LocationMentions)
	}
	if len(analysis.PrimaryKeywords) != 1 || analysis.PrimaryKeywords[0] != "property" {
		t.Fatalf("primary keywords = %v, want [property]", analysis.PrimaryKeywords)
	}
	if analysis.KeywordDensity["property"] != 1 {
		t.Fatalf("keyword density = %v, want property:1", analysis.KeywordDensity)
	}
	want := "Real estate content for Windsor. " + content + "..."
	if analysis.MetaDescription != want {
		t.Fatalf("meta = %q, want %q", analysis.MetaDescription, want)
	}
}

func TestAnalyzeIncludesEngagementForPlatform(t *testing.T) {
	g := New()
	analysis := g.Analyze("Windsor homes.", "Windsor", domain.PlatformInstagram, make([]string, 10))
	if analysis.EngagementScore == 0 {
		t.Fatalf("engagement score should be set when a platform is supplied")
	}
}

func TestAnalyzeLimitsPrimaryKeywordsToFive(t *testing.T) {
	g := New()
	content := "real estate, homes for sale, property, house, listing, realtor, home buyer"
	analysis := g.Analyze(content, "Windsor", "", nil)
	if len(analysis.PrimaryKeywords) != 5 {
		t.Fatalf("primary keywords = %v, want 5 entries", analysis.PrimaryKeywords)
	}
	if analysis.PrimaryKeywords[0] != "real estate" {
		t.Fatalf("first keyword = %q, want %q", analysis.PrimaryKeywords[0], "real estate")
	}
}
