package contentgen

import (
	"strings"
	"testing"

	"estatecast/pkg/domain"
)

func TestSEOScoreEmptySignals(t *testing.T) {
	if got := seoScore("hello", "Windsor"); got != 0 {
		t.Fatalf("score = %v, want 0", got)
	}
}

func TestSEOScoreLocationMention(t *testing.T) {
	if got := seoScore("Windsor", "Windsor"); got != 20 {
		t.Fatalf("score = %v, want 20", got)
	}
	if got := seoScore("windsor is great", "Windsor"); got != 20 {
		t.Fatalf("case-insensitive score = %v, want 20", got)
	}
}

func TestSEOScoreLengthBands(t *testing.T) {
	cases := []struct {
		length int
		want   float64
	}{
		{49, 0},
		{50, 15},
		{99, 15},
		{100, 20},
		{300, 20},
		{301, 15},
		{500, 15},
		{501, 10},
	}
	for _, tc := range cases {
		content := strings.Repeat("a", tc.length)
		if got := seoScore(content, "Windsor"); got != tc.want {
			t.Fatalf("length %d: score = %v, want %v", tc.length, got, tc.want)
		}
	}
}

func TestSEOScoreCountsRunesNotBytes(t *testing.T) {
	// 100 runes but 400 bytes; the 100-300 band must apply.
	content := strings.Repeat("🏡", 100)
	if got := seoScore(content, "Windsor"); got != 20 {
		t.Fatalf("score = %v, want 20", got)
	}
}

func TestSEOScoreCallToAction(t *testing.T) {
	if got := seoScore("dm", "Windsor"); got != 15 {
		t.Fatalf("score = %v, want 15", got)
	}
}

func TestSEOScoreEngagementIndicators(t *testing.T) {
	if got := seoScore("? !", "Windsor"); got != 6 {
		t.Fatalf("two indicators: score = %v, want 6", got)
	}
	if got := seoScore("? ! comment share tag save", "Windsor"); got != 15 {
		t.Fatalf("capped indicators: score = %v, want 15", got)
	}
}

func TestSEOScoreFullRubric(t *testing.T) {
	content := "Beautiful house for sale in Windsor! Contact me to schedule a viewing today. Your dream property awaits."
	// 20 location + 6 for two keywords + 20 length band + 15 CTA + 3 for "!".
	if got := seoScore(content, "Windsor"); got != 64 {
		t.Fatalf("score = %v, want 64", got)
	}
}

func TestSEOScoreCapsAt100(t *testing.T) {
	content := "Windsor real estate! Our homes for sale: a property, house, listing? " +
		"A real estate agent & realtor for home buyer & home seller. " +
		"Property investment & housing market tips. Contact us, comment, share! " +
		"Tag a friend and save this post."
	if got := seoScore(content, "Windsor"); got != 100 {
		t.Fatalf("score = %v, want 100", got)
	}
}

func TestReadabilityScore(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    float64
	}{
		{"empty", "", 0},
		{"punctuation only", "...", 0},
		{"short sentences", "A. B. C.", 90},
		{"fifteen words", sentenceOfWords(15), 90},
		{"sixteen words", sentenceOfWords(16), 70},
		{"twenty words", sentenceOfWords(20), 70},
		{"twenty-five words", sentenceOfWords(25), 50},
		{"rambling", sentenceOfWords(30), 30},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := readabilityScore(tc.content); got != tc.want {
				t.Fatalf("readability = %v, want %v", got, tc.want)
			}
		})
	}
}

func sentenceOfWords(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n)) + "."
}

func TestMatchedKeywordsCatalogOrder(t *testing.T) {
	content := "Thinking about market trends? This house is prime real estate."
	got := matchedKeywords(content)
	want := []string{"real estate", "house", "market trends"}
	if len(got) != len(want) {
		t.Fatalf("matched = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("matched[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestKeywordDensityCountsOccurrences(t *testing.T) {
	got := keywordDensity("Property, property, PROPERTY.")
	if len(got) != 1 || got["property"] != 3 {
		t.Fatalf("density = %v, want map[property:3]", got)
	}
}

func TestMetaDescriptionShortContent(t *testing.T) {
	got := metaDescription("Lovely home.", "Windsor")
	want := "Real estate content for Windsor. Lovely home...."
	if got != want {
		t.Fatalf("meta = %q, want %q", got, want)
	}
}

func TestMetaDescriptionTruncatesAtHundredRunes(t *testing.T) {
	content := strings.Repeat("🏡", 150)
	got := metaDescription(content, "Windsor")
	want := "Real estate content for Windsor. " + strings.Repeat("🏡", 100) + "..."
	if got != want {
		t.Fatalf("meta = %q, want %q", got, want)
	}
}

func TestEngagementScoreHashtagFit(t *testing.T) {
	if got := engagementScore("", nil, domain.PlatformInstagram); got != 10 {
		t.Fatalf("no hashtags: score = %v, want 10", got)
	}
	if got := engagementScore("", make([]string, 10), domain.PlatformInstagram); got != 40 {
		t.Fatalf("in-range hashtags: score = %v, want 40", got)
	}
	if got := engagementScore("", make([]string, 6), domain.PlatformInstagram); got != 30 {
		t.Fatalf("two below range: score = %v, want 30", got)
	}
	if got := engagementScore("", make([]string, 3), domain.PlatformFacebook); got != 30 {
		t.Fatalf("facebook in-range: score = %v, want 30", got)
	}
}

func TestEngagementScoreInstagramVisualBonus(t *testing.T) {
	if got := engagementScore("see", nil, domain.PlatformInstagram); got != 20 {
		t.Fatalf("score = %v, want 20", got)
	}
}

func TestEngagementScoreFacebookBonuses(t *testing.T) {
	content := strings.Repeat("a", 100) + "?"
	got := engagementScore(content, make([]string, 3), domain.PlatformFacebook)
	// 23 SEO carries 9.2, plus 30 hashtag fit, 10 length, 10 question.
	if got < 59.1 || got > 59.3 {
		t.Fatalf("score = %v, want ~59.2", got)
	}
}

func TestEngagementScoreCombined(t *testing.T) {
	// SEO of 50 (location, 50-99 length, CTA) carries exactly 20, plus 30
	// hashtag fit, 10 short-content bonus, 10 CTA bonus.
	content := "Windsor dm " + strings.Repeat("a", 50)
	got := engagementScore(content, make([]string, 10), domain.PlatformInstagram)
	if got != 70 {
		t.Fatalf("score = %v, want 70", got)
	}
}

func TestEngagementScoreUnknownPlatformUsesInstagramDefaults(t *testing.T) {
	if got := engagementScore("", make([]string, 10), domain.Platform("tiktok")); got != 40 {
		t.Fatalf("score = %v, want 40", got)
	}
}
