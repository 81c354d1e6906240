package domain

import "time"

type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
)

// Platforms lists every supported platform in stable order.
func Platforms() []Platform {
	return []Platform{PlatformInstagram, PlatformFacebook}
}

type Category string

const (
	CategoryPropertyShowcase Category = "property_showcase"
	CategoryMarketUpdate     Category = "market_update"
	CategoryEducational      Category = "educational"
	CategoryCommunity        Category = "community"
)

// Categories lists every content category in stable order.
func Categories() []Category {
	return []Category{CategoryPropertyShowcase, CategoryMarketUpdate, CategoryEducational, CategoryCommunity}
}

type PostStatus string

const (
	PostDraft     PostStatus = "draft"
	PostApproved  PostStatus = "approved"
	PostScheduled PostStatus = "scheduled"
	PostPosted    PostStatus = "posted"
	PostFailed    PostStatus = "failed"
)

type GenerationStatus string

const (
	GenerationPending   GenerationStatus = "pending"
	GenerationCompleted GenerationStatus = "completed"
	GenerationFailed    GenerationStatus = "failed"
)

// GeneratedContent is a single platform-ready post produced by the content
// generator.
type GeneratedContent struct {
	Category        Category    `json:"category"`
	Platform        Platform    `json:"platform"`
	Location        string      `json:"location"`
	Body            string      `json:"body"`
	Hashtags        []string    `json:"hashtags"`
	ImagePrompt     string      `json:"imagePrompt"`
	PostingTime     time.Time   `json:"postingTime"`
	SEOScore        int         `json:"seoScore"`
	EngagementScore int         `json:"engagementScore"`
	SEOMetadata     SEOMetadata `json:"seoMetadata"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// SEOMetadata is the keyword and readability breakdown attached to every
// generated post.
type SEOMetadata struct {
	KeywordDensity   map[string]int `json:"keywordDensity"`
	MetaDescription  string         `json:"metaDescription"`
	PrimaryKeywords  []string       `json:"primaryKeywords"`
	LocationMentions int            `json:"locationMentions"`
	ReadabilityScore int            `json:"readabilityScore"`
	ContentLength    int            `json:"contentLength"`
}

// CalendarEntry places generated content on a concrete date.
type CalendarEntry struct {
	Date    time.Time        `json:"date"`
	Weekday string           `json:"weekday"`
	Content GeneratedContent `json:"content"`
}

// ContentAnalysis reports SEO characteristics of an existing piece of content.
type ContentAnalysis struct {
	SEOScore         int            `json:"seoScore"`
	ReadabilityScore int            `json:"readabilityScore"`
	EngagementScore  int            `json:"engagementScore,omitempty"`
	KeywordDensity   map[string]int `json:"keywordDensity"`
	CharacterCount   int            `json:"characterCount"`
	MetaDescription  string         `json:"metaDescription"`
	PrimaryKeywords  []string       `json:"primaryKeywords"`
	LocationMentions int            `json:"locationMentions"`
}

// OptimizationReport carries improvement suggestions for existing content.
type OptimizationReport struct {
	CurrentScore         int      `json:"currentScore"`
	Suggestions          []string `json:"suggestions"`
	Hashtags             []string `json:"hashtags"`
	EstimatedImprovement int      `json:"estimatedImprovement"`
}

// ImageResult reports one image generation attempt. Failures are carried in
// the Error field rather than raised.
type ImageResult struct {
	Success     bool    `json:"success"`
	ImagePath   string  `json:"imagePath,omitempty"`
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	ElapsedSecs float64 `json:"elapsedSeconds"`
	Error       string  `json:"error,omitempty"`
}

// Account is a connected social media account. The access token is sealed at
// rest and never serialized.
type Account struct {
	ID                string     `json:"id"`
	UserID            string     `json:"userId"`
	Platform          Platform   `json:"platform"`
	PlatformAccountID string     `json:"platformAccountId"`
	Name              string     `json:"name"`
	AccessToken       string     `json:"-"`
	TokenExpiresAt    *time.Time `json:"tokenExpiresAt,omitempty"`
	Active            bool       `json:"active"`
	PostsCount        int        `json:"postsCount,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// Post is a social media post moving through the draft → approved →
// scheduled → posted/failed lifecycle.
type Post struct {
	ID             string     `json:"id"`
	AccountID      string     `json:"accountId"`
	Content        string     `json:"content"`
	Hashtags       []string   `json:"hashtags"`
	ImageURL       string     `json:"imageUrl,omitempty"`
	ImagePrompt    string     `json:"imagePrompt,omitempty"`
	Status         PostStatus `json:"status"`
	ScheduledAt    *time.Time `json:"scheduledAt,omitempty"`
	PostedAt       *time.Time `json:"postedAt,omitempty"`
	PlatformPostID string     `json:"platformPostId,omitempty"`
	ErrorMessage   string     `json:"errorMessage,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// ImageGeneration records one media-service image generation request.
type ImageGeneration struct {
	ID           string           `json:"id"`
	Prompt       string           `json:"prompt"`
	Provider     string           `json:"provider"`
	Model        string           `json:"model"`
	Status       GenerationStatus `json:"status"`
	ImagePath    string           `json:"imagePath,omitempty"`
	ObjectKey    string           `json:"-"`
	ElapsedSecs  float64          `json:"elapsedSeconds,omitempty"`
	ErrorMessage string           `json:"errorMessage,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// Schedule is a named recurring posting configuration. The config payload is
// opaque to the backend.
type Schedule struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Active      bool           `json:"active"`
	Config      map[string]any `json:"config,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// ParsePlatform normalizes a platform name.
func ParsePlatform(s string) (Platform, bool) {
	switch Platform(s) {
	case PlatformInstagram:
		return PlatformInstagram, true
	case PlatformFacebook:
		return PlatformFacebook, true
	default:
		return "", false
	}
}

// ParseCategory normalizes a category name.
func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryPropertyShowcase:
		return CategoryPropertyShowcase, true
	case CategoryMarketUpdate:
		return CategoryMarketUpdate, true
	case CategoryEducational:
		return CategoryEducational, true
	case CategoryCommunity:
		return CategoryCommunity, true
	default:
		return "", false
	}
}

// ParsePostStatus normalizes a post status.
func ParsePostStatus(s string) (PostStatus, bool) {
	switch PostStatus(s) {
	case PostDraft, PostApproved, PostScheduled, PostPosted, PostFailed:
		return PostStatus(s), true
	default:
		return "", false
	}
}
