// Package app holds the studio service's content planning logic: strict
// request validation in front of the content generator.
package app

import (
	"strings"
	"time"

	"estatecast/pkg/contentgen"
	"estatecast/pkg/domain"
)

const (
	maxCalendarDays = 90
	maxBatchCount   = 20
)

// App validates requests and delegates to the content generator.
type App struct {
	gen *contentgen.Generator
}

// New constructs the studio application core.
func New(gen *contentgen.Generator) *App {
	if gen == nil {
		gen = contentgen.New()
	}
	return &App{gen: gen}
}

// GenerateParams describes one content generation request after decoding.
type GenerateParams struct {
	Category  string
	Platform  string
	Location  string
	Overrides map[string]string
}

// Generate validates the request and produces one piece of content.
func (a *App) Generate(p GenerateParams) (domain.GeneratedContent, error) {
	category, ok := domain.ParseCategory(p.Category)
	if !ok {
		return domain.GeneratedContent{}, ErrUnknownCategory
	}
	platform, ok := domain.ParsePlatform(p.Platform)
	if !ok {
		return domain.GeneratedContent{}, ErrUnknownPlatform
	}
	return a.gen.Generate(contentgen.Request{
		Category:  category,
		Platform:  platform,
		Location:  strings.TrimSpace(p.Location),
		Overrides: p.Overrides,
	}), nil
}

// Optimize scores existing content and suggests improvements.
func (a *App) Optimize(content, platform string) (domain.OptimizationReport, error) {
	if strings.TrimSpace(content) == "" {
		return domain.OptimizationReport{}, ErrContentRequired
	}
	parsed, ok := domain.ParsePlatform(platform)
	if !ok {
		return domain.OptimizationReport{}, ErrUnknownPlatform
	}
	return a.gen.Optimize(content, parsed), nil
}

// Calendar builds a posting plan for the next days.
func (a *App) Calendar(days int, platform string) ([]domain.CalendarEntry, error) {
	if days < 1 || days > maxCalendarDays {
		return nil, ErrDaysOutOfRange
	}
	parsed, ok := domain.ParsePlatform(platform)
	if !ok {
		return nil, ErrUnknownPlatform
	}
	return a.gen.Calendar(days, parsed), nil
}

// Batch generates count pieces rotating through categories and locations.
func (a *App) Batch(count int, platform string, categories, locations []string) ([]domain.GeneratedContent, error) {
	if count < 1 || count > maxBatchCount {
		return nil, ErrCountOutOfRange
	}
	parsed, ok := domain.ParsePlatform(platform)
	if !ok {
		return nil, ErrUnknownPlatform
	}
	parsedCategories := make([]domain.Category, 0, len(categories))
	for _, raw := range categories {
		category, ok := domain.ParseCategory(raw)
		if !ok {
			return nil, ErrUnknownCategory
		}
		parsedCategories = append(parsedCategories, category)
	}
	return a.gen.Batch(count, parsed, parsedCategories, locations), nil
}

// PlanEntry is one exported content plan row.
type PlanEntry struct {
	Date        string   `json:"date"`
	Weekday     string   `json:"weekday"`
	Category    string   `json:"category"`
	Body        string   `json:"body"`
	Hashtags    []string `json:"hashtags"`
	OptimalTime string   `json:"optimalTime"`
	SEOScore    int      `json:"seoScore"`
	ImagePrompt string   `json:"imagePrompt,omitempty"`
}

// Export projects a calendar into a flat content plan.
func (a *App) Export(days int, platform string, includeImages bool) ([]PlanEntry, error) {
	entries, err := a.Calendar(days, platform)
	if err != nil {
		return nil, err
	}
	plan := make([]PlanEntry, 0, len(entries))
	for _, entry := range entries {
		row := PlanEntry{
			Date:        entry.Date.Format("2006-01-02"),
			Weekday:     entry.Weekday,
			Category:    string(entry.Content.Category),
			Body:        entry.Content.Body,
			Hashtags:    entry.Content.Hashtags,
			OptimalTime: entry.Content.PostingTime.Format(time.RFC3339),
			SEOScore:    entry.Content.SEOScore,
		}
		if includeImages {
			row.ImagePrompt = entry.Content.ImagePrompt
		}
		plan = append(plan, row)
	}
	return plan, nil
}

// Analyze reports SEO characteristics of existing content. Platform is
// optional; when present it must be valid and adds an engagement score.
func (a *App) Analyze(content, location, platform string, hashtags []string) (domain.ContentAnalysis, error) {
	if strings.TrimSpace(content) == "" {
		return domain.ContentAnalysis{}, ErrContentRequired
	}
	var parsed domain.Platform
	if platform != "" {
		var ok bool
		parsed, ok = domain.ParsePlatform(platform)
		if !ok {
			return domain.ContentAnalysis{}, ErrUnknownPlatform
		}
	}
	return a.gen.Analyze(content, strings.TrimSpace(location), parsed, hashtags), nil
}

// Hashtags builds a platform-sized hashtag set.
func (a *App) Hashtags(category, platform, location string) ([]string, error) {
	parsedCategory, ok := domain.ParseCategory(category)
	if !ok {
		return nil, ErrUnknownCategory
	}
	parsedPlatform, ok := domain.ParsePlatform(platform)
	if !ok {
		return nil, ErrUnknownPlatform
	}
	location = strings.TrimSpace(location)
	if location == "" {
		location = "Windsor"
	}
	return a.gen.Hashtags(parsedCategory, parsedPlatform, location), nil
}
