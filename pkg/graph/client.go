// Package graph is a Facebook Graph API (v18.0) client covering the OAuth
// login flow, page and Instagram business account discovery, and post
// publishing. Instagram accounts are reached through their linked Facebook
// page, so one client serves both platforms.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the Graph API endpoint prefix.
	DefaultBaseURL = "https://graph.facebook.com/v18.0"
	// DefaultDialogURL is the browser-facing OAuth dialog endpoint.
	DefaultDialogURL = "https://www.facebook.com/v18.0/dialog/oauth"

	// oauthScope lists the permissions needed to read managed pages and
	// publish to both platforms.
	oauthScope = "pages_manage_posts,pages_read_engagement,instagram_basic,instagram_content_publish"
)

// Config carries the Facebook app credentials. BaseURL and DialogURL default
// to the production Graph endpoints.
type Config struct {
	AppID     string
	AppSecret string
	BaseURL   string
	DialogURL string
}

// Client talks to the Facebook Graph API on behalf of one app.
type Client struct {
	appID      string
	appSecret  string
	baseURL    string
	dialogURL  string
	httpClient *http.Client
}

// New builds a Graph API client for the given app credentials.
func New(cfg Config) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	dialogURL := strings.TrimRight(strings.TrimSpace(cfg.DialogURL), "/")
	if dialogURL == "" {
		dialogURL = DefaultDialogURL
	}
	return &Client{
		appID:     strings.TrimSpace(cfg.AppID),
		appSecret: strings.TrimSpace(cfg.AppSecret),
		baseURL:   baseURL,
		dialogURL: dialogURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graph request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp graphErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return fmt.Errorf("graph api error: %s", errResp.Error.Message)
		}
		return fmt.Errorf("graph api error: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("graph decode: %w", err)
	}
	return nil
}

// postForm issues a form-encoded POST and returns the id of the object the
// call created. The Graph API reports publish failures in the response body,
// so the body is decoded before the status code is consulted.
func (c *Client) postForm(ctx context.Context, rawURL string, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("graph request: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		ID    string     `json:"id"`
		Error graphError `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if resp.StatusCode >= 400 {
			return "", fmt.Errorf("graph api error: %s", resp.Status)
		}
		return "", fmt.Errorf("graph decode: %w", err)
	}
	if result.ID == "" {
		if result.Error.Message != "" {
			return "", fmt.Errorf("graph api error: %s", result.Error.Message)
		}
		if resp.StatusCode >= 400 {
			return "", fmt.Errorf("graph api error: %s", resp.Status)
		}
		return "", fmt.Errorf("empty response from graph api")
	}
	return result.ID, nil
}

// Graph API error envelope.

type graphError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

type graphErrorResponse struct {
	Error graphError `json:"error"`
}
