package imagegen

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// PollinationsClient calls the free pollinations.ai image endpoint. It needs
// no credentials, which makes it the fallback of last resort.
type PollinationsClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewPollinationsClient builds a pollinations client. An empty baseURL
// targets the public API.
func NewPollinationsClient(baseURL string) *PollinationsClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://image.pollinations.ai"
	}
	return &PollinationsClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Generate renders the prompt via the flux model and returns raw image
// bytes.
func (c *PollinationsClient) Generate(ctx context.Context, prompt string, params Params) ([]byte, string, error) {
	query := url.Values{}
	if params.Width > 0 {
		query.Set("width", strconv.Itoa(params.Width))
	}
	if params.Height > 0 {
		query.Set("height", strconv.Itoa(params.Height))
	}
	query.Set("model", "flux")
	query.Set("enhance", "true")

	fullURL := c.baseURL + "/prompt/" + url.PathEscape(prompt) + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("pollinations request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		if len(raw) > 0 {
			return nil, "", fmt.Errorf("pollinations api error: %d - %s", resp.StatusCode, string(raw))
		}
		return nil, "", fmt.Errorf("pollinations api error: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("pollinations read image: %w", err)
	}
	return data, "flux", nil
}
