package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const openAIImageModel = "dall-e-3"

// OpenAIClient calls the OpenAI image generation API. Generation is
// two-step: the API returns a hosted URL which is then downloaded.
type OpenAIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewOpenAIClient builds an OpenAI images client. An empty baseURL targets
// the public API; baseURL should include the /v1 prefix.
func NewOpenAIClient(baseURL, apiKey string) *OpenAIClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIClient{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(apiKey),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Available reports whether an API key is configured.
func (c *OpenAIClient) Available() bool {
	return c.apiKey != ""
}

// Generate renders the prompt with DALL-E and returns the downloaded image
// bytes.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, params Params) ([]byte, string, error) {
	if c.apiKey == "" {
		return nil, "", fmt.Errorf("openai api key not available")
	}

	reqBody := oaiImageRequest{
		Model:          openAIImageModel,
		Prompt:         prompt,
		N:              1,
		Size:           fmt.Sprintf("%dx%d", params.Width, params.Height),
		Quality:        "standard",
		ResponseFormat: "url",
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, "", err
	}

	url := c.baseURL + "/images/generations"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp oaiImageErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return nil, "", fmt.Errorf("openai api error: %s", errResp.Error.Message)
		}
		return nil, "", fmt.Errorf("openai api error: %s", resp.Status)
	}

	var imgResp oaiImageResponse
	if err := json.NewDecoder(resp.Body).Decode(&imgResp); err != nil {
		return nil, "", fmt.Errorf("openai decode: %w", err)
	}
	if len(imgResp.Data) == 0 || imgResp.Data[0].URL == "" {
		return nil, "", fmt.Errorf("empty response from openai api")
	}

	data, err := c.download(ctx, imgResp.Data[0].URL)
	if err != nil {
		return nil, "", err
	}
	return data, openAIImageModel, nil
}

func (c *OpenAIClient) download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai download image: %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai download image: %w", err)
	}
	return data, nil
}

// OpenAI image request/response types.

type oaiImageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	Quality        string `json:"quality"`
	ResponseFormat string `json:"response_format"`
}

type oaiImageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

type oaiImageErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
