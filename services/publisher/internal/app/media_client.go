package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"estatecast/internal/servicetoken"
	"estatecast/pkg/domain"
)

// mediaClient asks the media service for a platform-sized post image and
// returns the relative path the image is served under.
type mediaClient interface {
	GenerateImage(ctx context.Context, prompt string, platform domain.Platform) (string, error)
}

type httpMediaClient struct {
	baseURL    string
	signer     *servicetoken.Signer
	httpClient *http.Client
}

func newMediaClient(baseURL string, signer *servicetoken.Signer) (*httpMediaClient, error) {
	if signer == nil {
		return nil, fmt.Errorf("internal signer is required")
	}
	return &httpMediaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		signer:  signer,
		// Generation is synchronous on the media side and provider
		// latency dominates, so the client waits well past the usual
		// inter-service budget.
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func (c *httpMediaClient) GenerateImage(ctx context.Context, prompt string, platform domain.Platform) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"prompt":      prompt,
		"platform":    string(platform),
		"contentType": "post",
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/internal/images/generate", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	token, err := c.signer.Sign("media")
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		msg := errResp.Error
		if msg == "" {
			msg = resp.Status
		}
		return "", fmt.Errorf("media error: %s", msg)
	}

	var gen struct {
		Status       domain.GenerationStatus `json:"status"`
		ImagePath    string                  `json:"imagePath"`
		ErrorMessage string                  `json:"errorMessage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return "", fmt.Errorf("media decode: %w", err)
	}
	if gen.Status != domain.GenerationCompleted || gen.ImagePath == "" {
		msg := gen.ErrorMessage
		if msg == "" {
			msg = "generation did not complete"
		}
		return "", fmt.Errorf("media error: %s", msg)
	}
	return gen.ImagePath, nil
}
