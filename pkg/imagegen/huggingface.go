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

// Short model names accepted by the API surface, mapped to hub ids. Unknown
// names are passed through untouched so callers can address any hub model.
var huggingFaceModels = map[string]string{
	"stable-diffusion-v1-5": "runwayml/stable-diffusion-v1-5",
	"stable-diffusion-xl":   "stabilityai/stable-diffusion-xl-base-1.0",
	"stable-diffusion-2-1":  "stabilityai/stable-diffusion-2-1",
}

// HuggingFaceClient calls the Hugging Face inference API for text-to-image
// models.
type HuggingFaceClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHuggingFaceClient builds a Hugging Face inference client. An empty
// baseURL targets the public API.
func NewHuggingFaceClient(baseURL, apiKey string) *HuggingFaceClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://api-inference.huggingface.co"
	}
	return &HuggingFaceClient{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(apiKey),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Available reports whether an API key is configured.
func (c *HuggingFaceClient) Available() bool {
	return c.apiKey != ""
}

// Generate renders the prompt and returns raw image bytes plus the resolved
// hub model id.
func (c *HuggingFaceClient) Generate(ctx context.Context, prompt, model string, params Params) ([]byte, string, error) {
	if model == "" {
		model = DefaultModel
	}
	modelID, ok := huggingFaceModels[model]
	if !ok {
		modelID = model
	}

	reqBody := hfRequest{
		Inputs: prompt,
		Parameters: hfParameters{
			NumInferenceSteps: params.Steps,
			GuidanceScale:     params.Guidance,
			NegativePrompt:    params.NegativePrompt,
			Width:             params.Width,
			Height:            params.Height,
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, "", err
	}

	url := c.baseURL + "/models/" + modelID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("hugging face request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		var errResp hfErrorResponse
		if json.Unmarshal(raw, &errResp) == nil && errResp.Error != "" {
			return nil, "", fmt.Errorf("hugging face api error: %d - %s", resp.StatusCode, errResp.Error)
		}
		if len(raw) > 0 {
			return nil, "", fmt.Errorf("hugging face api error: %d - %s", resp.StatusCode, string(raw))
		}
		return nil, "", fmt.Errorf("hugging face api error: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("hugging face read image: %w", err)
	}
	return data, modelID, nil
}

// Hugging Face request/response types.

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale"`
	NegativePrompt    string  `json:"negative_prompt"`
	Width             int     `json:"width"`
	Height            int     `json:"height"`
}

type hfErrorResponse struct {
	Error string `json:"error"`
}
