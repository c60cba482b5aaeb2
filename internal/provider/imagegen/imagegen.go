// Package imagegen talks to an OpenAI-compatible image generation endpoint
// (POST {base}/v1/images/generations) and returns images as data: URLs.
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/content-studio/internal/provider"
)

const (
	DefaultBaseURL = "https://api.openai.com"
	DefaultModel   = "gpt-image-1"
	defaultSize    = "1024x1024"

	maxErrorBody = 4 << 10
)

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client implements provider.ImageGenerator.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

var _ provider.ImageGenerator = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("imagegen: %w", provider.ErrNotConfigured)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		http:    &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type generateResponse struct {
	Data []struct {
		B64JSON       string `json:"b64_json"`
		URL           string `json:"url"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// GenerateImage makes exactly one request. The returned Data is a data: URL
// when the API answers with base64, or the hosted URL otherwise.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (*provider.GeneratedImage, error) {
	payload, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		N:      1,
		Size:   defaultSize,
	})
	if err != nil {
		return nil, fmt.Errorf("imagegen: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/images/generations", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("imagegen: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("imagegen: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("imagegen: decode response: %w", err)
	}
	if len(out.Data) == 0 {
		return nil, errors.New("imagegen: response contained no images")
	}

	img := out.Data[0]
	data := img.URL
	if img.B64JSON != "" {
		data = "data:image/png;base64," + img.B64JSON
	}
	if data == "" {
		return nil, errors.New("imagegen: image has neither b64_json nor url")
	}

	description := img.RevisedPrompt
	if description == "" {
		description = prompt
	}
	return &provider.GeneratedImage{Data: data, Description: description}, nil
}

func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	// A non-JSON body leaves body empty and the raw text becomes the message.
	var body errorResponse
	_ = json.Unmarshal(raw, &body)

	if body.Error.Code == "insufficient_quota" || body.Error.Code == "billing_hard_limit_reached" {
		return fmt.Errorf("imagegen: %w", provider.ErrQuotaExceeded)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("imagegen: %w", provider.ErrRateLimited)
	}

	msg := body.Error.Message
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	return fmt.Errorf("imagegen: status %d: %s", resp.StatusCode, msg)
}
