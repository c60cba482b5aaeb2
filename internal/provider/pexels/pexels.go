// Package pexels searches the Pexels photo library.
package pexels

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/content-studio/internal/model"
	"github.com/sakif/content-studio/internal/provider"
)

const DefaultBaseURL = "https://api.pexels.com"

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client implements provider.StockSearcher.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

var _ provider.StockSearcher = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("pexels: %w", provider.ErrNotConfigured)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type searchResponse struct {
	Photos []struct {
		Photographer string `json:"photographer"`
		Alt          string `json:"alt"`
		Src          struct {
			Original string `json:"original"`
			Large    string `json:"large"`
			Medium   string `json:"medium"`
		} `json:"src"`
	} `json:"photos"`
}

func (c *Client) SearchStockImages(ctx context.Context, category string, perPage int) ([]model.StockImage, error) {
	q := url.Values{}
	q.Set("query", category)
	q.Set("per_page", strconv.Itoa(perPage))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("pexels: build request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pexels: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		// Pexels only reports a monthly/hourly allowance; once it is gone the
		// remaining-count header reads 0.
		if resp.Header.Get("X-Ratelimit-Remaining") == "0" {
			return nil, fmt.Errorf("pexels: %w", provider.ErrQuotaExceeded)
		}
		return nil, fmt.Errorf("pexels: %w", provider.ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("pexels: unexpected status %d", resp.StatusCode)
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("pexels: decode response: %w", err)
	}

	images := make([]model.StockImage, 0, len(out.Photos))
	for _, p := range out.Photos {
		src := p.Src.Large
		if src == "" {
			src = p.Src.Original
		}
		images = append(images, model.StockImage{
			URL:          src,
			Photographer: p.Photographer,
			Alt:          p.Alt,
		})
	}
	return images, nil
}
