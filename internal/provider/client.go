package provider

import (
	"context"

	"github.com/sakif/content-studio/internal/model"
)

// Client assembles independent adapters into one Provider. Any part may be
// nil (its API key was not configured); calls to it fail with ErrNotConfigured
// instead of panicking, so the server still starts and the other endpoints work.
type Client struct {
	Text   TextGenerator
	Images ImageGenerator
	Stock  StockSearcher
}

var _ Provider = (*Client)(nil)

func (c *Client) GenerateText(ctx context.Context, topic, contentType string) (string, error) {
	if c.Text == nil {
		return "", ErrNotConfigured
	}
	return c.Text.GenerateText(ctx, topic, contentType)
}

func (c *Client) GenerateFromFile(ctx context.Context, fileContent, contentType string) (string, error) {
	if c.Text == nil {
		return "", ErrNotConfigured
	}
	return c.Text.GenerateFromFile(ctx, fileContent, contentType)
}

func (c *Client) GenerateImage(ctx context.Context, prompt string) (*GeneratedImage, error) {
	if c.Images == nil {
		return nil, ErrNotConfigured
	}
	return c.Images.GenerateImage(ctx, prompt)
}

func (c *Client) SearchStockImages(ctx context.Context, category string, perPage int) ([]model.StockImage, error) {
	if c.Stock == nil {
		return nil, ErrNotConfigured
	}
	return c.Stock.SearchStockImages(ctx, category, perPage)
}
