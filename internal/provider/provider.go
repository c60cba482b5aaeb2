// Package provider is the boundary between the application and the external
// AI / image services. The service layer only sees the interfaces declared
// here; adapters for concrete APIs live in sub-packages.
package provider

import (
	"context"
	"errors"

	"github.com/sakif/content-studio/internal/model"
)

// Back-pressure signals every adapter translates its API's errors into.
// Anything else an adapter returns is treated as a generic provider failure.
var (
	ErrQuotaExceeded = errors.New("provider: quota exceeded")
	ErrRateLimited   = errors.New("provider: rate limit reached")
	ErrNotConfigured = errors.New("provider: not configured")
)

// TextGenerator produces text for a topic or from uploaded file content.
type TextGenerator interface {
	GenerateText(ctx context.Context, topic, contentType string) (string, error)
	GenerateFromFile(ctx context.Context, fileContent, contentType string) (string, error)
}

// GeneratedImage is the result of an image generation call. Data is what gets
// stored as the record's image URL (a remote URL or a data: URL).
type GeneratedImage struct {
	Data        string
	Description string
}

// ImageGenerator produces an image for a prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (*GeneratedImage, error)
}

// StockSearcher searches a stock photo library.
type StockSearcher interface {
	SearchStockImages(ctx context.Context, category string, perPage int) ([]model.StockImage, error)
}

// Provider is everything the services need from the outside world.
type Provider interface {
	TextGenerator
	ImageGenerator
	StockSearcher
}
