// Package anthropic adapts the Anthropic Messages API to provider.TextGenerator.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/sakif/content-studio/internal/provider"
)

const (
	DefaultModel     = "claude-sonnet-4-5"
	defaultMaxTokens = 1024

	// statusOverloaded is Anthropic's non-standard "try again shortly" status.
	statusOverloaded = 529
)

// Config holds the settings for the text generator.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string // empty means the SDK default
}

// Generator implements provider.TextGenerator.
type Generator struct {
	client sdk.Client
	model  string
}

var _ provider.TextGenerator = (*Generator)(nil)

// New creates a Generator. The SDK's own retries are disabled: a 429 is
// reported straight back to the caller with a retry hint.
func New(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: %w", provider.ErrNotConfigured)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Generator{
		client: sdk.NewClient(opts...),
		model:  cfg.Model,
	}, nil
}

func (g *Generator) GenerateText(ctx context.Context, topic, contentType string) (string, error) {
	return g.complete(ctx, topicPrompt(topic, contentType))
}

func (g *Generator) GenerateFromFile(ctx context.Context, fileContent, contentType string) (string, error) {
	return g.complete(ctx, filePrompt(fileContent, contentType))
}

func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	msg, err := g.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(g.model),
		MaxTokens: defaultMaxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", classify(err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", errors.New("anthropic: response contained no text")
	}
	return text, nil
}

// classify maps API errors onto the provider sentinels.
func classify(err error) error {
	var apiErr *sdk.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("anthropic: %w", err)
	}

	body := strings.ToLower(apiErr.Error())
	switch {
	case strings.Contains(body, "credit balance"), strings.Contains(body, "quota"):
		return fmt.Errorf("anthropic: %w", provider.ErrQuotaExceeded)
	case apiErr.StatusCode == http.StatusTooManyRequests, apiErr.StatusCode == statusOverloaded:
		return fmt.Errorf("anthropic: %w", provider.ErrRateLimited)
	default:
		return fmt.Errorf("anthropic: status %d: %w", apiErr.StatusCode, err)
	}
}

func topicPrompt(topic, contentType string) string {
	return fmt.Sprintf("Write a %s about the following topic. Respond with the content only.\n\nTopic: %s",
		describeType(contentType), topic)
}

func filePrompt(fileContent, contentType string) string {
	return fmt.Sprintf("Using the document below as source material, write a %s. Respond with the content only.\n\n<document>\n%s\n</document>",
		describeType(contentType), fileContent)
}

func describeType(contentType string) string {
	switch contentType {
	case "", "text", "file":
		return "short piece of text"
	default:
		return contentType
	}
}
