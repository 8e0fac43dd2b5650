package governed

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"

	"github.com/zen-systems/modelgate/pkg/adapter"
)

// Anthropic is the hosted fallback generator for Claude models, used
// when no local inference process is reachable.
type Anthropic struct {
	client anthropic.Client
	apiKey string
}

// NewAnthropic creates an Anthropic generator.
func NewAnthropic(apiKey string) (*Anthropic, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	client := anthropic.NewClient(anthropicoption.WithAPIKey(apiKey))
	return &Anthropic{client: client, apiKey: apiKey}, nil
}

// Generate sends the prompt to the hosted API and returns the
// completion text.
func (g *Anthropic) Generate(ctx context.Context, model string, prompt string, opts *adapter.GenerateOptions) (string, error) {
	maxTokens := int64(4096)
	if opts != nil && opts.MaxTokens > 0 {
		maxTokens = int64(opts.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if opts != nil && opts.Temperature > 0 {
		params.Temperature = anthropic.Float(opts.Temperature)
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}
	return content, nil
}

// Healthy reports whether the generator is usable; hosted endpoints are
// assumed reachable when credentials are present.
func (g *Anthropic) Healthy(context.Context) bool {
	return g.apiKey != ""
}
