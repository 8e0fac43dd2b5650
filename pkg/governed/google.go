package governed

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/zen-systems/modelgate/pkg/adapter"
)

// Google is the hosted fallback generator for Gemini models.
type Google struct {
	client *genai.Client
	apiKey string
}

// NewGoogle creates a Gemini generator.
func NewGoogle(apiKey string) (*Google, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google API key is required")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create google client: %w", err)
	}

	return &Google{client: client, apiKey: apiKey}, nil
}

// Generate sends the prompt to the hosted API and returns the
// completion text.
func (g *Google) Generate(ctx context.Context, model string, prompt string, opts *adapter.GenerateOptions) (string, error) {
	var cfg *genai.GenerateContentConfig
	if opts != nil && (opts.Temperature > 0 || opts.MaxTokens > 0) {
		cfg = &genai.GenerateContentConfig{}
		if opts.Temperature > 0 {
			t := float32(opts.Temperature)
			cfg.Temperature = &t
		}
		if opts.MaxTokens > 0 {
			cfg.MaxOutputTokens = int32(opts.MaxTokens)
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("google API error: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("google returned no candidates")
	}

	var content string
	if resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" {
				content += part.Text
			}
		}
	}
	return content, nil
}

// Healthy reports whether the generator is usable; hosted endpoints are
// assumed reachable when credentials are present.
func (g *Google) Healthy(context.Context) bool {
	return g.apiKey != ""
}
