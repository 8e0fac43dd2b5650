package governed

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/zen-systems/modelgate/pkg/adapter"
)

const defaultLlamaCPPBaseURL = "http://localhost:8080/v1"

// LlamaCPP generates through a local llama.cpp server, which exposes an
// OpenAI-compatible chat completion API.
type LlamaCPP struct {
	client     openai.Client
	baseURL    string
	httpClient *http.Client
}

// NewLlamaCPP creates a llama.cpp generator. An empty baseURL targets
// the conventional local port.
func NewLlamaCPP(baseURL string) *LlamaCPP {
	if baseURL == "" {
		baseURL = defaultLlamaCPPBaseURL
	}
	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		// llama.cpp ignores the key but the client requires one.
		option.WithAPIKey("local"),
	)
	return &LlamaCPP{
		client:     client,
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

// Generate sends the prompt to the local server and returns the
// completion text.
func (g *LlamaCPP) Generate(ctx context.Context, model string, prompt string, opts *adapter.GenerateOptions) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if opts != nil {
		if opts.Temperature > 0 {
			params.Temperature = openai.Float(opts.Temperature)
		}
		if opts.MaxTokens > 0 {
			params.MaxCompletionTokens = openai.Int(int64(opts.MaxTokens))
		}
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("llamacpp request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llamacpp returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Healthy probes the server's health endpoint.
func (g *LlamaCPP) Healthy(ctx context.Context) bool {
	healthURL := strings.TrimSuffix(g.baseURL, "/v1") + "/health"
	req, err := http.NewRequestWithContext(ctx, "GET", healthURL, nil)
	if err != nil {
		return false
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
