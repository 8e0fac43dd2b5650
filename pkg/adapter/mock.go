package adapter

import (
	"context"
	"fmt"
	"strings"
)

// Mock is the deterministic test variant. Responses are canned: a
// prompt either matches a predefined entry or gets the default reply.
type Mock struct {
	name            string
	responses       map[string]string
	defaultResponse string
	loaded          bool

	// GenerateCalls counts Generate invocations, loaded or not.
	GenerateCalls int
}

// NewMock creates a mock adapter with a default response.
func NewMock(name string) *Mock {
	return &Mock{
		name:            name,
		responses:       make(map[string]string),
		defaultResponse: "mock response:",
	}
}

// NewMockWithResponses creates a mock adapter with predefined responses.
func NewMockWithResponses(name string, responses map[string]string, defaultResponse string) *Mock {
	if defaultResponse == "" {
		defaultResponse = "mock response:"
	}
	return &Mock{name: name, responses: responses, defaultResponse: defaultResponse}
}

// Load marks the mock loaded. Idempotent.
func (a *Mock) Load() error {
	a.loaded = true
	return nil
}

// Unload marks the mock unloaded. Idempotent.
func (a *Mock) Unload() error {
	a.loaded = false
	return nil
}

// Generate returns the canned response for the prompt.
func (a *Mock) Generate(_ context.Context, prompt string, _ *GenerateOptions) (string, error) {
	a.GenerateCalls++
	if !a.loaded {
		return "", newError(a.name, "generate", ErrNotReady)
	}
	if strings.TrimSpace(prompt) == "" {
		return "", newError(a.name, "generate", ErrEmptyPrompt)
	}
	if response, ok := a.responses[prompt]; ok {
		return response, nil
	}
	return fmt.Sprintf("%s %s", a.defaultResponse, truncate(prompt, 50)), nil
}

// IsAvailable reports whether the mock is loaded.
func (a *Mock) IsAvailable() bool {
	return a.loaded
}

// Describe returns mock metadata.
func (a *Mock) Describe() Info {
	return Info{
		Name:    a.name,
		Kind:    KindMock,
		Loaded:  a.loaded,
		Profile: KindProfile(KindMock),
	}
}
