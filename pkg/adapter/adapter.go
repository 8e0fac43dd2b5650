// Package adapter provides a uniform capability surface over the
// interchangeable inference backends. The set of backend kinds is
// closed: hermes (deep reasoning), mistral (fast inference), and a
// deterministic mock for tests.
package adapter

import "context"

// Kind identifies a backend variant. The set is closed; routing and
// lifecycle code may rely on exhaustive switches over it.
type Kind string

const (
	KindHermes  Kind = "hermes"
	KindMistral Kind = "mistral"
	KindMock    Kind = "mock"
)

// ModelAdapter is the fixed capability set every backend exposes.
// Load and Unload are idempotent. Generate requires a loaded adapter
// and blocks until the backend responds; callers attach deadlines via
// ctx.
type ModelAdapter interface {
	Load() error
	Unload() error
	Generate(ctx context.Context, prompt string, opts *GenerateOptions) (string, error)
	IsAvailable() bool
	Describe() Info
}

// GenerateOptions carries request parameters forwarded opaquely to the
// transport. A nil options value means backend defaults.
type GenerateOptions struct {
	Temperature float64
	MaxTokens   int
}

// Generator is the oversight-wrapped collaborator a production adapter
// may delegate generation to. It keeps routing and lifecycle logic
// agnostic to whether calls are raw or governed.
type Generator interface {
	Generate(ctx context.Context, model string, prompt string, opts *GenerateOptions) (string, error)
	Healthy(ctx context.Context) bool
}

// Info holds adapter metadata.
type Info struct {
	Name    string  `json:"name"`
	Kind    Kind    `json:"kind"`
	Loaded  bool    `json:"loaded"`
	Profile Profile `json:"profile"`
}

// Profile describes a backend kind's capabilities. The semantic router
// embeds these descriptions in its routing prompt.
type Profile struct {
	Family       string `json:"family"`
	Parameters   string `json:"parameters"`
	Optimization string `json:"optimization"`
	Strengths    string `json:"strengths"`
	UseFor       string `json:"use_for"`
}

var profiles = map[Kind]Profile{
	KindHermes: {
		Family:       "Hermes-2-Pro-Mistral",
		Parameters:   "7B",
		Optimization: "Deep reasoning, planning, analysis",
		Strengths:    "Deep reasoning, multi-step planning, complex logical analysis, constraint solving",
		UseFor:       "Tasks requiring extensive thinking, planning, detailed explanations, logical proofs",
	},
	KindMistral: {
		Family:       "Mistral",
		Parameters:   "7B",
		Optimization: "Fast inference, low compute",
		Strengths:    "Fast inference, direct instruction following, conversational fluency, quick answers",
		UseFor:       "Direct questions, conversational tasks, quick lookups, simple instructions",
	},
	KindMock: {
		Family:       "Mock",
		Optimization: "Deterministic canned output for tests",
	},
}

// KindProfile returns the capability profile for a backend kind.
func KindProfile(k Kind) Profile {
	return profiles[k]
}
