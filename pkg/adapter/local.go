package adapter

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Local fronts one of the locally served production backends. The kind
// fixes the capability profile; generation is delegated to the injected
// Generator when one is configured, and falls back to a placeholder
// completion otherwise so routing logic can run without a live server.
type Local struct {
	kind      Kind
	modelName string
	generator Generator
	logger    *zap.Logger

	loaded bool
	handle *modelHandle
}

// modelHandle is the opaque resource token held while loaded.
type modelHandle struct {
	model string
}

// Option configures a Local adapter.
type Option func(*Local)

// WithGenerator injects the oversight-wrapped generation collaborator.
func WithGenerator(g Generator) Option {
	return func(a *Local) { a.generator = g }
}

// WithLogger sets the adapter's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Local) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewHermes creates the deep-reasoning backend adapter.
func NewHermes(modelName string, opts ...Option) *Local {
	return newLocal(KindHermes, modelName, opts...)
}

// NewMistral creates the fast-inference backend adapter.
func NewMistral(modelName string, opts ...Option) *Local {
	return newLocal(KindMistral, modelName, opts...)
}

func newLocal(kind Kind, modelName string, opts ...Option) *Local {
	a := &Local{
		kind:      kind,
		modelName: modelName,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger.Debug("adapter created",
		zap.String("backend", string(kind)),
		zap.String("model", modelName),
		zap.Bool("governed", a.generator != nil))
	return a
}

// Load acquires the backend's resources. Idempotent.
func (a *Local) Load() error {
	if a.loaded {
		return nil
	}
	a.handle = &modelHandle{model: a.modelName}
	a.loaded = true
	a.logger.Info("backend loaded", zap.String("backend", string(a.kind)))
	return nil
}

// Unload releases the backend's resources. Idempotent.
func (a *Local) Unload() error {
	if !a.loaded {
		return nil
	}
	a.handle = nil
	a.loaded = false
	a.logger.Info("backend unloaded", zap.String("backend", string(a.kind)))
	return nil
}

// Generate produces a completion for the prompt. The adapter must be
// loaded; the prompt must be non-blank.
func (a *Local) Generate(ctx context.Context, prompt string, opts *GenerateOptions) (string, error) {
	if !a.loaded {
		return "", newError(string(a.kind), "generate",
			fmt.Errorf("%w: call Load first", ErrNotReady))
	}
	if strings.TrimSpace(prompt) == "" {
		return "", newError(string(a.kind), "generate", ErrEmptyPrompt)
	}

	if a.generator != nil {
		out, err := a.generator.Generate(ctx, a.modelName, prompt, opts)
		if err != nil {
			return "", newError(string(a.kind), "generate", err)
		}
		return out, nil
	}

	// No governed backend configured: placeholder completion.
	return fmt.Sprintf("[%s response to: %s]", a.kind, truncate(prompt, 50)), nil
}

// IsAvailable reports whether the backend is loaded and ready.
func (a *Local) IsAvailable() bool {
	return a.loaded
}

// Describe returns adapter metadata.
func (a *Local) Describe() Info {
	return Info{
		Name:    a.modelName,
		Kind:    a.kind,
		Loaded:  a.loaded,
		Profile: KindProfile(a.kind),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
