package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSelectorFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "selector.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultSelectorConfig(t *testing.T) {
	cfg := DefaultSelectorConfig()

	assert.Equal(t, 0.70, cfg.ConfidenceThreshold)
	assert.Equal(t, 1.0, cfg.Weight("explicit_hint"))
	assert.Equal(t, 0.8, cfg.Weight("reasoning_heavy"))
	assert.Equal(t, 0.0, cfg.Weight("conversational"))
	assert.Equal(t, "hermes-2-pro-mistral-7b", cfg.Models["hermes"])
	assert.Equal(t, "mistral-7b-instruct-v0.2", cfg.Models["mistral"])
	assert.Equal(t, "mistral-7b-instruct-v0.2", cfg.RouterModel)
	assert.True(t, cfg.SemanticRoutingEnabled())
	assert.Zero(t, cfg.RetryBudget)
}

func TestLoadSelectorConfig(t *testing.T) {
	path := writeSelectorFile(t, `
confidence_threshold: 0.85
retry_budget: 2
router_model: custom-router
weights:
  reasoning_heavy: 1.5
  planning: 0.9
models:
  hermes: custom-hermes
enable_semantic_routing: false
`)

	cfg, err := LoadSelectorConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 0.85, cfg.ConfidenceThreshold)
	assert.Equal(t, 2, cfg.RetryBudget)
	assert.Equal(t, "custom-router", cfg.RouterModel)
	assert.Equal(t, "custom-hermes", cfg.Models["hermes"])
	assert.False(t, cfg.SemanticRoutingEnabled())

	// A partial weight table replaces the defaults wholesale; unlisted
	// signals simply carry no weight.
	assert.Equal(t, 1.5, cfg.Weight("reasoning_heavy"))
	assert.Equal(t, 0.9, cfg.Weight("planning"))
	assert.Zero(t, cfg.Weight("constraint_logic"))
}

func TestLoadSelectorConfigFillsDefaults(t *testing.T) {
	path := writeSelectorFile(t, "confidence_threshold: 0.5\n")

	cfg, err := LoadSelectorConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.ConfidenceThreshold)
	assert.Equal(t, 0.8, cfg.Weight("reasoning_heavy"))
	assert.Equal(t, "mistral-7b-instruct-v0.2", cfg.RouterModel)
	assert.True(t, cfg.SemanticRoutingEnabled())
}

func TestLoadSelectorConfigMissingFile(t *testing.T) {
	_, err := LoadSelectorConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadSelectorConfigMalformedYAML(t *testing.T) {
	path := writeSelectorFile(t, "weights: [not, a, map]\n")

	_, err := LoadSelectorConfig(path)
	assert.Error(t, err)
}

func TestSelectorValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SelectorConfig)
		wantErr string
	}{
		{
			name:    "threshold above one",
			mutate:  func(c *SelectorConfig) { c.ConfidenceThreshold = 1.2 },
			wantErr: "out of range",
		},
		{
			name:    "threshold negative",
			mutate:  func(c *SelectorConfig) { c.ConfidenceThreshold = -0.1 },
			wantErr: "out of range",
		},
		{
			name:    "negative retry budget",
			mutate:  func(c *SelectorConfig) { c.RetryBudget = -1 },
			wantErr: "retry_budget",
		},
		{
			name:    "negative weight",
			mutate:  func(c *SelectorConfig) { c.Weights["planning"] = -0.5 },
			wantErr: "must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSelectorConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSemanticRoutingToggle(t *testing.T) {
	cfg := DefaultSelectorConfig()
	assert.True(t, cfg.SemanticRoutingEnabled())

	off := false
	cfg.EnableSemanticRouting = &off
	assert.False(t, cfg.SemanticRoutingEnabled())
}

func TestHasLocalInference(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.HasLocalInference())

	cfg.LlamaCPPBaseURL = "http://localhost:8080/v1"
	assert.True(t, cfg.HasLocalInference())

	cfg = &Config{OllamaHost: "http://localhost:11434"}
	assert.True(t, cfg.HasLocalInference())
}

func TestLoadFileConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
endpoints:
  llamacpp: http://localhost:8080/v1
  ollama: http://localhost:11434
api_keys:
  anthropic: sk-test
`), 0644))

	fc := loadFileConfig(path)
	assert.Equal(t, "http://localhost:8080/v1", fc.Endpoints.LlamaCPP)
	assert.Equal(t, "http://localhost:11434", fc.Endpoints.Ollama)
	assert.Equal(t, "sk-test", fc.APIKeys.Anthropic)
	assert.Empty(t, fc.APIKeys.Google)
}

func TestLoadFileConfigMissing(t *testing.T) {
	fc := loadFileConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Empty(t, fc.Endpoints.LlamaCPP)
}
