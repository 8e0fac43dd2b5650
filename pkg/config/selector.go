package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SelectorConfig holds tuning parameters for the hybrid model selector.
type SelectorConfig struct {
	// ConfidenceThreshold gates escalation to the semantic router: any
	// heuristic decision below it is considered ambiguous.
	ConfidenceThreshold float64 `yaml:"confidence_threshold,omitempty"`

	// Weights maps signal names to score contributions.
	Weights map[string]float64 `yaml:"weights,omitempty"`

	// Models maps backend ids to the model each backend serves.
	Models map[string]string `yaml:"models,omitempty"`

	// RouterModel names the model used for semantic routing calls.
	RouterModel string `yaml:"router_model,omitempty"`

	// EnableSemanticRouting toggles LLM escalation on low confidence.
	EnableSemanticRouting *bool `yaml:"enable_semantic_routing,omitempty"`

	// RetryBudget bounds regeneration attempts after malformed semantic
	// router output, within a single permitted invocation.
	RetryBudget int `yaml:"retry_budget,omitempty"`
}

// LoadSelectorConfig reads selector configuration from a YAML file.
func LoadSelectorConfig(path string) (*SelectorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg SelectorConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applySelectorDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultSelectorConfig returns the default selector configuration.
func DefaultSelectorConfig() *SelectorConfig {
	cfg := &SelectorConfig{}
	applySelectorDefaults(cfg)
	return cfg
}

// Validate checks ranges that cannot be repaired by defaulting.
func (c *SelectorConfig) Validate() error {
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold %.2f out of range [0,1]", c.ConfidenceThreshold)
	}
	if c.RetryBudget < 0 {
		return fmt.Errorf("retry_budget must not be negative, got %d", c.RetryBudget)
	}
	for name, w := range c.Weights {
		if w < 0 {
			return fmt.Errorf("weight for %q must not be negative, got %.2f", name, w)
		}
	}
	return nil
}

// Weight returns the configured weight for a signal name, or 0.
func (c *SelectorConfig) Weight(name string) float64 {
	return c.Weights[name]
}

// SemanticRoutingEnabled reports whether LLM escalation is on.
func (c *SelectorConfig) SemanticRoutingEnabled() bool {
	return c.EnableSemanticRouting == nil || *c.EnableSemanticRouting
}

func applySelectorDefaults(cfg *SelectorConfig) {
	if cfg == nil {
		return
	}
	if cfg.ConfidenceThreshold == 0 {
		cfg.ConfidenceThreshold = 0.70
	}
	if len(cfg.Weights) == 0 {
		// The conversational signal deliberately carries no weight: it
		// marks the absence of task signals, and keeping the accumulators
		// at zero lets the low-trust confidence floor apply.
		cfg.Weights = map[string]float64{
			"explicit_hint":    1.0,
			"reasoning_heavy":  0.8,
			"planning":         0.7,
			"explanation":      0.6,
			"complex_logic":    0.5,
			"multi_step":       0.6,
			"constraint_logic": 0.7,
			"conversational":   0.0,
			"coding":           0.5,
			"tool_oriented":    0.4,
			"long_form":        0.6,
		}
	}
	if len(cfg.Models) == 0 {
		cfg.Models = map[string]string{
			"hermes":  "hermes-2-pro-mistral-7b",
			"mistral": "mistral-7b-instruct-v0.2",
		}
	}
	if cfg.RouterModel == "" {
		cfg.RouterModel = "mistral-7b-instruct-v0.2"
	}
	if cfg.EnableSemanticRouting == nil {
		enabled := true
		cfg.EnableSemanticRouting = &enabled
	}
}
