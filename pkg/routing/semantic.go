package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/zen-systems/modelgate/pkg/adapter"
	"github.com/zen-systems/modelgate/pkg/config"
)

// routingPromptFormat is the fixed template sent to the router model.
// It embeds both backends' capability descriptions plus the raw request
// and demands a bare JSON object in response.
const routingPromptFormat = `You are a model selection router for an agentic AI system.

Your task is to select the OPTIMAL model for the given user request.

Available models:

Model A - hermes (%s):
Strengths: %s
Use for: %s

Model B - mistral (%s):
Strengths: %s
Use for: %s

User Request:
%s

Respond ONLY with a valid JSON object, no other text:
{
  "model": "hermes" or "mistral",
  "confidence": <float between 0.0 and 1.0>,
  "reason": "<brief explanation of why this model was chosen>"
}

Confidence: 0.0-0.5 means uncertain, 0.5-0.8 means moderately confident, 0.8-1.0 means very confident.`

// SemanticRouter escalates ambiguous requests to an LLM meta-reasoner.
// It is invoked only when heuristic confidence falls below the
// configured threshold, and never lets a failure escape: the caller
// always receives the supplied fallback on any error.
type SemanticRouter struct {
	routerModel adapter.ModelAdapter
	cfg         *config.SelectorConfig
	logger      *zap.Logger

	mu          sync.Mutex
	invocations int
}

// NewSemanticRouter creates a semantic router over a pre-loaded router
// model adapter. A nil logger defaults to no-op.
func NewSemanticRouter(routerModel adapter.ModelAdapter, cfg *config.SelectorConfig, logger *zap.Logger) *SemanticRouter {
	if cfg == nil {
		cfg = config.DefaultSelectorConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemanticRouter{routerModel: routerModel, cfg: cfg, logger: logger}
}

// Route asks the router model to pick a backend for the request text.
// The boolean reports success; on failure the returned decision is the
// supplied fallback, unchanged. At most one invocation is honored per
// selection cycle: further calls fail immediately without contacting
// the backend until ResetGuard re-arms the router.
func (r *SemanticRouter) Route(ctx context.Context, text string, fallback Decision) (Decision, bool) {
	r.mu.Lock()
	r.invocations++
	rejected := r.invocations > 1
	r.mu.Unlock()

	if rejected {
		r.logger.Warn("semantic routing re-entry rejected")
		return fallback, false
	}

	attempts := 1 + r.cfg.RetryBudget
	for attempt := 0; attempt < attempts; attempt++ {
		raw, err := r.generate(ctx, text)
		if err != nil {
			// Transport failure: the backend is unreachable, so more
			// attempts would only repeat the failure.
			r.logger.Warn("semantic routing transport failure", zap.Error(err))
			return fallback, false
		}

		decision, err := r.parseResponse(raw)
		if err != nil {
			r.logger.Debug("malformed semantic routing response",
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}
		return decision, true
	}

	r.logger.Warn("semantic routing retry budget exhausted",
		zap.Int("attempts", attempts))
	return fallback, false
}

// ResetGuard re-arms the router for the next selection cycle.
func (r *SemanticRouter) ResetGuard() {
	r.mu.Lock()
	r.invocations = 0
	r.mu.Unlock()
}

func (r *SemanticRouter) generate(ctx context.Context, text string) (string, error) {
	if r.routerModel == nil {
		return "", fmt.Errorf("no router model configured")
	}
	if !r.routerModel.IsAvailable() {
		return "", fmt.Errorf("router model not loaded")
	}

	hermes := adapter.KindProfile(adapter.KindHermes)
	mistral := adapter.KindProfile(adapter.KindMistral)
	prompt := fmt.Sprintf(routingPromptFormat,
		hermes.Family, hermes.Strengths, hermes.UseFor,
		mistral.Family, mistral.Strengths, mistral.UseFor,
		text)

	return r.routerModel.Generate(ctx, prompt, nil)
}

// routingReply is the expected shape of the router model's completion.
// Pointer fields distinguish "absent" from zero values: every field is
// required and any schema violation is a total failure.
type routingReply struct {
	Model      *string  `json:"model"`
	Confidence *float64 `json:"confidence"`
	Reason     *string  `json:"reason"`
}

func (r *SemanticRouter) parseResponse(raw string) (Decision, error) {
	var reply routingReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		// The completion may wrap the object in prose; try the first
		// balanced JSON object instead.
		candidate, ok := firstBalancedObject(raw)
		if !ok {
			return Decision{}, fmt.Errorf("no JSON object in response")
		}
		if err := json.Unmarshal([]byte(candidate), &reply); err != nil {
			return Decision{}, fmt.Errorf("invalid JSON object: %w", err)
		}
	}

	if reply.Model == nil || reply.Confidence == nil || reply.Reason == nil {
		return Decision{}, fmt.Errorf("missing required fields")
	}

	model := *reply.Model
	if model != BackendHermes && model != BackendMistral {
		return Decision{}, fmt.Errorf("unknown model id %q", model)
	}

	confidence := *reply.Confidence
	if confidence < 0 || confidence > 1 {
		return Decision{}, fmt.Errorf("confidence %.2f out of range [0,1]", confidence)
	}

	return NewDecision(model, confidence, SourceLLM, *reply.Reason,
		[]Signal{SignalSemanticRouting}), nil
}

// firstBalancedObject extracts the first brace-balanced {...} substring,
// honoring JSON string literals and escapes.
func firstBalancedObject(text string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					return text[start : i+1], true
				}
			}
		}
	}

	return "", false
}
