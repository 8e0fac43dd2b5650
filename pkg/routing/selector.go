package routing

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/zen-systems/modelgate/pkg/config"
)

// Selector orchestrates layered backend selection:
//
//	layer 1: heuristic evaluation (explicit hints return immediately)
//	layer 2: confidence escalation gate
//	layer 3: semantic meta-routing on low confidence
//	layer 4: heuristic fallback when escalation is off or fails
//
// Every call appends its decision to an in-process history, preserving
// request arrival order. A mutex serializes cycles, so the semantic
// router's guard is per-cycle in effect.
type Selector struct {
	cfg       *config.SelectorConfig
	heuristic *HeuristicRouter
	semantic  *SemanticRouter
	logger    *zap.Logger

	mu      sync.Mutex
	history []Decision
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithSemanticRouter attaches the LLM escalation path.
func WithSemanticRouter(r *SemanticRouter) SelectorOption {
	return func(s *Selector) { s.semantic = r }
}

// WithSelectorLogger sets the selector's logger.
func WithSelectorLogger(logger *zap.Logger) SelectorOption {
	return func(s *Selector) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSelector creates a hybrid selector.
func NewSelector(cfg *config.SelectorConfig, opts ...SelectorOption) *Selector {
	if cfg == nil {
		cfg = config.DefaultSelectorConfig()
	}
	s := &Selector{
		cfg:       cfg,
		heuristic: NewHeuristicRouter(cfg),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select picks the backend for the request text. Callers must tolerate
// a sub-threshold confidence result: a failed escalation degrades to
// the heuristic's best guess, logged but never surfaced as an error.
func (s *Selector) Select(ctx context.Context, text string) Decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Layer 1: heuristic evaluation always runs.
	scores, explicit := s.heuristic.Evaluate(text)
	confidence := s.heuristic.ScoreToConfidence(scores)

	heuristicDecision := NewDecision(scores.Winner(), confidence,
		SourceHeuristic, "", scores.Signals.List())

	// An explicit hint decides the cycle outright at full confidence.
	if explicit != "" {
		heuristicDecision.Confidence = 1.0
		s.logger.Debug("explicit hint honored",
			zap.String("backend", heuristicDecision.Model))
		return s.commit(heuristicDecision)
	}

	// Layer 2: confidence escalation gate.
	if confidence >= s.cfg.ConfidenceThreshold {
		return s.commit(heuristicDecision)
	}

	// Layer 3: semantic meta-routing.
	if !s.cfg.SemanticRoutingEnabled() || s.semantic == nil {
		s.logger.Debug("semantic routing unavailable, keeping heuristic decision",
			zap.Float64("confidence", confidence))
		return s.commit(heuristicDecision)
	}

	semanticDecision, ok := s.semantic.Route(ctx, text, heuristicDecision)
	s.semantic.ResetGuard()
	if ok {
		return s.commit(semanticDecision)
	}

	// Layer 4: degraded to the heuristic's best guess.
	s.logger.Warn("semantic routing failed, degrading to heuristic fallback",
		zap.String("backend", heuristicDecision.Model),
		zap.Float64("confidence", confidence))
	return s.commit(heuristicDecision)
}

// commit appends to history under the selector lock and returns the
// decision unchanged.
func (s *Selector) commit(d Decision) Decision {
	s.history = append(s.history, d)
	return d
}

// History returns a copy of all decisions in arrival order.
func (s *Selector) History() []Decision {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Decision, len(s.history))
	copy(out, s.history)
	return out
}

// ClearHistory discards the accumulated selection history.
func (s *Selector) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

// Stats aggregates the selection history.
type Stats struct {
	TotalSelections   int                `json:"total_selections"`
	ByModel           map[string]int     `json:"by_model,omitempty"`
	BySource          map[string]int     `json:"by_source,omitempty"`
	ModelShare        map[string]float64 `json:"model_share,omitempty"`
	AverageConfidence float64            `json:"average_confidence,omitempty"`
}

// Stats computes aggregate statistics over the selection history.
func (s *Selector) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{TotalSelections: len(s.history)}
	if len(s.history) == 0 {
		return stats
	}

	stats.ByModel = make(map[string]int)
	stats.BySource = make(map[string]int)
	var sum float64
	for _, d := range s.history {
		stats.ByModel[d.Model]++
		stats.BySource[d.Source]++
		sum += d.Confidence
	}
	stats.AverageConfidence = sum / float64(len(s.history))

	stats.ModelShare = make(map[string]float64, len(stats.ByModel))
	for model, count := range stats.ByModel {
		stats.ModelShare[model] = float64(count) / float64(len(s.history))
	}
	return stats
}

// SemanticAttempt records the escalation outcome inside an Explanation.
type SemanticAttempt struct {
	Enabled   bool      `json:"enabled"`
	Attempted bool      `json:"attempted"`
	Success   bool      `json:"success"`
	Decision  *Decision `json:"decision,omitempty"`
}

// Explanation is the per-request debug breakdown.
type Explanation struct {
	Input          string           `json:"input"`
	HermesScore    float64          `json:"hermes_score"`
	MistralScore   float64          `json:"mistral_score"`
	Signals        []Signal         `json:"signals,omitempty"`
	ExplicitHint   Signal           `json:"explicit_hint,omitempty"`
	Confidence     float64          `json:"confidence"`
	Threshold      float64          `json:"threshold"`
	MeetsThreshold bool             `json:"meets_threshold"`
	Winner         string           `json:"winner"`
	Semantic       *SemanticAttempt `json:"semantic,omitempty"`
}

// Explain evaluates the text and reports the full routing breakdown
// without appending to the selection history. The semantic router is
// exercised only when the real selection path would invoke it.
func (s *Selector) Explain(ctx context.Context, text string) Explanation {
	s.mu.Lock()
	defer s.mu.Unlock()

	scores, explicit := s.heuristic.Evaluate(text)
	confidence := s.heuristic.ScoreToConfidence(scores)

	exp := Explanation{
		Input:          truncateInput(text, 100),
		HermesScore:    scores.Hermes,
		MistralScore:   scores.Mistral,
		Signals:        scores.Signals.List(),
		ExplicitHint:   explicit,
		Confidence:     confidence,
		Threshold:      s.cfg.ConfidenceThreshold,
		MeetsThreshold: confidence >= s.cfg.ConfidenceThreshold,
		Winner:         scores.Winner(),
	}

	if explicit != "" {
		exp.Confidence = 1.0
		exp.MeetsThreshold = true
		return exp
	}

	enabled := s.cfg.SemanticRoutingEnabled() && s.semantic != nil
	attempt := &SemanticAttempt{Enabled: enabled}
	exp.Semantic = attempt

	if !enabled || exp.MeetsThreshold {
		return exp
	}

	fallback := NewDecision(scores.Winner(), confidence, SourceHeuristic, "",
		scores.Signals.List())
	decision, ok := s.semantic.Route(ctx, text, fallback)
	s.semantic.ResetGuard()

	attempt.Attempted = true
	attempt.Success = ok
	if ok {
		attempt.Decision = &decision
	}
	return exp
}

func truncateInput(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
