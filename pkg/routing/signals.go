// Package routing implements hybrid backend selection: a deterministic
// heuristic first pass, a confidence escalation gate, and a semantic
// LLM meta-router for ambiguous requests.
package routing

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Signal names one detected request characteristic.
type Signal string

const (
	// Explicit hints
	SignalExplicitHintHermes  Signal = "explicit_hint_hermes"
	SignalExplicitHintMistral Signal = "explicit_hint_mistral"

	// Task classification
	SignalReasoningHeavy Signal = "reasoning_heavy"
	SignalPlanning       Signal = "planning"
	SignalExplanation    Signal = "explanation"
	SignalConversational Signal = "conversational"
	SignalCoding         Signal = "coding"
	SignalToolOriented   Signal = "tool_oriented"

	// Complexity indicators
	SignalComplexLogic    Signal = "complex_logic"
	SignalMultiStep       Signal = "multi_step"
	SignalConstraintLogic Signal = "constraint_logic"
	SignalLongForm        Signal = "long_form"

	// Fallback / provenance
	SignalDefault         Signal = "default"
	SignalSemanticRouting Signal = "llm_routing"
)

// WeightKey returns the weight-table key for the signal. Both explicit
// hints share one override weight entry.
func (s Signal) WeightKey() string {
	if s == SignalExplicitHintHermes || s == SignalExplicitHintMistral {
		return "explicit_hint"
	}
	return string(s)
}

// SignalSet is a deduplicated, ordered collection of signals produced
// by one heuristic evaluation.
type SignalSet struct {
	signals []Signal
}

// Add appends a signal unless it is already present.
func (s *SignalSet) Add(sig Signal) {
	if s.Has(sig) {
		return
	}
	s.signals = append(s.signals, sig)
}

// Has reports whether a signal is present.
func (s *SignalSet) Has(sig Signal) bool {
	for _, existing := range s.signals {
		if existing == sig {
			return true
		}
	}
	return false
}

// Len returns the number of distinct signals.
func (s *SignalSet) Len() int {
	return len(s.signals)
}

// List returns a copy of the signals in insertion order.
func (s *SignalSet) List() []Signal {
	out := make([]Signal, len(s.signals))
	copy(out, s.signals)
	return out
}

// Strings returns the signal names in insertion order.
func (s *SignalSet) Strings() []string {
	out := make([]string, len(s.signals))
	for i, sig := range s.signals {
		out[i] = string(sig)
	}
	return out
}

// HeuristicScores is the scoring breakdown from the heuristic router:
// one accumulator per candidate backend plus the signals that fired.
type HeuristicScores struct {
	Hermes  float64
	Mistral float64
	Signals SignalSet
}

// Max returns the larger accumulator.
func (h *HeuristicScores) Max() float64 {
	if h.Hermes > h.Mistral {
		return h.Hermes
	}
	return h.Mistral
}

// Gap returns the absolute difference between the accumulators.
func (h *HeuristicScores) Gap() float64 {
	if h.Hermes > h.Mistral {
		return h.Hermes - h.Mistral
	}
	return h.Mistral - h.Hermes
}

// Winner returns the backend with the strictly greater accumulator.
// Exact ties resolve to mistral: when scoring cannot separate the
// candidates, the faster backend is the deliberate default.
func (h *HeuristicScores) Winner() string {
	if h.Hermes > h.Mistral {
		return BackendHermes
	}
	return BackendMistral
}

// Known backend ids.
const (
	BackendHermes  = "hermes"
	BackendMistral = "mistral"
)

// Decision sources.
const (
	SourceHeuristic = "heuristic"
	SourceLLM       = "llm"
)

// Decision is the immutable result of one selection cycle.
type Decision struct {
	ID         string    `json:"id"`
	Model      string    `json:"model"`
	Confidence float64   `json:"confidence"`
	Source     string    `json:"source"`
	Reason     string    `json:"reason,omitempty"`
	Signals    []Signal  `json:"signals,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewDecision creates a decision stamped with a fresh id and timestamp.
func NewDecision(model string, confidence float64, source, reason string, signals []Signal) Decision {
	return Decision{
		ID:         uuid.NewString(),
		Model:      model,
		Confidence: clamp01(confidence),
		Source:     source,
		Reason:     reason,
		Signals:    signals,
		CreatedAt:  time.Now().UTC(),
	}
}

// MeetsThreshold reports whether confidence reaches the given threshold.
func (d Decision) MeetsThreshold(threshold float64) bool {
	return d.Confidence >= threshold
}

// Record is the flat serializable form of a decision.
type Record struct {
	ID         string  `json:"id"`
	Model      string  `json:"model"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
	Reason     string  `json:"reason,omitempty"`
	Signals    string  `json:"signals,omitempty"`
	Timestamp  string  `json:"timestamp"`
}

// Record flattens the decision for serialization and logging.
func (d Decision) Record() Record {
	names := make([]string, len(d.Signals))
	for i, s := range d.Signals {
		names[i] = string(s)
	}
	return Record{
		ID:         d.ID,
		Model:      d.Model,
		Confidence: d.Confidence,
		Source:     d.Source,
		Reason:     d.Reason,
		Signals:    strings.Join(names, ","),
		Timestamp:  d.CreatedAt.Format(time.RFC3339Nano),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
