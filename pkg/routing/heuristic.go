package routing

import (
	"regexp"
	"strings"

	"github.com/zen-systems/modelgate/pkg/config"
)

// overrideScore is the accumulator value assigned on an explicit hint.
// It exceeds any sum the organic phases can produce, so a hint decides
// the winner regardless of other content.
const overrideScore = 10.0

// noSignalConfidence is the low-trust floor returned when no signal
// moved either accumulator.
const noSignalConfidence = 0.3

// Keyword groups for task classification. Matching is word-bounded, so
// "order" does not fire inside "border".
var (
	reasoningKeywords = []string{
		"why", "explain", "reason", "reasoning", "logic", "analyze",
		"think through", "figure out", "solve", "proof", "deduce", "validate",
	}
	planningKeywords = []string{
		"plan", "planning", "steps", "step by step", "procedure", "how to",
		"strategy", "approach", "sequence", "order", "organize",
	}
	explanationKeywords = []string{
		"explain", "describe", "what is", "definition", "concept",
		"tell me about", "summarize",
	}
	codingKeywords = []string{
		"code", "program", "function", "class", "implement", "debug",
		"error", "syntax", "python", "javascript", "java",
	}
	constraintKeywords = []string{
		"if", "unless", "constraint", "condition", "must", "required",
		"forbidden", "only if",
	}
	mathKeywords = []string{
		"equation", "formula", "calculate", "proof", "theorem",
	}
	toolKeywords = []string{
		"search", "fetch", "retrieve", "find", "lookup",
	}
)

var numberedMarker = regexp.MustCompile(`\d+\.`)

// longFormTokens is the token-count threshold for the long_form signal.
const longFormTokens = 200

// HeuristicRouter is the deterministic first-pass router. Evaluation is
// pure string scoring: same input, same scores.
type HeuristicRouter struct {
	cfg *config.SelectorConfig
}

// NewHeuristicRouter creates a heuristic router with the given config.
func NewHeuristicRouter(cfg *config.SelectorConfig) *HeuristicRouter {
	if cfg == nil {
		cfg = config.DefaultSelectorConfig()
	}
	return &HeuristicRouter{cfg: cfg}
}

// Evaluate scores the request text. The returned signal is non-empty
// only when an explicit hint fired, in which case no other phase ran
// and the hinted backend's accumulator holds the override score.
func (r *HeuristicRouter) Evaluate(text string) (HeuristicScores, Signal) {
	scores := HeuristicScores{}

	// Phase 1: explicit hints short-circuit everything else.
	if explicit := checkExplicitHints(text); explicit != "" {
		scores.Signals.Add(explicit)
		if explicit == SignalExplicitHintHermes {
			scores.Hermes = overrideScore
		} else {
			scores.Mistral = overrideScore
		}
		return scores, explicit
	}

	lowered := strings.ToLower(text)

	// Phase 2: task classification.
	for _, sig := range classifyTask(lowered) {
		scores.Signals.Add(sig)
		r.applySignal(&scores, sig)
	}

	// Phase 3: complexity estimation.
	for _, sig := range estimateComplexity(lowered) {
		scores.Signals.Add(sig)
		r.applySignal(&scores, sig)
	}

	// Phase 4: domain-specific rules.
	for _, sig := range domainRules(lowered) {
		scores.Signals.Add(sig)
		r.applySignal(&scores, sig)
	}

	return scores, ""
}

// ScoreToConfidence converts raw scores to a confidence in [0,1].
// A clear lead between the accumulators provides 60% of the value and
// corroborating signal breadth the remaining 40%. All-zero scores yield
// the fixed low-trust floor.
func (r *HeuristicRouter) ScoreToConfidence(scores HeuristicScores) float64 {
	maxScore := scores.Max()
	if maxScore == 0 {
		return noSignalConfidence
	}

	normalizedGap := scores.Gap() / maxScore
	if normalizedGap > 1 {
		normalizedGap = 1
	}

	signalStrength := float64(scores.Signals.Len()) / 4.0
	if signalStrength > 1 {
		signalStrength = 1
	}

	return clamp01(0.6*normalizedGap + 0.4*signalStrength)
}

func (r *HeuristicRouter) applySignal(scores *HeuristicScores, sig Signal) {
	weight := r.cfg.Weight(sig.WeightKey())

	switch sig {
	case SignalReasoningHeavy, SignalPlanning, SignalConstraintLogic,
		SignalComplexLogic, SignalMultiStep, SignalLongForm:
		// Depth-demanding tasks favor hermes.
		scores.Hermes += weight

	case SignalExplanation, SignalConversational, SignalToolOriented:
		// Direct tasks favor the faster backend.
		scores.Mistral += weight

	case SignalCoding:
		// Both backends are capable; hermes favored for depth.
		scores.Hermes += weight * 0.7
		scores.Mistral += weight * 0.3
	}
}

// checkExplicitHints looks for the reserved @hermes / @mistral markers,
// either at the start of the request or preceded by a space.
func checkExplicitHints(text string) Signal {
	lowered := strings.ToLower(strings.TrimSpace(text))

	if strings.HasPrefix(lowered, "@hermes") || strings.Contains(lowered, " @hermes") {
		return SignalExplicitHintHermes
	}
	if strings.HasPrefix(lowered, "@mistral") || strings.Contains(lowered, " @mistral") {
		return SignalExplicitHintMistral
	}
	return ""
}

func classifyTask(lowered string) []Signal {
	var signals []Signal

	if matchesAny(lowered, reasoningKeywords) {
		signals = append(signals, SignalReasoningHeavy)
	}
	if matchesAny(lowered, planningKeywords) {
		signals = append(signals, SignalPlanning)
	}
	if matchesAny(lowered, explanationKeywords) {
		signals = append(signals, SignalExplanation)
	}
	if matchesAny(lowered, codingKeywords) {
		signals = append(signals, SignalCoding)
	}

	// No task indicator at all: treat as conversational.
	if len(signals) == 0 {
		signals = append(signals, SignalConversational)
	}

	return signals
}

func estimateComplexity(lowered string) []Signal {
	var signals []Signal

	// Numbered markers or repeated sequencing conjunctions.
	if numberedMarker.MatchString(lowered) || strings.Count(lowered, " then ") > 1 {
		signals = append(signals, SignalMultiStep)
	}

	if matchesAny(lowered, constraintKeywords) {
		signals = append(signals, SignalConstraintLogic)
	}

	// Conjunction density: two or more joined conditions.
	if strings.Count(lowered, " and ") >= 2 {
		signals = append(signals, SignalComplexLogic)
	}

	if len(strings.Fields(lowered)) > longFormTokens {
		signals = append(signals, SignalLongForm)
	}

	return signals
}

func domainRules(lowered string) []Signal {
	var signals []Signal

	if matchesAny(lowered, mathKeywords) {
		signals = append(signals, SignalComplexLogic)
	}
	if matchesAny(lowered, toolKeywords) {
		signals = append(signals, SignalToolOriented)
	}

	return signals
}

func matchesAny(lowered string, keywords []string) bool {
	for _, kw := range keywords {
		if containsWord(lowered, kw) {
			return true
		}
	}
	return false
}

// containsWord checks for the keyword as a word or phrase boundary match.
func containsWord(text, keyword string) bool {
	for from := 0; ; {
		idx := strings.Index(text[from:], keyword)
		if idx == -1 {
			return false
		}
		idx += from

		boundedBefore := idx == 0 || !isWordChar(text[idx-1])
		end := idx + len(keyword)
		boundedAfter := end >= len(text) || !isWordChar(text[end])
		if boundedBefore && boundedAfter {
			return true
		}
		from = idx + 1
	}
}

func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}
