package routing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/modelgate/pkg/adapter"
	"github.com/zen-systems/modelgate/pkg/config"
)

// scriptedAdapter returns canned completions in sequence, mirroring the
// router model's side of the wire contract.
type scriptedAdapter struct {
	responses []string
	err       error
	loaded    bool
	calls     int
}

func (a *scriptedAdapter) Load() error   { a.loaded = true; return nil }
func (a *scriptedAdapter) Unload() error { a.loaded = false; return nil }

func (a *scriptedAdapter) Generate(_ context.Context, _ string, _ *adapter.GenerateOptions) (string, error) {
	a.calls++
	if a.err != nil {
		return "", a.err
	}
	idx := a.calls - 1
	if idx >= len(a.responses) {
		idx = len(a.responses) - 1
	}
	return a.responses[idx], nil
}

func (a *scriptedAdapter) IsAvailable() bool { return a.loaded }

func (a *scriptedAdapter) Describe() adapter.Info {
	return adapter.Info{Name: "scripted", Kind: adapter.KindMock, Loaded: a.loaded}
}

func loadedAdapter(responses ...string) *scriptedAdapter {
	a := &scriptedAdapter{responses: responses}
	_ = a.Load()
	return a
}

func heuristicFallback() Decision {
	return NewDecision(BackendMistral, 0.3, SourceHeuristic, "", []Signal{SignalConversational})
}

func TestRouteValidResponse(t *testing.T) {
	backend := loadedAdapter(`{"model": "hermes", "confidence": 0.85, "reason": "needs deep reasoning"}`)
	r := NewSemanticRouter(backend, nil, nil)

	decision, ok := r.Route(context.Background(), "ambiguous request", heuristicFallback())
	require.True(t, ok)
	assert.Equal(t, BackendHermes, decision.Model)
	assert.Equal(t, 0.85, decision.Confidence)
	assert.Equal(t, SourceLLM, decision.Source)
	assert.Equal(t, "needs deep reasoning", decision.Reason)
	assert.Equal(t, []Signal{SignalSemanticRouting}, decision.Signals)
}

func TestRouteJSONEmbeddedInProse(t *testing.T) {
	backend := loadedAdapter(`The best choice is {"model": "hermes", "confidence": 0.9, "reason": "test"} for this`)
	r := NewSemanticRouter(backend, nil, nil)

	decision, ok := r.Route(context.Background(), "request", heuristicFallback())
	require.True(t, ok)
	assert.Equal(t, BackendHermes, decision.Model)
}

func TestRouteMalformedResponses(t *testing.T) {
	cases := map[string]string{
		"not json":             "this is not json at all",
		"missing model":        `{"confidence": 0.8, "reason": "x"}`,
		"missing confidence":   `{"model": "hermes", "reason": "x"}`,
		"missing reason":       `{"model": "hermes", "confidence": 0.8}`,
		"unknown model":        `{"model": "gpt4", "confidence": 0.8, "reason": "x"}`,
		"confidence too high":  `{"model": "hermes", "confidence": 1.5, "reason": "x"}`,
		"confidence negative":  `{"model": "hermes", "confidence": -0.5, "reason": "x"}`,
		"non-numeric":          `{"model": "hermes", "confidence": "high", "reason": "x"}`,
		"unterminated object":  `{"model": "hermes", "confidence": 0.8`,
		"brace only in string": `the token "{" appears but no object does`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			backend := loadedAdapter(raw)
			r := NewSemanticRouter(backend, nil, nil)

			fallback := heuristicFallback()
			decision, ok := r.Route(context.Background(), "request", fallback)
			assert.False(t, ok)
			assert.Equal(t, fallback, decision)
		})
	}
}

func TestRouteTransportFailureAbsorbed(t *testing.T) {
	backend := loadedAdapter()
	backend.err = errors.New("connection refused")
	r := NewSemanticRouter(backend, nil, nil)

	fallback := heuristicFallback()
	decision, ok := r.Route(context.Background(), "request", fallback)
	assert.False(t, ok)
	assert.Equal(t, fallback, decision)
	// Transport failures are not retried.
	assert.Equal(t, 1, backend.calls)
}

func TestRouteUnloadedRouterModel(t *testing.T) {
	backend := &scriptedAdapter{responses: []string{`{}`}}
	r := NewSemanticRouter(backend, nil, nil)

	_, ok := r.Route(context.Background(), "request", heuristicFallback())
	assert.False(t, ok)
	assert.Zero(t, backend.calls)
}

func TestRecursionGuard(t *testing.T) {
	backend := loadedAdapter(`{"model": "hermes", "confidence": 0.9, "reason": "x"}`)
	r := NewSemanticRouter(backend, nil, nil)

	_, ok := r.Route(context.Background(), "request", heuristicFallback())
	require.True(t, ok)
	require.Equal(t, 1, backend.calls)

	// Second call within the same cycle fails without backend contact.
	fallback := heuristicFallback()
	decision, ok := r.Route(context.Background(), "request", fallback)
	assert.False(t, ok)
	assert.Equal(t, fallback, decision)
	assert.Equal(t, 1, backend.calls)

	// Reset re-arms the guard.
	r.ResetGuard()
	_, ok = r.Route(context.Background(), "request", heuristicFallback())
	assert.True(t, ok)
	assert.Equal(t, 2, backend.calls)
}

func TestRetryBudgetConsumedOnMalformedOutput(t *testing.T) {
	cfg := config.DefaultSelectorConfig()
	cfg.RetryBudget = 2

	backend := loadedAdapter(
		"garbage",
		"more garbage",
		`{"model": "mistral", "confidence": 0.7, "reason": "recovered"}`,
	)
	r := NewSemanticRouter(backend, cfg, nil)

	decision, ok := r.Route(context.Background(), "request", heuristicFallback())
	require.True(t, ok)
	assert.Equal(t, BackendMistral, decision.Model)
	assert.Equal(t, 3, backend.calls)
}

func TestRetryBudgetExhausted(t *testing.T) {
	cfg := config.DefaultSelectorConfig()
	cfg.RetryBudget = 1

	backend := loadedAdapter("garbage")
	r := NewSemanticRouter(backend, cfg, nil)

	fallback := heuristicFallback()
	decision, ok := r.Route(context.Background(), "request", fallback)
	assert.False(t, ok)
	assert.Equal(t, fallback, decision)
	assert.Equal(t, 2, backend.calls)
}

func TestFirstBalancedObject(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, true},
		{"surrounded", `x {"a":1} y {"b":2}`, `{"a":1}`, true},
		{"nested", `note {"a":{"b":2}} end`, `{"a":{"b":2}}`, true},
		{"brace in string", `{"a":"}"}`, `{"a":"}"}`, true},
		{"escaped quote", `{"a":"\"}"}`, `{"a":"\"}"}`, true},
		{"unbalanced", `{"a":1`, "", false},
		{"no object", `nothing here`, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := firstBalancedObject(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}
