package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	reply string
	err   error

	lastModel  string
	lastPrompt string
	lastOpts   *GenerateOptions
}

func (g *fakeGenerator) Generate(_ context.Context, model, prompt string, opts *GenerateOptions) (string, error) {
	g.lastModel = model
	g.lastPrompt = prompt
	g.lastOpts = opts
	return g.reply, g.err
}

func (g *fakeGenerator) Healthy(context.Context) bool { return g.err == nil }

func TestLocalLoadUnloadIdempotent(t *testing.T) {
	a := NewHermes("hermes-2-pro-mistral-7b")

	assert.False(t, a.IsAvailable())
	require.NoError(t, a.Load())
	require.NoError(t, a.Load())
	assert.True(t, a.IsAvailable())

	require.NoError(t, a.Unload())
	require.NoError(t, a.Unload())
	assert.False(t, a.IsAvailable())
}

func TestLocalGenerateRequiresLoad(t *testing.T) {
	a := NewMistral("mistral-7b-instruct-v0.2")

	_, err := a.Generate(context.Background(), "hello", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotReady)

	var backendErr *Error
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, "mistral", backendErr.Backend)
	assert.Equal(t, "generate", backendErr.Op)
}

func TestLocalGenerateRejectsBlankPrompt(t *testing.T) {
	a := NewHermes("hermes-2-pro-mistral-7b")
	require.NoError(t, a.Load())

	for _, prompt := range []string{"", "   ", "\n\t"} {
		_, err := a.Generate(context.Background(), prompt, nil)
		assert.ErrorIs(t, err, ErrEmptyPrompt)
	}
}

func TestLocalGenerateDelegates(t *testing.T) {
	gen := &fakeGenerator{reply: "delegated output"}
	a := NewHermes("hermes-2-pro-mistral-7b", WithGenerator(gen))
	require.NoError(t, a.Load())

	opts := &GenerateOptions{Temperature: 0.2, MaxTokens: 64}
	out, err := a.Generate(context.Background(), "prove this", opts)
	require.NoError(t, err)
	assert.Equal(t, "delegated output", out)
	assert.Equal(t, "hermes-2-pro-mistral-7b", gen.lastModel)
	assert.Equal(t, "prove this", gen.lastPrompt)
	assert.Equal(t, opts, gen.lastOpts)
}

func TestLocalGenerateWrapsGeneratorError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("connection refused")}
	a := NewMistral("mistral-7b-instruct-v0.2", WithGenerator(gen))
	require.NoError(t, a.Load())

	_, err := a.Generate(context.Background(), "hello", nil)
	require.Error(t, err)

	var backendErr *Error
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, "mistral", backendErr.Backend)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestLocalGeneratePlaceholder(t *testing.T) {
	a := NewHermes("hermes-2-pro-mistral-7b")
	require.NoError(t, a.Load())

	out, err := a.Generate(context.Background(), "short prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, "[hermes response to: short prompt]", out)
}

func TestLocalDescribe(t *testing.T) {
	a := NewMistral("mistral-7b-instruct-v0.2")

	info := a.Describe()
	assert.Equal(t, "mistral-7b-instruct-v0.2", info.Name)
	assert.Equal(t, KindMistral, info.Kind)
	assert.False(t, info.Loaded)
	assert.Equal(t, "Mistral", info.Profile.Family)

	require.NoError(t, a.Load())
	assert.True(t, a.Describe().Loaded)
}

func TestKindProfileCoversBackends(t *testing.T) {
	assert.NotEmpty(t, KindProfile(KindHermes).Strengths)
	assert.NotEmpty(t, KindProfile(KindMistral).Strengths)
	assert.Empty(t, KindProfile(Kind("unknown")).Family)
}

func TestMockCannedResponses(t *testing.T) {
	a := NewMockWithResponses("scripted", map[string]string{
		"known prompt": "known reply",
	}, "fallback:")
	require.NoError(t, a.Load())

	out, err := a.Generate(context.Background(), "known prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, "known reply", out)

	out, err = a.Generate(context.Background(), "something else", nil)
	require.NoError(t, err)
	assert.Equal(t, "fallback: something else", out)

	assert.Equal(t, 2, a.GenerateCalls)
}

func TestMockRequiresLoad(t *testing.T) {
	a := NewMock("unready")

	_, err := a.Generate(context.Background(), "hello", nil)
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Equal(t, 1, a.GenerateCalls)
}

func TestMockDeterministic(t *testing.T) {
	a := NewMock("stable")
	require.NoError(t, a.Load())

	first, err := a.Generate(context.Background(), "same prompt", nil)
	require.NoError(t, err)
	second, err := a.Generate(context.Background(), "same prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 50))
	long := make([]byte, 60)
	for i := range long {
		long[i] = 'a'
	}
	got := truncate(string(long), 50)
	assert.Len(t, got, 53)
	assert.Equal(t, "...", got[50:])
}
