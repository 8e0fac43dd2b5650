// Package governed provides oversight-wrapped generation backends that
// production adapters delegate to. The primary transports target local
// inference processes (llama.cpp's OpenAI-compatible server, Ollama);
// hosted Anthropic and Gemini clients exist as fallbacks for hosts with
// no local inference at all. All implementations satisfy
// adapter.Generator and block on network I/O without internal timeouts;
// callers bound them through ctx.
package governed
