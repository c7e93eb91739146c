package provider

import (
	"slices"
	"strings"
)

// ---------------------------------------------------------------------------
// Model alias resolution
// ---------------------------------------------------------------------------

// DefaultModel is the fallback OpenRouter model when none is configured.
const DefaultModel = "x-ai/grok-4.1-fast:free"

// ModelAliases maps short names to full OpenRouter model slugs.
var ModelAliases = map[string]string{
	"grok":       "x-ai/grok-4.1-fast:free",
	"gemini":     "google/gemini-2.5-flash",
	"gemini-pro": "google/gemini-2.5-pro",
	"gpt":        "openai/gpt-5",
	"gpt-mini":   "openai/gpt-5-mini",
	"claude":     "anthropic/claude-sonnet-4.5",
	"haiku":      "anthropic/claude-haiku-4.5",
	"llama":      "meta-llama/llama-3.3-70b-instruct",
	"deepseek":   "deepseek/deepseek-chat",
	"r1":         "deepseek/deepseek-r1",
	"qwen":       "qwen/qwen3-32b",
	"kimi":       "moonshotai/kimi-k2",
}

// ResolveModel maps a short alias to its OpenRouter slug. Unrecognized
// names pass through unchanged; an empty name resolves to the default.
func ResolveModel(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return DefaultModel
	}
	trimmed = strings.TrimPrefix(trimmed, "openrouter/")
	if resolved, ok := ModelAliases[strings.ToLower(trimmed)]; ok {
		return resolved
	}
	return trimmed
}

// AliasNames returns the alias table's keys, sorted, for REPL completion.
func AliasNames() []string {
	out := make([]string, 0, len(ModelAliases))
	for name := range ModelAliases {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}
