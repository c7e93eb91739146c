// Package provider implements streaming chat backends. OpenRouter is the
// primary hosted provider; Ollama serves local models. Both speak the
// chat-completions message format and deliver output incrementally through
// an onDelta callback.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/parleylabs/parley/internal/domain"
)

// ---------------------------------------------------------------------------
// Provider interface
// ---------------------------------------------------------------------------

// StreamOptions carries per-request settings common to all providers.
type StreamOptions struct {
	Model    string
	APIKey   string
	Referer  string // HTTP-Referer header for OpenRouter attribution
	AppTitle string // X-Title header for OpenRouter attribution
}

// Provider is the interface that each chat backend implements.
type Provider interface {
	// StreamChat sends the conversation and streams the completion.
	// onDelta is called for each text fragment as it arrives; the full
	// accumulated response is returned when the stream ends.
	StreamChat(ctx context.Context, messages []domain.ChatMessage, opts StreamOptions, onDelta func(string)) (string, error)

	// Name returns the provider name ("openrouter", "ollama").
	Name() string
}

// ModelInfo describes one model advertised by a provider.
type ModelInfo struct {
	ID          string
	DisplayName string
}

// ModelLister is implemented by providers that can enumerate their models.
type ModelLister interface {
	FetchModels(apiKey string) ([]ModelInfo, error)
}

// ---------------------------------------------------------------------------
// Provider registry
// ---------------------------------------------------------------------------

// GetProvider returns a Provider implementation by name. An empty name
// selects OpenRouter.
func GetProvider(name string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "openrouter":
		return &OpenRouterProvider{}, nil
	case "ollama":
		return &OllamaProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: openrouter, ollama)", name)
	}
}

// ---------------------------------------------------------------------------
// Model resolution
// ---------------------------------------------------------------------------

// ResolveProviderAndModel parses a model specifier like
// "ollama/llama3.2:3b" or "grok" into a (provider, modelID) pair.
//
// Rules:
//   - "ollama/llama3.2:3b" -> ("ollama", "llama3.2:3b")
//   - "openrouter/x-ai/grok-4.1-fast:free" -> ("openrouter", slug)
//   - "grok" -> ("openrouter", resolved alias)
//   - "vendor/model" -> ("openrouter", "vendor/model") -- OpenRouter slug
//   - "gemma3:4b" -> ("ollama", "gemma3:4b") -- bare tagged name
//   - bare unknown name -> (currentProvider, name)
func ResolveProviderAndModel(spec string, currentProvider string) (string, string) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return currentProvider, ""
	}

	if model, ok := strings.CutPrefix(spec, "ollama/"); ok {
		return "ollama", model
	}
	if model, ok := strings.CutPrefix(spec, "openrouter/"); ok {
		return "openrouter", ResolveModel(model)
	}

	// Bare name: check the alias table first.
	lower := strings.ToLower(spec)
	if _, ok := ModelAliases[lower]; ok {
		return "openrouter", ResolveModel(spec)
	}

	// OpenRouter slugs always carry a vendor segment ("x-ai/grok-4.1-fast:free").
	if strings.Contains(spec, "/") {
		return "openrouter", spec
	}

	// Ollama/local model IDs often carry a tag suffix (e.g. "gemma3:4b").
	if strings.Contains(spec, ":") {
		return "ollama", spec
	}

	// Unknown -- use current provider
	return currentProvider, spec
}

// ---------------------------------------------------------------------------
// Shared HTTP client
// ---------------------------------------------------------------------------

// streamHTTPClient is shared across all streaming API calls. A single shared
// Transport reuses connections and avoids ephemeral port exhaustion on
// Windows. DisableCompression prevents gzip-over-chunked encoding failures
// on long streams. TLSNextProto is left nil so Go auto-negotiates HTTP/2
// where the server supports it.
var streamHTTPClient = &http.Client{
	Transport: &http.Transport{
		TLSHandshakeTimeout:   30 * time.Second,
		ResponseHeaderTimeout: 2 * time.Minute,
		IdleConnTimeout:       90 * time.Second,
		DisableCompression:    true,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   4,
	},
}

// CloseIdleConnections drops all idle connections from the shared HTTP
// transport. Call before retrying after a stream error so the next attempt
// gets a fresh TCP/TLS connection instead of reusing a stale pooled one.
// (Go's Transport auto-retries stale connections only for idempotent
// methods; these POST requests don't benefit from that.)
func CloseIdleConnections() {
	streamHTTPClient.CloseIdleConnections()
}
