package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/parleylabs/parley/internal/domain"
)

// ---------------------------------------------------------------------------
// Endpoint configuration
// ---------------------------------------------------------------------------

var openRouterBaseURL = "https://openrouter.ai/api/v1"

// SetOpenRouterBaseURL configures the OpenRouter API base. Tests point this
// at a local httptest server.
func SetOpenRouterBaseURL(raw string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		openRouterBaseURL = "https://openrouter.ai/api/v1"
		return
	}
	openRouterBaseURL = strings.TrimRight(raw, "/")
}

const (
	defaultReferer  = "https://github.com/parleylabs/parley"
	defaultAppTitle = "parley"
)

// openRouterLimiter paces requests so scripted one-shot invocations in a
// loop don't trip the per-key rate limit. Interactive use never waits.
var openRouterLimiter = rate.NewLimiter(rate.Every(time.Second), 4)

// ---------------------------------------------------------------------------
// OpenRouterProvider
// ---------------------------------------------------------------------------

type OpenRouterProvider struct{}

func (p *OpenRouterProvider) Name() string { return "openrouter" }

// openRouterChunk is one SSE data payload from the chat-completions stream.
type openRouterChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *openRouterWireError `json:"error"`
}

type openRouterWireError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// StreamChat sends the conversation to OpenRouter and streams the
// completion. Whatever text accumulated before a mid-stream failure is
// returned alongside the error.
func (p *OpenRouterProvider) StreamChat(
	ctx context.Context,
	messages []domain.ChatMessage,
	opts StreamOptions,
	onDelta func(string),
) (string, error) {
	if err := openRouterLimiter.Wait(ctx); err != nil {
		return "", err
	}

	reqBody := struct {
		Model    string               `json:"model"`
		Messages []domain.ChatMessage `json:"messages"`
		Stream   bool                 `json:"stream"`
	}{
		Model:    opts.Model,
		Messages: messages,
		Stream:   true,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openRouterBaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+opts.APIKey)
	req.Header.Set("Accept", "text/event-stream")
	// Ask for uncompressed SSE; gzip-over-chunked breaks some proxies.
	req.Header.Set("Accept-Encoding", "identity")
	referer := opts.Referer
	if referer == "" {
		referer = defaultReferer
	}
	title := opts.AppTitle
	if title == "" {
		title = defaultAppTitle
	}
	req.Header.Set("HTTP-Referer", referer)
	req.Header.Set("X-Title", title)

	resp, err := streamHTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		var parsed struct {
			Error openRouterWireError `json:"error"`
		}
		if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Message != "" {
			return "", NewAPIError(resp.StatusCode, parsed.Error.Type, parsed.Error.Message, resp.Header)
		}
		return "", NewAPIError(resp.StatusCode, "", strings.TrimSpace(string(raw)), resp.Header)
	}

	return parseOpenRouterSSE(resp.Body, onDelta)
}

// parseOpenRouterSSE reads "data: " events until the [DONE] sentinel.
// Comment keep-alive lines (": OPENROUTER PROCESSING") carry no data prefix
// and are skipped.
func parseOpenRouterSSE(body io.Reader, onDelta func(string)) (string, error) {
	var text strings.Builder
	finishReason := ""

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if payload == "[DONE]" {
			finishReason = "done"
			break
		}

		var chunk openRouterChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue
		}
		if chunk.Error != nil {
			// Mid-stream error event; StatusCode 0 marks it for retry
			// classification.
			return text.String(), NewAPIError(0, chunk.Error.Type, chunk.Error.Message, nil)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]
		if choice.Delta.Content != "" {
			text.WriteString(choice.Delta.Content)
			if onDelta != nil {
				onDelta(choice.Delta.Content)
			}
		}
		if choice.FinishReason != "" {
			finishReason = choice.FinishReason
		}
	}
	if err := scanner.Err(); err != nil && finishReason == "" {
		// Connection dropped mid-response. A finish reason means the
		// response completed and only the tail read failed.
		return text.String(), fmt.Errorf("reading stream: %w", err)
	}

	return text.String(), nil
}

// ---------------------------------------------------------------------------
// Model listing
// ---------------------------------------------------------------------------

func (p *OpenRouterProvider) FetchModels(apiKey string) ([]ModelInfo, error) {
	req, err := http.NewRequest(http.MethodGet, openRouterBaseURL+"/models", nil)
	if err != nil {
		return nil, err
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := streamHTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, NewAPIError(resp.StatusCode, "", strings.TrimSpace(string(raw)), resp.Header)
	}

	var parsed struct {
		Data []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding model list: %w", err)
	}

	out := make([]ModelInfo, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		name := m.Name
		if name == "" {
			name = m.ID
		}
		out = append(out, ModelInfo{ID: m.ID, DisplayName: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
