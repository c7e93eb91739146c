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

	"github.com/parleylabs/parley/internal/domain"
)

var ollamaBaseURL = "http://localhost:11434"

// SetOllamaBaseURL configures the Ollama endpoint.
func SetOllamaBaseURL(raw string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		ollamaBaseURL = "http://localhost:11434"
		return
	}
	ollamaBaseURL = strings.TrimRight(raw, "/")
}

type OllamaProvider struct{}

func (p *OllamaProvider) Name() string { return "ollama" }

// StreamChat sends the conversation to a local Ollama server. Responses
// arrive as newline-delimited JSON rather than SSE; no auth is required.
func (p *OllamaProvider) StreamChat(
	ctx context.Context,
	messages []domain.ChatMessage,
	opts StreamOptions,
	onDelta func(string),
) (string, error) {
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

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ollamaBaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := streamHTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		msg := strings.TrimSpace(string(raw))
		var parsed struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error != "" {
			msg = parsed.Error
		}
		return "", NewAPIError(resp.StatusCode, "", msg, resp.Header)
	}

	var text strings.Builder
	done := false

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var chunk struct {
			Message *struct {
				Content string `json:"content"`
			} `json:"message"`
			Done  bool   `json:"done"`
			Error string `json:"error"`
		}
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			continue
		}
		if chunk.Error != "" {
			return text.String(), fmt.Errorf("ollama: %s", chunk.Error)
		}
		if chunk.Message != nil && chunk.Message.Content != "" {
			text.WriteString(chunk.Message.Content)
			if onDelta != nil {
				onDelta(chunk.Message.Content)
			}
		}
		if chunk.Done {
			done = true
		}
	}
	if err := scanner.Err(); err != nil && !done {
		return text.String(), fmt.Errorf("reading stream: %w", err)
	}

	return text.String(), nil
}

func (p *OllamaProvider) FetchModels(_ string) ([]ModelInfo, error) {
	req, err := http.NewRequest(http.MethodGet, ollamaBaseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := streamHTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama HTTP %d: %s", resp.StatusCode, string(raw))
	}

	var parsed struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding ollama models: %w", err)
	}

	out := make([]ModelInfo, 0, len(parsed.Models))
	for _, m := range parsed.Models {
		out = append(out, ModelInfo{ID: m.Name, DisplayName: m.Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
