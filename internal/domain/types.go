package domain

import (
	"strings"
	"time"
)

// Message roles in the chat-completions wire format.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one conversation turn in the wire format shared by
// OpenRouter-style chat completion APIs.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TranscriptMessage is a stored message loaded back from a session.
type TranscriptMessage struct {
	Role    string
	Content string
}

// Session holds metadata about a conversation session.
type Session struct {
	ID           string    `json:"id"`
	ProjectPath  string    `json:"project_path"`
	Title        string    `json:"title"`
	Model        string    `json:"model"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DefaultSessionTitle is the placeholder title until the first user
// message provides a real one.
const DefaultSessionTitle = "New Session"

// ShortID returns the first 8 characters of the session ID, enough for
// prefix lookup.
func (s Session) ShortID() string {
	if len(s.ID) <= 8 {
		return s.ID
	}
	return s.ID[:8]
}

// TitleFromPrompt derives a session title from the first user message:
// collapsed whitespace, truncated at 50 characters.
func TitleFromPrompt(prompt string) string {
	title := strings.Join(strings.Fields(prompt), " ")
	if title == "" {
		return DefaultSessionTitle
	}
	if len(title) > 50 {
		title = title[:50] + "..."
	}
	return title
}
