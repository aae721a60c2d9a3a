package providers

import (
	"context"
)

// Role values accepted in Message.Role.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLMResponse represents a response from an LLM provider.
type LLMResponse struct {
	Content      string         `json:"content,omitempty"`
	Model        string         `json:"model,omitempty"`
	FinishReason string         `json:"finish_reason"`
	Usage        map[string]int `json:"usage"`
}

// LLMProvider is the interface for chat model providers.
type LLMProvider interface {
	Chat(ctx context.Context, messages []Message, model string) (*LLMResponse, error)
	Stream(ctx context.Context, messages []Message, model string) (<-chan LLMStreamChunk, error)
	GetDefaultModel() string
}

// LLMStreamChunk represents a chunk of the streaming response.
type LLMStreamChunk struct {
	Content      string         `json:"content,omitempty"`
	FinishReason string         `json:"finish_reason,omitempty"`
	Usage        map[string]int `json:"usage,omitempty"`
	Error        error          `json:"error,omitempty"`
}
