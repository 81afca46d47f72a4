package provider

import (
	"context"
	"errors"
)

var (
	// ErrNotConfigured is returned by every call when no API key is set.
	ErrNotConfigured = errors.New("llm provider not configured")
	// ErrCircuitOpen is returned without contacting the upstream while the breaker is open.
	ErrCircuitOpen = errors.New("llm circuit breaker open")
)

// ChatPayload is a single-turn completion request.
type ChatPayload struct {
	System      string
	User        string
	ExpectJSON  bool
	MaxTokens   int
	Temperature float64
	// Purpose tags the transcript, e.g. the symbol being analysed.
	Purpose string
	Kind    string
}

type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"-"`
}

type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Tool is a function the model may call; Parameters is a JSON schema object.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Conversation is a multi-turn request with optional tools.
type Conversation struct {
	Messages    []Message
	Tools       []Tool
	MaxTokens   int
	Temperature float64
	Purpose     string
}

type Reply struct {
	Content     string
	ToolCalls   []ToolCall
	TotalTokens int
}

type ModelProvider interface {
	ID() string
	Enabled() bool

	Call(ctx context.Context, payload ChatPayload) (string, error)

	Converse(ctx context.Context, conv Conversation) (Reply, error)
}
