// Package llm provides the completion-endpoint client.
package llm

import (
	"context"
	"log/slog"
)

// LevelTrace is below Debug, used for wire-level payload logging.
const LevelTrace = slog.Level(-8)

// Message represents one conversation turn sent to the completion
// endpoint. The endpoint is stateless per call; callers replay the full
// ordered history on every request.
type Message struct {
	Role       string     `json:"role"` // system, user, assistant, tool
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // for tool-result turns
}

// ToolCall represents a tool invocation requested by the model. The ID
// is model-issued and must be echoed on the matching tool-result turn.
type ToolCall struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ChatResponse is the provider-neutral response shape. Wire format
// conversion happens at the provider boundary (anthropic.go).
type ChatResponse struct {
	Model      string
	Message    Message
	StopReason string // end_turn, tool_use, max_tokens

	InputTokens  int
	OutputTokens int
}

// Client is the interface the agent loop depends on.
type Client interface {
	// Chat sends the full ordered conversation plus tool descriptors and
	// returns either a final answer or one-or-more tool invocations.
	Chat(ctx context.Context, model string, messages []Message, tools []map[string]any) (*ChatResponse, error)

	// Ping checks that the provider is reachable and the key is valid.
	Ping(ctx context.Context) error
}
