package agent

import (
	"context"

	"github.com/haasonsaas/leadflow/pkg/models"
)

// Message roles in a task conversation.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a task conversation, provider-neutral. A user
// message may carry tool results from the previous assistant turn; an
// assistant message may carry tool calls.
type Message struct {
	Role        string
	Content     string
	ToolCalls   []models.ToolCall
	ToolResults []models.ToolResult
}

// GenerateRequest is a single non-streaming model invocation.
type GenerateRequest struct {
	System    string
	Messages  []Message
	Tools     []Tool
	MaxTokens int
}

// GenerateResponse is the model's reply: either final text, or one or more
// tool calls to execute before the next turn.
type GenerateResponse struct {
	Text         string
	ToolCalls    []models.ToolCall
	StopReason   string
	InputTokens  int
	OutputTokens int
}

// ModelProvider abstracts the LLM backend behind the executor.
//
// Implementations must be safe for concurrent use; the executor may run
// multiple tasks at once.
type ModelProvider interface {
	// Name returns the provider kind, e.g. "anthropic".
	Name() string

	// Generate performs one model turn.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)
}
