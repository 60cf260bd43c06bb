package models

import "encoding/json"

// ToolCall is a request from the model to execute a named tool.
type ToolCall struct {
	// ID uniquely identifies this call so results can be correlated.
	ID string `json:"id"`

	// Name is the registered tool name.
	Name string `json:"name"`

	// Input is the JSON arguments matching the tool's schema.
	Input json.RawMessage `json:"input"`
}

// ToolResult is the outcome of a tool execution, fed back to the model.
// Failures travel as IsError results rather than Go errors so the model can
// decide whether to retry, substitute, or abandon on its next turn.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
	IsError    bool   `json:"is_error,omitempty"`
}
