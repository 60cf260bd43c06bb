package agent

import (
	"context"
	"encoding/json"

	"github.com/haasonsaas/leadflow/pkg/models"
)

// Tool is a capability the model can invoke during a task. Implementations
// must be safe for concurrent use; the executor may run tasks in parallel.
type Tool interface {
	// Name is the identifier the model uses to call the tool.
	Name() string

	// Description tells the model what the tool does and when to use it.
	Description() string

	// Schema returns the JSON Schema for the tool's input parameters.
	Schema() json.RawMessage

	// Execute runs the tool. Tool-level failures are reported through
	// ToolResult.IsError so the model can react; a returned error aborts
	// the task.
	Execute(ctx context.Context, params json.RawMessage) (*models.ToolResult, error)
}
