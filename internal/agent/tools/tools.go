// Package tools implements the built-in agent tools: lead search and
// persistence, email generation and sending, and website research.
//
// Tools report domain failures through ToolResult.IsError so the model can
// react on its next turn; only infrastructure faults surface as Go errors.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/haasonsaas/leadflow/pkg/models"
)

// jsonResult encodes v as the tool's result content.
func jsonResult(v any) (*models.ToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return &models.ToolResult{Content: string(b)}, nil
}

// errorResult reports a tool-level failure back to the model.
func errorResult(format string, args ...any) *models.ToolResult {
	return &models.ToolResult{
		Content: fmt.Sprintf(format, args...),
		IsError: true,
	}
}
