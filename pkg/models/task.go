package models

import (
	"encoding/json"
	"time"
)

// TaskStatus is the lifecycle state of an agent task.
//
// State machine: pending -> running -> {completed | failed}. Terminal states
// are final; a task never re-enters running.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// Terminal reports whether the status is final.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// TaskType selects the system prompt and tool subset for a task.
type TaskType string

const (
	TaskLeadDiscovery TaskType = "lead-discovery"
	TaskEmailOutreach TaskType = "email-outreach"
	TaskResearch      TaskType = "research"
	TaskCustom        TaskType = "custom"
)

// Task is one agent invocation. Steps is append-only and grows monotonically
// while the task is running; the record is persisted after every step so a
// crash mid-loop leaves a partial but consistent task rather than a lost one.
type Task struct {
	ID       string   `json:"id"`
	TenantID string   `json:"tenant_id"`
	UserID   string   `json:"user_id"`
	Type     TaskType `json:"type"`
	Prompt   string   `json:"prompt"`

	Status TaskStatus `json:"status"`
	Steps  []Step     `json:"steps"`

	// Result holds the final text, token usage, and finish reason once the
	// task completes.
	Result *TaskResult `json:"result,omitempty"`

	// Error is the terminal failure message for failed tasks.
	Error string `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TaskResult captures the outcome of a completed task.
type TaskResult struct {
	Text         string `json:"text"`
	InputTokens  int64  `json:"input_tokens,omitempty"`
	OutputTokens int64  `json:"output_tokens,omitempty"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// ThinkingStep is the tool name recorded for a model turn that emitted text
// without invoking a tool.
const ThinkingStep = "thinking"

// Step is one tool invocation or model thinking turn within a task.
// StepNumber is 1-based and strictly monotonic within the parent task; steps
// are never mutated after append.
type Step struct {
	StepNumber int             `json:"step_number"`
	ToolName   string          `json:"tool_name"`
	Input      json.RawMessage `json:"input,omitempty"`
	Output     json.RawMessage `json:"output,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	DurationMs int64           `json:"duration_ms"`
}
