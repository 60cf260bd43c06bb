// Package agent runs bounded tool-calling loops against an LLM provider.
//
// A task moves pending -> running -> {completed | failed}. Every model turn
// produces one step (a tool invocation, or a "thinking" step for plain text),
// and steps are persisted as they happen so a crash mid-task leaves an
// inspectable partial record instead of a lost one.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/haasonsaas/leadflow/internal/storage"
	"github.com/haasonsaas/leadflow/pkg/models"
)

// Defaults for the execution loop.
const (
	DefaultMaxTurns  = 8
	DefaultMaxTokens = 4096
)

// ErrMaxTurnsExceeded indicates the model kept requesting tools past the
// turn budget without producing a final answer.
var ErrMaxTurnsExceeded = errors.New("agent: max turns exceeded")

// Executor runs agent tasks.
type Executor struct {
	tasks        storage.TaskStore
	provider     ModelProvider
	registry     *ToolRegistry
	logger       *slog.Logger
	maxTurns     int
	maxTokens    int
	stepObserver func(toolName string, isError bool, elapsed time.Duration)
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithMaxTurns bounds the tool-calling loop.
func WithMaxTurns(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.maxTurns = n
		}
	}
}

// WithMaxTokens bounds each model turn's output.
func WithMaxTokens(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.maxTokens = n
		}
	}
}

// WithStepObserver installs a callback invoked after every tool execution,
// for metrics.
func WithStepObserver(fn func(toolName string, isError bool, elapsed time.Duration)) ExecutorOption {
	return func(e *Executor) { e.stepObserver = fn }
}

// NewExecutor creates an executor with the given task store, model provider,
// and tool registry.
func NewExecutor(tasks storage.TaskStore, provider ModelProvider, registry *ToolRegistry, logger *slog.Logger, opts ...ExecutorOption) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Executor{
		tasks:     tasks,
		provider:  provider,
		registry:  registry,
		logger:    logger.With("component", "agent"),
		maxTurns:  DefaultMaxTurns,
		maxTokens: DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecuteTask runs one agent task to a terminal state. The returned task
// reflects the final stored record; the error is non-nil when the task
// failed.
func (e *Executor) ExecuteTask(ctx context.Context, tenantID, userID, prompt string, taskType models.TaskType) (*models.Task, error) {
	if taskType == "" {
		taskType = models.TaskCustom
	}

	now := time.Now().UTC()
	task := &models.Task{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		UserID:    userID,
		Type:      taskType,
		Prompt:    prompt,
		Status:    models.TaskPending,
		Steps:     []models.Step{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	started := time.Now().UTC()
	if err := e.tasks.UpdateStatus(ctx, task.ID, models.TaskRunning, storage.TaskUpdate{StartedAt: &started}); err != nil {
		return nil, fmt.Errorf("mark task running: %w", err)
	}
	task.Status = models.TaskRunning
	task.StartedAt = &started

	e.logger.Info("task started",
		"task_id", task.ID,
		"tenant_id", tenantID,
		"type", taskType,
	)

	result, runErr := e.run(ctx, task)
	completed := time.Now().UTC()

	if runErr != nil {
		task.Status = models.TaskFailed
		task.Error = runErr.Error()
		task.CompletedAt = &completed
		if err := e.tasks.UpdateStatus(ctx, task.ID, models.TaskFailed, storage.TaskUpdate{
			Error:       runErr.Error(),
			CompletedAt: &completed,
		}); err != nil {
			e.logger.Error("failed to mark task failed", "task_id", task.ID, "error", err)
		}
		e.logger.Error("task failed",
			"task_id", task.ID,
			"tenant_id", tenantID,
			"steps", len(task.Steps),
			"error", runErr,
		)
		return task, runErr
	}

	task.Status = models.TaskCompleted
	task.Result = result
	task.CompletedAt = &completed
	if err := e.tasks.UpdateStatus(ctx, task.ID, models.TaskCompleted, storage.TaskUpdate{
		Result:      result,
		CompletedAt: &completed,
	}); err != nil {
		return task, fmt.Errorf("mark task completed: %w", err)
	}

	e.logger.Info("task completed",
		"task_id", task.ID,
		"tenant_id", tenantID,
		"steps", len(task.Steps),
		"input_tokens", result.InputTokens,
		"output_tokens", result.OutputTokens,
	)
	return task, nil
}

// run drives the tool-calling loop. It mutates task.Steps and persists them
// after every turn.
func (e *Executor) run(ctx context.Context, task *models.Task) (*models.TaskResult, error) {
	messages := []Message{{Role: RoleUser, Content: task.Prompt}}
	system := systemPrompt(task.Type)
	tools := e.registry.List()

	var inputTokens, outputTokens int64

	for turn := 0; turn < e.maxTurns; turn++ {
		resp, err := e.provider.Generate(ctx, &GenerateRequest{
			System:    system,
			Messages:  messages,
			Tools:     tools,
			MaxTokens: e.maxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("model turn %d: %w", turn+1, err)
		}
		inputTokens += int64(resp.InputTokens)
		outputTokens += int64(resp.OutputTokens)

		if len(resp.ToolCalls) == 0 {
			// Final answer. Record the closing thinking step, then finish.
			if err := e.appendStep(ctx, task, models.ThinkingStep, nil, jsonText(resp.Text), 0); err != nil {
				return nil, err
			}
			return &models.TaskResult{
				Text:         resp.Text,
				InputTokens:  inputTokens,
				OutputTokens: outputTokens,
				FinishReason: resp.StopReason,
			}, nil
		}

		messages = append(messages, Message{
			Role:      RoleAssistant,
			Content:   resp.Text,
			ToolCalls: resp.ToolCalls,
		})

		results := make([]models.ToolResult, 0, len(resp.ToolCalls))
		for _, call := range resp.ToolCalls {
			result, elapsed := e.executeTool(ctx, call)
			results = append(results, *result)
			if e.stepObserver != nil {
				e.stepObserver(call.Name, result.IsError, elapsed)
			}

			output, err := json.Marshal(result)
			if err != nil {
				return nil, fmt.Errorf("encode tool result: %w", err)
			}
			if err := e.appendStep(ctx, task, call.Name, call.Input, output, elapsed); err != nil {
				return nil, err
			}
		}

		messages = append(messages, Message{
			Role:        RoleUser,
			ToolResults: results,
		})
	}

	return nil, fmt.Errorf("%w: %d turns", ErrMaxTurnsExceeded, e.maxTurns)
}

// executeTool validates and runs one tool call. Failures become IsError
// results so the model sees them on its next turn and can retry, substitute,
// or abandon.
func (e *Executor) executeTool(ctx context.Context, call models.ToolCall) (*models.ToolResult, time.Duration) {
	start := time.Now()

	if err := e.registry.Validate(call.Name, call.Input); err != nil {
		return &models.ToolResult{
			ToolCallID: call.ID,
			Content:    err.Error(),
			IsError:    true,
		}, time.Since(start)
	}

	tool, _ := e.registry.Get(call.Name)
	result, err := tool.Execute(ctx, call.Input)
	elapsed := time.Since(start)
	if err != nil {
		e.logger.Warn("tool execution failed",
			"tool", call.Name,
			"error", err,
		)
		return &models.ToolResult{
			ToolCallID: call.ID,
			Content:    "tool failed: " + err.Error(),
			IsError:    true,
		}, elapsed
	}
	result.ToolCallID = call.ID
	return result, elapsed
}

// appendStep appends one step and persists the full step list.
func (e *Executor) appendStep(ctx context.Context, task *models.Task, toolName string, input, output json.RawMessage, elapsed time.Duration) error {
	task.Steps = append(task.Steps, models.Step{
		StepNumber: len(task.Steps) + 1,
		ToolName:   toolName,
		Input:      input,
		Output:     output,
		Timestamp:  time.Now().UTC(),
		DurationMs: elapsed.Milliseconds(),
	})
	if err := e.tasks.UpdateSteps(ctx, task.ID, task.Steps); err != nil {
		return fmt.Errorf("persist steps: %w", err)
	}
	return nil
}

// GetTask returns one task by ID.
func (e *Executor) GetTask(ctx context.Context, tenantID, taskID string) (*models.Task, error) {
	task, err := e.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.TenantID != tenantID {
		return nil, storage.ErrNotFound
	}
	return task, nil
}

// ListTasks returns the tenant's tasks, newest first.
func (e *Executor) ListTasks(ctx context.Context, tenantID string, limit int) ([]*models.Task, error) {
	return e.tasks.List(ctx, tenantID, limit)
}

func jsonText(text string) json.RawMessage {
	b, err := json.Marshal(text)
	if err != nil {
		return json.RawMessage(`""`)
	}
	return b
}
