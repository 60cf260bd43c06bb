// Package storage defines the persistence interfaces for the core and
// provides in-memory and SQLite implementations.
//
// The contract is document-style: single-record upsert and read by key,
// append for usage/audit records, and whole-array replacement for task steps.
// Any store with atomic single-document writes can satisfy it.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/haasonsaas/leadflow/pkg/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// SettingsStore persists per-tenant provider settings.
type SettingsStore interface {
	// Get returns the settings for (tenantID, provider) or ErrNotFound.
	Get(ctx context.Context, tenantID, provider string) (*models.ProviderSettings, error)

	// Upsert creates or replaces the settings record for its
	// (tenant, provider) pair.
	Upsert(ctx context.Context, settings *models.ProviderSettings) error

	// Delete removes the settings record. Returns ErrNotFound if absent.
	Delete(ctx context.Context, tenantID, provider string) error
}

// UsageStore appends usage records. Records are never mutated or deleted by
// this subsystem; retention is an external concern.
type UsageStore interface {
	Insert(ctx context.Context, record *models.UsageRecord) error
	List(ctx context.Context, tenantID string, limit int) ([]*models.UsageRecord, error)
}

// AuditStore appends immutable audit entries for privileged actions.
type AuditStore interface {
	Insert(ctx context.Context, entry *models.AuditEntry) error
	List(ctx context.Context, tenantID string, limit int) ([]*models.AuditEntry, error)
}

// TaskStore persists agent tasks and their accumulated steps.
type TaskStore interface {
	Create(ctx context.Context, task *models.Task) error
	Get(ctx context.Context, id string) (*models.Task, error)
	List(ctx context.Context, tenantID string, limit int) ([]*models.Task, error)

	// UpdateStatus transitions the task's status and merges the set fields
	// of upd into the stored record.
	UpdateStatus(ctx context.Context, id string, status models.TaskStatus, upd TaskUpdate) error

	// UpdateSteps replaces the stored steps array. Called after every agent
	// turn so partial progress survives a crash.
	UpdateSteps(ctx context.Context, id string, steps []models.Step) error
}

// TaskUpdate carries optional fields merged on a status transition.
type TaskUpdate struct {
	Result      *models.TaskResult
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// LeadStore persists contact records saved by agent tools.
type LeadStore interface {
	Create(ctx context.Context, lead *models.Lead) error
	Get(ctx context.Context, id string) (*models.Lead, error)
	List(ctx context.Context, tenantID string, limit int) ([]*models.Lead, error)

	// Upsert creates the lead or, when the tenant already has a lead with
	// the same email, updates that record in place. It reports whether a
	// new record was created.
	Upsert(ctx context.Context, lead *models.Lead) (bool, error)
}

// StoreSet groups the storage dependencies of the core.
type StoreSet struct {
	Settings SettingsStore
	Usage    UsageStore
	Audit    AuditStore
	Tasks    TaskStore
	Leads    LeadStore

	closer func() error
}

// Close closes any underlying resources.
func (s StoreSet) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
