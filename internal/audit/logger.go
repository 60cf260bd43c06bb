// Package audit records privileged administrative actions as immutable
// entries consumed by compliance and analytics tooling.
//
// Every provider-settings mutation produces one entry. Entries are written
// synchronously to the durable store and mirrored to the structured log so an
// operator can follow admin activity without a store query.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/haasonsaas/leadflow/internal/storage"
	"github.com/haasonsaas/leadflow/pkg/models"
)

// Actor identifies who performed an administrative action.
type Actor struct {
	ID    string
	Email string
}

// Recorder appends audit entries for privileged mutations.
type Recorder struct {
	store  storage.AuditStore
	logger *slog.Logger
}

// NewRecorder creates a recorder writing to the given store.
func NewRecorder(store storage.AuditStore, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, logger: logger.With("component", "audit")}
}

// Record appends one audit entry. Unlike usage records, audit writes are not
// best-effort: a failed write surfaces to the caller so the mutation path can
// decide whether to proceed.
func (r *Recorder) Record(ctx context.Context, tenantID string, actor Actor, action, target, targetID string, meta map[string]any) error {
	entry := &models.AuditEntry{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		ActorID:    actor.ID,
		ActorEmail: actor.Email,
		Action:     action,
		Target:     target,
		TargetID:   targetID,
		Meta:       meta,
		CreatedAt:  time.Now().UTC(),
	}
	if err := r.store.Insert(ctx, entry); err != nil {
		r.logger.Error("failed to write audit entry",
			"error", err,
			"tenant_id", tenantID,
			"action", action,
		)
		return err
	}
	r.logger.Info("audit",
		"tenant_id", tenantID,
		"actor_id", actor.ID,
		"action", action,
		"target", target,
		"target_id", targetID,
	)
	return nil
}
