package models

import "time"

// Audit actions recorded for privileged administrative mutations.
const (
	AuditProviderCreated = "provider.created"
	AuditProviderUpdated = "provider.updated"
	AuditProviderDeleted = "provider.deleted"
)

// AuditEntry is one immutable record of a privileged administrative action,
// consumed by compliance and analytics tooling. Entries are append-only and
// never mutated by this system.
type AuditEntry struct {
	ID         string         `json:"id"`
	TenantID   string         `json:"tenant_id"`
	ActorID    string         `json:"actor_id,omitempty"`
	ActorEmail string         `json:"actor_email,omitempty"`
	Action     string         `json:"action"`
	Target     string         `json:"target,omitempty"`
	TargetID   string         `json:"target_id,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
