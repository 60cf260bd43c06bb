package models

import "time"

// UsageStatus is the terminal outcome of an outbound provider call.
type UsageStatus string

const (
	UsageSuccess UsageStatus = "success"
	UsageError   UsageStatus = "error"
)

// UsageRecord is one append-only usage entry. Exactly one record is written
// per terminal outcome of an outbound call, including the final failed retry.
// Rate-limited attempts that were retried do not produce a record.
type UsageRecord struct {
	ID         string      `json:"id"`
	TenantID   string      `json:"tenant_id"`
	Provider   string      `json:"provider"`
	Endpoint   string      `json:"endpoint"`
	Method     string      `json:"method"`
	Units      int         `json:"units"`
	Status     UsageStatus `json:"status"`
	DurationMs int64       `json:"duration_ms"`
	Error      string      `json:"error,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}
