// Package usage records the terminal outcome of every outbound provider call.
//
// The API client reports each call exactly once through the Observer seam:
// success or final failure, never intermediate rate-limited attempts. Sinks
// are best-effort relative to the primary operation; a failed usage write is
// logged, not surfaced into the caller's control flow.
package usage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/haasonsaas/leadflow/internal/storage"
	"github.com/haasonsaas/leadflow/pkg/models"
)

// Observer receives exactly one record per terminal call outcome.
type Observer interface {
	Observe(ctx context.Context, record *models.UsageRecord)
}

// NopObserver discards all records.
type NopObserver struct{}

func (NopObserver) Observe(ctx context.Context, record *models.UsageRecord) {}

// StoreObserver appends records to a durable UsageStore. Write failures are
// logged and swallowed: usage accounting must never fail the wrapped call.
type StoreObserver struct {
	store  storage.UsageStore
	logger *slog.Logger
}

// NewStoreObserver creates a store-backed observer.
func NewStoreObserver(store storage.UsageStore, logger *slog.Logger) *StoreObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreObserver{store: store, logger: logger.With("component", "usage")}
}

func (o *StoreObserver) Observe(ctx context.Context, record *models.UsageRecord) {
	if record == nil {
		return
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if record.Units == 0 {
		record.Units = 1
	}
	if err := o.store.Insert(ctx, record); err != nil {
		o.logger.Error("failed to write usage record",
			"error", err,
			"tenant_id", record.TenantID,
			"provider", record.Provider,
			"endpoint", record.Endpoint,
		)
	}
}

// MultiObserver fans a record out to several observers.
type MultiObserver []Observer

func (m MultiObserver) Observe(ctx context.Context, record *models.UsageRecord) {
	for _, o := range m {
		o.Observe(ctx, record)
	}
}

// Totals aggregates call outcomes for one (tenant, provider) pair.
type Totals struct {
	Calls   int64 `json:"calls"`
	Units   int64 `json:"units"`
	Errors  int64 `json:"errors"`
	TotalMs int64 `json:"total_ms"`
}

// Tracker keeps in-process usage rollups. It implements Observer so it can be
// fanned in next to the durable sink, giving cheap per-tenant counters
// without a store query.
type Tracker struct {
	mu     sync.RWMutex
	totals map[string]*Totals // keyed by "tenant:provider"
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{totals: make(map[string]*Totals)}
}

func trackerKey(tenantID, provider string) string {
	return tenantID + ":" + provider
}

// Observe implements Observer.
func (t *Tracker) Observe(ctx context.Context, record *models.UsageRecord) {
	if record == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	key := trackerKey(record.TenantID, record.Provider)
	totals := t.totals[key]
	if totals == nil {
		totals = &Totals{}
		t.totals[key] = totals
	}
	totals.Calls++
	totals.Units += int64(record.Units)
	totals.TotalMs += record.DurationMs
	if record.Status == models.UsageError {
		totals.Errors++
	}
}

// Get returns a copy of the totals for a (tenant, provider) pair.
func (t *Tracker) Get(tenantID, provider string) Totals {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if totals := t.totals[trackerKey(tenantID, provider)]; totals != nil {
		return *totals
	}
	return Totals{}
}

// Summary returns a copy of all rollups.
func (t *Tracker) Summary() map[string]Totals {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]Totals, len(t.totals))
	for k, v := range t.totals {
		out[k] = *v
	}
	return out
}
