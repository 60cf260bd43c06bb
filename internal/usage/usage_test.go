package usage

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/haasonsaas/leadflow/internal/storage"
	"github.com/haasonsaas/leadflow/pkg/models"
)

func TestStoreObserver_FillsDefaults(t *testing.T) {
	store := storage.NewMemoryUsageStore()
	obs := NewStoreObserver(store, slog.Default())

	obs.Observe(context.Background(), &models.UsageRecord{
		TenantID: "t1",
		Provider: "rocketreach",
		Endpoint: "/api/v2/search",
		Method:   "POST",
		Status:   models.UsageSuccess,
	})

	records, err := store.List(context.Background(), "t1", 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.ID == "" {
		t.Error("expected generated id")
	}
	if rec.CreatedAt.IsZero() {
		t.Error("expected created_at to be stamped")
	}
	if rec.Units != 1 {
		t.Errorf("expected default units 1, got %d", rec.Units)
	}
}

type failingUsageStore struct{}

func (failingUsageStore) Insert(ctx context.Context, record *models.UsageRecord) error {
	return errors.New("disk full")
}

func (failingUsageStore) List(ctx context.Context, tenantID string, limit int) ([]*models.UsageRecord, error) {
	return nil, nil
}

func TestStoreObserver_SwallowsWriteFailure(t *testing.T) {
	obs := NewStoreObserver(failingUsageStore{}, slog.Default())

	// Must not panic or propagate; usage accounting is best-effort.
	obs.Observe(context.Background(), &models.UsageRecord{TenantID: "t1"})
}

func TestTracker_Rollups(t *testing.T) {
	tracker := NewTracker()
	ctx := context.Background()

	tracker.Observe(ctx, &models.UsageRecord{
		TenantID: "t1", Provider: "rocketreach", Units: 1,
		Status: models.UsageSuccess, DurationMs: 100,
	})
	tracker.Observe(ctx, &models.UsageRecord{
		TenantID: "t1", Provider: "rocketreach", Units: 2,
		Status: models.UsageError, DurationMs: 50,
	})
	tracker.Observe(ctx, &models.UsageRecord{
		TenantID: "t2", Provider: "rocketreach", Units: 1,
		Status: models.UsageSuccess,
	})

	totals := tracker.Get("t1", "rocketreach")
	if totals.Calls != 2 || totals.Units != 3 || totals.Errors != 1 || totals.TotalMs != 150 {
		t.Errorf("unexpected totals: %+v", totals)
	}

	if got := tracker.Get("t2", "rocketreach"); got.Calls != 1 {
		t.Errorf("expected tenant isolation, got %+v", got)
	}
	if got := tracker.Get("missing", "rocketreach"); got.Calls != 0 {
		t.Errorf("expected zero totals for unknown tenant, got %+v", got)
	}

	summary := tracker.Summary()
	if len(summary) != 2 {
		t.Errorf("expected 2 rollup keys, got %d", len(summary))
	}
}

func TestMultiObserver(t *testing.T) {
	store := storage.NewMemoryUsageStore()
	tracker := NewTracker()
	obs := MultiObserver{NewStoreObserver(store, slog.Default()), tracker}

	obs.Observe(context.Background(), &models.UsageRecord{
		TenantID: "t1", Provider: "rocketreach", Status: models.UsageSuccess,
	})

	if records, _ := store.List(context.Background(), "t1", 10); len(records) != 1 {
		t.Error("store observer did not receive the record")
	}
	if tracker.Get("t1", "rocketreach").Calls != 1 {
		t.Error("tracker did not receive the record")
	}
}
