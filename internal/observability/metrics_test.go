package observability

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/haasonsaas/leadflow/pkg/models"
)

func TestUsageObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	observer := NewUsageObserver(metrics)

	observer.Observe(context.Background(), &models.UsageRecord{
		Provider:   "rocketreach",
		Endpoint:   "/api/v2/search",
		Units:      2,
		Status:     models.UsageSuccess,
		DurationMs: 1500,
	})
	observer.Observe(context.Background(), &models.UsageRecord{
		Provider: "rocketreach",
		Endpoint: "/api/v2/search",
		Units:    1,
		Status:   models.UsageError,
	})

	success := testutil.ToFloat64(metrics.ProviderRequestCounter.WithLabelValues("rocketreach", "/api/v2/search", "success"))
	if success != 1 {
		t.Errorf("success counter = %v, want 1", success)
	}
	failed := testutil.ToFloat64(metrics.ProviderRequestCounter.WithLabelValues("rocketreach", "/api/v2/search", "error"))
	if failed != 1 {
		t.Errorf("error counter = %v, want 1", failed)
	}
	units := testutil.ToFloat64(metrics.UsageUnits.WithLabelValues("rocketreach"))
	if units != 3 {
		t.Errorf("units counter = %v, want 3", units)
	}
}

func TestObserveTask(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	started := time.Now().Add(-30 * time.Second)
	completed := time.Now()
	metrics.ObserveTask(&models.Task{
		Type:        models.TaskLeadDiscovery,
		Status:      models.TaskCompleted,
		StartedAt:   &started,
		CompletedAt: &completed,
	})

	// Non-terminal tasks are ignored.
	metrics.ObserveTask(&models.Task{Type: models.TaskLeadDiscovery, Status: models.TaskRunning})

	got := testutil.ToFloat64(metrics.TaskCounter.WithLabelValues("lead-discovery", "completed"))
	if got != 1 {
		t.Errorf("task counter = %v, want 1", got)
	}
}

func TestObserveTool(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	metrics.ObserveTool("search_leads", false, 120*time.Millisecond)
	metrics.ObserveTool("search_leads", true, 10*time.Millisecond)

	success := testutil.ToFloat64(metrics.ToolExecutionCounter.WithLabelValues("search_leads", "success"))
	errored := testutil.ToFloat64(metrics.ToolExecutionCounter.WithLabelValues("search_leads", "error"))
	if success != 1 || errored != 1 {
		t.Errorf("tool counters = %v success, %v error", success, errored)
	}
}
