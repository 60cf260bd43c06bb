package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/haasonsaas/leadflow/pkg/models"
)

// Metrics holds the Prometheus instruments for the core call paths.
type Metrics struct {
	// ProviderRequestCounter counts outbound provider calls by terminal
	// outcome. Labels: provider, endpoint, status (success|error)
	ProviderRequestCounter *prometheus.CounterVec

	// ProviderRequestDuration measures end-to-end provider call latency,
	// retries included. Labels: provider, endpoint
	ProviderRequestDuration *prometheus.HistogramVec

	// UsageUnits tracks billed units per provider. Labels: provider
	UsageUnits *prometheus.CounterVec

	// ToolExecutionCounter counts agent tool invocations.
	// Labels: tool_name, status (success|error)
	ToolExecutionCounter *prometheus.CounterVec

	// ToolExecutionDuration measures tool execution time in seconds.
	// Labels: tool_name
	ToolExecutionDuration *prometheus.HistogramVec

	// TaskCounter counts agent tasks by terminal state.
	// Labels: type, status (completed|failed)
	TaskCounter *prometheus.CounterVec

	// TaskDuration measures task wall time in seconds. Labels: type
	TaskDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all instruments with the given registerer.
// A nil registerer uses the Prometheus default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := newRegistryFactory(reg)

	return &Metrics{
		ProviderRequestCounter: factory.counterVec(prometheus.CounterOpts{
			Name: "leadflow_provider_requests_total",
			Help: "Provider API calls by terminal outcome",
		}, []string{"provider", "endpoint", "status"}),

		ProviderRequestDuration: factory.histogramVec(prometheus.HistogramOpts{
			Name:    "leadflow_provider_request_duration_seconds",
			Help:    "Provider API call latency including retries",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"provider", "endpoint"}),

		UsageUnits: factory.counterVec(prometheus.CounterOpts{
			Name: "leadflow_usage_units_total",
			Help: "Billed provider usage units",
		}, []string{"provider"}),

		ToolExecutionCounter: factory.counterVec(prometheus.CounterOpts{
			Name: "leadflow_tool_executions_total",
			Help: "Agent tool invocations",
		}, []string{"tool_name", "status"}),

		ToolExecutionDuration: factory.histogramVec(prometheus.HistogramOpts{
			Name:    "leadflow_tool_execution_duration_seconds",
			Help:    "Agent tool execution time",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"tool_name"}),

		TaskCounter: factory.counterVec(prometheus.CounterOpts{
			Name: "leadflow_tasks_total",
			Help: "Agent tasks by terminal state",
		}, []string{"type", "status"}),

		TaskDuration: factory.histogramVec(prometheus.HistogramOpts{
			Name:    "leadflow_task_duration_seconds",
			Help:    "Agent task wall time",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"type"}),
	}
}

// registryFactory mirrors promauto against an explicit registerer, so
// tests can use isolated registries.
type registryFactory struct {
	reg prometheus.Registerer
}

func newRegistryFactory(reg prometheus.Registerer) registryFactory {
	return registryFactory{reg: reg}
}

func (f registryFactory) counterVec(opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	v := prometheus.NewCounterVec(opts, labels)
	f.reg.MustRegister(v)
	return v
}

func (f registryFactory) histogramVec(opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	v := prometheus.NewHistogramVec(opts, labels)
	f.reg.MustRegister(v)
	return v
}

// ObserveTask records a task's terminal outcome.
func (m *Metrics) ObserveTask(task *models.Task) {
	if task == nil || !task.Status.Terminal() {
		return
	}
	m.TaskCounter.WithLabelValues(string(task.Type), string(task.Status)).Inc()
	if task.StartedAt != nil && task.CompletedAt != nil {
		m.TaskDuration.WithLabelValues(string(task.Type)).
			Observe(task.CompletedAt.Sub(*task.StartedAt).Seconds())
	}
}

// ObserveTool records one tool execution.
func (m *Metrics) ObserveTool(toolName string, isError bool, elapsed time.Duration) {
	status := "success"
	if isError {
		status = "error"
	}
	m.ToolExecutionCounter.WithLabelValues(toolName, status).Inc()
	m.ToolExecutionDuration.WithLabelValues(toolName).Observe(elapsed.Seconds())
}

// UsageObserver adapts Metrics to the usage.Observer interface, so provider
// call outcomes feed Prometheus alongside the durable usage store.
type UsageObserver struct {
	metrics *Metrics
}

// NewUsageObserver creates the metrics-backed usage sink.
func NewUsageObserver(metrics *Metrics) *UsageObserver {
	return &UsageObserver{metrics: metrics}
}

// Observe implements usage.Observer.
func (o *UsageObserver) Observe(ctx context.Context, record *models.UsageRecord) {
	if record == nil {
		return
	}
	o.metrics.ProviderRequestCounter.
		WithLabelValues(record.Provider, record.Endpoint, string(record.Status)).Inc()
	o.metrics.ProviderRequestDuration.
		WithLabelValues(record.Provider, record.Endpoint).
		Observe(float64(record.DurationMs) / 1000)
	if record.Units > 0 {
		o.metrics.UsageUnits.WithLabelValues(record.Provider).Add(float64(record.Units))
	}
}
