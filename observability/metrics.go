package observability

import (
	"github.com/SaiNageswarS/crag-boot/workflow"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsReporter turns run progress events into Prometheus series.
type MetricsReporter struct {
	nodeExecutions *prometheus.CounterVec
	nodeDuration   *prometheus.HistogramVec
	decisions      *prometheus.CounterVec
	runs           *prometheus.CounterVec
	runDuration    prometheus.Histogram
	runFailures    *prometheus.CounterVec
}

// NewMetricsReporter registers its collectors with reg; pass prometheus.DefaultRegisterer to
// expose them on the default /metrics handler.
func NewMetricsReporter(reg prometheus.Registerer) *MetricsReporter {
	factory := promauto.With(reg)
	return &MetricsReporter{
		nodeExecutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crag_node_executions_total",
			Help: "Workflow node executions by node",
		}, []string{"node"}),
		nodeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crag_node_duration_seconds",
			Help:    "Workflow node duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"node"}),
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crag_decisions_total",
			Help: "Routing decisions by deciding node and label",
		}, []string{"node", "decision"}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crag_runs_total",
			Help: "Finished runs by status",
		}, []string{"status"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "crag_run_duration_seconds",
			Help:    "End-to-end successful or exhausted run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		runFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crag_run_failures_total",
			Help: "Failed runs by error kind",
		}, []string{"kind"}),
	}
}

func (m *MetricsReporter) Send(event *workflow.Event) error {
	switch event.Type {
	case workflow.EventNodeCompleted:
		node := event.Node.String()
		m.nodeExecutions.WithLabelValues(node).Inc()
		m.nodeDuration.WithLabelValues(node).Observe(event.Duration.Seconds())
	case workflow.EventDecision:
		m.decisions.WithLabelValues(event.Node.String(), string(event.Decision)).Inc()
	case workflow.EventRunCompleted:
		m.runs.WithLabelValues(string(event.Status)).Inc()
		m.runDuration.Observe(event.Duration.Seconds())
	case workflow.EventRunFailed:
		m.runs.WithLabelValues("failed").Inc()
		kind := string(workflow.KindInternal)
		if runErr, ok := workflow.AsRunError(event.Err); ok {
			kind = string(runErr.Kind)
		}
		m.runFailures.WithLabelValues(kind).Inc()
	}
	return nil
}
