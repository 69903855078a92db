package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RejectionMetrics counts submissions that never produced menu items,
// split by failure kind, plus items dropped during normalization.
type RejectionMetrics struct {
	rejections   *prometheus.CounterVec
	droppedItems prometheus.Counter
}

var (
	defaultRejectionMetrics     *RejectionMetrics
	defaultRejectionMetricsOnce sync.Once
)

// NewRejectionMetrics returns the process-wide recorder on the default registry.
func NewRejectionMetrics() *RejectionMetrics {
	defaultRejectionMetricsOnce.Do(func() {
		defaultRejectionMetrics = newRejectionMetrics(prometheus.DefaultRegisterer)
	})
	return defaultRejectionMetrics
}

// NewRejectionMetricsWithRegisterer allows tests to provide a dedicated registry.
func NewRejectionMetricsWithRegisterer(reg prometheus.Registerer) *RejectionMetrics {
	return newRejectionMetrics(reg)
}

func newRejectionMetrics(reg prometheus.Registerer) *RejectionMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &RejectionMetrics{
		rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "menulens",
			Subsystem: "pipeline",
			Name:      "failures_total",
			Help:      "Submissions that ended in a failure outcome, by hop and kind",
		}, []string{"hop", "kind"}),
		droppedItems: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "menulens",
			Subsystem: "normalize",
			Name:      "dropped_items_total",
			Help:      "Upstream menu entries discarded for missing or mistyped fields",
		}),
	}
}

// RecordFailure increments the failure counter for hop and kind.
func (m *RejectionMetrics) RecordFailure(hop, kind string) {
	if m == nil || m.rejections == nil {
		return
	}
	m.rejections.WithLabelValues(hop, kind).Inc()
}

// RecordDroppedItems adds n discarded entries.
func (m *RejectionMetrics) RecordDroppedItems(n int) {
	if m == nil || m.droppedItems == nil || n <= 0 {
		return
	}
	m.droppedItems.Add(float64(n))
}
