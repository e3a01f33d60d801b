package patients

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Load outcomes recorded by Metrics.
const (
	OutcomeSuccess   = "success"
	OutcomeError     = "error"
	OutcomeCancelled = "cancelled"
)

// Metrics holds the Prometheus collectors for patient list views.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	loads    *prometheus.CounterVec
	duration prometheus.Histogram
	mounted  prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered, which is handy in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "asilo",
			Name:      "patient_loads_total",
			Help:      "Patient collection retrievals by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "asilo",
			Name:      "patient_load_duration_seconds",
			Help:      "Time spent retrieving the patient collection.",
			Buckets:   prometheus.DefBuckets,
		}),
		mounted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "asilo",
			Name:      "mounted_views",
			Help:      "Patient list views currently mounted.",
		}),
	}

	// Pre-create the label values so every outcome is exported from the start.
	for _, outcome := range []string{OutcomeSuccess, OutcomeError, OutcomeCancelled} {
		m.loads.WithLabelValues(outcome)
	}

	if reg != nil {
		reg.MustRegister(m.loads, m.duration, m.mounted)
	}
	return m
}

func (m *Metrics) observeLoad(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) setMounted(n int) {
	if m == nil {
		return
	}
	m.mounted.Set(float64(n))
}
