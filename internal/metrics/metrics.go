package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics. A nil *Registry is valid and records
// nothing.
type Registry struct {
	*prometheus.Registry

	savesTotal   *prometheus.CounterVec
	saveDuration *prometheus.HistogramVec
	loadsTotal   *prometheus.CounterVec
	items        *prometheus.GaugeVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		savesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recstore_saves_total",
				Help: "Total number of storage saves",
			},
			[]string{"storage", "status"},
		),

		saveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recstore_save_duration_seconds",
				Help:    "Storage save duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"storage"},
		),

		loadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recstore_loads_total",
				Help: "Total number of storage loads by outcome",
			},
			[]string{"storage", "outcome"},
		),

		items: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "recstore_items",
				Help: "Number of items held by a storage",
			},
			[]string{"storage"},
		),
	}

	reg.MustRegister(r.savesTotal)
	reg.MustRegister(r.saveDuration)
	reg.MustRegister(r.loadsTotal)
	reg.MustRegister(r.items)

	return r
}

// RecordSave records a save attempt.
func (r *Registry) RecordSave(storage string, err error, duration float64) {
	if r == nil {
		return
	}
	r.savesTotal.WithLabelValues(storage, statusOf(err)).Inc()
	r.saveDuration.WithLabelValues(storage).Observe(duration)
}

// RecordLoad records a load and how it ended: absent, stale, loaded or error.
func (r *Registry) RecordLoad(storage, outcome string) {
	if r == nil {
		return
	}
	r.loadsTotal.WithLabelValues(storage, outcome).Inc()
}

// SetItems sets the number of items a storage holds.
func (r *Registry) SetItems(storage string, count int) {
	if r == nil {
		return
	}
	r.items.WithLabelValues(storage).Set(float64(count))
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
