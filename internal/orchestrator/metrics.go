package orchestrator

import "github.com/prometheus/client_golang/prometheus"

var (
	loadsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "orchd",
			Subsystem: "orchestrator",
			Name:      "loads_total",
			Help:      "Total successful model loads",
		},
	)

	loadFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "orchd",
			Subsystem: "orchestrator",
			Name:      "load_failures_total",
			Help:      "Total failed model loads",
		},
		[]string{"reason"},
	)

	evictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "orchd",
			Subsystem: "orchestrator",
			Name:      "evictions_total",
			Help:      "Total model evictions",
		},
		[]string{"mode"},
	)

	loadedModels = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "orchd",
			Subsystem: "orchestrator",
			Name:      "loaded_models",
			Help:      "Number of currently loaded models",
		},
	)

	memoryUsedBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "orchd",
			Subsystem: "orchestrator",
			Name:      "memory_used_bytes",
			Help:      "Tracked memory usage across loaded models",
		},
	)

	inferenceDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "orchd",
			Subsystem: "orchestrator",
			Name:      "inference_duration_seconds",
			Help:      "Wall-clock inference duration",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		loadsTotal,
		loadFailuresTotal,
		evictionsTotal,
		loadedModels,
		memoryUsedBytes,
		inferenceDuration,
	)
}
