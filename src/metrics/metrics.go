package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	Subsystem = "elevator"

	OutcomeServed  = "served"
	OutcomeSkipped = "skipped"
)

var (
	KindLabels      = []string{"kind"}
	KindQueueLabels = []string{"kind", "queue"}
)

var (
	requestsEnqueued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: Subsystem,
			Name:      "requests_enqueued_total",
			Help:      "Counter of requests accepted by a dispatch policy, including synthesized pickup stops.",
		},
		KindQueueLabels,
	)

	stops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: Subsystem,
			Name:      "stops_total",
			Help:      "Counter of popped requests broken out by whether the car moved to serve them.",
		},
		append(KindLabels, "outcome"),
	)

	emergencies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: Subsystem,
			Name:      "emergencies_total",
			Help:      "Counter of emergency overrides processed by a unit.",
		},
		KindLabels,
	)

	droppedRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: Subsystem,
			Name:      "dropped_requests_total",
			Help:      "Counter of pending requests discarded by an emergency override.",
		},
		KindLabels,
	)

	pendingRequests = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Subsystem: Subsystem,
			Name:      "pending_requests",
			Help:      "Number of requests waiting in a unit's dispatch policy.",
		},
		KindLabels,
	)

	currentFloor = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Subsystem: Subsystem,
			Name:      "current_floor",
			Help:      "Floor the unit last stopped at.",
		},
		KindLabels,
	)

	drainDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Subsystem: Subsystem,
			Name:      "drain_duration_seconds",
			Help:      "Wall time of one batch drain.",
			Buckets:   []float64{0.001, 0.01, 0.1, 1, 5, 10, 30, 60, 120, 300, 600},
		},
		KindLabels,
	)
)

var registerMetrics sync.Once

// Register adds all collectors to r. Only the first call has an effect.
func Register(r prometheus.Registerer) {
	registerMetrics.Do(func() {
		r.MustRegister(requestsEnqueued)
		r.MustRegister(stops)
		r.MustRegister(emergencies)
		r.MustRegister(droppedRequests)
		r.MustRegister(pendingRequests)
		r.MustRegister(currentFloor)
		r.MustRegister(drainDuration)
	})
}

func RecordEnqueued(kind, queue string) {
	requestsEnqueued.WithLabelValues(kind, queue).Inc()
}

func RecordStop(kind, outcome string) {
	stops.WithLabelValues(kind, outcome).Inc()
}

func RecordEmergency(kind string, dropped int) {
	emergencies.WithLabelValues(kind).Inc()
	droppedRequests.WithLabelValues(kind).Add(float64(dropped))
}

func SetPending(kind string, n int) {
	pendingRequests.WithLabelValues(kind).Set(float64(n))
}

func SetFloor(kind string, floor int) {
	currentFloor.WithLabelValues(kind).Set(float64(floor))
}

func RecordDrainDuration(kind string, d time.Duration) {
	drainDuration.WithLabelValues(kind).Observe(d.Seconds())
}
