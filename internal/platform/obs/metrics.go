package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the service.
	Registry = prometheus.NewRegistry()

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path"},
	)

	// ScheduleBuilds counts day schedule computations by outcome.
	ScheduleBuilds = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "schedule_builds_total", Help: "Day schedules built, by result."},
		[]string{"result"},
	)
	// ScheduleJobs records how many jobs each built schedule contained.
	ScheduleJobs = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "schedule_jobs", Help: "Jobs per built day schedule.", Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21}},
	)

	// GeocodeLookups counts postcode lookups by source (cache, remote) and result.
	GeocodeLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "geocode_lookups_total", Help: "Postcode geocode lookups by source and result."},
		[]string{"source", "result"},
	)
)

var regOnce sync.Once

// RegisterDefault registers all collectors on Registry. Safe to call more than once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(ScheduleBuilds)
		Registry.MustRegister(ScheduleJobs)
		Registry.MustRegister(GeocodeLookups)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}
