package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CyclesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mention_tracker_cycles_total",
		Help: "Total poll cycles run",
	})
	CycleFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mention_tracker_cycle_failures_total",
		Help: "Total poll cycles aborted by a fetch failure",
	})
	CycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mention_tracker_cycle_duration_seconds",
		Help:    "Poll cycle duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	MentionsNew = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mention_tracker_mentions_new_total",
		Help: "Total newly tracked mentions",
	})
	MentionsDuplicate = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mention_tracker_mentions_duplicate_total",
		Help: "Total mentions already tracked",
	})
	ItemErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mention_tracker_item_errors_total",
		Help: "Total per-item store failures",
	})
	SinkFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mention_tracker_sink_failures_total",
		Help: "Total failed sink deliveries",
	}, []string{"sink"})
)

func init() {
	prometheus.MustRegister(
		CyclesTotal,
		CycleFailures,
		CycleDuration,
		MentionsNew,
		MentionsDuplicate,
		ItemErrors,
		SinkFailures,
	)
}

// StartServer starts a metrics HTTP server on addr (e.g. ":9090").
// No-op when addr is empty.
func StartServer(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() { _ = http.ListenAndServe(addr, mux) }()
}

// ObserveCycleDuration records a cycle duration.
func ObserveCycleDuration(start time.Time) {
	CycleDuration.Observe(time.Since(start).Seconds())
}
