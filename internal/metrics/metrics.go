package metrics

import (
	"time"

	"github.com/ppiankov/docanswer/internal/answer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder collects answer pipeline metrics on its own registry
type Recorder struct {
	registry *prometheus.Registry

	answers          *prometheus.CounterVec
	fallbackStrategy *prometheus.CounterVec
	citationsDropped prometheus.Counter
	excerptsResolved prometheus.Counter
	queryFailures    *prometheus.CounterVec
	queryDuration    prometheus.Histogram
}

// NewRecorder creates a recorder with all collectors registered
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		answers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docanswer_answers_total",
				Help: "Answers produced, by parse mode",
			},
			[]string{"mode"},
		),
		fallbackStrategy: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docanswer_fallback_strategy_total",
				Help: "Fallback extractions, by the strategy that recovered citations",
			},
			[]string{"strategy"},
		),
		citationsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "docanswer_citations_dropped_total",
			Help: "Citation elements dropped because their shape was not recognised",
		}),
		excerptsResolved: factory.NewCounter(prometheus.CounterOpts{
			Name: "docanswer_citations_resolved_total",
			Help: "Citation excerpts filled from retrieved chunks",
		}),
		queryFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docanswer_query_failures_total",
				Help: "Questions that failed before a reply was parsed, by stage",
			},
			[]string{"stage"},
		),
		queryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "docanswer_query_duration_seconds",
			Help:    "End-to-end question latency",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		}),
	}
}

// Observe records one processed reply
func (r *Recorder) Observe(res answer.Result, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.answers.WithLabelValues(string(res.Mode)).Inc()
	if res.Mode == answer.ModeFallback {
		r.fallbackStrategy.WithLabelValues(res.Strategy).Inc()
	}
	r.citationsDropped.Add(float64(res.Dropped))
	r.excerptsResolved.Add(float64(res.Resolved))
	r.queryDuration.Observe(elapsed.Seconds())
}

// Failure records a question that failed at the given stage (retrieve, embed, complete)
func (r *Recorder) Failure(stage string) {
	if r == nil {
		return
	}
	r.queryFailures.WithLabelValues(stage).Inc()
}

// Gatherer exposes the registry for exporters
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the current values in the Prometheus text format
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
