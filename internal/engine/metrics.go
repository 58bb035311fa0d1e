package engine

import (
	"errors"
	"time"

	"github.com/pb1803/PDF-RAG/internal/models"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records engine-level counters and timings. All methods are safe
// on a nil receiver so the engine can run without a registry.
type Metrics struct {
	answers           *prometheus.CounterVec
	failures          *prometheus.CounterVec
	retrievalFailures prometheus.Counter
	genLatency        prometheus.Histogram
}

// NewMetrics creates and registers the engine collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tutor_answers_total",
			Help: "Answers produced, labeled by strategy.",
		}, []string{"strategy"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tutor_generation_failures_total",
			Help: "Fatal generation failures, labeled by kind.",
		}, []string{"kind"}),
		retrievalFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tutor_retrieval_failures_total",
			Help: "Fragment source failures degraded to general knowledge.",
		}),
		genLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tutor_generation_duration_seconds",
			Help:    "Latency of main synthesis calls.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.answers, m.failures, m.retrievalFailures, m.genLatency)
	}
	return m
}

func (e *Engine) countAnswer(strategy models.AnswerStrategy) {
	if e.metrics == nil {
		return
	}
	e.metrics.answers.WithLabelValues(string(strategy)).Inc()
}

func (e *Engine) observeGeneration(d time.Duration) {
	if e.metrics == nil {
		return
	}
	e.metrics.genLatency.Observe(d.Seconds())
}

func (e *Engine) countRetrievalFailure() {
	if e.metrics == nil {
		return
	}
	e.metrics.retrievalFailures.Inc()
}

func (e *Engine) countFailure(err error) {
	if e.metrics == nil {
		return
	}
	var refused *GenerationRefused
	if errors.As(err, &refused) {
		e.metrics.failures.WithLabelValues("refused").Inc()
		return
	}
	e.metrics.failures.WithLabelValues("unavailable").Inc()
}
