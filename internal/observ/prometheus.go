package observ

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// relayerMetrics holds the Prometheus collectors scraped by an operator's
// monitoring stack. Separate from the in-process JSON registry above:
// that one backs ad-hoc IncCounter/Observe calls sprinkled through the
// pipeline, this one backs the stable, documented relayer health surface
// described in spec §4.9.
type relayerMetrics struct {
	eventsProcessed  *prometheus.CounterVec
	eventsSkipped    prometheus.Counter
	rpcErrors        prometheus.Counter
	rngTriggered     prometheus.Counter
	rngFailures      prometheus.Counter
	consecutiveErrs  prometheus.Gauge
	currentBackoffS  prometheus.Gauge
	uptimeS          prometheus.Gauge
	pipelineRuns     *prometheus.CounterVec
	pipelineDuration prometheus.Histogram
}

var (
	relayerOnce sync.Once
	relayerReg  *relayerMetrics
)

// RelayerMetrics returns the lazily-initialised Prometheus collectors for
// the relayer and pipeline. Safe to call from multiple goroutines.
func RelayerMetrics() *relayerMetrics {
	relayerOnce.Do(func() {
		relayerReg = &relayerMetrics{
			eventsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "vault",
				Subsystem: "relayer",
				Name:      "events_processed_total",
				Help:      "Chain events dispatched to a handler, by event type.",
			}, []string{"event_type"}),
			eventsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "vault", Subsystem: "relayer", Name: "events_skipped_total",
				Help: "Chain events dropped as duplicates of an already-processed (tx_digest, event_seq).",
			}),
			rpcErrors: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "vault", Subsystem: "relayer", Name: "rpc_errors_total",
				Help: "Failed chain RPC calls, any event type.",
			}),
			rngTriggered: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "vault", Subsystem: "relayer", Name: "rng_triggered_total",
				Help: "Entropy draws requested by the execution agent.",
			}),
			rngFailures: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "vault", Subsystem: "relayer", Name: "rng_failures_total",
				Help: "Entropy draws that returned an error.",
			}),
			consecutiveErrs: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "vault", Subsystem: "relayer", Name: "consecutive_errors",
				Help: "Consecutive failed poll cycles since the last success.",
			}),
			currentBackoffS: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "vault", Subsystem: "relayer", Name: "current_backoff_seconds",
				Help: "Current exponential backoff delay applied between poll cycles.",
			}),
			uptimeS: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "vault", Subsystem: "relayer", Name: "uptime_seconds",
				Help: "Seconds since the relayer process started.",
			}),
			pipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "vault", Subsystem: "pipeline", Name: "runs_total",
				Help: "Decision pipeline runs, by terminal status.",
			}, []string{"status"}),
			pipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: "vault", Subsystem: "pipeline", Name: "duration_seconds",
				Help:    "Wall-clock time of a full Market→Execution→Risk pipeline run.",
				Buckets: prometheus.DefBuckets,
			}),
		}
		prometheus.MustRegister(
			relayerReg.eventsProcessed,
			relayerReg.eventsSkipped,
			relayerReg.rpcErrors,
			relayerReg.rngTriggered,
			relayerReg.rngFailures,
			relayerReg.consecutiveErrs,
			relayerReg.currentBackoffS,
			relayerReg.uptimeS,
			relayerReg.pipelineRuns,
			relayerReg.pipelineDuration,
		)
	})
	return relayerReg
}

func (m *relayerMetrics) EventProcessed(eventType string) { m.eventsProcessed.WithLabelValues(eventType).Inc() }
func (m *relayerMetrics) EventSkipped()                   { m.eventsSkipped.Inc() }
func (m *relayerMetrics) RPCError()                       { m.rpcErrors.Inc() }
func (m *relayerMetrics) RNGTriggered()                   { m.rngTriggered.Inc() }
func (m *relayerMetrics) RNGFailed()                       { m.rngFailures.Inc() }
func (m *relayerMetrics) SetConsecutiveErrors(n int)      { m.consecutiveErrs.Set(float64(n)) }
func (m *relayerMetrics) SetBackoffSeconds(s float64)     { m.currentBackoffS.Set(s) }
func (m *relayerMetrics) SetUptimeSeconds(s float64)      { m.uptimeS.Set(s) }
func (m *relayerMetrics) PipelineRun(status string)       { m.pipelineRuns.WithLabelValues(status).Inc() }
func (m *relayerMetrics) ObservePipelineDuration(seconds float64) {
	m.pipelineDuration.Observe(seconds)
}

// PrometheusHandler exposes the standard text exposition format for a
// scraper, separate from the ad-hoc JSON dump in Handler().
func PrometheusHandler() http.Handler {
	return promhttp.Handler()
}
