package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "codemap"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg              *prom.Registry
	stageDuration    *prom.HistogramVec
	runDuration      prom.Histogram
	runOutcome       *prom.CounterVec
	planned          *prom.CounterVec
	attempts         prom.Counter
	retries          prom.Counter
	retriesExhausted prom.Counter
	moduleDuration   *prom.HistogramVec
	moduleOutcome    *prom.CounterVec
	concurrency      prom.Gauge
}

// NewPrometheusRecorder constructs and registers the metrics on reg; a nil
// registry gets a private one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual run stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total update run duration",
			Buckets:   prom.DefBuckets,
		}),
		runOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Update runs by final status",
		}, []string{"outcome"}),
		planned: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "modules_planned_total",
			Help:      "Modules selected for regeneration by cause",
		}, []string{"cause"}),
		attempts: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "summarize_attempts_total",
			Help:      "Summarization calls issued",
		}),
		retries: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "summarize_retries_total",
			Help:      "Summarization retries after transient failures",
		}),
		retriesExhausted: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "summarize_retry_exhausted_total",
			Help:      "Modules whose retries were exhausted",
		}),
		moduleDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "module_duration_seconds",
			Help:      "Wall time spent generating one module, retries included",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"outcome"}),
		moduleOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "module_outcomes_total",
			Help:      "Module generation results by outcome",
		}, []string{"outcome"}),
		concurrency: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "generation_concurrency",
			Help:      "Worker count of the last generation stage",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.runDuration, pr.runOutcome, pr.planned, pr.attempts,
		pr.retries, pr.retriesExhausted, pr.moduleDuration, pr.moduleOutcome, pr.concurrency)
	return pr
}

// Registry returns the registry the metrics are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

// WriteTextfile writes the current metrics in the text exposition format.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(outcome RunOutcomeLabel) {
	p.runOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncPlanned(cause string) {
	p.planned.WithLabelValues(cause).Inc()
}

func (p *PrometheusRecorder) IncAttempt()        { p.attempts.Inc() }
func (p *PrometheusRecorder) IncRetry()          { p.retries.Inc() }
func (p *PrometheusRecorder) IncRetryExhausted() { p.retriesExhausted.Inc() }

func (p *PrometheusRecorder) ObserveModuleDuration(d time.Duration, outcome OutcomeLabel) {
	p.moduleDuration.WithLabelValues(string(outcome)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncModuleOutcome(outcome OutcomeLabel) {
	p.moduleOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetConcurrency(n int) {
	p.concurrency.Set(float64(n))
}
