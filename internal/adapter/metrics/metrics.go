// Package metrics exports grading and hub events to Prometheus
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gitlab.com/codemark.net/internal/core/ports/secondary"
	"gitlab.com/codemark.net/internal/domain"
	"gitlab.com/codemark.net/internal/static/errs"
)

const namespace = "codemark"

var (
	_ secondary.RunObserver = (*Metrics)(nil)
	_ secondary.HubObserver = (*Metrics)(nil)
)

// 10ms -> 5m
var stepBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120, 300,
}

type Metrics struct {
	registry *prometheus.Registry

	stepDuration *prometheus.HistogramVec
	stepOutcomes *prometheus.CounterVec
	runDuration  prometheus.Histogram
	runs         *prometheus.CounterVec
	envFailures  *prometheus.CounterVec

	sessions         prometheus.Gauge
	sessionsRejected prometheus.Counter
	messagesSent     prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Histogram for the running time of a step",
			Buckets:   stepBuckets,
		}, []string{"kind", "image"}),
		stepOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_outcomes_total",
			Help:      "Number of finished steps by outcome",
		}, []string{"kind", "outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Histogram for the running time of a whole result",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14),
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Number of executed results by status",
		}, []string{"status"}),
		envFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "environment_failures_total",
			Help:      "Number of environments that could not be prepared",
		}, []string{"image"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_sessions",
			Help:      "Number of connected live update sessions",
		}),
		sessionsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_sessions_rejected_total",
			Help:      "Number of refused live update connections",
		}),
		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_sent_total",
			Help:      "Number of result snapshots sent to sessions",
		}),
	}
	m.registry.MustRegister(
		m.stepDuration, m.stepOutcomes, m.runDuration, m.runs, m.envFailures,
		m.sessions, m.sessionsRejected, m.messagesSent,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) StepFinished(kind domain.StepKind, image domain.Image, outcome domain.Outcome, elapsed time.Duration) {
	m.stepDuration.WithLabelValues(string(kind), string(image)).Observe(elapsed.Seconds())
	m.stepOutcomes.WithLabelValues(string(kind), string(outcome)).Inc()
}

func (m *Metrics) RunFinished(elapsed time.Duration, err error) {
	m.runDuration.Observe(elapsed.Seconds())
	m.runs.WithLabelValues(runStatus(err)).Inc()
}

func (m *Metrics) EnvironmentFailed(image domain.Image) {
	m.envFailures.WithLabelValues(string(image)).Inc()
}

func (m *Metrics) SessionOpened()   { m.sessions.Inc() }
func (m *Metrics) SessionClosed()   { m.sessions.Dec() }
func (m *Metrics) SessionRejected() { m.sessionsRejected.Inc() }
func (m *Metrics) MessageSent()     { m.messagesSent.Inc() }

func runStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, errs.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
