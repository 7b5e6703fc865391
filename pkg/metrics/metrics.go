// Package metrics records run metrics and pushes them to a Pushgateway.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	metricNamespace = "pipeline_validator"
	pushJob         = "pipeline_validator"
)

// Recorder holds the collectors of one run in its own registry.
type Recorder struct {
	registry *prometheus.Registry

	phaseDuration *prometheus.HistogramVec
	polls         *prometheus.CounterVec
	checks        *prometheus.CounterVec
	scenarios     *prometheus.CounterVec
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		phaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricNamespace,
				Name:      "phase_duration_seconds",
				Help:      "Duration of each phase by final status.",
				Buckets:   []float64{1.0, 10.0, 30.0, 60.0, 300.0, 900.0},
			},
			[]string{"phase", "status"},
		),
		polls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      "polls_total",
				Help:      "Number of state polls by probe and observed state.",
			},
			[]string{"probe", "state"},
		),
		checks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      "checks_total",
				Help:      "Number of validation checks by result.",
			},
			[]string{"result"},
		),
		scenarios: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      "scenarios_total",
				Help:      "Number of scenarios by final status.",
			},
			[]string{"status"},
		),
	}
	r.registry.MustRegister(r.phaseDuration, r.polls, r.checks, r.scenarios)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) ObservePhase(phase, status string, d time.Duration) {
	r.phaseDuration.WithLabelValues(phase, status).Observe(d.Seconds())
}

// ObservePoll implements monitor.PollObserver.
func (r *Recorder) ObservePoll(probe, outcome string) {
	r.polls.WithLabelValues(probe, outcome).Inc()
}

func (r *Recorder) ObserveCheck(passed bool) {
	result := "failed"
	if passed {
		result = "passed"
	}
	r.checks.WithLabelValues(result).Inc()
}

func (r *Recorder) ObserveScenario(status string) {
	r.scenarios.WithLabelValues(status).Inc()
}

// Push replaces the run's group on the Pushgateway at url.
func (r *Recorder) Push(ctx context.Context, url, runID string) error {
	err := push.New(url, pushJob).
		Gatherer(r.registry).
		Grouping("run_id", runID).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("pushing metrics to %s: %w", url, err)
	}
	return nil
}
