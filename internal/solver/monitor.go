// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package solver

import (
	"strconv"

	"github.com/cobaltcore-dev/netplace/internal/constraints"
	"github.com/cobaltcore-dev/netplace/internal/monitoring"
	"github.com/prometheus/client_golang/prometheus"
)

// Collection of solver metrics. A monitor created without a registry
// observes nothing.
type Monitor struct {
	// Attempts run, by algorithm and whether they passed all constraints.
	attempts *prometheus.CounterVec
	// How long a single attempt takes, placement and evaluation included.
	attemptDuration *prometheus.HistogramVec
	// Fitness of every attempt.
	attemptFitness *prometheus.HistogramVec
	// Fitness of the best attempt.
	bestFitness *prometheus.GaugeVec
	// Power of the best attempt by category.
	bestPower *prometheus.GaugeVec
	// Outcome of every constraint for the best attempt, 1 if it passed.
	constraintPassed *prometheus.GaugeVec
	// Link demands of the best attempt left without a route.
	unroutedLinks prometheus.Gauge
}

func NewMonitor(registry *monitoring.Registry) Monitor {
	if registry == nil {
		return Monitor{}
	}
	m := Monitor{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "netplace_solver_attempts_total",
			Help: "Total number of solver attempts",
		}, []string{"algorithm", "valid"}),
		attemptDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "netplace_solver_attempt_duration_seconds",
			Help:    "Duration of a single solver attempt",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"algorithm"}),
		attemptFitness: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "netplace_solver_attempt_fitness",
			Help:    "Power drawn by the assignment of a solver attempt",
			Buckets: prometheus.ExponentialBuckets(1, 2, 16),
		}, []string{"algorithm"}),
		bestFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "netplace_solver_best_fitness",
			Help: "Power drawn by the best assignment found",
		}, []string{"algorithm", "valid"}),
		bestPower: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "netplace_solver_best_power",
			Help: "Power drawn by the best assignment found, by category",
		}, []string{"category"}),
		constraintPassed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "netplace_solver_constraint_passed",
			Help: "Whether the best assignment passes a constraint (1) or not (0)",
		}, []string{"constraint"}),
		unroutedLinks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "netplace_solver_unrouted_links",
			Help: "Link demands of the best assignment without route or shared node",
		}),
	}
	registry.MustRegister(
		m.attempts,
		m.attemptDuration,
		m.attemptFitness,
		m.bestFitness,
		m.bestPower,
		m.constraintPassed,
		m.unroutedLinks,
	)
	return m
}

func (m Monitor) observeAttempt(r *Result, seconds float64) {
	if m.attempts == nil {
		return
	}
	m.attempts.WithLabelValues(r.Algorithm, strconv.FormatBool(r.Valid())).Inc()
	m.attemptDuration.WithLabelValues(r.Algorithm).Observe(seconds)
	m.attemptFitness.WithLabelValues(r.Algorithm).Observe(r.Fitness)
}

func (m Monitor) observeBest(r *Result) {
	if m.bestFitness == nil {
		return
	}
	m.bestFitness.Reset()
	m.bestFitness.WithLabelValues(r.Algorithm, strconv.FormatBool(r.Valid())).Set(r.Fitness)
	m.bestPower.WithLabelValues("edges").Set(r.Breakdown.Edges)
	m.bestPower.WithLabelValues("nodes").Set(r.Breakdown.Nodes)
	m.bestPower.WithLabelValues("servers").Set(r.Breakdown.Servers)
	for _, result := range r.Report.Results {
		passed := 0.0
		if result.Passed {
			passed = 1
		}
		m.constraintPassed.WithLabelValues(result.Name).Set(passed)
	}
	m.unroutedLinks.Set(float64(len(constraints.LinkDemandsMet(r.Grid))))
}
