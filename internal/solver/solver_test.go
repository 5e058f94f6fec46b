// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package solver

import (
	"context"
	"errors"
	"testing"

	"github.com/cobaltcore-dev/netplace/internal/conf"
	"github.com/cobaltcore-dev/netplace/internal/constraints"
	"github.com/cobaltcore-dev/netplace/internal/grid"
	"github.com/cobaltcore-dev/netplace/internal/monitoring"
	"github.com/cobaltcore-dev/netplace/internal/placement"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type dataSource struct {
	data grid.Data
	err  error
}

func (s dataSource) Build() (*grid.Grid, error) {
	if s.err != nil {
		return nil, s.err
	}
	return grid.Build(s.data)
}

func lineData() grid.Data {
	return grid.Data{
		NumServers:       3,
		NumNodes:         3,
		NumServiceChains: 1,
		MinPower:         []float64{1, 1, 1},
		MaxPower:         []float64{5, 5, 5},
		NodePower:        []float64{2, 2, 2},
		MaxDelay:         []float64{10},
		Available:        [][]float64{{10, 10, 10}},
		Placement:        [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		Requirements:     [][]float64{{8, 8}},
		ServiceChains:    [][]float64{{1, 2}},
		Edges:            [][]float64{{1, 2, 10, 3, 1}, {2, 3, 10, 3, 2}},
		Demands:          [][]float64{{1, 2, 4}},
	}
}

func TestSolver_Solve_Greedy(t *testing.T) {
	registry := monitoring.NewRegistry(conf.MonitoringConfig{})
	monitor := NewMonitor(registry)
	config := conf.SolverConfig{Algorithm: placement.GreedyName, Attempts: 3, Parallelism: 2}
	s := New(dataSource{data: lineData()}, config, monitor)

	result, err := s.Solve(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.Valid() {
		t.Errorf("expected a valid result, got report:\n%s", result.Report)
	}
	// Greedy is deterministic, ties keep the first attempt.
	if result.Attempt != 0 {
		t.Errorf("expected attempt 0, got %d", result.Attempt)
	}
	if result.RunID == "" {
		t.Error("expected a run id")
	}
	// Components on nodes 1 and 2, one edge: 3 + 2*2 + 2*(1 + 0.4*8).
	if expected := 3 + 4 + 2*(1+0.4*8); result.Fitness < expected-1e-9 || result.Fitness > expected+1e-9 {
		t.Errorf("expected fitness %v, got %v", expected, result.Fitness)
	}

	if n := testutil.ToFloat64(monitor.attempts.WithLabelValues("greedy", "true")); n != 3 {
		t.Errorf("expected 3 valid attempts, got %v", n)
	}
	if v := testutil.ToFloat64(monitor.bestFitness.WithLabelValues("greedy", "true")); v != result.Fitness {
		t.Errorf("expected best fitness gauge %v, got %v", result.Fitness, v)
	}
	if v := testutil.ToFloat64(monitor.constraintPassed.WithLabelValues("link-demands")); v != 1 {
		t.Errorf("expected link-demands to pass, got %v", v)
	}
	if v := testutil.ToFloat64(monitor.unroutedLinks); v != 0 {
		t.Errorf("expected no unrouted links, got %v", v)
	}
}

func TestSolver_Solve_AttemptsAreIndependent(t *testing.T) {
	config := conf.SolverConfig{Algorithm: placement.RandomName, Attempts: 6, Parallelism: 3, Seed: 7}
	s := New(dataSource{data: lineData()}, config, NewMonitor(nil))
	result, err := s.Solve(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	deployed := 0
	for _, srv := range result.Grid.Servers() {
		deployed += len(srv.Components)
	}
	if deployed != 2 {
		t.Errorf("expected exactly 2 deployed components in the best grid, got %d", deployed)
	}
	for _, e := range result.Grid.Edges() {
		if e.Used > e.Capacity {
			t.Errorf("edge %d over capacity", e.ID)
		}
	}
}

func TestSolver_Solve_Errors(t *testing.T) {
	buildErr := errors.New("broken instance")
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name   string
		ctx    context.Context
		source dataSource
		config conf.SolverConfig
		target error
	}{
		{
			name:   "unknown algorithm",
			ctx:    context.Background(),
			source: dataSource{data: lineData()},
			config: conf.SolverConfig{Algorithm: "tabu", Attempts: 1, Parallelism: 1},
			target: placement.ErrUnknownAlgorithm,
		},
		{
			name:   "source fails",
			ctx:    context.Background(),
			source: dataSource{err: buildErr},
			config: conf.SolverConfig{Algorithm: "greedy", Attempts: 2, Parallelism: 1},
			target: buildErr,
		},
		{
			name:   "canceled",
			ctx:    canceled,
			source: dataSource{data: lineData()},
			config: conf.SolverConfig{Algorithm: "greedy", Attempts: 2, Parallelism: 1},
			target: context.Canceled,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.source, tt.config, NewMonitor(nil)).Solve(tt.ctx)
			if !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestResult_BetterThan(t *testing.T) {
	valid := constraints.Report{Results: []constraints.Result{{Passed: true}}}
	invalid := constraints.Report{Results: []constraints.Result{{Passed: false}}}
	tests := []struct {
		name     string
		a, b     *Result
		expected bool
	}{
		{"anything beats nothing", &Result{Report: invalid}, nil, true},
		{"valid beats invalid", &Result{Report: valid, Fitness: 100}, &Result{Report: invalid, Fitness: 1}, true},
		{"invalid loses to valid", &Result{Report: invalid, Fitness: 1}, &Result{Report: valid, Fitness: 100}, false},
		{"lower fitness wins", &Result{Report: valid, Fitness: 5}, &Result{Report: valid, Fitness: 6}, true},
		{"higher fitness loses", &Result{Report: invalid, Fitness: 7}, &Result{Report: invalid, Fitness: 6}, false},
		{"tie keeps earlier attempt", &Result{Report: valid, Fitness: 5, Attempt: 1}, &Result{Report: valid, Fitness: 5, Attempt: 2}, true},
		{"tie rejects later attempt", &Result{Report: valid, Fitness: 5, Attempt: 3}, &Result{Report: valid, Fitness: 5, Attempt: 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.betterThan(tt.b); got != tt.expected {
				t.Errorf("expected %t, got %t", tt.expected, got)
			}
		})
	}
}

func TestSolver_Parallelism(t *testing.T) {
	tests := []struct {
		name                  string
		attempts, parallelism int
		expected              int
	}{
		{"bounded by attempts", 2, 8, 2},
		{"bounded by config", 16, 4, 4},
		{"raised attempts keep configured parallelism", 32, 16, 16},
		{"at least one", 0, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := conf.SolverConfig{Algorithm: placement.GreedyName, Attempts: tt.attempts, Parallelism: tt.parallelism}
			s := New(dataSource{data: lineData()}, config, NewMonitor(nil))
			if got := s.parallelism(); got != tt.expected {
				t.Errorf("expected parallelism %d, got %d", tt.expected, got)
			}
		})
	}
}
