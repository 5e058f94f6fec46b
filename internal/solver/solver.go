// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package solver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cobaltcore-dev/netplace/internal/conf"
	"github.com/cobaltcore-dev/netplace/internal/constraints"
	"github.com/cobaltcore-dev/netplace/internal/fitness"
	"github.com/cobaltcore-dev/netplace/internal/grid"
	"github.com/cobaltcore-dev/netplace/internal/logging"
	"github.com/cobaltcore-dev/netplace/internal/placement"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Anything that builds a fresh, unassigned grid on every call.
type GridSource interface {
	Build() (*grid.Grid, error)
}

// Outcome of a single attempt.
type Result struct {
	// Id shared by all attempts of one run.
	RunID string
	// Number of the attempt within the run, starting at 0.
	Attempt   int
	Algorithm string
	// Grid holding the assignment and routes of the attempt.
	Grid      *grid.Grid
	Report    constraints.Report
	Fitness   float64
	Breakdown fitness.Breakdown
}

// Check if the assignment passes all constraints.
func (r *Result) Valid() bool { return r.Report.Passed() }

// Check if this result should be preferred over the other one.
// A valid result beats an invalid one, then the lower fitness wins and
// finally the earlier attempt.
func (r *Result) betterThan(other *Result) bool {
	if other == nil {
		return true
	}
	if r.Valid() != other.Valid() {
		return r.Valid()
	}
	if r.Fitness != other.Fitness {
		return r.Fitness < other.Fitness
	}
	return r.Attempt < other.Attempt
}

// Runs a placement heuristic several times and keeps the best result.
type Solver struct {
	source  GridSource
	config  conf.SolverConfig
	monitor Monitor
}

func New(source GridSource, config conf.SolverConfig, monitor Monitor) *Solver {
	return &Solver{source: source, config: config, monitor: monitor}
}

// Run all attempts and return the best one.
//
// Every attempt works on its own freshly built grid, so attempts never
// see each other's assignments. Attempt i seeds its heuristic with
// Seed+i. The first failing attempt cancels the others.
func (s *Solver) Solve(ctx context.Context) (*Result, error) {
	attempts := max(s.config.Attempts, 1)
	// Fail early on misconfigured heuristics.
	if _, err := placement.New(s.config.Algorithm, s.config.Seed); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	slog.Info("solver: starting run",
		"run", runID, "algorithm", s.config.Algorithm,
		"attempts", attempts, "parallelism", s.parallelism())

	results := make([]*Result, attempts)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.parallelism())
	for i := range attempts {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			result, err := s.attempt(runID, i)
			if err != nil {
				return fmt.Errorf("attempt %d: %w", i, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var best *Result
	for _, r := range results {
		if r.betterThan(best) {
			best = r
		}
	}
	s.monitor.observeBest(best)
	slog.Info("solver: finished run",
		"run", runID, "bestAttempt", best.Attempt,
		"valid", best.Valid(), "fitness", best.Fitness)
	return best, nil
}

// Number of attempts running at the same time, never more than there
// are attempts.
func (s *Solver) parallelism() int {
	return max(min(s.config.Parallelism, s.config.Attempts), 1)
}

func (s *Solver) attempt(runID string, i int) (*Result, error) {
	start := time.Now()
	traceLog := logging.Trace(runID, i)
	g, err := s.source.Build()
	if err != nil {
		return nil, err
	}
	algorithm, err := placement.New(s.config.Algorithm, s.config.Seed+uint64(i))
	if err != nil {
		return nil, err
	}
	if err := placement.Deploy(traceLog, algorithm, g); err != nil {
		return nil, err
	}
	breakdown := fitness.NewEvaluator(g).Breakdown()
	result := &Result{
		RunID:     runID,
		Attempt:   i,
		Algorithm: algorithm.Name(),
		Grid:      g,
		Report:    constraints.NewValidator(g).Report(),
		Fitness:   breakdown.Total(),
		Breakdown: breakdown,
	}
	s.monitor.observeAttempt(result, time.Since(start).Seconds())
	traceLog.Info("solver: finished attempt",
		"valid", result.Valid(), "fitness", result.Fitness,
		"failed", len(result.Report.Failed()))
	return result, nil
}
