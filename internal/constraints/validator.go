// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package constraints

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/cobaltcore-dev/netplace/internal/grid"
)

// Outcome of a single rule.
type Result struct {
	Name        string
	Description string
	Passed      bool
	Violations  []string
}

// Outcome of all rules, in evaluation order.
type Report struct {
	Results []Result
}

// Check if every rule passed.
func (r Report) Passed() bool {
	for _, result := range r.Results {
		if !result.Passed {
			return false
		}
	}
	return true
}

// Rules that did not pass.
func (r Report) Failed() []Result {
	var failed []Result
	for _, result := range r.Results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}

// One line per rule: "[true] description".
func (r Report) String() string {
	var sb strings.Builder
	for _, result := range r.Results {
		fmt.Fprintf(&sb, "[%t] %s\n", result.Passed, result.Description)
	}
	return sb.String()
}

// Log every rule, with violations of failed rules at warn level.
func (r Report) Log(logger *slog.Logger) {
	for _, result := range r.Results {
		if result.Passed {
			logger.Info("constraint passed", "constraint", result.Name)
			continue
		}
		logger.Warn(
			"constraint failed",
			"constraint", result.Name,
			"violations", len(result.Violations),
			"details", result.Violations,
		)
	}
}

// Validator evaluates a fixed, ordered set of rules against a grid.
// It only reads the grid and never returns an error: failing rules are
// part of the report.
type Validator struct {
	grid        *grid.Grid
	constraints []Constraint
}

// Create a validator running the default rules.
func NewValidator(g *grid.Grid) *Validator {
	return NewValidatorWith(g, Default)
}

// Create a validator running the given rules in order.
func NewValidatorWith(g *grid.Grid, constraints []Constraint) *Validator {
	return &Validator{grid: g, constraints: constraints}
}

// Check if all rules hold. Stops at the first failing rule.
func (v *Validator) CheckAll() bool {
	for _, c := range v.constraints {
		if len(c.Check(v.grid)) > 0 {
			return false
		}
	}
	return true
}

// Evaluate every rule independently of the others.
func (v *Validator) Report() Report {
	report := Report{Results: make([]Result, 0, len(v.constraints))}
	for _, c := range v.constraints {
		violations := c.Check(v.grid)
		report.Results = append(report.Results, Result{
			Name:        c.Name,
			Description: c.Description,
			Passed:      len(violations) == 0,
			Violations:  violations,
		})
	}
	return report
}
