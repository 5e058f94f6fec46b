// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package fitness

import (
	"github.com/cobaltcore-dev/netplace/internal/grid"
)

// Power drawn by the active parts of a grid, lower is better.
type Breakdown struct {
	// Power of all edges carrying traffic.
	Edges float64
	// Power of all active nodes.
	Nodes float64
	// Power of all active servers on active nodes.
	Servers float64
}

// Total power drawn.
func (b Breakdown) Total() float64 {
	return b.Edges + b.Nodes + b.Servers
}

// Evaluator computes the power-based fitness of a grid.
// The grid is only read, infeasible assignments are scored as well.
type Evaluator struct {
	grid *grid.Grid
}

func NewEvaluator(g *grid.Grid) *Evaluator {
	return &Evaluator{grid: g}
}

// Fitness of the current grid state.
func (e *Evaluator) Fitness() float64 {
	return e.Breakdown().Total()
}

// Power drawn per category.
func (e *Evaluator) Breakdown() Breakdown {
	var b Breakdown
	for _, edge := range e.grid.Edges() {
		if e.grid.IsActiveEdge(edge.ID) {
			b.Edges += edge.PowerUsage
		}
	}
	for _, node := range e.grid.Nodes() {
		if !e.grid.IsActiveNode(node.ID) {
			continue
		}
		b.Nodes += node.PowerUsage
		for _, id := range node.Servers {
			server := e.grid.Servers()[id]
			if server.IsActive() {
				b.Servers += ServerPower(server, e.grid.ResourcesUsed(id))
			}
		}
	}
	return b
}

// Power drawn by a server with the given resource usage, interpolated
// linearly between its idle and full power. Usage above capacity
// extrapolates beyond the full power.
func ServerPower(s grid.Server, used float64) float64 {
	return s.MinPower + (s.MaxPower-s.MinPower)/s.Capacity*used
}

// Fitness of a grid with a one-off evaluator.
func Fitness(g *grid.Grid) float64 {
	return NewEvaluator(g).Fitness()
}
