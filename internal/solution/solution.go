// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package solution

import (
	"errors"
	"fmt"

	"github.com/cobaltcore-dev/netplace/internal/grid"
	"github.com/majewsky/gg/option"
)

// Returned when a solution does not fit the grid it is applied to.
var ErrMismatch = errors.New("solution does not match grid")

// The committed route of a link demand.
type Route struct {
	Link grid.LinkID
	From grid.ComponentID
	To   grid.ComponentID
	// Nodes traversed, start node first. A single node for a zero-hop
	// demand, none for an unrouted one.
	Nodes []grid.NodeID
}

// An assignment of components to servers together with the routes of
// all link demands, detached from any grid.
type Solution struct {
	// Server of each component, indexed by component id.
	Assignments []option.Option[grid.ServerID]
	// Routes indexed by link id.
	Routes  []Route
	Fitness option.Option[float64]
}

// Capture the current assignment and routes of a grid.
func FromGrid(g *grid.Grid, fitness float64) Solution {
	sol := Solution{
		Assignments: make([]option.Option[grid.ServerID], len(g.Components())),
		Routes:      make([]Route, len(g.Links())),
		Fitness:     option.Some(fitness),
	}
	for i, c := range g.Components() {
		sol.Assignments[i] = c.Server
	}
	for i, l := range g.Links() {
		route := Route{Link: l.ID, From: l.From, To: l.To}
		switch {
		case l.IsRouted():
			route.Nodes = append([]grid.NodeID(nil), l.Nodes...)
		default:
			// Zero-hop demands list the node both components share.
			if same, err := g.SameNode(l.From, l.To); err == nil && same {
				node, _ := g.HostNodeOf(l.From)
				route.Nodes = []grid.NodeID{node}
			}
		}
		sol.Routes[i] = route
	}
	return sol
}

// Replay the solution onto a grid.
//
// Components are assigned first, then every listed route is committed
// with its capacity. The grid should be freshly built: routes already
// present on it are replaced but assignments of unlisted components
// are kept.
func Apply(g *grid.Grid, sol Solution) error {
	if len(sol.Assignments) != len(g.Components()) {
		return fmt.Errorf("%d assignments for %d components: %w",
			len(sol.Assignments), len(g.Components()), ErrMismatch)
	}
	for i, assignment := range sol.Assignments {
		server, ok := assignment.Unpack()
		if !ok {
			continue
		}
		if err := g.Assign(grid.ComponentID(i), server); err != nil {
			return fmt.Errorf("component %d: %w", i+1, err)
		}
	}
	links := g.Links()
	for _, route := range sol.Routes {
		if route.Link < 0 || int(route.Link) >= len(links) {
			return fmt.Errorf("route for unknown link %d: %w", route.Link+1, ErrMismatch)
		}
		link := links[route.Link]
		if link.From != route.From || link.To != route.To {
			return fmt.Errorf("route %d connects components %d and %d, link connects %d and %d: %w",
				route.Link+1, route.From+1, route.To+1, link.From+1, link.To+1, ErrMismatch)
		}
		if len(route.Nodes) == 0 {
			continue
		}
		if err := g.Allocate(route.Link, route.Nodes); err != nil {
			return fmt.Errorf("route %d: %w", route.Link+1, err)
		}
	}
	return nil
}
