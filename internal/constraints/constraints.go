// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package constraints

import (
	"errors"
	"fmt"

	"github.com/cobaltcore-dev/netplace/internal/grid"
)

// A named rule over the grid state.
type Constraint struct {
	// Short identifier of the rule, used in logs and metric labels.
	Name string
	// Human readable description of what must hold.
	Description string
	// Check the rule and return one message per violation.
	// An empty result means the rule holds.
	Check func(g *grid.Grid) []string
}

// The default rules, in the order they are evaluated and reported.
var Default = []Constraint{
	{
		Name:        "components-deployed",
		Description: "Every component is deployed on a server.",
		Check:       ComponentsAreDeployed,
	},
	{
		Name:        "server-resources",
		Description: "No server uses more resources than it has.",
		Check:       ServersWithinResources,
	},
	{
		Name:        "edge-capacity",
		Description: "No edge carries more traffic than its capacity.",
		Check:       EdgesWithinCapacity,
	},
	{
		Name:        "chain-delay",
		Description: "Every service chain stays below its maximum delay.",
		Check:       ChainsWithinDelay,
	},
	{
		Name:        "link-demands",
		Description: "Every link demand is zero-hop or routed.",
		Check:       LinkDemandsMet,
	},
}

func ComponentsAreDeployed(g *grid.Grid) []string {
	var violations []string
	for _, c := range g.Components() {
		if !c.IsDeployed() {
			violations = append(violations, fmt.Sprintf("component %d is not deployed", c.ID+1))
		}
	}
	return violations
}

func ServersWithinResources(g *grid.Grid) []string {
	var violations []string
	for _, s := range g.Servers() {
		if used := g.ResourcesUsed(s.ID); used > s.Capacity {
			violations = append(violations, fmt.Sprintf(
				"server %d uses %v of %v resources", s.ID+1, used, s.Capacity,
			))
		}
	}
	return violations
}

func EdgesWithinCapacity(g *grid.Grid) []string {
	var violations []string
	for _, e := range g.Edges() {
		if traffic := g.ThroughputOn(e.ID); traffic > e.Capacity {
			violations = append(violations, fmt.Sprintf(
				"edge %d->%d carries %v of %v", e.From+1, e.To+1, traffic, e.Capacity,
			))
		}
	}
	return violations
}

func ChainsWithinDelay(g *grid.Grid) []string {
	var violations []string
	for _, c := range g.ServiceChains() {
		if delay := g.ChainDelay(c.ID); delay >= c.MaxDelay {
			violations = append(violations, fmt.Sprintf(
				"service chain %d has delay %v, limit %v", c.ID+1, delay, c.MaxDelay,
			))
		}
	}
	return violations
}

func LinkDemandsMet(g *grid.Grid) []string {
	var violations []string
	for _, l := range g.Links() {
		if l.IsRouted() {
			continue
		}
		same, err := g.SameNode(l.From, l.To)
		switch {
		case errors.Is(err, grid.ErrUnassignedComponent):
			violations = append(violations, fmt.Sprintf(
				"link %d (%d->%d) has an undeployed component", l.ID+1, l.From+1, l.To+1,
			))
		case err != nil:
			violations = append(violations, fmt.Sprintf("link %d: %v", l.ID+1, err))
		case !same:
			violations = append(violations, fmt.Sprintf(
				"link %d (%d->%d) is not routed", l.ID+1, l.From+1, l.To+1,
			))
		}
	}
	return violations
}
