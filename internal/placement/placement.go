// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package placement

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/cobaltcore-dev/netplace/internal/grid"
	"github.com/cobaltcore-dev/netplace/internal/logging"
)

// Returned by New for heuristics that do not exist.
var ErrUnknownAlgorithm = errors.New("unknown placement algorithm")

// A placement heuristic.
//
// Heuristics first deploy all components onto servers and then route the
// link demands between them. They do not need to produce a valid
// assignment: whatever they leave behind is judged by the constraint
// validator and the fitness function.
//
// A traceLog is provided that contains the run id and attempt number and
// should be used to log the heuristic's decisions.
type Algorithm interface {
	// Name under which the heuristic is configured.
	Name() string
	// Assign every component to a server.
	DeployComponents(traceLog *slog.Logger, g *grid.Grid) error
	// Route every link demand over the topology.
	DeployRoutes(traceLog *slog.Logger, g *grid.Grid) error
}

// Names of all available heuristics.
func Names() []string {
	return []string{GreedyName, RandomName}
}

// Create the heuristic with the given name.
// The seed is used by randomized heuristics only.
func New(name string, seed uint64) (Algorithm, error) {
	switch name {
	case GreedyName:
		return &Greedy{}, nil
	case RandomName:
		return NewRandom(seed), nil
	default:
		return nil, fmt.Errorf("%q, expected one of %v: %w", name, Names(), ErrUnknownAlgorithm)
	}
}

// Run both phases of a heuristic on the grid. A nil traceLog
// discards the heuristic's decisions.
func Deploy(traceLog *slog.Logger, a Algorithm, g *grid.Grid) error {
	traceLog = logging.OrDiscard(traceLog)
	if err := a.DeployComponents(traceLog, g); err != nil {
		return fmt.Errorf("%s: failed to deploy components: %w", a.Name(), err)
	}
	if err := a.DeployRoutes(traceLog, g); err != nil {
		return fmt.Errorf("%s: failed to deploy routes: %w", a.Name(), err)
	}
	return nil
}

// Place each component on the first server in the given order whose
// available resources cover the demand. If no server fits, the component
// goes to the server with the most available resources, leaving the
// overload to be reported by the validator.
func deployFirstFit(traceLog *slog.Logger, g *grid.Grid, order []grid.ServerID) error {
	if len(order) == 0 {
		return errors.New("no servers to deploy to")
	}
	for _, c := range g.Components() {
		target := slices.IndexFunc(order, func(s grid.ServerID) bool {
			return g.ResourcesAvailable(s) >= c.Demand
		})
		var server grid.ServerID
		if target >= 0 {
			server = order[target]
		} else {
			// The first of equally loaded servers wins.
			server = slices.MaxFunc(order, func(a, b grid.ServerID) int {
				return cmp.Compare(g.ResourcesAvailable(a), g.ResourcesAvailable(b))
			})
			traceLog.Warn(
				"placement: no server fits component, using the least loaded one",
				"component", c.ID, "demand", c.Demand, "server", server,
			)
		}
		if err := g.Assign(c.ID, server); err != nil {
			return err
		}
		traceLog.Debug("placement: deployed component", "component", c.ID, "server", server)
	}
	return nil
}

// Route every link demand in id order.
//
// Demands that cannot be routed for lack of capacity or connectivity are
// logged and left unrouted. Any other error aborts.
func deployRoutes(traceLog *slog.Logger, g *grid.Grid) error {
	for _, l := range g.Links() {
		err := g.Route(l.ID)
		switch {
		case err == nil:
			traceLog.Debug("placement: routed link", "link", l.ID, "nodes", g.Links()[l.ID].Nodes)
		case errors.Is(err, grid.ErrOutOfCapacity), errors.Is(err, grid.ErrUnroutable):
			traceLog.Warn("placement: leaving link unrouted", "link", l.ID, "error", err)
		default:
			return err
		}
	}
	return nil
}
