// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package placement

import (
	"log/slog"

	"github.com/cobaltcore-dev/netplace/internal/grid"
)

const GreedyName = "greedy"

// First-fit over the servers in id order.
type Greedy struct{}

func (*Greedy) Name() string { return GreedyName }

func (*Greedy) DeployComponents(traceLog *slog.Logger, g *grid.Grid) error {
	order := make([]grid.ServerID, len(g.Servers()))
	for i := range order {
		order[i] = grid.ServerID(i)
	}
	return deployFirstFit(traceLog, g, order)
}

func (*Greedy) DeployRoutes(traceLog *slog.Logger, g *grid.Grid) error {
	return deployRoutes(traceLog, g)
}
