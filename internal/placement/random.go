// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package placement

import (
	"log/slog"
	"math/rand/v2"

	"github.com/cobaltcore-dev/netplace/internal/grid"
)

const RandomName = "random"

// First-fit over a shuffled server order. The same seed always
// yields the same placement.
type Random struct {
	rng *rand.Rand
}

func NewRandom(seed uint64) *Random {
	return &Random{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (*Random) Name() string { return RandomName }

func (r *Random) DeployComponents(traceLog *slog.Logger, g *grid.Grid) error {
	order := make([]grid.ServerID, len(g.Servers()))
	for i, j := range r.rng.Perm(len(order)) {
		order[i] = grid.ServerID(j)
	}
	traceLog.Debug("placement: shuffled servers", "order", order)
	return deployFirstFit(traceLog, g, order)
}

func (*Random) DeployRoutes(traceLog *slog.Logger, g *grid.Grid) error {
	return deployRoutes(traceLog, g)
}
