// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package grid

import "fmt"

// Index of a directed edge in the grid.
type EdgeID int

// A directed, capacity- and delay-bounded physical link between two nodes.
//
// Every undirected link of the input topology is represented by two edges,
// one per direction. Both carry the same figures but reserve capacity
// independently of each other.
type Edge struct {
	ID   EdgeID
	From NodeID
	To   NodeID
	// Propagation delay over this edge.
	Delay float64
	// Total throughput the edge can carry.
	Capacity float64
	// Power drawn by the edge while it carries traffic.
	PowerUsage float64
	// Throughput reserved by routed link demands so far.
	Used float64
}

// Remaining throughput that can still be reserved on this edge.
func (e *Edge) Headroom() float64 { return e.Capacity - e.Used }

// Reserve throughput on the edge. Nothing is reserved if the headroom is too small.
func (e *Edge) reserve(throughput float64) error {
	if throughput > e.Headroom() {
		return fmt.Errorf(
			"edge %d (%d->%d): requested %v, available %v: %w",
			e.ID, e.From, e.To, throughput, e.Headroom(), ErrOutOfCapacity,
		)
	}
	e.Used += throughput
	return nil
}

func (e *Edge) release(throughput float64) {
	e.Used -= throughput
	if e.Used < 0 {
		e.Used = 0
	}
}
