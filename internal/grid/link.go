// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package grid

import "slices"

// Index of a link demand in the grid.
type LinkID int

// A throughput requirement between two components.
//
// Once routed, the link records the nodes it traverses (start node first)
// and the directed edges carrying its traffic. A link whose components share
// a node needs no route at all.
type Link struct {
	ID         LinkID
	From       ComponentID
	To         ComponentID
	Throughput float64

	Nodes []NodeID
	Edges []EdgeID
}

// Check if the link has a multi-hop route committed.
func (l *Link) IsRouted() bool { return len(l.Edges) > 0 }

// Check if the committed route uses the given edge.
func (l *Link) UsesEdge(id EdgeID) bool { return slices.Contains(l.Edges, id) }

// Check if the committed route passes through the given node.
func (l *Link) UsesNode(id NodeID) bool { return slices.Contains(l.Nodes, id) }
