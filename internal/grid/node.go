// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package grid

import "slices"

// Index of a node in the grid.
type NodeID int

// A physical location in the topology hosting zero or more servers.
type Node struct {
	ID NodeID
	// Power drawn by the node while it is active.
	PowerUsage float64
	// Servers located on this node, in input order.
	Servers []ServerID
	// Neighbours over the undirected topology, in input edge order.
	Adjacent []NodeID
}

// Check if the given node is a direct neighbour of this node.
func (n *Node) IsAdjacent(other NodeID) bool {
	return slices.Contains(n.Adjacent, other)
}
