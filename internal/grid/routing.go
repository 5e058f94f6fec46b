// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package grid

import (
	"cmp"
	"fmt"
	"math"
	"slices"
)

// Enumerate all simple paths (no repeated node) between two nodes.
//
// Paths are found by a depth-first search following each node's adjacency
// order, so the result is deterministic for a fixed topology. A path from a
// node to itself consists of that single node. An empty result means the
// nodes are not connected.
func (g *Grid) CandidatePaths(from, to NodeID) ([][]NodeID, error) {
	if _, err := g.node(from); err != nil {
		return nil, err
	}
	if _, err := g.node(to); err != nil {
		return nil, err
	}
	var paths [][]NodeID
	visited := make([]bool, len(g.nodes))
	path := []NodeID{from}
	var walk func(current NodeID)
	walk = func(current NodeID) {
		if current == to {
			paths = append(paths, slices.Clone(path))
			return
		}
		visited[current] = true
		for _, next := range g.nodes[current].Adjacent {
			if visited[next] {
				continue
			}
			path = append(path, next)
			walk(next)
			path = path[:len(path)-1]
		}
		visited[current] = false
	}
	walk(from)
	return paths, nil
}

// Translate a node path into the directed edges connecting consecutive nodes.
func (g *Grid) PathEdges(path []NodeID) ([]EdgeID, error) {
	edges := make([]EdgeID, 0, max(len(path)-1, 0))
	for i := 1; i < len(path); i++ {
		from, err := g.node(path[i-1])
		if err != nil {
			return nil, err
		}
		id, ok := g.EdgeBetween(path[i-1], path[i])
		if !from.IsAdjacent(path[i]) || !ok {
			return nil, fmt.Errorf(
				"no edge between nodes %d and %d: %w",
				path[i-1], path[i], ErrUnroutable,
			)
		}
		edges = append(edges, id)
	}
	return edges, nil
}

// Smallest headroom along the given edges, as seen by a link.
//
// Throughput the link itself already reserved on an edge counts as
// available, since re-routing the link releases it first.
func (g *Grid) headroomFor(l *Link, edges []EdgeID) float64 {
	headroom := math.Inf(1)
	for _, id := range edges {
		available := g.edges[id].Headroom()
		if l != nil && l.UsesEdge(id) {
			available += l.Throughput
		}
		headroom = min(headroom, available)
	}
	return headroom
}

// Smallest remaining capacity along the given edges. Infinite for no edges.
func (g *Grid) Bottleneck(edges []EdgeID) (float64, error) {
	for _, id := range edges {
		if _, err := g.edge(id); err != nil {
			return 0, err
		}
	}
	return g.headroomFor(nil, edges), nil
}

// Commit a link demand to the given node path.
//
// The path must lead from the host node of the link's start component to
// the host node of its end component without repeating a node. Headroom is
// verified on every edge before anything is reserved: if any edge cannot
// carry the throughput, ErrOutOfCapacity is returned and no capacity
// changes. A previously committed route of the link is replaced.
//
// A single-node path commits a zero-hop route for components sharing a node.
func (g *Grid) Allocate(id LinkID, path []NodeID) error {
	l, err := g.link(id)
	if err != nil {
		return err
	}
	start, err := g.HostNodeOf(l.From)
	if err != nil {
		return fmt.Errorf("link %d: %w", id, err)
	}
	end, err := g.HostNodeOf(l.To)
	if err != nil {
		return fmt.Errorf("link %d: %w", id, err)
	}
	if len(path) == 0 || path[0] != start || path[len(path)-1] != end {
		return fmt.Errorf("link %d: path %v does not connect node %d to node %d: %w",
			id, path, start, end, ErrInvalidAssignment)
	}
	seen := make(map[NodeID]struct{}, len(path))
	for _, n := range path {
		if _, err := g.node(n); err != nil {
			return fmt.Errorf("link %d: %w", id, err)
		}
		if _, ok := seen[n]; ok {
			return fmt.Errorf("link %d: path %v repeats node %d: %w", id, path, n, ErrInvalidAssignment)
		}
		seen[n] = struct{}{}
	}
	if len(path) == 1 {
		// Both components share a node, no edges are needed.
		g.release(l)
		return nil
	}
	edges, err := g.PathEdges(path)
	if err != nil {
		return fmt.Errorf("link %d: %w", id, err)
	}
	if headroom := g.headroomFor(l, edges); l.Throughput > headroom {
		return fmt.Errorf("link %d: path %v has %v headroom, needs %v: %w",
			id, path, headroom, l.Throughput, ErrOutOfCapacity)
	}
	prevNodes, prevEdges := l.Nodes, l.Edges
	g.release(l)
	for i, e := range edges {
		if err := g.edges[e].reserve(l.Throughput); err != nil {
			for _, reserved := range edges[:i] {
				g.edges[reserved].release(l.Throughput)
			}
			for _, prev := range prevEdges {
				g.edges[prev].Used += l.Throughput
			}
			l.Nodes, l.Edges = prevNodes, prevEdges
			return fmt.Errorf("link %d: %w", id, err)
		}
	}
	l.Nodes = slices.Clone(path)
	l.Edges = edges
	return nil
}

// A candidate route for a link demand.
type candidate struct {
	nodes    []NodeID
	edges    []EdgeID
	headroom float64
}

// Route a link demand over the topology.
//
// Nothing is routed when both components share a node. Otherwise all simple
// paths between the host nodes are tried, fewest hops first and the most
// headroom first among paths of equal length, and the first path that can
// carry the throughput is committed. ErrUnroutable is returned when the
// nodes are not connected and ErrOutOfCapacity when no path has enough
// headroom. In both cases the link keeps its previous route.
func (g *Grid) Route(id LinkID) error {
	l, err := g.link(id)
	if err != nil {
		return err
	}
	start, err := g.HostNodeOf(l.From)
	if err != nil {
		return fmt.Errorf("link %d: %w", id, err)
	}
	end, err := g.HostNodeOf(l.To)
	if err != nil {
		return fmt.Errorf("link %d: %w", id, err)
	}
	if start == end {
		g.release(l)
		return nil
	}
	paths, err := g.CandidatePaths(start, end)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("link %d: nodes %d and %d are not connected: %w", id, start, end, ErrUnroutable)
	}
	candidates := make([]candidate, 0, len(paths))
	for _, path := range paths {
		edges, err := g.PathEdges(path)
		if err != nil {
			return err
		}
		candidates = append(candidates, candidate{
			nodes:    path,
			edges:    edges,
			headroom: g.headroomFor(l, edges),
		})
	}
	slices.SortStableFunc(candidates, func(a, b candidate) int {
		if c := cmp.Compare(len(a.edges), len(b.edges)); c != 0 {
			return c
		}
		return cmp.Compare(b.headroom, a.headroom)
	})
	for _, c := range candidates {
		if l.Throughput > c.headroom {
			continue
		}
		return g.Allocate(id, c.nodes)
	}
	return fmt.Errorf("link %d: none of %d paths can carry %v: %w",
		id, len(candidates), l.Throughput, ErrOutOfCapacity)
}

// Remove the committed route of a link demand and release its capacity.
func (g *Grid) ClearRoute(id LinkID) error {
	l, err := g.link(id)
	if err != nil {
		return err
	}
	g.release(l)
	return nil
}

// Remove the committed routes of all link demands.
func (g *Grid) ClearRoutes() {
	for i := range g.links {
		g.release(&g.links[i])
	}
}

func (g *Grid) release(l *Link) {
	for _, e := range l.Edges {
		g.edges[e].release(l.Throughput)
	}
	l.Nodes = nil
	l.Edges = nil
}
