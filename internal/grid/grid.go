// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package grid

import (
	"fmt"

	"github.com/majewsky/gg/option"
)

// Ordered pair of nodes identifying a directed edge.
type nodePair struct {
	from, to NodeID
}

// Grid owns the topology and demand model.
//
// All entities are stored in slices indexed by their id. Cross references
// between entities are ids into these slices. Entities are never removed;
// the only mutations are component assignment and route commitment.
//
// Slices returned by the accessors are owned by the grid and must be
// treated as read-only by callers.
type Grid struct {
	nodes      []Node
	servers    []Server
	components []Component
	edges      []Edge
	links      []Link
	chains     []ServiceChain
	// Directed edge between two adjacent nodes.
	layout map[nodePair]EdgeID
}

func (g *Grid) Nodes() []Node { return g.nodes }
func (g *Grid) Servers() []Server { return g.servers }
func (g *Grid) Components() []Component { return g.components }
func (g *Grid) Edges() []Edge { return g.edges }
func (g *Grid) Links() []Link { return g.links }
func (g *Grid) ServiceChains() []ServiceChain { return g.chains }

func (g *Grid) node(id NodeID) (*Node, error) {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil, fmt.Errorf("unknown node %d: %w", id, ErrInvalidAssignment)
	}
	return &g.nodes[id], nil
}

func (g *Grid) server(id ServerID) (*Server, error) {
	if id < 0 || int(id) >= len(g.servers) {
		return nil, fmt.Errorf("unknown server %d: %w", id, ErrInvalidAssignment)
	}
	return &g.servers[id], nil
}

func (g *Grid) component(id ComponentID) (*Component, error) {
	if id < 0 || int(id) >= len(g.components) {
		return nil, fmt.Errorf("unknown component %d: %w", id, ErrInvalidAssignment)
	}
	return &g.components[id], nil
}

func (g *Grid) edge(id EdgeID) (*Edge, error) {
	if id < 0 || int(id) >= len(g.edges) {
		return nil, fmt.Errorf("unknown edge %d: %w", id, ErrInvalidAssignment)
	}
	return &g.edges[id], nil
}

func (g *Grid) link(id LinkID) (*Link, error) {
	if id < 0 || int(id) >= len(g.links) {
		return nil, fmt.Errorf("unknown link %d: %w", id, ErrInvalidAssignment)
	}
	return &g.links[id], nil
}

// Assign a component to a server.
//
// A component belongs to at most one server: assigning it again moves it.
// Resource capacity is not checked here, the constraint validator reports
// overloaded servers. When the move changes the component's node, the
// routes of all links touching it are cleared and their capacity released,
// since those routes no longer end at the component.
func (g *Grid) Assign(c ComponentID, s ServerID) error {
	component, err := g.component(c)
	if err != nil {
		return err
	}
	server, err := g.server(s)
	if err != nil {
		return err
	}
	if current, ok := component.Server.Unpack(); ok {
		if current == s {
			return nil
		}
		g.servers[current].removeComponent(c)
		if g.servers[current].Node != server.Node {
			g.releaseLinksOf(c)
		}
	}
	component.Server = option.Some(s)
	server.Components = append(server.Components, c)
	return nil
}

func (g *Grid) releaseLinksOf(c ComponentID) {
	for i := range g.links {
		if g.links[i].From == c || g.links[i].To == c {
			g.release(&g.links[i])
		}
	}
}

// Check if a node is active: one of its servers hosts a component or a
// routed link demand passes through it.
func (g *Grid) IsActiveNode(id NodeID) bool {
	node, err := g.node(id)
	if err != nil {
		return false
	}
	for _, s := range node.Servers {
		if g.servers[s].IsActive() {
			return true
		}
	}
	for i := range g.links {
		if g.links[i].UsesNode(id) {
			return true
		}
	}
	return false
}

// Check if any routed link demand uses the edge.
func (g *Grid) IsActiveEdge(id EdgeID) bool {
	for i := range g.links {
		if g.links[i].UsesEdge(id) {
			return true
		}
	}
	return false
}

// Sum of the throughput of all link demands routed over the edge.
func (g *Grid) ThroughputOn(id EdgeID) float64 {
	var total float64
	for i := range g.links {
		if g.links[i].UsesEdge(id) {
			total += g.links[i].Throughput
		}
	}
	return total
}

// Resources consumed by the components hosted on a server.
func (g *Grid) ResourcesUsed(id ServerID) float64 {
	server, err := g.server(id)
	if err != nil {
		return 0
	}
	var used float64
	for _, c := range server.Components {
		used += g.components[c].Demand
	}
	return used
}

// Resources of a server not yet consumed by hosted components.
// Negative when the server is overloaded.
func (g *Grid) ResourcesAvailable(id ServerID) float64 {
	server, err := g.server(id)
	if err != nil {
		return 0
	}
	return server.Capacity - g.ResourcesUsed(id)
}

// Resolve the node a component is deployed on.
func (g *Grid) HostNodeOf(id ComponentID) (NodeID, error) {
	component, err := g.component(id)
	if err != nil {
		return 0, err
	}
	s, ok := component.Server.Unpack()
	if !ok {
		return 0, fmt.Errorf("component %d: %w", id, ErrUnassignedComponent)
	}
	return g.servers[s].Node, nil
}

// Check if both components are deployed on the same node.
func (g *Grid) SameNode(a, b ComponentID) (bool, error) {
	nodeA, err := g.HostNodeOf(a)
	if err != nil {
		return false, err
	}
	nodeB, err := g.HostNodeOf(b)
	if err != nil {
		return false, err
	}
	return nodeA == nodeB, nil
}

// Look up the directed edge between two adjacent nodes.
func (g *Grid) EdgeBetween(from, to NodeID) (EdgeID, bool) {
	id, ok := g.layout[nodePair{from, to}]
	return id, ok
}

// Links whose two components are both members of the chain.
func (g *Grid) ChainLinks(id ChainID) []LinkID {
	if id < 0 || int(id) >= len(g.chains) {
		return nil
	}
	chain := &g.chains[id]
	var links []LinkID
	for i := range g.links {
		if chain.Contains(g.links[i].From) && chain.Contains(g.links[i].To) {
			links = append(links, g.links[i].ID)
		}
	}
	return links
}

// Accumulated delay over the edges used by the chain's links.
func (g *Grid) ChainDelay(id ChainID) float64 {
	var delay float64
	for _, l := range g.ChainLinks(id) {
		for _, e := range g.links[l].Edges {
			delay += g.edges[e].Delay
		}
	}
	return delay
}
