// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package grid

import (
	"fmt"
	"math"
)

// Already parsed problem data from which a grid is built.
//
// All identifiers referenced inside the data are 1-based. They are
// converted to 0-based ids when the grid is built.
type Data struct {
	NumServers       int
	NumNodes         int
	NumComponents    int // optional, derived from Requirements if zero
	NumResources     int // optional, derived from Requirements if zero
	NumServiceChains int

	// Per server idle and peak power draw.
	MinPower []float64
	MaxPower []float64
	// Per node power usage.
	NodePower []float64
	// Per service chain delay budget.
	MaxDelay []float64

	// Resources available, one row per resource dimension, one column per server.
	Available [][]float64
	// Placement indicator, one row per server, one column per node.
	Placement [][]float64
	// Resources needed, one row per resource dimension, one column per component.
	Requirements [][]float64
	// Member component ids, one row per service chain. Zeros pad short rows.
	ServiceChains [][]float64

	// Undirected physical links as (fromNode, toNode, capacity, powerUsage, delay).
	Edges [][]float64
	// Throughput demands as (startComponent, endComponent, throughput).
	Demands [][]float64
}

func constructionErr(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrConstruction)...)
}

// Convert a 1-based identifier from the input into a 0-based index below n.
func toIndex(v float64, n int, what string) (int, error) {
	if !finite(v) || v != math.Trunc(v) {
		return 0, constructionErr("%s id %v is not an integer", what, v)
	}
	i := int(v) - 1
	if i < 0 || i >= n {
		return 0, constructionErr("%s id %d out of range [1, %d]", what, int(v), n)
	}
	return i, nil
}

// Build a grid from the given data.
//
// The grid is either fully built or an error wrapping ErrConstruction is
// returned.
func Build(d Data) (*Grid, error) {
	if err := d.checkCounts(); err != nil {
		return nil, err
	}
	g := &Grid{layout: make(map[nodePair]EdgeID)}
	steps := []func(*Grid) error{
		d.buildServers,
		d.buildNodes,
		d.buildComponents,
		d.buildEdges,
		d.buildChains,
		d.buildLinks,
	}
	for _, step := range steps {
		if err := step(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (d *Data) checkCounts() error {
	if d.NumNodes <= 0 {
		return constructionErr("at least one node is required, got %d", d.NumNodes)
	}
	if d.NumServers <= 0 {
		return constructionErr("at least one server is required, got %d", d.NumServers)
	}
	vectors := []struct {
		name string
		got  int
		want int
	}{
		{"min power", len(d.MinPower), d.NumServers},
		{"max power", len(d.MaxPower), d.NumServers},
		{"node power", len(d.NodePower), d.NumNodes},
		{"placement", len(d.Placement), d.NumServers},
		{"service chains", len(d.ServiceChains), d.NumServiceChains},
		{"service chain delays", len(d.MaxDelay), d.NumServiceChains},
	}
	for _, v := range vectors {
		if v.got != v.want {
			return constructionErr("mismatch in %s: expected %d entries, got %d", v.name, v.want, v.got)
		}
	}
	if len(d.Requirements) == 0 || len(d.Available) == 0 {
		return constructionErr("resource requirements and availabilities are required")
	}
	if d.NumResources > 0 {
		if len(d.Requirements) != d.NumResources || len(d.Available) != d.NumResources {
			return constructionErr(
				"mismatch in resource dimensions: expected %d, got %d requirements and %d availabilities",
				d.NumResources, len(d.Requirements), len(d.Available),
			)
		}
	}
	if len(d.Available[0]) != d.NumServers {
		return constructionErr(
			"mismatch in server resources: expected %d entries, got %d",
			d.NumServers, len(d.Available[0]),
		)
	}
	if d.NumComponents > 0 && len(d.Requirements[0]) != d.NumComponents {
		return constructionErr(
			"mismatch in component requirements: expected %d entries, got %d",
			d.NumComponents, len(d.Requirements[0]),
		)
	}
	return nil
}

func (d *Data) buildServers(g *Grid) error {
	g.servers = make([]Server, 0, d.NumServers)
	for i := range d.NumServers {
		row := d.Placement[i]
		if len(row) != d.NumNodes {
			return constructionErr(
				"server %d: placement row has %d columns, expected %d",
				i, len(row), d.NumNodes,
			)
		}
		// The server is located on the first node with the highest indicator.
		node := -1
		for j, v := range row {
			if v > 0 && (node < 0 || v > row[node]) {
				node = j
			}
		}
		if node < 0 {
			return constructionErr("server %d is not located on any node", i)
		}
		server, err := newServer(ServerID(i), NodeID(node), d.MinPower[i], d.MaxPower[i], d.Available[0][i])
		if err != nil {
			return err
		}
		g.servers = append(g.servers, server)
	}
	return nil
}

func (d *Data) buildNodes(g *Grid) error {
	g.nodes = make([]Node, d.NumNodes)
	for i := range d.NumNodes {
		if !finite(d.NodePower[i]) || d.NodePower[i] < 0 {
			return constructionErr("node %d: invalid power usage %v", i, d.NodePower[i])
		}
		g.nodes[i] = Node{ID: NodeID(i), PowerUsage: d.NodePower[i]}
	}
	for _, s := range g.servers {
		g.nodes[s.Node].Servers = append(g.nodes[s.Node].Servers, s.ID)
	}
	return nil
}

func (d *Data) buildComponents(g *Grid) error {
	demands := d.Requirements[0]
	g.components = make([]Component, len(demands))
	for i, demand := range demands {
		if !finite(demand) || demand < 0 {
			return constructionErr("component %d: invalid resource demand %v", i, demand)
		}
		g.components[i] = Component{ID: ComponentID(i), Demand: demand}
	}
	return nil
}

func (d *Data) buildEdges(g *Grid) error {
	g.edges = make([]Edge, 0, 2*len(d.Edges))
	for i, row := range d.Edges {
		if len(row) != 5 {
			return constructionErr("edge %d: expected 5 values, got %d", i, len(row))
		}
		from, err := toIndex(row[0], d.NumNodes, "node")
		if err != nil {
			return fmt.Errorf("edge %d: %w", i, err)
		}
		to, err := toIndex(row[1], d.NumNodes, "node")
		if err != nil {
			return fmt.Errorf("edge %d: %w", i, err)
		}
		if from == to {
			return constructionErr("edge %d: connects node %d with itself", i, from+1)
		}
		capacity, powerUsage, delay := row[2], row[3], row[4]
		for _, v := range []float64{capacity, powerUsage, delay} {
			if !finite(v) || v < 0 {
				return constructionErr(
					"edge %d: capacity, power usage and delay must be finite and not negative, got %v", i, v,
				)
			}
		}
		if _, exists := g.layout[nodePair{NodeID(from), NodeID(to)}]; exists {
			return constructionErr("edge %d: duplicate link between nodes %d and %d", i, from+1, to+1)
		}
		for _, pair := range []nodePair{{NodeID(from), NodeID(to)}, {NodeID(to), NodeID(from)}} {
			id := EdgeID(len(g.edges))
			g.edges = append(g.edges, Edge{
				ID:         id,
				From:       pair.from,
				To:         pair.to,
				Delay:      delay,
				Capacity:   capacity,
				PowerUsage: powerUsage,
			})
			g.layout[pair] = id
		}
		g.nodes[from].Adjacent = append(g.nodes[from].Adjacent, NodeID(to))
		g.nodes[to].Adjacent = append(g.nodes[to].Adjacent, NodeID(from))
	}
	return nil
}

func (d *Data) buildChains(g *Grid) error {
	g.chains = make([]ServiceChain, 0, d.NumServiceChains)
	for i, row := range d.ServiceChains {
		if math.IsNaN(d.MaxDelay[i]) {
			return constructionErr("service chain %d: delay budget is not a number", i)
		}
		chain := ServiceChain{ID: ChainID(i), MaxDelay: d.MaxDelay[i]}
		for _, v := range row {
			if v == 0 {
				continue // padding
			}
			c, err := toIndex(v, len(g.components), "component")
			if err != nil {
				return fmt.Errorf("service chain %d: %w", i, err)
			}
			chain.Components = append(chain.Components, ComponentID(c))
		}
		g.chains = append(g.chains, chain)
	}
	return nil
}

func (d *Data) buildLinks(g *Grid) error {
	g.links = make([]Link, 0, len(d.Demands))
	for i, row := range d.Demands {
		if len(row) != 3 {
			return constructionErr("demand %d: expected 3 values, got %d", i, len(row))
		}
		from, err := toIndex(row[0], len(g.components), "component")
		if err != nil {
			return fmt.Errorf("demand %d: %w", i, err)
		}
		to, err := toIndex(row[1], len(g.components), "component")
		if err != nil {
			return fmt.Errorf("demand %d: %w", i, err)
		}
		if !finite(row[2]) || row[2] < 0 {
			return constructionErr("demand %d: invalid throughput %v", i, row[2])
		}
		g.links = append(g.links, Link{
			ID:         LinkID(i),
			From:       ComponentID(from),
			To:         ComponentID(to),
			Throughput: row[2],
		})
	}
	return nil
}
