// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package grid

import (
	"errors"
	"slices"
	"testing"
)

// Three nodes in a line (1-2, 2-3) with one server each and two
// components linked by a demand of throughput 4.
func lineData() Data {
	return Data{
		NumServers:       3,
		NumNodes:         3,
		NumServiceChains: 1,
		MinPower:         []float64{1, 1, 1},
		MaxPower:         []float64{5, 5, 5},
		NodePower:        []float64{2, 2, 2},
		MaxDelay:         []float64{10},
		Available:        [][]float64{{10, 10, 10}},
		Placement: [][]float64{
			{1, 0, 0},
			{0, 1, 0},
			{0, 0, 1},
		},
		Requirements:  [][]float64{{4, 4}},
		ServiceChains: [][]float64{{1, 2}},
		Edges: [][]float64{
			{1, 2, 10, 3, 1},
			{2, 3, 10, 3, 2},
		},
		Demands: [][]float64{{1, 2, 4}},
	}
}

func mustBuild(t *testing.T, d Data) *Grid {
	t.Helper()
	g, err := Build(d)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return g
}

func mustAssign(t *testing.T, g *Grid, c ComponentID, s ServerID) {
	t.Helper()
	if err := g.Assign(c, s); err != nil {
		t.Fatalf("expected no error assigning component %d to server %d, got %v", c, s, err)
	}
}

func TestGrid_Assign(t *testing.T) {
	g := mustBuild(t, lineData())

	mustAssign(t, g, 0, 0)
	if !g.Components()[0].IsDeployed() {
		t.Fatal("expected component 0 to be deployed")
	}
	if !g.Servers()[0].Hosts(0) {
		t.Fatal("expected server 0 to host component 0")
	}

	// Reassignment moves the component.
	mustAssign(t, g, 0, 2)
	if g.Servers()[0].Hosts(0) {
		t.Error("expected server 0 to no longer host component 0")
	}
	if !g.Servers()[2].Hosts(0) {
		t.Error("expected server 2 to host component 0")
	}
	if s, _ := g.Components()[0].Server.Unpack(); s != 2 {
		t.Errorf("expected component 0 on server 2, got %d", s)
	}

	// Assigning to the same server again does not duplicate it.
	mustAssign(t, g, 0, 2)
	if n := len(g.Servers()[2].Components); n != 1 {
		t.Errorf("expected 1 hosted component, got %d", n)
	}
}

func TestGrid_Assign_MoveReleasesRoutes(t *testing.T) {
	d := lineData()
	// A second server on the first node.
	d.NumServers = 4
	d.MinPower = append(d.MinPower, 1)
	d.MaxPower = append(d.MaxPower, 5)
	d.Available = [][]float64{{10, 10, 10, 10}}
	d.Placement = append(d.Placement, []float64{1, 0, 0})
	g := mustBuild(t, d)
	mustAssign(t, g, 0, 0)
	mustAssign(t, g, 1, 2)
	if err := g.Route(0); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Same node: the route still ends at the component.
	mustAssign(t, g, 0, 3)
	if !g.Links()[0].IsRouted() {
		t.Fatal("expected route to survive a move within the node")
	}

	// Other node: the route is dropped and its capacity released.
	mustAssign(t, g, 1, 0)
	link := g.Links()[0]
	if link.IsRouted() || len(link.Nodes) != 0 {
		t.Errorf("expected route to be cleared, got %v", link.Nodes)
	}
	for _, e := range g.Edges() {
		if e.Used != 0 {
			t.Errorf("expected edge %d to be free, got %v used", e.ID, e.Used)
		}
	}
	if g.IsActiveNode(1) {
		t.Error("expected former transit node to be inactive")
	}
	if err := g.Route(0); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if link := g.Links()[0]; link.IsRouted() {
		t.Errorf("expected zero-hop demand after re-routing, got %v", link.Nodes)
	}
}

func TestGrid_Assign_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		component ComponentID
		server    ServerID
	}{
		{"negative component", -1, 0},
		{"unknown component", 2, 0},
		{"negative server", 0, -1},
		{"unknown server", 0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustBuild(t, lineData())
			mustAssign(t, g, 1, 1)
			err := g.Assign(tt.component, tt.server)
			if !errors.Is(err, ErrInvalidAssignment) {
				t.Fatalf("expected ErrInvalidAssignment, got %v", err)
			}
			// Prior state is untouched.
			if !g.Servers()[1].Hosts(1) {
				t.Error("expected previous assignment to be kept")
			}
		})
	}
}

func TestGrid_Assign_DoesNotCheckCapacity(t *testing.T) {
	d := lineData()
	d.Requirements = [][]float64{{8, 8}}
	g := mustBuild(t, d)
	mustAssign(t, g, 0, 0)
	mustAssign(t, g, 1, 0)
	if avail := g.ResourcesAvailable(0); avail != -6 {
		t.Errorf("expected -6 available resources, got %v", avail)
	}
	if used := g.ResourcesUsed(0); used != 16 {
		t.Errorf("expected 16 used resources, got %v", used)
	}
}

func TestGrid_HostNodeOf(t *testing.T) {
	g := mustBuild(t, lineData())
	if _, err := g.HostNodeOf(0); !errors.Is(err, ErrUnassignedComponent) {
		t.Fatalf("expected ErrUnassignedComponent, got %v", err)
	}
	mustAssign(t, g, 0, 2)
	node, err := g.HostNodeOf(0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if node != 2 {
		t.Errorf("expected node 2, got %d", node)
	}
	if _, err := g.HostNodeOf(5); !errors.Is(err, ErrInvalidAssignment) {
		t.Errorf("expected ErrInvalidAssignment, got %v", err)
	}
}

func TestGrid_SameNode(t *testing.T) {
	d := lineData()
	// Two servers on the first node.
	d.NumServers = 4
	d.MinPower = append(d.MinPower, 1)
	d.MaxPower = append(d.MaxPower, 5)
	d.Available = [][]float64{{10, 10, 10, 10}}
	d.Placement = append(d.Placement, []float64{1, 0, 0})
	g := mustBuild(t, d)

	if _, err := g.SameNode(0, 1); !errors.Is(err, ErrUnassignedComponent) {
		t.Fatalf("expected ErrUnassignedComponent, got %v", err)
	}
	mustAssign(t, g, 0, 0)
	mustAssign(t, g, 1, 3)
	same, err := g.SameNode(0, 1)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !same {
		t.Error("expected components on servers 0 and 3 to share node 0")
	}
	mustAssign(t, g, 1, 1)
	if same, _ := g.SameNode(0, 1); same {
		t.Error("expected components on different nodes")
	}
}

func TestGrid_ActivityAndThroughput(t *testing.T) {
	g := mustBuild(t, lineData())
	for i := range g.Nodes() {
		if g.IsActiveNode(NodeID(i)) {
			t.Errorf("expected node %d to be inactive", i)
		}
	}
	mustAssign(t, g, 0, 0)
	mustAssign(t, g, 1, 2)
	if g.IsActiveNode(1) {
		t.Error("expected transit node to be inactive before routing")
	}
	if err := g.Route(0); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for i := range g.Nodes() {
		if !g.IsActiveNode(NodeID(i)) {
			t.Errorf("expected node %d to be active", i)
		}
	}
	ab, _ := g.EdgeBetween(0, 1)
	bc, _ := g.EdgeBetween(1, 2)
	ba, _ := g.EdgeBetween(1, 0)
	for _, e := range []EdgeID{ab, bc} {
		if !g.IsActiveEdge(e) {
			t.Errorf("expected edge %d to be active", e)
		}
		if tp := g.ThroughputOn(e); tp != 4 {
			t.Errorf("expected throughput 4 on edge %d, got %v", e, tp)
		}
	}
	if g.IsActiveEdge(ba) {
		t.Error("expected reverse edge to be inactive")
	}
	if tp := g.ThroughputOn(ba); tp != 0 {
		t.Errorf("expected no throughput on reverse edge, got %v", tp)
	}
}

func TestGrid_ChainDelay(t *testing.T) {
	d := lineData()
	d.NumServiceChains = 2
	d.MaxDelay = []float64{10, 10}
	d.ServiceChains = [][]float64{{1, 2}, {1, 0}}
	g := mustBuild(t, d)
	mustAssign(t, g, 0, 0)
	mustAssign(t, g, 1, 2)
	if err := g.Route(0); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if links := g.ChainLinks(0); !slices.Equal(links, []LinkID{0}) {
		t.Errorf("expected chain 0 to contain link 0, got %v", links)
	}
	if delay := g.ChainDelay(0); delay != 3 {
		t.Errorf("expected delay 3, got %v", delay)
	}
	if links := g.ChainLinks(1); len(links) != 0 {
		t.Errorf("expected no links in chain 1, got %v", links)
	}
	if delay := g.ChainDelay(1); delay != 0 {
		t.Errorf("expected delay 0, got %v", delay)
	}
}
