// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package instance

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/cobaltcore-dev/netplace/internal/grid"
)

// Four nodes in a ring with a chord between nodes 1 and 3.
const ringInstance = `numServers = 4;
numVms = 3;
numRes = 1;
numNodes = 4;
numServiceChains = 1;
lat = [20];
P_max = [50,50,50,50];
P_min = [10,10,10,10];
P = [5,5,5,5];
req = [[2,2,3]];
av = [[4,4,4,4]];
al = [[1,0,0,0][0,1,0,0]
      [0,0,1,0][0,0,0,1]];
sc = [[1,2,3]];
Edges = [<1,2,10,1,2>,<2,3,10,1,2>,<3,4,10,1,2>,<4,1,10,1,2>,<1,3,5,1,3>];
VmDemands = [<1,2,4>,<2,3,4>];
comment = ignored;
`

func TestParse(t *testing.T) {
	in, err := Parse(strings.NewReader(ringInstance))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if in.NumServers != 4 || in.NumComponents != 3 || in.NumResources != 1 ||
		in.NumNodes != 4 || in.NumServiceChains != 1 {
		t.Errorf("unexpected counts: %+v", in)
	}
	if !reflect.DeepEqual(in.MaxPower, []float64{50, 50, 50, 50}) {
		t.Errorf("unexpected max power: %v", in.MaxPower)
	}
	expectedPlacement := [][]float64{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}}
	if !reflect.DeepEqual(in.Placement, expectedPlacement) {
		t.Errorf("unexpected placement: %v", in.Placement)
	}
	if len(in.Edges) != 5 || !reflect.DeepEqual(in.Edges[4], []float64{1, 3, 5, 1, 3}) {
		t.Errorf("unexpected edges: %v", in.Edges)
	}
	if !reflect.DeepEqual(in.Demands, [][]float64{{1, 2, 4}, {2, 3, 4}}) {
		t.Errorf("unexpected demands: %v", in.Demands)
	}
}

func TestInstance_Build(t *testing.T) {
	in, err := Parse(strings.NewReader(ringInstance))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	g, err := in.Build()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(g.Nodes()) != 4 || len(g.Servers()) != 4 || len(g.Components()) != 3 {
		t.Errorf("unexpected grid size")
	}
	if len(g.Edges()) != 10 {
		t.Errorf("expected 10 directed edges, got %d", len(g.Edges()))
	}
	if len(g.Links()) != 2 || len(g.ServiceChains()) != 1 {
		t.Errorf("expected 2 links and 1 chain")
	}
	// Every build starts from scratch.
	other, err := in.Build()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := g.Assign(0, 0); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if other.Components()[0].IsDeployed() {
		t.Error("expected grids built from one instance to be independent")
	}
}

func TestInstance_ToData_DerivesChainCount(t *testing.T) {
	src := strings.Replace(ringInstance, "numServiceChains = 1;", "", 1)
	in, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	data, err := in.ToData()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if data.NumServiceChains != 1 {
		t.Errorf("expected 1 chain, got %d", data.NumServiceChains)
	}
}

func TestInstance_Build_NoChains(t *testing.T) {
	src := strings.NewReplacer(
		"numServiceChains = 1;", "numServiceChains = 0;",
		"lat = [20];", "lat = [];",
		"sc = [[1,2,3]];", "sc = [[]];",
	).Replace(ringInstance)
	in, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	g, err := in.Build()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n := len(g.ServiceChains()); n != 0 {
		t.Errorf("expected no chains, got %d", n)
	}
}

func TestInstance_ToData_Missing(t *testing.T) {
	src := strings.Replace(ringInstance, "P = [5,5,5,5];", "", 1)
	in, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := in.ToData(); !errors.Is(err, ErrMissing) {
		t.Errorf("expected ErrMissing, got %v", err)
	}
}

func TestInstance_Build_CountMismatch(t *testing.T) {
	src := strings.Replace(ringInstance, "numServers = 4;", "numServers = 5;", 1)
	in, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := in.Build(); !errors.Is(err, grid.ErrConstruction) {
		t.Errorf("expected ErrConstruction, got %v", err)
	}
}

func TestInstance_Build_NonFiniteValues(t *testing.T) {
	tests := []struct {
		name     string
		old, new string
	}{
		{"NaN max power", "P_max = [50,50,50,50];", "P_max = [NaN,50,50,50];"},
		{"infinite capacity", "av = [[4,4,4,4]];", "av = [[4,Inf,4,4]];"},
		{"NaN throughput", "VmDemands = [<1,2,4>,<2,3,4>];", "VmDemands = [<1,2,NaN>,<2,3,4>];"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := Parse(strings.NewReader(strings.Replace(ringInstance, tt.old, tt.new, 1)))
			if err != nil {
				t.Fatalf("expected no parse error, got %v", err)
			}
			if _, err := in.Build(); !errors.Is(err, grid.ErrConstruction) {
				t.Errorf("expected ErrConstruction, got %v", err)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no assignment", "numServers 4;"},
		{"no name", " = 4;"},
		{"fractional integer", "numServers = 4.5;"},
		{"list without brackets", "P = 5,5;"},
		{"list with text", "P = [5,x];"},
		{"matrix without double brackets", "av = [4,4];"},
		{"vectors without angle brackets", "Edges = [1,2,3];"},
		{"broken vector", "VmDemands = [<1,2,4>,<2,3];"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tt.input)); !errors.Is(err, ErrMalformed) {
				t.Errorf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "instance.txt")
	if err := os.WriteFile(path, []byte(ringInstance), 0o600); err != nil {
		t.Fatal(err)
	}
	in, err := ParseFile(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if in.NumNodes != 4 {
		t.Errorf("expected 4 nodes, got %d", in.NumNodes)
	}
	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
