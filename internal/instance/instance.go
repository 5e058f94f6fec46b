// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package instance

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/cobaltcore-dev/netplace/internal/grid"
)

// Returned when a statement needed to build a grid is missing.
var ErrMissing = errors.New("missing statement")

// A problem instance as read from an instance file.
//
// Identifiers inside the vectors and matrices are 1-based, exactly as
// they appear in the file.
type Instance struct {
	NumServers       int // numServers
	NumComponents    int // numVms
	NumResources     int // numRes
	NumNodes         int // numNodes
	NumServiceChains int // numServiceChains

	MaxDelay  []float64 // lat
	MaxPower  []float64 // P_max
	MinPower  []float64 // P_min
	NodePower []float64 // P

	Requirements  [][]float64 // req
	Available     [][]float64 // av
	Placement     [][]float64 // al
	ServiceChains [][]float64 // sc

	Edges   [][]float64 // Edges
	Demands [][]float64 // VmDemands

	// Names of all statements found, to tell absent from empty values.
	seen map[string]bool
}

// Parse an instance from the given reader.
//
// Unknown statements are skipped. A statement whose value does not have
// the expected shape fails the whole parse.
func Parse(r io.Reader) (*Instance, error) {
	statements, err := Statements(r)
	if err != nil {
		return nil, err
	}
	in := &Instance{seen: make(map[string]bool)}
	ints := map[string]*int{
		"numServers":       &in.NumServers,
		"numVms":           &in.NumComponents,
		"numRes":           &in.NumResources,
		"numNodes":         &in.NumNodes,
		"numServiceChains": &in.NumServiceChains,
	}
	lists := map[string]*[]float64{
		"lat":   &in.MaxDelay,
		"P_max": &in.MaxPower,
		"P_min": &in.MinPower,
		"P":     &in.NodePower,
	}
	matrices := map[string]*[][]float64{
		"req": &in.Requirements,
		"av":  &in.Available,
		"al":  &in.Placement,
		"sc":  &in.ServiceChains,
	}
	vectors := map[string]*[][]float64{
		"Edges":     &in.Edges,
		"VmDemands": &in.Demands,
	}
	for _, s := range statements {
		var err error
		switch {
		case ints[s.Name] != nil:
			*ints[s.Name], err = ParseInt(s.Value)
		case lists[s.Name] != nil:
			*lists[s.Name], err = ParseList(s.Value)
		case matrices[s.Name] != nil:
			*matrices[s.Name], err = ParseMatrix(s.Value)
		case vectors[s.Name] != nil:
			*vectors[s.Name], err = ParseVectors(s.Value)
		default:
			slog.Debug("instance: skipping unknown statement", "name", s.Name)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("statement %s: %w", s.Name, err)
		}
		in.seen[s.Name] = true
	}
	return in, nil
}

// Parse the instance file at the given path.
func ParseFile(path string) (*Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	in, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return in, nil
}

// Convert the instance into the data a grid is built from.
//
// Statements describing servers and nodes are required. Without a
// numServiceChains statement the number of chains is taken from sc.
func (in *Instance) ToData() (grid.Data, error) {
	required := []string{"numServers", "numNodes", "P_min", "P_max", "P", "av", "al", "req"}
	for _, name := range required {
		if !in.seen[name] {
			return grid.Data{}, fmt.Errorf("statement %s: %w", name, ErrMissing)
		}
	}
	chains := in.ServiceChains
	// `sc = [[]];` declares no chains.
	if len(chains) == 1 && len(chains[0]) == 0 {
		chains = nil
	}
	numChains := in.NumServiceChains
	if !in.seen["numServiceChains"] {
		numChains = len(chains)
	}
	return grid.Data{
		NumServers:       in.NumServers,
		NumNodes:         in.NumNodes,
		NumComponents:    in.NumComponents,
		NumResources:     in.NumResources,
		NumServiceChains: numChains,
		MinPower:         in.MinPower,
		MaxPower:         in.MaxPower,
		NodePower:        in.NodePower,
		MaxDelay:         in.MaxDelay,
		Available:        in.Available,
		Placement:        in.Placement,
		Requirements:     in.Requirements,
		ServiceChains:    chains,
		Edges:            in.Edges,
		Demands:          in.Demands,
	}, nil
}

// Build a fresh grid from the instance.
func (in *Instance) Build() (*grid.Grid, error) {
	data, err := in.ToData()
	if err != nil {
		return nil, err
	}
	return grid.Build(data)
}
