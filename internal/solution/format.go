// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package solution

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/cobaltcore-dev/netplace/internal/grid"
	"github.com/cobaltcore-dev/netplace/internal/instance"
	"github.com/majewsky/gg/option"
)

// Write the solution in the instance file syntax:
//
//	x = [[1,0][0,1]];
//	routes = [<1,2,1,2>];
//	fitness = 15.4;
//
// x has one row per component and one column per server. Each route
// lists its start and end component followed by the traversed nodes.
// All ids are 1-based.
func Write(w io.Writer, sol Solution, numServers int) error {
	var sb strings.Builder
	sb.WriteString("x = [")
	if len(sol.Assignments) == 0 {
		sb.WriteString("[]")
	}
	for _, assignment := range sol.Assignments {
		server, ok := assignment.Unpack()
		row := make([]string, numServers)
		for s := range row {
			if ok && grid.ServerID(s) == server {
				row[s] = "1"
			} else {
				row[s] = "0"
			}
		}
		sb.WriteString("[" + strings.Join(row, ",") + "]")
	}
	sb.WriteString("];\n")

	routes := make([]string, 0, len(sol.Routes))
	for _, r := range sol.Routes {
		values := []string{strconv.Itoa(int(r.From) + 1), strconv.Itoa(int(r.To) + 1)}
		for _, n := range r.Nodes {
			values = append(values, strconv.Itoa(int(n)+1))
		}
		routes = append(routes, "<"+strings.Join(values, ",")+">")
	}
	sb.WriteString("routes = [" + strings.Join(routes, ",") + "];\n")
	if fitness, ok := sol.Fitness.Unpack(); ok {
		sb.WriteString("fitness = " + strconv.FormatFloat(fitness, 'g', -1, 64) + ";\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// Read a solution written by Write.
func Read(r io.Reader) (Solution, error) {
	statements, err := instance.Statements(r)
	if err != nil {
		return Solution{}, err
	}
	var sol Solution
	seen := map[string]bool{}
	for _, s := range statements {
		switch s.Name {
		case "x":
			sol.Assignments, err = parseAssignments(s.Value)
		case "routes":
			sol.Routes, err = parseRoutes(s.Value)
		case "fitness":
			var f float64
			f, err = instance.ParseFloat(s.Value)
			sol.Fitness = option.Some(f)
		default:
			continue
		}
		if err != nil {
			return Solution{}, fmt.Errorf("statement %s: %w", s.Name, err)
		}
		seen[s.Name] = true
	}
	for _, name := range []string{"x", "routes"} {
		if !seen[name] {
			return Solution{}, fmt.Errorf("statement %s: %w", name, instance.ErrMissing)
		}
	}
	return sol, nil
}

func parseAssignments(value string) ([]option.Option[grid.ServerID], error) {
	rows, err := instance.ParseMatrix(value)
	if err != nil {
		return nil, err
	}
	// A single empty row stands for no components at all.
	if len(rows) == 1 && len(rows[0]) == 0 {
		return nil, nil
	}
	assignments := make([]option.Option[grid.ServerID], len(rows))
	for c, row := range rows {
		for s, v := range row {
			switch v {
			case 0:
			case 1:
				if assignments[c].IsSome() {
					return nil, fmt.Errorf("component %d is assigned twice: %w", c+1, instance.ErrMalformed)
				}
				assignments[c] = option.Some(grid.ServerID(s))
			default:
				return nil, fmt.Errorf("component %d: expected 0 or 1, got %v: %w", c+1, v, instance.ErrMalformed)
			}
		}
	}
	return assignments, nil
}

func parseRoutes(value string) ([]Route, error) {
	vectors, err := instance.ParseVectors(value)
	if err != nil {
		return nil, err
	}
	routes := make([]Route, len(vectors))
	for i, v := range vectors {
		if len(v) < 2 {
			return nil, fmt.Errorf("route %d: expected start and end component: %w", i+1, instance.ErrMalformed)
		}
		ids := make([]int, len(v))
		for j, f := range v {
			if f != math.Trunc(f) || f < 1 {
				return nil, fmt.Errorf("route %d: invalid id %v: %w", i+1, f, instance.ErrMalformed)
			}
			ids[j] = int(f) - 1
		}
		route := Route{Link: grid.LinkID(i), From: grid.ComponentID(ids[0]), To: grid.ComponentID(ids[1])}
		for _, n := range ids[2:] {
			route.Nodes = append(route.Nodes, grid.NodeID(n))
		}
		routes[i] = route
	}
	return routes, nil
}
