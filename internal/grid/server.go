// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package grid

import (
	"fmt"
	"math"
	"slices"
)

// Index of a server in the grid.
type ServerID int

// A resource-bounded host for deployable components.
type Server struct {
	ID ServerID
	// Node on which this server is located.
	Node NodeID
	// Power drawn when the server is active but idle.
	MinPower float64
	// Power drawn when the server is fully utilized.
	MaxPower float64
	// Total resources the server provides to its components.
	Capacity float64
	// Components hosted on this server, in assignment order.
	Components []ComponentID
}

func newServer(id ServerID, node NodeID, minPower, maxPower, capacity float64) (Server, error) {
	if !finite(minPower) || !finite(maxPower) || !(maxPower > minPower) {
		return Server{}, fmt.Errorf(
			"server %d: max power %v must be higher than min power %v: %w",
			id, maxPower, minPower, ErrConstruction,
		)
	}
	if !finite(capacity) || capacity <= 0 {
		return Server{}, fmt.Errorf(
			"server %d: resource capacity must be positive, got %v: %w",
			id, capacity, ErrConstruction,
		)
	}
	return Server{
		ID:       id,
		Node:     node,
		MinPower: minPower,
		MaxPower: maxPower,
		Capacity: capacity,
	}, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// A server is active when it hosts at least one component.
func (s *Server) IsActive() bool { return len(s.Components) > 0 }

// Check if the server hosts the given component.
func (s *Server) Hosts(id ComponentID) bool {
	return slices.Contains(s.Components, id)
}

func (s *Server) removeComponent(id ComponentID) {
	s.Components = slices.DeleteFunc(s.Components, func(c ComponentID) bool {
		return c == id
	})
}
