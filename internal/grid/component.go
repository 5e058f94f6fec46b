// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package grid

import "github.com/majewsky/gg/option"

// Index of a component in the grid.
type ComponentID int

// A deployable workload unit requiring placement on exactly one server.
type Component struct {
	ID ComponentID
	// Resources the component consumes on its server.
	Demand float64
	// Server the component is deployed on, if any.
	Server option.Option[ServerID]
}

// Check if the component has been assigned to a server.
func (c *Component) IsDeployed() bool { return c.Server.IsSome() }
