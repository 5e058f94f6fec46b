// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package grid

import "slices"

// Index of a service chain in the grid.
type ChainID int

// An ordered group of components with an end-to-end delay budget.
type ServiceChain struct {
	ID         ChainID
	Components []ComponentID
	// The accumulated delay of the chain's routes must stay below this value.
	MaxDelay float64
}

// Check if the component is a member of this chain.
func (c *ServiceChain) Contains(id ComponentID) bool {
	return slices.Contains(c.Components, id)
}
