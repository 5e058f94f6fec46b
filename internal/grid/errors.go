// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package grid

import "errors"

var (
	// Returned when the input data describes a malformed topology.
	// The grid is never partially built when this error is returned.
	ErrConstruction = errors.New("malformed topology")
	// Returned when a query needs the host node of a component that is not deployed.
	ErrUnassignedComponent = errors.New("component is not assigned to a server")
	// Returned when reserving throughput would exceed an edge's remaining capacity.
	ErrOutOfCapacity = errors.New("edge out of capacity")
	// Returned when no simple path connects the nodes of a link demand.
	ErrUnroutable = errors.New("no route between nodes")
	// Returned for structurally invalid requests, such as unknown entity ids.
	ErrInvalidAssignment = errors.New("invalid assignment")
)
