// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package solution

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cobaltcore-dev/netplace/internal/db"
	"github.com/cobaltcore-dev/netplace/internal/grid"
	"github.com/go-gorp/gorp"
	"github.com/majewsky/gg/option"
)

// Returned by Load when no solution was stored yet.
var ErrNotStored = errors.New("no solution stored")

// Information about how a stored solution came to be.
type Meta struct {
	RunID     string
	Algorithm string
	Attempt   int
	Valid     bool
	StoredAt  time.Time
}

type solutionRow struct {
	RunID     string  `db:"run_id"`
	Algorithm string  `db:"algorithm"`
	Attempt   int     `db:"attempt"`
	Fitness   float64 `db:"fitness"`
	Valid     bool    `db:"valid"`
	StoredAt  int64   `db:"stored_at"`
	// Number of components, to restore undeployed ones.
	Components int `db:"components"`
}

func (solutionRow) TableName() string { return "netplace_solutions" }

type placementRow struct {
	Component int `db:"component"`
	Server    int `db:"server"`
}

func (placementRow) TableName() string { return "netplace_placements" }

type routeRow struct {
	Link          int `db:"link"`
	FromComponent int `db:"from_component"`
	ToComponent   int `db:"to_component"`
	Hop           int `db:"hop"`
	Node          int `db:"node"`
}

func (routeRow) TableName() string { return "netplace_routes" }

// Persists the one evaluated assignment. Saving replaces whatever was
// stored before.
type Store struct {
	db *db.DB
}

// Create the store and its tables if they do not exist yet.
func NewStore(d *db.DB) (*Store, error) {
	tables := []*gorp.TableMap{
		d.AddTable(solutionRow{}),
		d.AddTable(placementRow{}),
		d.AddTable(routeRow{}),
	}
	if err := d.CreateTable(tables...); err != nil {
		return nil, err
	}
	return &Store{db: d}, nil
}

// Replace the stored solution in one transaction.
func (s *Store) Save(meta Meta, sol Solution) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.Error("failed to roll back", "error", rbErr)
		}
	}()
	for _, table := range []string{"netplace_solutions", "netplace_placements", "netplace_routes"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if meta.StoredAt.IsZero() {
		meta.StoredAt = time.Now()
	}
	fitness, _ := sol.Fitness.Unpack()
	if err := tx.Insert(&solutionRow{
		RunID:      meta.RunID,
		Algorithm:  meta.Algorithm,
		Attempt:    meta.Attempt,
		Fitness:    fitness,
		Valid:      meta.Valid,
		StoredAt:   meta.StoredAt.Unix(),
		Components: len(sol.Assignments),
	}); err != nil {
		return fmt.Errorf("failed to insert solution: %w", err)
	}
	for c, assignment := range sol.Assignments {
		server, ok := assignment.Unpack()
		if !ok {
			continue
		}
		if err := tx.Insert(&placementRow{Component: c, Server: int(server)}); err != nil {
			return fmt.Errorf("failed to insert placement: %w", err)
		}
	}
	for _, r := range sol.Routes {
		for hop, node := range r.Nodes {
			row := &routeRow{
				Link:          int(r.Link),
				FromComponent: int(r.From),
				ToComponent:   int(r.To),
				Hop:           hop,
				Node:          int(node),
			}
			if err := tx.Insert(row); err != nil {
				return fmt.Errorf("failed to insert route: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	slog.Info("solution: stored", "run", meta.RunID, "fitness", fitness, "valid", meta.Valid)
	return nil
}

// Load the stored solution.
//
// Only routes with at least one node are stored, so links without
// route do not appear in the returned solution.
func (s *Store) Load() (Meta, Solution, error) {
	var solutions []solutionRow
	if _, err := s.db.Select(&solutions, "SELECT * FROM netplace_solutions"); err != nil {
		return Meta{}, Solution{}, fmt.Errorf("failed to select solution: %w", err)
	}
	if len(solutions) == 0 {
		return Meta{}, Solution{}, ErrNotStored
	}
	row := solutions[0]
	meta := Meta{
		RunID:     row.RunID,
		Algorithm: row.Algorithm,
		Attempt:   row.Attempt,
		Valid:     row.Valid,
		StoredAt:  time.Unix(row.StoredAt, 0),
	}
	sol := Solution{
		Assignments: make([]option.Option[grid.ServerID], row.Components),
		Fitness:     option.Some(row.Fitness),
	}

	var placements []placementRow
	if _, err := s.db.Select(&placements, "SELECT * FROM netplace_placements ORDER BY component"); err != nil {
		return Meta{}, Solution{}, fmt.Errorf("failed to select placements: %w", err)
	}
	for _, p := range placements {
		if p.Component < 0 || p.Component >= row.Components {
			return Meta{}, Solution{}, fmt.Errorf("stored placement of unknown component %d: %w", p.Component, ErrMismatch)
		}
		sol.Assignments[p.Component] = option.Some(grid.ServerID(p.Server))
	}

	var hops []routeRow
	if _, err := s.db.Select(&hops, "SELECT * FROM netplace_routes ORDER BY link, hop"); err != nil {
		return Meta{}, Solution{}, fmt.Errorf("failed to select routes: %w", err)
	}
	for _, h := range hops {
		if n := len(sol.Routes); n == 0 || sol.Routes[n-1].Link != grid.LinkID(h.Link) {
			sol.Routes = append(sol.Routes, Route{
				Link: grid.LinkID(h.Link),
				From: grid.ComponentID(h.FromComponent),
				To:   grid.ComponentID(h.ToComponent),
			})
		}
		last := &sol.Routes[len(sol.Routes)-1]
		last.Nodes = append(last.Nodes, grid.NodeID(h.Node))
	}
	return meta, sol, nil
}
