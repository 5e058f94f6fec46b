// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/cobaltcore-dev/netplace/internal/constraints"
	"github.com/cobaltcore-dev/netplace/internal/db"
	"github.com/cobaltcore-dev/netplace/internal/fitness"
	"github.com/cobaltcore-dev/netplace/internal/instance"
	"github.com/cobaltcore-dev/netplace/internal/solution"
	"github.com/sapcc/go-bits/must"
	"github.com/spf13/cobra"
)

func newCheckCommand(g *globals) *cobra.Command {
	var (
		instancePath string
		solutionPath string
		stored       bool
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Replay a solution onto an instance and report its constraints and fitness",
		Long: "Replay a solution onto an instance and report its constraints and fitness.\n" +
			"Exits with a non-zero status if any constraint fails.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (solutionPath == "") == !stored {
				return errors.New("exactly one of --solution and --stored is required")
			}
			in, err := instance.ParseFile(instancePath)
			if err != nil {
				return err
			}
			grid, err := in.Build()
			if err != nil {
				return err
			}
			var sol solution.Solution
			if stored {
				sol, err = loadStored(cmd, g)
			} else {
				sol, err = readSolution(solutionPath)
			}
			if err != nil {
				return err
			}
			if err := solution.Apply(grid, sol); err != nil {
				return err
			}

			report := constraints.NewValidator(grid).Report()
			f := fitness.Fitness(grid)
			out := cmd.OutOrStdout()
			fmt.Fprint(out, report.String())
			fmt.Fprintf(out, "fitness: %v\n", f)
			if claimed, ok := sol.Fitness.Unpack(); ok && claimed != f {
				fmt.Fprintf(out, "claimed fitness: %v\n", claimed)
			}
			if !report.Passed() {
				for _, failed := range report.Failed() {
					for _, v := range failed.Violations {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", failed.Name, v)
					}
				}
				return errConstraintsFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&instancePath, "instance", "", "instance file the solution belongs to")
	cmd.Flags().StringVar(&solutionPath, "solution", "", "solution file to check")
	cmd.Flags().BoolVar(&stored, "stored", false, "check the solution stored in the database instead of a file")
	must.Succeed(cmd.MarkFlagRequired("instance"))
	return cmd
}

func readSolution(path string) (solution.Solution, error) {
	f, err := os.Open(path)
	if err != nil {
		return solution.Solution{}, err
	}
	defer f.Close()
	sol, err := solution.Read(f)
	if err != nil {
		return solution.Solution{}, fmt.Errorf("%s: %w", path, err)
	}
	return sol, nil
}

func loadStored(cmd *cobra.Command, g *globals) (solution.Solution, error) {
	database, err := db.Open(cmd.Context(), g.config.DB, nil)
	if err != nil {
		return solution.Solution{}, err
	}
	defer database.Close()
	store, err := solution.NewStore(database)
	if err != nil {
		return solution.Solution{}, err
	}
	meta, sol, err := store.Load()
	if err != nil {
		return solution.Solution{}, err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "run: %s (attempt %d, %s)\n", meta.RunID, meta.Attempt, meta.Algorithm)
	return sol, nil
}
