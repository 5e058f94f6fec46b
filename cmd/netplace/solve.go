// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/cobaltcore-dev/netplace/internal/db"
	"github.com/cobaltcore-dev/netplace/internal/instance"
	"github.com/cobaltcore-dev/netplace/internal/monitoring"
	"github.com/cobaltcore-dev/netplace/internal/solution"
	"github.com/cobaltcore-dev/netplace/internal/solver"
	"github.com/sapcc/go-bits/must"
	"github.com/spf13/cobra"
)

func newSolveCommand(g *globals) *cobra.Command {
	var (
		instancePath string
		outPath      string
		algorithm    string
		attempts     int
		seed         uint64
	)
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Search an assignment for an instance and report its constraints and fitness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := g.config
			flags := cmd.Flags()
			if flags.Changed("out") {
				config.Output.SolutionPath = outPath
			}
			if flags.Changed("algorithm") {
				config.Solver.Algorithm = algorithm
			}
			if flags.Changed("attempts") {
				config.Solver.Attempts = attempts
			}
			if flags.Changed("seed") {
				config.Solver.Seed = seed
			}
			if err := config.Validate(); err != nil {
				return err
			}

			in, err := instance.ParseFile(instancePath)
			if err != nil {
				return err
			}
			registry := monitoring.NewRegistry(config.Monitoring)
			s := solver.New(in, config.Solver, solver.NewMonitor(registry))
			result, err := s.Solve(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, result.Report.String())
			fmt.Fprintf(out, "fitness: %v\n", result.Fitness)
			result.Report.Log(slog.Default().With("run", result.RunID))

			sol := solution.FromGrid(result.Grid, result.Fitness)
			if err := writeSolution(out, config.Output.SolutionPath, sol, len(result.Grid.Servers())); err != nil {
				return err
			}
			if config.Output.Persist {
				database, err := db.Open(cmd.Context(), config.DB, registry)
				if err != nil {
					return err
				}
				defer database.Close()
				store, err := solution.NewStore(database)
				if err != nil {
					return err
				}
				meta := solution.Meta{
					RunID:     result.RunID,
					Algorithm: result.Algorithm,
					Attempt:   result.Attempt,
					Valid:     result.Valid(),
				}
				if err := store.Save(meta, sol); err != nil {
					return err
				}
			}
			return registry.WriteTextfile()
		},
	}
	cmd.Flags().StringVar(&instancePath, "instance", "", "instance file to solve")
	cmd.Flags().StringVar(&outPath, "out", "", "file to write the solution to, stdout if empty")
	cmd.Flags().StringVar(&algorithm, "algorithm", "", "placement heuristic, overrides the config")
	cmd.Flags().IntVar(&attempts, "attempts", 0, "number of attempts, overrides the config")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed of randomized heuristics, overrides the config")
	must.Succeed(cmd.MarkFlagRequired("instance"))
	return cmd
}

func writeSolution(stdout io.Writer, path string, sol solution.Solution, numServers int) error {
	if path == "" {
		return solution.Write(stdout, sol, numServers)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := solution.Write(f, sol, numServers); err != nil {
		f.Close()
		return err
	}
	slog.Info("wrote solution", "path", path)
	return f.Close()
}
