// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cobaltcore-dev/netplace/internal/conf"
	"github.com/sapcc/go-api-declarations/bininfo"
	"github.com/sapcc/go-bits/httpext"
	"github.com/sapcc/go-bits/must"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
)

// Returned by commands whose result is fine to print but that should
// still exit with a non-zero status.
var errConstraintsFailed = errors.New("constraints failed")

// Flags and config shared by all commands.
type globals struct {
	configPath  string
	secretsPath string
	config      conf.Config
}

func newRootCommand() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "netplace",
		Short:         "Place service components on a network of servers and route their traffic",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config, err := conf.LoadConfig(g.configPath, g.secretsPath)
			if err != nil {
				return err
			}
			g.config = config
			g.config.Logging.SetDefaultLogger()
			return nil
		},
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", os.Getenv("NETPLACE_CONFIG"),
		"config file (json or yaml), defaults to $NETPLACE_CONFIG")
	root.PersistentFlags().StringVar(&g.secretsPath, "secrets", os.Getenv("NETPLACE_SECRETS"),
		"config file overriding values of --config, defaults to $NETPLACE_SECRETS")
	root.AddCommand(newSolveCommand(g), newCheckCommand(g))
	return root
}

func main() {
	// If called with `--version`, report version and exit.
	bininfo.HandleVersionArgument()

	// Set runtime concurrency to match the CPU limit of the container.
	undoMaxprocs := must.Return(maxprocs.Set(maxprocs.Logger(slog.Debug)))

	ctx := httpext.ContextWithSIGINT(context.Background(), 100*time.Millisecond)
	err := newRootCommand().ExecuteContext(ctx)
	undoMaxprocs()
	switch {
	case err == nil:
	case errors.Is(err, errConstraintsFailed):
		os.Exit(1)
	default:
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
