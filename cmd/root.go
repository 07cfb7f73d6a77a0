// Package cmd holds the cobra commands of the spawn binary.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/grovetools/spawn/cli"
	"github.com/grovetools/spawn/config"
	"github.com/grovetools/spawn/runner"
	"github.com/grovetools/spawn/version"
)

// NewRootCmd builds the spawn command tree.
func NewRootCmd() *cobra.Command {
	root := cli.NewStandardCommand(
		"spawn",
		"Run commands with timeouts, detached execution and persisted session logs",
	)
	root.Version = version.Version
	root.SetVersionTemplate(version.GetInfo().Short() + "\n")

	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		marker := config.DefaultNestedMarker
		if cfg, err := cli.LoadConfig(cmd); err == nil {
			marker = cfg.ManagedTool.NestedMarker
		}
		if warning, nested := runner.CheckNestedEnvironment(marker); nested {
			cli.GetLogger(cmd).Warn(warning)
		}
	}

	root.AddCommand(NewRunCmd())
	root.AddCommand(NewSessionsCmd())
	root.AddCommand(NewSchemaCmd())
	root.AddCommand(NewConfigCmd())
	root.AddCommand(cli.NewVersionCommand())

	cli.ApplyStyledHelpRecursive(root)
	return root
}
