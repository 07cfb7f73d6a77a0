package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/spawn/config"
	"github.com/grovetools/spawn/errors"
	"github.com/grovetools/spawn/sessionlog"
)

// NewSchemaCmd creates the `schema` command.
func NewSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "schema [config|log]",
		Short:     "Print the JSON Schema of spawn.yml or of a session log entry",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"config", "log"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := "config"
			if len(args) == 1 {
				kind = args[0]
			}

			var (
				data []byte
				err  error
			)
			switch kind {
			case "config":
				data, err = config.GenerateSchema()
			case "log":
				data, err = sessionlog.EntrySchema()
			default:
				return errors.InvalidInput("schema", fmt.Sprintf("unknown schema %q (want config or log)", kind))
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
