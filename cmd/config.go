package cmd

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/grovetools/spawn/cli"
	"github.com/grovetools/spawn/errors"
)

// NewConfigCmd creates the `config` command.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Display the effective configuration",
		Long: `Shows the configuration after merging the global spawn.yml
(~/.config/grove/spawn.yml) with the nearest project spawn.yml and applying defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("format")
			if opts.JSONOutput {
				format = "json"
			}

			var data []byte
			switch format {
			case "yaml", "":
				data, err = yaml.Marshal(cfg)
			case "toml":
				data, err = toml.Marshal(cfg)
			case "json":
				return writeJSON(cmd.OutOrStdout(), cfg)
			default:
				return errors.InvalidInput("format", fmt.Sprintf("unknown format %q (want yaml, toml or json)", format))
			}
			if err != nil {
				return fmt.Errorf("failed to render config: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().StringP("format", "f", "yaml", "Output format: yaml, toml, json")
	return cmd
}
