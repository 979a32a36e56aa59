package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewConfigCmd creates the config subcommand.
func NewConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			data, err := cfg.TOML()
			if err != nil {
				return err
			}
			for _, f := range cfg.Files {
				fmt.Fprintf(cmd.OutOrStdout(), "# loaded from %s\n", f)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
