// Package main is the schemascope command. It serves the graph console API
// and inspects graph documents from the command line.
package main

import (
	"github.com/schemascope/core/internal/config"
	"github.com/spf13/cobra"
)

// configCmd prints the effective configuration as TOML.
func configCmd(configPath *string) *cobra.Command {
	var defaults bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if !defaults {
				var err error
				if cfg, err = config.Load(*configPath); err != nil {
					return err
				}
			}
			return cfg.Write(cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&defaults, "defaults", false, "print the built-in defaults and ignore file and environment")
	return cmd
}
