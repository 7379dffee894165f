// Package main is the schemascope command. It serves the graph console API
// and inspects graph documents from the command line.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:          "schemascope",
		Short:        "Oracle metadata graph console",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a TOML config file")

	cmd.AddCommand(serveCmd(&configPath), inspectCmd(), configCmd(&configPath))
	return cmd
}
