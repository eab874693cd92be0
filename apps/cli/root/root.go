package root

import (
	"github.com/spf13/cobra"
)

// rootCmd is the base command for the clubreserve admin CLI. Subcommands
// (club, blackout) are attached here.
var rootCmd = &cobra.Command{
	Use:           "clubreserve",
	Short:         "clubreserve admin CLI",
	Long:          "Administrative utilities for clubreserve (club registry, schema provisioning, blackouts).",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the mutable root command for wiring from subpackages.
func Root() *cobra.Command {
	return rootCmd
}
