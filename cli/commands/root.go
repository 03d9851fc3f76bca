// Package commands implements the schemadiff CLI commands.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/satishbabariya/schemadiff/cli/internal/config"
	"github.com/satishbabariya/schemadiff/cli/internal/version"
	"github.com/satishbabariya/schemadiff/internal/debug"
)

// NewRootCommand creates the schemadiff command tree
func NewRootCommand() *cobra.Command {
	var verbose bool
	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:           "schemadiff",
		Short:         "Compare database schema snapshots",
		Long:          "schemadiff compares a database schema with its last snapshot and keeps the history of differences",
		Version:       version.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug.Init(verbose)
			loaded, err := config.LoadConfig()
			if err != nil {
				return err
			}
			*cfg = *loaded
			return nil
		},
	}
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")

	rootCmd.AddCommand(newDiffCommand(cfg))
	rootCmd.AddCommand(newSnapshotCommand(cfg))
	rootCmd.AddCommand(newHistoryCommand(cfg))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// Execute is the main entry point for the CLI
func Execute() error {
	return NewRootCommand().Execute()
}
