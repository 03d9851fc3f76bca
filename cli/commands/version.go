package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/schemadiff/cli/internal/ui"
	"github.com/satishbabariya/schemadiff/cli/internal/update"
	"github.com/satishbabariya/schemadiff/cli/internal/version"
)

func newVersionCommand() *cobra.Command {
	var latest string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			fmt.Fprintln(cmd.OutOrStdout(), info.FullString())
			if latest == "" {
				return nil
			}
			status, err := update.Check(info.Version, latest)
			if err != nil {
				return err
			}
			if status.Outdated() {
				ui.PrintWarning("version %s is available (running %s)", status.Latest, status.Current)
			} else {
				ui.PrintSuccess("up to date")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&latest, "check", "", "Compare with the given latest version")

	return cmd
}
