package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/schemadiff/cli/internal/config"
	"github.com/satishbabariya/schemadiff/cli/internal/ui"
	"github.com/satishbabariya/schemadiff/migrate/history"
)

func newSnapshotCommand(cfg *config.Config) *cobra.Command {
	var connStr, out string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Introspect a database into a snapshot file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(cmd.Context(), cfg, connStr, out)
		},
	}

	cmd.Flags().StringVar(&connStr, "url", "", "Database URL (default: database_url)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Snapshot file to write (default: snapshot_path)")

	return cmd
}

func runSnapshot(ctx context.Context, cfg *config.Config, connStr, out string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if connStr == "" {
		connStr = cfg.DatabaseURL
	}
	if connStr == "" {
		return errors.New("--url (or database_url) is required")
	}
	if out == "" {
		out = cfg.SnapshotPath
	}

	source, db, err := openDatabaseSource(cfg, connStr)
	if err != nil {
		return err
	}
	defer db.Close()

	schema, err := source.Load(ctx)
	if err != nil {
		return err
	}
	if err := history.NewSnapshotStore(config.AppFs, out).Save(ctx, schema); err != nil {
		return err
	}
	ui.PrintSuccess("wrote %s: %d tables, %d sequences, %d procedures",
		out, len(schema.Tables), len(schema.Sequences), len(schema.Procedures))
	return nil
}
