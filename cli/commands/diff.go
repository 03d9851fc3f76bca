package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/schemadiff/cli/internal/config"
	"github.com/satishbabariya/schemadiff/cli/internal/ui"
	"github.com/satishbabariya/schemadiff/cli/internal/watch"
	"github.com/satishbabariya/schemadiff/migrate"
	"github.com/satishbabariya/schemadiff/migrate/diff"
	"github.com/satishbabariya/schemadiff/migrate/history"
)

type diffFlags struct {
	previous string
	next     string
	url      string
	craftDir string
	comment  string
	watch    bool
	save     bool
	yes      bool
}

func newDiffCommand(cfg *config.Config) *cobra.Command {
	var flags diffFlags

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare the schema with the last snapshot",
		Long: `Compare the next schema, read from a snapshot file or a live database,
with the previous snapshot and record the difference in the history.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd.Context(), cfg, flags)
		},
	}

	cmd.Flags().StringVar(&flags.previous, "previous", "", "Previous snapshot file (default: snapshot_path)")
	cmd.Flags().StringVar(&flags.next, "next", "", "Next snapshot file")
	cmd.Flags().StringVar(&flags.url, "url", "", "Database URL to introspect as the next schema (default: database_url)")
	cmd.Flags().StringVar(&flags.craftDir, "craft-dir", "", "Craft meta directory (default: craft_meta_dir)")
	cmd.Flags().StringVarP(&flags.comment, "comment", "m", "", "Comment recorded with the diff")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "Rerun when the next snapshot file changes")
	cmd.Flags().BoolVar(&flags.save, "save", false, "Save the next schema as the new snapshot")
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "Do not ask before saving the snapshot")
	cmd.MarkFlagsMutuallyExclusive("next", "url")

	return cmd
}

func runDiff(ctx context.Context, cfg *config.Config, flags diffFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if flags.previous != "" {
		cfg.SnapshotPath = flags.previous
	}
	if flags.craftDir != "" {
		cfg.CraftMetaDir = flags.craftDir
	}
	connStr := flags.url
	if flags.next == "" && connStr == "" {
		connStr = cfg.DatabaseURL
	}
	if flags.next == "" && connStr == "" {
		return errors.New("either --next or --url (or database_url) is required")
	}
	if flags.watch && flags.next == "" {
		return errors.New("--watch requires --next")
	}

	opts, err := diffOptions(cfg, connStr)
	if err != nil {
		return err
	}
	engine := migrate.NewEngine(
		history.NewSnapshotStore(config.AppFs, cfg.SnapshotPath),
		newHistoryManager(cfg),
		opts...,
	)

	var next diff.SchemaSource
	if flags.next != "" {
		next = history.NewSnapshotStore(config.AppFs, flags.next)
	} else {
		source, db, err := openDatabaseSource(cfg, connStr)
		if err != nil {
			return err
		}
		defer db.Close()
		next = source
	}

	run := func(ctx context.Context) error {
		return diffOnce(ctx, engine, next, flags)
	}
	if !flags.watch {
		return run(ctx)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	w, err := watch.NewWatcher(flags.next, watch.DefaultDebounce, run)
	if err != nil {
		return err
	}
	ui.PrintInfo("watching %s, press Ctrl+C to stop", flags.next)
	return w.Run(ctx)
}

func diffOnce(ctx context.Context, engine *migrate.Engine, next diff.SchemaSource, flags diffFlags) error {
	result, err := engine.Run(ctx, next, flags.comment)
	if err != nil {
		var craftErr *diff.CraftDataError
		if errors.As(err, &craftErr) {
			ui.PrintError("craft meta of %s is broken", craftErr.FilePath)
		}
		return err
	}

	if result.FirstTime {
		ui.PrintWarning("no previous snapshot, nothing to compare")
	} else {
		if err := ui.PrintSchemaDiff(result.Diff); err != nil {
			return err
		}
		if result.Recorded {
			ui.PrintSuccess("recorded in history")
		} else if result.HasDifference() {
			ui.PrintInfo("same diff as the newest history entry, not recorded again")
		}
	}

	if !flags.save || (!result.FirstTime && !result.HasDifference()) {
		return nil
	}
	if !flags.yes {
		ok, err := ui.Confirm(fmt.Sprintf("Save %s as the new snapshot?", next.Name()))
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
	if err := engine.Promote(ctx, result.NextSchema); err != nil {
		return err
	}
	ui.PrintSuccess("snapshot saved")
	return nil
}
