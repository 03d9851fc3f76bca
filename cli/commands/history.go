package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/schemadiff/cli/internal/config"
	"github.com/satishbabariya/schemadiff/cli/internal/ui"
	"github.com/satishbabariya/schemadiff/migrate/diff"
	"github.com/satishbabariya/schemadiff/migrate/history"
)

func newHistoryCommand(cfg *config.Config) *cobra.Command {
	var limit int
	var markdown bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded schema diffs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("limit") {
				limit = cfg.HistoryLimit
			}
			return runHistory(cmd.Context(), cfg, limit, markdown)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of diffs to show, 0 for all (default: history_limit)")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Render the diffs as markdown")

	return cmd
}

func runHistory(ctx context.Context, cfg *config.Config, limit int, markdown bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	records, err := newHistoryManager(cfg).Records(ctx, limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		ui.PrintInfo("no schema diff recorded in %s", cfg.HistoryPath)
		return nil
	}

	if markdown {
		docs := make([]string, 0, len(records))
		for _, r := range records {
			docs = append(docs, diff.RenderMarkdown(r.Diff))
		}
		return ui.PrintMarkdown(strings.Join(docs, "\n---\n\n"))
	}

	return ui.PrintTable([]string{"Date", "Tables", "Sequences", "Procedures", "Craft", "Comment", "Checksum"}, historyRows(records))
}

func historyRows(records []*history.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		comment := ""
		if r.Comment != nil {
			comment = *r.Comment
		}
		rows = append(rows, []string{
			r.DiffDate.Format(diff.DiffDateLayout),
			fmt.Sprint(len(r.Diff.TableDiffs())),
			fmt.Sprint(len(r.Diff.SequenceDiffs())),
			fmt.Sprint(len(r.Diff.ProcedureDiffs())),
			fmt.Sprint(len(r.Diff.CraftTitleDiffs())),
			comment,
			r.Checksum[:12],
		})
	}
	return rows
}
