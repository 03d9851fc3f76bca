package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/satishbabariya/schemadiff/migrate/diff"
)

var diffTypeColors = map[diff.DiffType]*color.Color{
	diff.Added:   color.New(color.FgGreen, color.Bold),
	diff.Changed: color.New(color.FgYellow, color.Bold),
	diff.Deleted: color.New(color.FgRed, color.Bold),
}

// entry is an entity diff of any kind
type entry interface {
	Identity() string
	DiffType() diff.DiffType
	Attributes() []diff.AttributeDiff
}

// SummaryRows flattens a schema diff into kind, type, object and details
// columns. Child objects are qualified with their table or craft title.
func SummaryRows(sd *diff.SchemaDiff) [][]string {
	var rows [][]string
	for _, t := range sd.TableDiffs() {
		rows = append(rows, row("table", "", t))
		rows = appendRows(rows, "column", t.TableName(), t.ColumnDiffs())
		rows = appendRows(rows, "primary key", t.TableName(), t.PrimaryKeyDiffs())
		rows = appendRows(rows, "foreign key", t.TableName(), t.ForeignKeyDiffs())
		rows = appendRows(rows, "unique key", t.TableName(), t.UniqueKeyDiffs())
		rows = appendRows(rows, "index", t.TableName(), t.IndexDiffs())
	}
	rows = appendRows(rows, "sequence", "", sd.SequenceDiffs())
	rows = appendRows(rows, "procedure", "", sd.ProcedureDiffs())
	for _, c := range sd.CraftTitleDiffs() {
		rows = appendRows(rows, "craft", c.CraftTitle(), c.CraftRowDiffs())
	}
	return rows
}

func appendRows[E entry](rows [][]string, kind, parent string, entries []E) [][]string {
	for _, e := range entries {
		rows = append(rows, row(kind, parent, e))
	}
	return rows
}

func row(kind, parent string, e entry) []string {
	name := e.Identity()
	if parent != "" {
		name = parent + "." + name
	}
	details := make([]string, 0, len(e.Attributes()))
	for _, attr := range e.Attributes() {
		details = append(details, fmt.Sprintf("%s: %s → %s", attr.Title, attr.Value.DisplayPrevious(), attr.Value.DisplayNext()))
	}
	return []string{kind, e.DiffType().String(), name, strings.Join(details, "\n")}
}

// PrintSchemaDiff prints a colored summary table of the diff
func PrintSchemaDiff(sd *diff.SchemaDiff) error {
	PrintSection("Schema diff " + sd.DiffDate().Format(diff.DiffDateLayout))
	if sd.HasTableCountDifference() {
		tc := sd.TableCount()
		PrintInfo("table count: %s → %s", tc.DisplayPrevious(), tc.DisplayNext())
	}
	if !sd.HasDifference() {
		PrintSuccess("no difference")
		return nil
	}

	rows := SummaryRows(sd)
	for _, r := range rows {
		t, err := diff.ParseDiffType(r[1])
		if err == nil {
			r[1] = diffTypeColors[t].Sprint(r[1])
		}
	}
	return PrintTable([]string{"Kind", "Type", "Object", "Details"}, rows)
}
