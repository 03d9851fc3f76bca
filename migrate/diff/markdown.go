package diff

import (
	"fmt"
	"strings"
)

// RenderMarkdown renders the diff as a markdown document.
func RenderMarkdown(sd *SchemaDiff) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Schema diff %s\n", sd.DiffDate().Format(DiffDateLayout))
	if c := sd.Comment(); c != nil {
		fmt.Fprintf(&sb, "\n%s\n", *c)
	}
	if sd.HasTableCountDifference() {
		tc := sd.TableCount()
		fmt.Fprintf(&sb, "\nTable count: %s → %s\n", tc.DisplayPrevious(), tc.DisplayNext())
	}
	if !sd.HasDifference() {
		sb.WriteString("\nNo difference.\n")
		return sb.String()
	}

	if len(sd.TableDiffs()) > 0 {
		sb.WriteString("\n## Tables\n")
		for _, t := range sd.TableDiffs() {
			fmt.Fprintf(&sb, "\n### %s `%s`\n", t.DiffType(), t.TableName())
			writeAttributes(&sb, t.Attributes())
			writeChildren(&sb, "Columns", t.ColumnDiffs())
			writeChildren(&sb, "Primary keys", t.PrimaryKeyDiffs())
			writeChildren(&sb, "Foreign keys", t.ForeignKeyDiffs())
			writeChildren(&sb, "Unique keys", t.UniqueKeyDiffs())
			writeChildren(&sb, "Indexes", t.IndexDiffs())
		}
	}
	writeSection(&sb, "Sequences", sd.SequenceDiffs())
	writeSection(&sb, "Procedures", sd.ProcedureDiffs())
	if len(sd.CraftTitleDiffs()) > 0 {
		sb.WriteString("\n## Craft\n")
		for _, c := range sd.CraftTitleDiffs() {
			fmt.Fprintf(&sb, "\n### `%s`\n", c.CraftTitle())
			writeChildren(&sb, "Rows", c.CraftRowDiffs())
		}
	}
	return sb.String()
}

// attributed is an entity diff exposing its recorded attributes.
type attributed interface {
	entity
	Attributes() []AttributeDiff
}

func writeSection[D attributed](sb *strings.Builder, title string, diffs []D) {
	if len(diffs) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n## %s\n\n", title)
	for _, d := range diffs {
		writeEntry(sb, d)
	}
}

func writeChildren[D attributed](sb *strings.Builder, title string, diffs []D) {
	if len(diffs) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n**%s**\n\n", title)
	for _, d := range diffs {
		writeEntry(sb, d)
	}
}

func writeEntry(sb *strings.Builder, d attributed) {
	fmt.Fprintf(sb, "- %s `%s`\n", d.DiffType(), d.Identity())
	for _, attr := range d.Attributes() {
		fmt.Fprintf(sb, "  - %s: %s → %s\n", attr.Title, attr.Value.DisplayPrevious(), attr.Value.DisplayNext())
	}
}

func writeAttributes(sb *strings.Builder, attrs []AttributeDiff) {
	if len(attrs) == 0 {
		return
	}
	sb.WriteString("\n")
	for _, attr := range attrs {
		fmt.Fprintf(sb, "- %s: %s → %s\n", attr.Title, attr.Value.DisplayPrevious(), attr.Value.DisplayNext())
	}
}
