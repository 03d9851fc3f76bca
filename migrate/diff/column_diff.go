package diff

import (
	"github.com/satishbabariya/schemadiff/migrate/introspect"
)

const (
	columnNameKey        = "columnName"
	dbTypeDiffKey        = "dbTypeDiff"
	columnSizeDiffKey    = "columnSizeDiff"
	defaultValueDiffKey  = "defaultValueDiff"
	notNullDiffKey       = "notNullDiff"
	autoIncrementDiffKey = "autoIncrementDiff"
	columnCommentDiffKey = "columnCommentDiff"
)

var columnAttributes = []attribute{
	{key: dbTypeDiffKey, title: "DB Type"},
	{key: columnSizeDiffKey, title: "Column Size"},
	{key: defaultValueDiffKey, title: "Default Value", quoted: true},
	{key: notNullDiffKey, title: "Not Null"},
	{key: autoIncrementDiffKey, title: "Auto Increment"},
	{key: columnCommentDiffKey, title: "Column Comment", quoted: true},
}

var columnDiffers = []attributeDiffer[*introspect.Column]{
	stringDiffer(dbTypeDiffKey, func(c *introspect.Column) *string { return optional(c.Type) }),
	stringDiffer(columnSizeDiffKey, func(c *introspect.Column) *string { return optional(c.Size) }),
	stringDiffer(defaultValueDiffKey, func(c *introspect.Column) *string { return c.DefaultValue }).
		matching(sameDefaultValue),
	boolDiffer(notNullDiffKey, func(c *introspect.Column) bool { return c.NotNull }),
	boolDiffer(autoIncrementDiffKey, func(c *introspect.Column) bool { return c.AutoIncrement }),
	stringDiffer(columnCommentDiffKey, func(c *introspect.Column) *string { return c.Comment }).
		when(checkDBComment),
}

// sameDefaultValue treats two sequence auto-default expressions as equal,
// their generated sequence names change on every rebuild.
func sameDefaultValue(o *options, next, previous *string) bool {
	if same(next, previous) {
		return true
	}
	if next == nil || previous == nil {
		return false
	}
	return o.flavour.IsSequenceAutoDefault(*next) && o.flavour.IsSequenceAutoDefault(*previous)
}

// ColumnDiff is the difference of one column.
type ColumnDiff struct {
	entityDiff
}

func newColumnDiff(name string, diffType DiffType) *ColumnDiff {
	return &ColumnDiff{entityDiff: newEntityDiff(columnNameKey, columnAttributes, name, diffType)}
}

func parseColumnDiff(m map[string]any) (*ColumnDiff, error) {
	base, err := parseEntityDiff(columnNameKey, columnAttributes, m)
	if err != nil {
		return nil, err
	}
	return &ColumnDiff{entityDiff: base}, nil
}

// ColumnName returns the column name.
func (d *ColumnDiff) ColumnName() string { return d.identity }

func (d *ColumnDiff) DBTypeDiff() *NextPreviousValue        { return d.values[dbTypeDiffKey] }
func (d *ColumnDiff) ColumnSizeDiff() *NextPreviousValue    { return d.values[columnSizeDiffKey] }
func (d *ColumnDiff) DefaultValueDiff() *NextPreviousValue  { return d.values[defaultValueDiffKey] }
func (d *ColumnDiff) NotNullDiff() *NextPreviousValue       { return d.values[notNullDiffKey] }
func (d *ColumnDiff) AutoIncrementDiff() *NextPreviousValue { return d.values[autoIncrementDiffKey] }
func (d *ColumnDiff) ColumnCommentDiff() *NextPreviousValue { return d.values[columnCommentDiffKey] }

// DiffMap returns the serialized form.
func (d *ColumnDiff) DiffMap() map[string]any {
	return d.baseDiffMap()
}

// diffColumns matches columns by exact name.
func diffColumns(o *options, target *TableDiff, next, previous *introspect.Table) {
	previousByName := make(map[string]*introspect.Column, len(previous.Columns))
	for i := range previous.Columns {
		previousByName[previous.Columns[i].Name] = &previous.Columns[i]
	}
	nextNames := make(map[string]bool, len(next.Columns))
	for i := range next.Columns {
		col := &next.Columns[i]
		nextNames[col.Name] = true
		prev, ok := previousByName[col.Name]
		if !ok {
			target.columns.add(newColumnDiff(col.Name, Added))
			continue
		}
		d := newColumnDiff(col.Name, Changed)
		runDiffers(o, &d.entityDiff, columnDiffers, col, prev)
		if d.HasDifference() {
			target.columns.add(d)
		}
	}
	for i := range previous.Columns {
		col := &previous.Columns[i]
		if !nextNames[col.Name] {
			target.columns.add(newColumnDiff(col.Name, Deleted))
		}
	}
}
