package diff

import (
	"github.com/satishbabariya/schemadiff/migrate/introspect"
)

const (
	tableNameKey          = "tableName"
	unifiedSchemaDiffKey  = "unifiedSchemaDiff"
	objectTypeDiffKey     = "objectTypeDiff"
	columnDefOrderDiffKey = "columnDefOrderDiff"
	tableCommentDiffKey   = "tableCommentDiff"

	columnDiffMapKey     = "columnDiff"
	primaryKeyDiffMapKey = "primaryKeyDiff"
	foreignKeyDiffMapKey = "foreignKeyDiff"
	uniqueKeyDiffMapKey  = "uniqueKeyDiff"
	indexDiffMapKey      = "indexDiff"
)

var tableAttributes = []attribute{
	{key: unifiedSchemaDiffKey, title: "Schema"},
	{key: objectTypeDiffKey, title: "Object Type"},
	{key: columnDefOrderDiffKey, title: "Column Def Order"},
	{key: tableCommentDiffKey, title: "Table Comment", quoted: true},
}

var tableDiffers = []attributeDiffer[*introspect.Table]{
	stringDiffer(unifiedSchemaDiffKey, func(t *introspect.Table) *string { return optional(t.Schema) }).
		when(checkSchema),
	stringDiffer(objectTypeDiffKey, func(t *introspect.Table) *string { return optional(t.Type) }),
	columnDefOrderDiffer{},
	stringDiffer(tableCommentDiffKey, func(t *introspect.Table) *string { return t.Comment }).
		when(checkDBComment),
}

var tableNestedHandlers = []nestedHandler[*TableDiff]{
	nested(columnDiffMapKey, func(t *TableDiff) *nestedDiffs[*ColumnDiff] { return &t.columns }, parseColumnDiff),
	nested(primaryKeyDiffMapKey, func(t *TableDiff) *nestedDiffs[*PrimaryKeyDiff] { return &t.primaryKeys }, parsePrimaryKeyDiff),
	nested(foreignKeyDiffMapKey, func(t *TableDiff) *nestedDiffs[*ForeignKeyDiff] { return &t.foreignKeys }, parseForeignKeyDiff),
	nested(uniqueKeyDiffMapKey, func(t *TableDiff) *nestedDiffs[*UniqueKeyDiff] { return &t.uniqueKeys }, parseUniqueKeyDiff),
	nested(indexDiffMapKey, func(t *TableDiff) *nestedDiffs[*IndexDiff] { return &t.indexes }, parseIndexDiff),
}

// TableDiff is the difference of one table with its nested column and
// constraint differences.
type TableDiff struct {
	entityDiff

	columns     nestedDiffs[*ColumnDiff]
	primaryKeys nestedDiffs[*PrimaryKeyDiff]
	foreignKeys nestedDiffs[*ForeignKeyDiff]
	uniqueKeys  nestedDiffs[*UniqueKeyDiff]
	indexes     nestedDiffs[*IndexDiff]
}

func newTableDiff(name string, diffType DiffType) *TableDiff {
	return &TableDiff{entityDiff: newEntityDiff(tableNameKey, tableAttributes, name, diffType)}
}

func parseTableDiff(m map[string]any) (*TableDiff, error) {
	base, err := parseEntityDiff(tableNameKey, tableAttributes, m)
	if err != nil {
		return nil, err
	}
	t := &TableDiff{entityDiff: base}
	if err := readNested(t, tableNestedHandlers, m); err != nil {
		return nil, err
	}
	return t, nil
}

// TableName returns the table identity.
func (d *TableDiff) TableName() string { return d.identity }

func (d *TableDiff) UnifiedSchemaDiff() *NextPreviousValue  { return d.values[unifiedSchemaDiffKey] }
func (d *TableDiff) ObjectTypeDiff() *NextPreviousValue     { return d.values[objectTypeDiffKey] }
func (d *TableDiff) ColumnDefOrderDiff() *NextPreviousValue { return d.values[columnDefOrderDiffKey] }
func (d *TableDiff) TableCommentDiff() *NextPreviousValue   { return d.values[tableCommentDiffKey] }

func (d *TableDiff) ColumnDiffs() []*ColumnDiff        { return d.columns.all }
func (d *TableDiff) AddedColumnDiffs() []*ColumnDiff   { return d.columns.added }
func (d *TableDiff) ChangedColumnDiffs() []*ColumnDiff { return d.columns.changed }
func (d *TableDiff) DeletedColumnDiffs() []*ColumnDiff { return d.columns.deleted }

func (d *TableDiff) PrimaryKeyDiffs() []*PrimaryKeyDiff        { return d.primaryKeys.all }
func (d *TableDiff) AddedPrimaryKeyDiffs() []*PrimaryKeyDiff   { return d.primaryKeys.added }
func (d *TableDiff) ChangedPrimaryKeyDiffs() []*PrimaryKeyDiff { return d.primaryKeys.changed }
func (d *TableDiff) DeletedPrimaryKeyDiffs() []*PrimaryKeyDiff { return d.primaryKeys.deleted }

func (d *TableDiff) ForeignKeyDiffs() []*ForeignKeyDiff        { return d.foreignKeys.all }
func (d *TableDiff) AddedForeignKeyDiffs() []*ForeignKeyDiff   { return d.foreignKeys.added }
func (d *TableDiff) ChangedForeignKeyDiffs() []*ForeignKeyDiff { return d.foreignKeys.changed }
func (d *TableDiff) DeletedForeignKeyDiffs() []*ForeignKeyDiff { return d.foreignKeys.deleted }

func (d *TableDiff) UniqueKeyDiffs() []*UniqueKeyDiff        { return d.uniqueKeys.all }
func (d *TableDiff) AddedUniqueKeyDiffs() []*UniqueKeyDiff   { return d.uniqueKeys.added }
func (d *TableDiff) ChangedUniqueKeyDiffs() []*UniqueKeyDiff { return d.uniqueKeys.changed }
func (d *TableDiff) DeletedUniqueKeyDiffs() []*UniqueKeyDiff { return d.uniqueKeys.deleted }

func (d *TableDiff) IndexDiffs() []*IndexDiff        { return d.indexes.all }
func (d *TableDiff) AddedIndexDiffs() []*IndexDiff   { return d.indexes.added }
func (d *TableDiff) ChangedIndexDiffs() []*IndexDiff { return d.indexes.changed }
func (d *TableDiff) DeletedIndexDiffs() []*IndexDiff { return d.indexes.deleted }

// HasDifference also considers the nested column and constraint diffs.
func (d *TableDiff) HasDifference() bool {
	if d.entityDiff.HasDifference() {
		return true
	}
	return d.columns.hasDifference() ||
		d.primaryKeys.hasDifference() ||
		d.foreignKeys.hasDifference() ||
		d.uniqueKeys.hasDifference() ||
		d.indexes.hasDifference()
}

// DiffMap returns the serialized form including nested diffs.
func (d *TableDiff) DiffMap() map[string]any {
	m := d.baseDiffMap()
	writeNested(d, tableNestedHandlers, m)
	return m
}

// diffTables matches tables by identity and compares each pair.
func diffTables(o *options, target *SchemaDiff, next, previous []introspect.Table) {
	previousByName := make(map[string]*introspect.Table, len(previous))
	for i := range previous {
		previousByName[o.tableIdentity(&previous[i])] = &previous[i]
	}
	nextNames := make(map[string]bool, len(next))
	for i := range next {
		table := &next[i]
		name := o.tableIdentity(table)
		nextNames[name] = true
		prev, ok := previousByName[name]
		if !ok {
			target.tables.add(newTableDiff(name, Added))
			continue
		}
		d := newTableDiff(name, Changed)
		compareTable(o, d, table, prev)
		if d.HasDifference() {
			target.tables.add(d)
		}
	}
	for i := range previous {
		name := o.tableIdentity(&previous[i])
		if !nextNames[name] {
			target.tables.add(newTableDiff(name, Deleted))
		}
	}
}

func compareTable(o *options, d *TableDiff, next, previous *introspect.Table) {
	runDiffers(o, &d.entityDiff, tableDiffers, next, previous)
	diffColumns(o, d, next, previous)
	diffPrimaryKey(o, d, next.PrimaryKey, previous.PrimaryKey)
	foreignKeyMatcher.match(o, d, next, previous)
	uniqueKeyMatcher.match(o, d, next, previous)
	indexMatcher.match(o, d, next, previous)
}
