package diff

import (
	"slices"

	"github.com/satishbabariya/schemadiff/migrate/diff/flavour"
	"github.com/satishbabariya/schemadiff/migrate/introspect"
)

const (
	constraintNameKey   = "constraintName"
	nameDiffKey         = "nameDiff"
	columnDiffKey       = "columnDiff"
	foreignTableDiffKey = "foreignTableDiff"
)

var constraintAttributes = []attribute{
	{key: nameDiffKey, title: "Name"},
	{key: columnDiffKey, title: "Column"},
}

var foreignKeyAttributes = []attribute{
	{key: nameDiffKey, title: "Name"},
	{key: columnDiffKey, title: "Column"},
	{key: foreignTableDiffKey, title: "Foreign Table"},
}

// ConstraintDiff is the common shape of primary key, unique key, index and
// foreign key differences.
type ConstraintDiff struct {
	entityDiff
}

// ConstraintName returns the identity of the constraint. Unnamed
// constraints are identified by their column list.
func (d *ConstraintDiff) ConstraintName() string { return d.identity }

func (d *ConstraintDiff) NameDiff() *NextPreviousValue   { return d.values[nameDiffKey] }
func (d *ConstraintDiff) ColumnDiff() *NextPreviousValue { return d.values[columnDiffKey] }

// DiffMap returns the serialized form.
func (d *ConstraintDiff) DiffMap() map[string]any {
	return d.baseDiffMap()
}

func newConstraintDiff(attributes []attribute, identity string, diffType DiffType) ConstraintDiff {
	return ConstraintDiff{entityDiff: newEntityDiff(constraintNameKey, attributes, identity, diffType)}
}

func parseConstraintDiff(attributes []attribute, m map[string]any) (ConstraintDiff, error) {
	base, err := parseEntityDiff(constraintNameKey, attributes, m)
	if err != nil {
		return ConstraintDiff{}, err
	}
	return ConstraintDiff{entityDiff: base}, nil
}

type PrimaryKeyDiff struct {
	ConstraintDiff
}

func newPrimaryKeyDiff(identity string, diffType DiffType) *PrimaryKeyDiff {
	return &PrimaryKeyDiff{ConstraintDiff: newConstraintDiff(constraintAttributes, identity, diffType)}
}

func parsePrimaryKeyDiff(m map[string]any) (*PrimaryKeyDiff, error) {
	base, err := parseConstraintDiff(constraintAttributes, m)
	if err != nil {
		return nil, err
	}
	return &PrimaryKeyDiff{ConstraintDiff: base}, nil
}

type UniqueKeyDiff struct {
	ConstraintDiff
}

func newUniqueKeyDiff(identity string, diffType DiffType) *UniqueKeyDiff {
	return &UniqueKeyDiff{ConstraintDiff: newConstraintDiff(constraintAttributes, identity, diffType)}
}

func parseUniqueKeyDiff(m map[string]any) (*UniqueKeyDiff, error) {
	base, err := parseConstraintDiff(constraintAttributes, m)
	if err != nil {
		return nil, err
	}
	return &UniqueKeyDiff{ConstraintDiff: base}, nil
}

type IndexDiff struct {
	ConstraintDiff
}

func newIndexDiff(identity string, diffType DiffType) *IndexDiff {
	return &IndexDiff{ConstraintDiff: newConstraintDiff(constraintAttributes, identity, diffType)}
}

func parseIndexDiff(m map[string]any) (*IndexDiff, error) {
	base, err := parseConstraintDiff(constraintAttributes, m)
	if err != nil {
		return nil, err
	}
	return &IndexDiff{ConstraintDiff: base}, nil
}

type ForeignKeyDiff struct {
	ConstraintDiff
}

func newForeignKeyDiff(identity string, diffType DiffType) *ForeignKeyDiff {
	return &ForeignKeyDiff{ConstraintDiff: newConstraintDiff(foreignKeyAttributes, identity, diffType)}
}

func parseForeignKeyDiff(m map[string]any) (*ForeignKeyDiff, error) {
	base, err := parseConstraintDiff(foreignKeyAttributes, m)
	if err != nil {
		return nil, err
	}
	return &ForeignKeyDiff{ConstraintDiff: base}, nil
}

func (d *ForeignKeyDiff) ForeignTableDiff() *NextPreviousValue { return d.values[foreignTableDiffKey] }

var primaryKeyNameDiffers = []attributeDiffer[*introspect.PrimaryKey]{
	stringDiffer(nameDiffKey, func(pk *introspect.PrimaryKey) *string { return optional(pk.Name) }),
}

var primaryKeyDiffers = []attributeDiffer[*introspect.PrimaryKey]{
	stringDiffer(columnDiffKey, func(pk *introspect.PrimaryKey) *string { return optional(pk.ColumnList()) }),
}

var uniqueKeyDiffers = []attributeDiffer[*introspect.UniqueKey]{
	stringDiffer(columnDiffKey, func(uq *introspect.UniqueKey) *string { return optional(uq.ColumnList()) }),
}

var indexDiffers = []attributeDiffer[*introspect.Index]{
	stringDiffer(columnDiffKey, func(idx *introspect.Index) *string { return optional(indexColumnList(idx)) }),
}

var foreignKeyDiffers = []attributeDiffer[*introspect.ForeignKey]{
	stringDiffer(columnDiffKey, func(fk *introspect.ForeignKey) *string { return optional(fk.ColumnList()) }),
	stringDiffer(foreignTableDiffKey, func(fk *introspect.ForeignKey) *string { return optional(fk.ReferencedTable) }),
}

// indexColumnList carries the uniqueness into the compared column list so
// that a unique flag flip surfaces in the column slot.
func indexColumnList(idx *introspect.Index) string {
	if idx.IsUnique {
		return idx.ColumnList() + " (unique)"
	}
	return idx.ColumnList()
}

// diffPrimaryKey compares the single primary key of a table pair. A rename
// that keeps the same columns is not reported.
func diffPrimaryKey(o *options, target *TableDiff, next, previous *introspect.PrimaryKey) {
	switch {
	case next == nil && previous == nil:
		return
	case next == nil:
		target.primaryKeys.add(newPrimaryKeyDiff(primaryKeyIdentity(previous), Deleted))
		return
	case previous == nil:
		target.primaryKeys.add(newPrimaryKeyDiff(primaryKeyIdentity(next), Added))
		return
	}

	if next.ColumnList() == previous.ColumnList() {
		return
	}
	d := newPrimaryKeyDiff(primaryKeyIdentity(next), Changed)
	if next.Name != previous.Name {
		runDiffers(o, &d.entityDiff, primaryKeyNameDiffers, next, previous)
	}
	runDiffers(o, &d.entityDiff, primaryKeyDiffers, next, previous)
	if d.HasDifference() {
		target.primaryKeys.add(d)
	}
}

func primaryKeyIdentity(pk *introspect.PrimaryKey) string {
	if pk.Name != "" {
		return pk.Name
	}
	return pk.ColumnList()
}

var uniqueKeyMatcher = constraintMatcher[*introspect.UniqueKey, *UniqueKeyDiff]{
	kind: flavour.UniqueKey,
	keys: func(t *introspect.Table) []*introspect.UniqueKey {
		return pointers(t.UniqueKeys)
	},
	name:    func(uq *introspect.UniqueKey) string { return uq.Name },
	columns: func(uq *introspect.UniqueKey) string { return uq.ColumnList() },
	sameStructure: func(next, previous *introspect.UniqueKey) bool {
		return next.ColumnList() == previous.ColumnList()
	},
	create: newUniqueKeyDiff,
	diff: func(o *options, target *UniqueKeyDiff, next, previous *introspect.UniqueKey) {
		runDiffers(o, &target.entityDiff, uniqueKeyDiffers, next, previous)
	},
	list: func(t *TableDiff) *nestedDiffs[*UniqueKeyDiff] { return &t.uniqueKeys },
}

var indexMatcher = constraintMatcher[*introspect.Index, *IndexDiff]{
	kind: flavour.Index,
	keys: func(t *introspect.Table) []*introspect.Index {
		return pointers(t.Indexes)
	},
	name:    func(idx *introspect.Index) string { return idx.Name },
	columns: func(idx *introspect.Index) string { return idx.ColumnList() },
	sameStructure: func(next, previous *introspect.Index) bool {
		return next.ColumnList() == previous.ColumnList() && next.IsUnique == previous.IsUnique
	},
	create: newIndexDiff,
	diff: func(o *options, target *IndexDiff, next, previous *introspect.Index) {
		runDiffers(o, &target.entityDiff, indexDiffers, next, previous)
	},
	list: func(t *TableDiff) *nestedDiffs[*IndexDiff] { return &t.indexes },
}

var foreignKeyMatcher = constraintMatcher[*introspect.ForeignKey, *ForeignKeyDiff]{
	kind: flavour.ForeignKey,
	keys: func(t *introspect.Table) []*introspect.ForeignKey {
		return pointers(t.ForeignKeys)
	},
	name:    func(fk *introspect.ForeignKey) string { return fk.Name },
	columns: func(fk *introspect.ForeignKey) string { return fk.ColumnList() },
	sameStructure: func(next, previous *introspect.ForeignKey) bool {
		return next.ColumnList() == previous.ColumnList() &&
			next.ReferencedTable == previous.ReferencedTable &&
			slices.Equal(next.ReferencedColumns, previous.ReferencedColumns)
	},
	create: newForeignKeyDiff,
	diff: func(o *options, target *ForeignKeyDiff, next, previous *introspect.ForeignKey) {
		runDiffers(o, &target.entityDiff, foreignKeyDiffers, next, previous)
	},
	list: func(t *TableDiff) *nestedDiffs[*ForeignKeyDiff] { return &t.foreignKeys },
}

func pointers[T any](items []T) []*T {
	result := make([]*T, len(items))
	for i := range items {
		result[i] = &items[i]
	}
	return result
}
