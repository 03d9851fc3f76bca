package diff

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/satishbabariya/schemadiff/migrate/introspect"
)

// DiffDateLayout is the persisted format of the diff date.
const DiffDateLayout = "2006/01/02 15:04:05"

const (
	diffDateKey      = "diffDate"
	commentKey       = "comment"
	tableCountKey    = "tableCount"
	tableDiffKey     = "tableDiff"
	sequenceDiffKey  = "sequenceDiff"
	procedureDiffKey = "procedureDiff"
	craftDiffKey     = "craftDiff"
)

// SchemaSource supplies one schema snapshot.
type SchemaSource interface {
	// Name identifies the source in errors and logs.
	Name() string
	// Exists reports whether a snapshot is available at all.
	Exists(ctx context.Context) (bool, error)
	// Load reads the snapshot.
	Load(ctx context.Context) (*introspect.DatabaseSchema, error)
}

type state int

const (
	stateUninitialized state = iota
	statePreviousLoaded
	stateFirstTime
	stateLoadingFailure
	stateNextLoaded
	stateAnalyzed
	stateSerialized
)

func (s state) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case statePreviousLoaded:
		return "previous loaded"
	case stateFirstTime:
		return "first time"
	case stateLoadingFailure:
		return "loading failure"
	case stateNextLoaded:
		return "next loaded"
	case stateAnalyzed:
		return "analyzed"
	case stateSerialized:
		return "serialized"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var schemaNestedHandlers = []nestedHandler[*SchemaDiff]{
	nested(tableDiffKey, func(sd *SchemaDiff) *nestedDiffs[*TableDiff] { return &sd.tables }, parseTableDiff),
	nested(sequenceDiffKey, func(sd *SchemaDiff) *nestedDiffs[*SequenceDiff] { return &sd.sequences }, parseSequenceDiff),
	nested(procedureDiffKey, func(sd *SchemaDiff) *nestedDiffs[*ProcedureDiff] { return &sd.procedures }, parseProcedureDiff),
	nested(craftDiffKey, func(sd *SchemaDiff) *nestedDiffs[*CraftTitleDiff] { return &sd.craftTitles }, parseCraftTitleDiff),
}

// SchemaDiff compares a previous and a next schema snapshot. One instance
// serves one run and is not safe for concurrent use:
//
//	sd := NewSchemaDiff(previous, next)
//	if err := sd.LoadPreviousSchema(ctx); err != nil || sd.IsFirstTime() { ... }
//	if err := sd.LoadNextSchema(ctx); err != nil { ... }
//	if err := sd.AnalyzeDiff(); err != nil { ... }
//	m := sd.CreateSchemaDiffMap()
type SchemaDiff struct {
	opts     options
	previous SchemaSource
	next     SchemaSource
	state    state

	previousSchema *introspect.DatabaseSchema
	nextSchema     *introspect.DatabaseSchema

	diffDate   time.Time
	comment    *string
	tableCount *NextPreviousValue

	tables      nestedDiffs[*TableDiff]
	sequences   nestedDiffs[*SequenceDiff]
	procedures  nestedDiffs[*ProcedureDiff]
	craftTitles nestedDiffs[*CraftTitleDiff]
}

// NewSchemaDiff creates a comparison of two snapshot sources.
func NewSchemaDiff(previous, next SchemaSource, opts ...Option) *SchemaDiff {
	return &SchemaDiff{
		opts:     newOptions(opts),
		previous: previous,
		next:     next,
	}
}

// NewSchemaDiffForSerializer creates an instance that is only filled by
// AcceptSchemaDiffMap.
func NewSchemaDiffForSerializer(opts ...Option) *SchemaDiff {
	return &SchemaDiff{opts: newOptions(opts)}
}

// LoadPreviousSchema reads the previous snapshot. A missing snapshot ends
// the run as first time, a read failure ends it as loading failure.
func (sd *SchemaDiff) LoadPreviousSchema(ctx context.Context) error {
	if sd.state != stateUninitialized || sd.previous == nil {
		panic(illegalState("cannot load the previous schema in state %s", sd.state))
	}
	name := sd.previous.Name()
	exists, err := sd.previous.Exists(ctx)
	if err != nil {
		sd.state = stateLoadingFailure
		return &SnapshotLoadError{Source: name, Err: err}
	}
	if !exists {
		sd.state = stateFirstTime
		sd.opts.log.Debug("no previous schema, first time", slog.String("source", name))
		return nil
	}
	schema, err := sd.previous.Load(ctx)
	if err != nil {
		sd.state = stateLoadingFailure
		return &SnapshotLoadError{Source: name, Err: err}
	}
	sd.previousSchema = schema
	sd.state = statePreviousLoaded
	sd.opts.log.Debug("loaded previous schema",
		slog.String("source", name),
		slog.Int("count", len(schema.Tables)),
	)
	return nil
}

// LoadNextSchema reads the next snapshot, stamps the diff date and counts
// tables. It must follow a successful LoadPreviousSchema.
func (sd *SchemaDiff) LoadNextSchema(ctx context.Context) error {
	if sd.state != statePreviousLoaded || sd.next == nil {
		panic(illegalState("cannot load the next schema in state %s", sd.state))
	}
	name := sd.next.Name()
	schema, err := sd.next.Load(ctx)
	if err != nil {
		return &SnapshotLoadError{Source: name, Err: err}
	}
	sd.nextSchema = schema
	sd.diffDate = sd.opts.clock().Truncate(time.Second)
	sd.tableCount = NewNextPreviousValue(
		ptr(strconv.Itoa(len(schema.Tables))),
		ptr(strconv.Itoa(len(sd.previousSchema.Tables))),
	)
	sd.state = stateNextLoaded
	sd.opts.log.Debug("loaded next schema",
		slog.String("source", name),
		slog.Int("count", len(schema.Tables)),
	)
	return nil
}

// AnalyzeDiff compares tables, sequences, procedures and craft meta in
// that order. It must run after LoadNextSchema; when reading the craft meta
// fails nothing is compared and it may be called again.
func (sd *SchemaDiff) AnalyzeDiff() error {
	if sd.state != stateNextLoaded {
		panic(illegalState("cannot analyze the diff in state %s", sd.state))
	}
	o := &sd.opts
	// craft files are read first so a failure leaves no partial diff behind
	var craftNext, craftPrevious *craftMeta
	if o.craft != nil {
		var err error
		craftNext, craftPrevious, err = o.craft.load()
		if err != nil {
			return err
		}
	}
	diffTables(o, sd, sd.nextSchema.Tables, sd.previousSchema.Tables)
	diffSequences(o, sd, sd.nextSchema.Sequences, sd.previousSchema.Sequences)
	diffProcedures(o, sd, sd.nextSchema.Procedures, sd.previousSchema.Procedures)
	if o.craft != nil {
		diffCraft(sd, craftNext, craftPrevious)
	}
	sd.state = stateAnalyzed
	o.log.Debug("analyzed schema diff",
		slog.Int("tables", len(sd.tables.all)),
		slog.Int("sequences", len(sd.sequences.all)),
		slog.Int("procedures", len(sd.procedures.all)),
		slog.Int("craft", len(sd.craftTitles.all)),
	)
	return nil
}

// IsFirstTime reports that no previous snapshot existed.
func (sd *SchemaDiff) IsFirstTime() bool {
	return sd.state == stateFirstTime
}

// IsLoadingFailure reports that the previous snapshot could not be read.
func (sd *SchemaDiff) IsLoadingFailure() bool {
	return sd.state == stateLoadingFailure
}

// HasDifference reports whether any nested diff has a difference.
func (sd *SchemaDiff) HasDifference() bool {
	return sd.tables.hasDifference() ||
		sd.sequences.hasDifference() ||
		sd.procedures.hasDifference() ||
		sd.craftTitles.hasDifference()
}

// HasTableCountDifference reports whether the number of tables changed.
func (sd *SchemaDiff) HasTableCountDifference() bool {
	return sd.tableCount != nil && sd.tableCount.HasDifference()
}

// CreateSchemaDiffMap serializes the analyzed diff.
func (sd *SchemaDiff) CreateSchemaDiffMap() map[string]any {
	if sd.state != stateAnalyzed && sd.state != stateSerialized {
		panic(illegalState("cannot serialize the diff in state %s", sd.state))
	}
	m := map[string]any{
		diffDateKey: sd.diffDate.Format(DiffDateLayout),
	}
	if sd.comment != nil {
		m[commentKey] = *sd.comment
	}
	if sd.HasTableCountDifference() {
		m[tableCountKey] = sd.tableCount.ToMap()
	}
	writeNested(sd, schemaNestedHandlers, m)
	sd.state = stateSerialized
	return m
}

// AcceptSchemaDiffMap restores a diff serialized by CreateSchemaDiffMap.
func (sd *SchemaDiff) AcceptSchemaDiffMap(m map[string]any) error {
	if sd.state != stateUninitialized {
		panic(illegalState("cannot accept a diff map in state %s", sd.state))
	}
	date, err := requireString(m, diffDateKey)
	if err != nil {
		return err
	}
	diffDate, err := time.ParseInLocation(DiffDateLayout, date, time.Local)
	if err != nil {
		return &DiffMapError{Key: diffDateKey, Reason: err.Error(), Map: m}
	}
	comment, err := optionalString(m, commentKey)
	if err != nil {
		return err
	}
	tableCountMap, err := optionalMap(m, tableCountKey)
	if err != nil {
		return err
	}
	if tableCountMap != nil {
		tableCount, err := NextPreviousFromMap(tableCountMap)
		if err != nil {
			return err
		}
		sd.tableCount = tableCount
	}
	if err := readNested(sd, schemaNestedHandlers, m); err != nil {
		return err
	}
	sd.diffDate = diffDate
	sd.comment = comment
	sd.state = stateAnalyzed
	return nil
}

// DiffDate returns the time the next schema was loaded.
func (sd *SchemaDiff) DiffDate() time.Time {
	return sd.diffDate
}

// Comment returns the user comment of the diff, nil when not set.
func (sd *SchemaDiff) Comment() *string {
	return sd.comment
}

// SetComment attaches a user comment. An empty comment clears it.
func (sd *SchemaDiff) SetComment(comment string) {
	sd.comment = optional(comment)
}

// TableCount returns the next/previous table count pair, nil until the
// next schema is loaded or when restored without a count change.
func (sd *SchemaDiff) TableCount() *NextPreviousValue {
	return sd.tableCount
}

// PreviousSchema returns the loaded previous snapshot.
func (sd *SchemaDiff) PreviousSchema() *introspect.DatabaseSchema {
	return sd.previousSchema
}

// NextSchema returns the loaded next snapshot.
func (sd *SchemaDiff) NextSchema() *introspect.DatabaseSchema {
	return sd.nextSchema
}

func (sd *SchemaDiff) TableDiffs() []*TableDiff        { return sd.tables.all }
func (sd *SchemaDiff) AddedTableDiffs() []*TableDiff   { return sd.tables.added }
func (sd *SchemaDiff) ChangedTableDiffs() []*TableDiff { return sd.tables.changed }
func (sd *SchemaDiff) DeletedTableDiffs() []*TableDiff { return sd.tables.deleted }

func (sd *SchemaDiff) SequenceDiffs() []*SequenceDiff        { return sd.sequences.all }
func (sd *SchemaDiff) AddedSequenceDiffs() []*SequenceDiff   { return sd.sequences.added }
func (sd *SchemaDiff) ChangedSequenceDiffs() []*SequenceDiff { return sd.sequences.changed }
func (sd *SchemaDiff) DeletedSequenceDiffs() []*SequenceDiff { return sd.sequences.deleted }

func (sd *SchemaDiff) ProcedureDiffs() []*ProcedureDiff        { return sd.procedures.all }
func (sd *SchemaDiff) AddedProcedureDiffs() []*ProcedureDiff   { return sd.procedures.added }
func (sd *SchemaDiff) ChangedProcedureDiffs() []*ProcedureDiff { return sd.procedures.changed }
func (sd *SchemaDiff) DeletedProcedureDiffs() []*ProcedureDiff { return sd.procedures.deleted }

func (sd *SchemaDiff) CraftTitleDiffs() []*CraftTitleDiff        { return sd.craftTitles.all }
func (sd *SchemaDiff) AddedCraftTitleDiffs() []*CraftTitleDiff   { return sd.craftTitles.added }
func (sd *SchemaDiff) ChangedCraftTitleDiffs() []*CraftTitleDiff { return sd.craftTitles.changed }
func (sd *SchemaDiff) DeletedCraftTitleDiffs() []*CraftTitleDiff { return sd.craftTitles.deleted }
