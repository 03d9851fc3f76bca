package diff

import (
	"github.com/satishbabariya/schemadiff/migrate/introspect"
)

const (
	procedureNameKey        = "procedureName"
	sourceLineDiffKey       = "sourceLineDiff"
	sourceSizeDiffKey       = "sourceSizeDiff"
	sourceHashDiffKey       = "sourceHashDiff"
	procedureCommentDiffKey = "procedureCommentDiff"
)

var procedureAttributes = []attribute{
	{key: sourceLineDiffKey, title: "Source Line"},
	{key: sourceSizeDiffKey, title: "Source Size"},
	{key: sourceHashDiffKey, title: "Source Hash"},
	{key: procedureCommentDiffKey, title: "Procedure Comment", quoted: true},
}

var procedureDiffers = []attributeDiffer[*introspect.Procedure]{
	intDiffer(sourceLineDiffKey, func(p *introspect.Procedure) int { return p.SourceLine }).
		matching(sameSourceMetric),
	intDiffer(sourceSizeDiffKey, func(p *introspect.Procedure) int { return p.SourceSize }).
		matching(sameSourceMetric),
	stringDiffer(sourceHashDiffKey, func(p *introspect.Procedure) *string { return optional(p.SourceHash) }).
		matching(sameSourceHash),
	stringDiffer(procedureCommentDiffKey, func(p *introspect.Procedure) *string { return p.Comment }).
		when(checkDBComment),
}

// Either side without source metadata matches anything.
func sameSourceMetric(_ *options, next, previous int) bool {
	if next == introspect.NoSourceMetadata || previous == introspect.NoSourceMetadata {
		return true
	}
	return next == previous
}

func sameSourceHash(_ *options, next, previous *string) bool {
	if isNoSourceHash(next) || isNoSourceHash(previous) {
		return true
	}
	return same(next, previous)
}

func isNoSourceHash(hash *string) bool {
	return hash != nil && *hash == introspect.NoSourceHash
}

// ProcedureDiff is the difference of one procedure.
type ProcedureDiff struct {
	entityDiff
}

func newProcedureDiff(name string, diffType DiffType) *ProcedureDiff {
	return &ProcedureDiff{entityDiff: newEntityDiff(procedureNameKey, procedureAttributes, name, diffType)}
}

func parseProcedureDiff(m map[string]any) (*ProcedureDiff, error) {
	base, err := parseEntityDiff(procedureNameKey, procedureAttributes, m)
	if err != nil {
		return nil, err
	}
	return &ProcedureDiff{entityDiff: base}, nil
}

func (d *ProcedureDiff) ProcedureName() string { return d.identity }

func (d *ProcedureDiff) SourceLineDiff() *NextPreviousValue       { return d.values[sourceLineDiffKey] }
func (d *ProcedureDiff) SourceSizeDiff() *NextPreviousValue       { return d.values[sourceSizeDiffKey] }
func (d *ProcedureDiff) SourceHashDiff() *NextPreviousValue       { return d.values[sourceHashDiffKey] }
func (d *ProcedureDiff) ProcedureCommentDiff() *NextPreviousValue { return d.values[procedureCommentDiffKey] }

// DiffMap returns the serialized form.
func (d *ProcedureDiff) DiffMap() map[string]any {
	return d.baseDiffMap()
}

func diffProcedures(o *options, target *SchemaDiff, next, previous []introspect.Procedure) {
	previousByName := make(map[string]*introspect.Procedure, len(previous))
	for i := range previous {
		previousByName[previous[i].UniqueName()] = &previous[i]
	}
	nextNames := make(map[string]bool, len(next))
	for i := range next {
		proc := &next[i]
		name := proc.UniqueName()
		nextNames[name] = true
		prev, ok := previousByName[name]
		if !ok {
			target.procedures.add(newProcedureDiff(name, Added))
			continue
		}
		d := newProcedureDiff(name, Changed)
		runDiffers(o, &d.entityDiff, procedureDiffers, proc, prev)
		if d.HasDifference() {
			target.procedures.add(d)
		}
	}
	for i := range previous {
		if name := previous[i].UniqueName(); !nextNames[name] {
			target.procedures.add(newProcedureDiff(name, Deleted))
		}
	}
}
