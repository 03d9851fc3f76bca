package diff

import (
	"github.com/shopspring/decimal"

	"github.com/satishbabariya/schemadiff/migrate/introspect"
)

const (
	sequenceNameKey        = "sequenceName"
	minimumValueDiffKey    = "minimumValueDiff"
	maximumValueDiffKey    = "maximumValueDiff"
	incrementSizeDiffKey   = "incrementSizeDiff"
	sequenceCommentDiffKey = "sequenceCommentDiff"
)

var sequenceAttributes = []attribute{
	{key: unifiedSchemaDiffKey, title: "Schema"},
	{key: minimumValueDiffKey, title: "Minimum Value"},
	{key: maximumValueDiffKey, title: "Maximum Value"},
	{key: incrementSizeDiffKey, title: "Increment Size"},
	{key: sequenceCommentDiffKey, title: "Sequence Comment", quoted: true},
}

var sequenceDiffers = []attributeDiffer[*introspect.Sequence]{
	stringDiffer(unifiedSchemaDiffKey, func(s *introspect.Sequence) *string { return optional(s.Schema) }).
		when(checkSchema),
	decimalDiffer(minimumValueDiffKey, func(s *introspect.Sequence) *decimal.Decimal { return s.MinimumValue }),
	decimalDiffer(maximumValueDiffKey, func(s *introspect.Sequence) *decimal.Decimal { return s.MaximumValue }),
	decimalDiffer(incrementSizeDiffKey, func(s *introspect.Sequence) *decimal.Decimal { return s.IncrementSize }),
	stringDiffer(sequenceCommentDiffKey, func(s *introspect.Sequence) *string { return s.Comment }).
		when(checkDBComment),
}

// SequenceDiff is the difference of one sequence.
type SequenceDiff struct {
	entityDiff
}

func newSequenceDiff(name string, diffType DiffType) *SequenceDiff {
	return &SequenceDiff{entityDiff: newEntityDiff(sequenceNameKey, sequenceAttributes, name, diffType)}
}

func parseSequenceDiff(m map[string]any) (*SequenceDiff, error) {
	base, err := parseEntityDiff(sequenceNameKey, sequenceAttributes, m)
	if err != nil {
		return nil, err
	}
	return &SequenceDiff{entityDiff: base}, nil
}

func (d *SequenceDiff) SequenceName() string { return d.identity }

func (d *SequenceDiff) UnifiedSchemaDiff() *NextPreviousValue   { return d.values[unifiedSchemaDiffKey] }
func (d *SequenceDiff) MinimumValueDiff() *NextPreviousValue    { return d.values[minimumValueDiffKey] }
func (d *SequenceDiff) MaximumValueDiff() *NextPreviousValue    { return d.values[maximumValueDiffKey] }
func (d *SequenceDiff) IncrementSizeDiff() *NextPreviousValue   { return d.values[incrementSizeDiffKey] }
func (d *SequenceDiff) SequenceCommentDiff() *NextPreviousValue { return d.values[sequenceCommentDiffKey] }

// DiffMap returns the serialized form.
func (d *SequenceDiff) DiffMap() map[string]any {
	return d.baseDiffMap()
}

// diffSequences matches user sequences by unique name. Sequences generated
// by the database are skipped on both sides.
func diffSequences(o *options, target *SchemaDiff, next, previous []introspect.Sequence) {
	previousByName := make(map[string]*introspect.Sequence, len(previous))
	for i := range previous {
		if o.flavour.IsSystemSequence(previous[i].Name) {
			continue
		}
		previousByName[previous[i].UniqueName()] = &previous[i]
	}
	nextNames := make(map[string]bool, len(next))
	for i := range next {
		seq := &next[i]
		if o.flavour.IsSystemSequence(seq.Name) {
			continue
		}
		name := seq.UniqueName()
		nextNames[name] = true
		prev, ok := previousByName[name]
		if !ok {
			target.sequences.add(newSequenceDiff(name, Added))
			continue
		}
		d := newSequenceDiff(name, Changed)
		runDiffers(o, &d.entityDiff, sequenceDiffers, seq, prev)
		if d.HasDifference() {
			target.sequences.add(d)
		}
	}
	for i := range previous {
		if o.flavour.IsSystemSequence(previous[i].Name) {
			continue
		}
		if name := previous[i].UniqueName(); !nextNames[name] {
			target.sequences.add(newSequenceDiff(name, Deleted))
		}
	}
}
