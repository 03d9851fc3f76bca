package diff

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// attributeDiffer compares one attribute of an entity pair. It returns nil
// when the values match.
type attributeDiffer[E any] interface {
	property() string
	diff(o *options, next, previous E) *NextPreviousValue
}

// valueDiffer is the attribute differ for an extracted value of type V.
type valueDiffer[E, V any] struct {
	key     string
	enabled func(o *options) bool
	extract func(E) V
	matches func(o *options, next, previous V) bool
	display func(V) *string
}

func (d valueDiffer[E, V]) property() string {
	return d.key
}

func (d valueDiffer[E, V]) diff(o *options, next, previous E) *NextPreviousValue {
	if d.enabled != nil && !d.enabled(o) {
		return nil
	}
	nv, pv := d.extract(next), d.extract(previous)
	if d.matches(o, nv, pv) {
		return nil
	}
	return NewNextPreviousValue(d.display(nv), d.display(pv))
}

// when restricts the differ to comparisons where enabled returns true.
func (d valueDiffer[E, V]) when(enabled func(o *options) bool) valueDiffer[E, V] {
	d.enabled = enabled
	return d
}

// matching replaces the default match rule.
func (d valueDiffer[E, V]) matching(matches func(o *options, next, previous V) bool) valueDiffer[E, V] {
	d.matches = matches
	return d
}

func stringDiffer[E any](key string, extract func(E) *string) valueDiffer[E, *string] {
	return valueDiffer[E, *string]{
		key:     key,
		extract: extract,
		matches: func(_ *options, next, previous *string) bool {
			return same(next, previous)
		},
		display: func(v *string) *string {
			return v
		},
	}
}

func boolDiffer[E any](key string, extract func(E) bool) valueDiffer[E, bool] {
	return valueDiffer[E, bool]{
		key:     key,
		extract: extract,
		matches: func(_ *options, next, previous bool) bool {
			return next == previous
		},
		display: func(v bool) *string {
			return ptr(strconv.FormatBool(v))
		},
	}
}

func intDiffer[E any](key string, extract func(E) int) valueDiffer[E, int] {
	return valueDiffer[E, int]{
		key:     key,
		extract: extract,
		matches: func(_ *options, next, previous int) bool {
			return next == previous
		},
		display: func(v int) *string {
			return ptr(strconv.Itoa(v))
		},
	}
}

func decimalDiffer[E any](key string, extract func(E) *decimal.Decimal) valueDiffer[E, *decimal.Decimal] {
	return valueDiffer[E, *decimal.Decimal]{
		key:     key,
		extract: extract,
		matches: func(_ *options, next, previous *decimal.Decimal) bool {
			if next == nil || previous == nil {
				return next == nil && previous == nil
			}
			return next.Equal(*previous)
		},
		display: func(v *decimal.Decimal) *string {
			if v == nil {
				return nil
			}
			return ptr(v.String())
		},
	}
}

// runDiffers applies every differ of the kind to one entity pair.
func runDiffers[E any](o *options, target *entityDiff, differs []attributeDiffer[E], next, previous E) {
	for _, d := range differs {
		if v := d.diff(o, next, previous); v != nil {
			target.set(d.property(), v)
		}
	}
}

func checkDBComment(o *options) bool { return o.checkDBComment }

func checkSchema(o *options) bool { return !o.suppressSchema }
