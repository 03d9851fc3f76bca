package diff

import (
	"github.com/satishbabariya/schemadiff/migrate/diff/flavour"
	"github.com/satishbabariya/schemadiff/migrate/introspect"
)

const (
	addedAutoNameSuffix   = "(new)"
	deletedAutoNameSuffix = "(old)"
)

// constraintMatcher finds correspondences between the named or unnamed
// constraint-like keys of two table versions.
type constraintMatcher[K any, D entity] struct {
	kind          flavour.ConstraintKind
	keys          func(t *introspect.Table) []K
	name          func(k K) string
	columns       func(k K) string
	sameStructure func(next, previous K) bool
	create        func(identity string, diffType DiffType) D
	diff          func(o *options, target D, next, previous K)
	list          func(t *TableDiff) *nestedDiffs[D]
}

// match runs the three passes: name, structure, emit. Pairs found by
// structure only differ in name and are not reported.
func (m constraintMatcher[K, D]) match(o *options, target *TableDiff, next, previous *introspect.Table) {
	nextKeys := m.keys(next)
	previousKeys := m.keys(previous)

	nextToPrevious := make(map[int]int)
	previousToNext := make(map[int]int)
	sameStructure := make(map[int]bool)

	for i, nk := range nextKeys {
		name := m.name(nk)
		if m.autoGenerated(o, name) {
			continue
		}
		for j, pk := range previousKeys {
			if _, ok := previousToNext[j]; ok {
				continue
			}
			if m.name(pk) == name {
				nextToPrevious[i] = j
				previousToNext[j] = i
				break
			}
		}
	}

	for i, nk := range nextKeys {
		if _, ok := nextToPrevious[i]; ok {
			continue
		}
		for j, pk := range previousKeys {
			if _, ok := previousToNext[j]; ok {
				continue
			}
			if m.sameStructure(nk, pk) {
				nextToPrevious[i] = j
				previousToNext[j] = i
				sameStructure[i] = true
				break
			}
		}
	}

	list := m.list(target)
	for i, nk := range nextKeys {
		j, ok := nextToPrevious[i]
		if !ok || sameStructure[i] {
			continue
		}
		d := m.create(m.identity(o, nk, ""), Changed)
		m.diff(o, d, nk, previousKeys[j])
		if d.HasDifference() {
			list.add(d)
		}
	}
	for i, nk := range nextKeys {
		if _, ok := nextToPrevious[i]; !ok {
			list.add(m.create(m.identity(o, nk, addedAutoNameSuffix), Added))
		}
	}
	for j, pk := range previousKeys {
		if _, ok := previousToNext[j]; !ok {
			list.add(m.create(m.identity(o, pk, deletedAutoNameSuffix), Deleted))
		}
	}
}

func (m constraintMatcher[K, D]) autoGenerated(o *options, name string) bool {
	return name == "" || o.flavour.IsAutoGeneratedName(m.kind, name)
}

// identity is the constraint name, or the column list of an unnamed key.
// Auto-generated names get the suffix so that an unrelated added and
// deleted key never share one identity.
func (m constraintMatcher[K, D]) identity(o *options, k K, autoSuffix string) string {
	name := m.name(k)
	identity := name
	if identity == "" {
		identity = m.columns(k)
	}
	if autoSuffix != "" && m.autoGenerated(o, name) {
		identity += autoSuffix
	}
	return identity
}
