package diff

import (
	"fmt"
	"sort"
)

const diffTypeKey = "diffType"

// entity is implemented by every per-kind diff.
type entity interface {
	Identity() string
	DiffType() DiffType
	HasDifference() bool
	DiffMap() map[string]any
}

// attribute declares one comparable attribute slot of an entity kind.
type attribute struct {
	key    string
	title  string
	quoted bool
}

// AttributeDiff is one recorded attribute change.
type AttributeDiff struct {
	Key   string
	Title string
	Value *NextPreviousValue
}

// entityDiff is the state shared by all per-kind diffs.
type entityDiff struct {
	identityKey string
	identity    string
	diffType    DiffType
	attributes  []attribute
	values      map[string]*NextPreviousValue
}

func newEntityDiff(identityKey string, attributes []attribute, identity string, diffType DiffType) entityDiff {
	return entityDiff{
		identityKey: identityKey,
		identity:    identity,
		diffType:    diffType,
		attributes:  attributes,
		values:      make(map[string]*NextPreviousValue),
	}
}

// Identity returns the name the diff is keyed by.
func (d *entityDiff) Identity() string {
	return d.identity
}

// DiffType returns whether the entity was added, changed or deleted.
func (d *entityDiff) DiffType() DiffType {
	return d.diffType
}

func (d *entityDiff) IsAdded() bool   { return d.diffType == Added }
func (d *entityDiff) IsChanged() bool { return d.diffType == Changed }
func (d *entityDiff) IsDeleted() bool { return d.diffType == Deleted }

// Attribute returns the recorded change of the given property key, or nil.
func (d *entityDiff) Attribute(key string) *NextPreviousValue {
	return d.values[key]
}

// Attributes returns the recorded changes in declaration order.
func (d *entityDiff) Attributes() []AttributeDiff {
	var result []AttributeDiff
	for _, attr := range d.attributes {
		if v := d.values[attr.key]; v != nil {
			result = append(result, AttributeDiff{Key: attr.key, Title: attr.title, Value: v})
		}
	}
	return result
}

func (d *entityDiff) set(key string, v *NextPreviousValue) {
	attr, ok := d.attribute(key)
	if !ok {
		panic(illegalState("unknown attribute %q for %s", key, d.identityKey))
	}
	if attr.quoted {
		v.MarkQuoteOnDisplay()
	}
	d.values[key] = v
}

func (d *entityDiff) attribute(key string) (attribute, bool) {
	for _, attr := range d.attributes {
		if attr.key == key {
			return attr, true
		}
	}
	return attribute{}, false
}

// hasAttributeDifference checks presence only: differs attach a value
// exclusively on mismatch.
func (d *entityDiff) hasAttributeDifference() bool {
	return len(d.values) > 0
}

// HasDifference is always true for an added or deleted entity.
func (d *entityDiff) HasDifference() bool {
	if d.diffType != Changed {
		return true
	}
	return d.hasAttributeDifference()
}

func (d *entityDiff) baseDiffMap() map[string]any {
	m := map[string]any{
		d.identityKey: d.identity,
		diffTypeKey:   d.diffType.String(),
	}
	for _, attr := range d.attributes {
		v := d.values[attr.key]
		if v == nil {
			continue
		}
		if attr.quoted {
			m[attr.key] = v.ToQuotedMap()
		} else {
			m[attr.key] = v.ToMap()
		}
	}
	return m
}

// parseEntityDiff restores identity, diff type and attribute slots.
func parseEntityDiff(identityKey string, attributes []attribute, m map[string]any) (entityDiff, error) {
	identity, err := requireString(m, identityKey)
	if err != nil {
		return entityDiff{}, err
	}
	diffType, err := requireDiffType(m)
	if err != nil {
		return entityDiff{}, err
	}
	d := newEntityDiff(identityKey, attributes, identity, diffType)
	for _, attr := range attributes {
		sub, err := optionalMap(m, attr.key)
		if err != nil {
			return entityDiff{}, err
		}
		if sub == nil {
			continue
		}
		var v *NextPreviousValue
		if attr.quoted {
			v, err = NextPreviousFromQuotedMap(sub)
		} else {
			v, err = NextPreviousFromMap(sub)
		}
		if err != nil {
			return entityDiff{}, err
		}
		d.set(attr.key, v)
	}
	return d, nil
}

// nestedDiffs holds one child collection split by diff type.
type nestedDiffs[D entity] struct {
	all     []D
	added   []D
	changed []D
	deleted []D
}

func (n *nestedDiffs[D]) add(d D) {
	switch d.DiffType() {
	case Added:
		n.added = append(n.added, d)
	case Changed:
		n.changed = append(n.changed, d)
	case Deleted:
		n.deleted = append(n.deleted, d)
	default:
		panic(illegalState("unknown diff type %v of %s", d.DiffType(), d.Identity()))
	}
	n.all = append(n.all, d)
}

func (n *nestedDiffs[D]) hasDifference() bool {
	for _, d := range n.all {
		if d.HasDifference() {
			return true
		}
	}
	return false
}

// diffMap returns identity -> entity map, or nil when empty.
func (n *nestedDiffs[D]) diffMap() map[string]any {
	if len(n.all) == 0 {
		return nil
	}
	m := make(map[string]any, len(n.all))
	for _, d := range n.all {
		m[d.Identity()] = d.DiffMap()
	}
	return m
}

func (n *nestedDiffs[D]) accept(m map[string]any, parse func(map[string]any) (D, error)) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sub, ok := m[k].(map[string]any)
		if !ok {
			return &DiffMapError{Key: k, Reason: fmt.Sprintf("must be a map but was %T", m[k]), Map: m}
		}
		d, err := parse(sub)
		if err != nil {
			return err
		}
		n.add(d)
	}
	return nil
}

// nestedHandler binds a child collection of parent P to its property key.
// The same handler drives serialization and deserialization.
type nestedHandler[P any] struct {
	key    string
	create func(p P) map[string]any
	accept func(p P, m map[string]any) error
}

func nested[P any, D entity](key string, list func(P) *nestedDiffs[D], parse func(map[string]any) (D, error)) nestedHandler[P] {
	return nestedHandler[P]{
		key: key,
		create: func(p P) map[string]any {
			return list(p).diffMap()
		},
		accept: func(p P, m map[string]any) error {
			return list(p).accept(m, parse)
		},
	}
}

func writeNested[P any](p P, handlers []nestedHandler[P], m map[string]any) {
	for _, h := range handlers {
		if sub := h.create(p); sub != nil {
			m[h.key] = sub
		}
	}
}

func readNested[P any](p P, handlers []nestedHandler[P], m map[string]any) error {
	for _, h := range handlers {
		sub, err := optionalMap(m, h.key)
		if err != nil {
			return err
		}
		if sub == nil {
			continue
		}
		if err := h.accept(p, sub); err != nil {
			return fmt.Errorf("%s: %w", h.key, err)
		}
	}
	return nil
}
