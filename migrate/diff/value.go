package diff

import (
	"strings"
)

const (
	nextKey     = "next"
	previousKey = "previous"

	nullDisplay = "(null)"
)

// same reports whether two optional values are the same: both nil, or both
// non-nil and equal.
func same[T comparable](a, b *T) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

// optional returns nil for the empty string.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func ptr[T any](v T) *T {
	return &v
}

// NextPreviousValue is the before/after state of one attribute.
type NextPreviousValue struct {
	next           *string
	previous       *string
	quoteOnDisplay bool
}

// NewNextPreviousValue creates a value pair.
func NewNextPreviousValue(next, previous *string) *NextPreviousValue {
	return &NextPreviousValue{next: next, previous: previous}
}

// Next returns the value in the next snapshot, nil when absent.
func (v *NextPreviousValue) Next() *string {
	return v.next
}

// Previous returns the value in the previous snapshot, nil when absent.
func (v *NextPreviousValue) Previous() *string {
	return v.previous
}

// HasDifference reports whether next and previous differ.
func (v *NextPreviousValue) HasDifference() bool {
	return !same(v.next, v.previous)
}

// MarkQuoteOnDisplay makes DisplayNext/DisplayPrevious wrap values in
// double quotes, so that a literal "null" default stays distinguishable.
func (v *NextPreviousValue) MarkQuoteOnDisplay() {
	v.quoteOnDisplay = true
}

// QuoteOnDisplay reports whether display values are quoted.
func (v *NextPreviousValue) QuoteOnDisplay() bool {
	return v.quoteOnDisplay
}

// DisplayNext returns the next value for display.
func (v *NextPreviousValue) DisplayNext() string {
	return v.display(v.next)
}

// DisplayPrevious returns the previous value for display.
func (v *NextPreviousValue) DisplayPrevious() string {
	return v.display(v.previous)
}

func (v *NextPreviousValue) display(s *string) string {
	if s == nil {
		return nullDisplay
	}
	if v.quoteOnDisplay {
		return quote(*s)
	}
	return *s
}

// ToMap returns the {next, previous} map. A nil side is omitted.
func (v *NextPreviousValue) ToMap() map[string]any {
	m := make(map[string]any, 2)
	if v.next != nil {
		m[nextKey] = *v.next
	}
	if v.previous != nil {
		m[previousKey] = *v.previous
	}
	return m
}

// ToQuotedMap is ToMap with each present side wrapped in double quotes.
func (v *NextPreviousValue) ToQuotedMap() map[string]any {
	m := make(map[string]any, 2)
	if v.next != nil {
		m[nextKey] = quote(*v.next)
	}
	if v.previous != nil {
		m[previousKey] = quote(*v.previous)
	}
	return m
}

// NextPreviousFromMap parses a map created by ToMap.
func NextPreviousFromMap(m map[string]any) (*NextPreviousValue, error) {
	next, err := optionalString(m, nextKey)
	if err != nil {
		return nil, err
	}
	previous, err := optionalString(m, previousKey)
	if err != nil {
		return nil, err
	}
	return NewNextPreviousValue(next, previous), nil
}

// NextPreviousFromQuotedMap parses a map created by ToQuotedMap.
func NextPreviousFromQuotedMap(m map[string]any) (*NextPreviousValue, error) {
	v, err := NextPreviousFromMap(m)
	if err != nil {
		return nil, err
	}
	if v.next != nil {
		v.next = ptr(unquote(*v.next))
	}
	if v.previous != nil {
		v.previous = ptr(unquote(*v.previous))
	}
	return v, nil
}

func quote(s string) string {
	return `"` + s + `"`
}

// unquote strips one pair of surrounding double quotes.
func unquote(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}
