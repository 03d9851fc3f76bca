package diff

import (
	"fmt"
	"slices"
	"strings"

	"github.com/satishbabariya/schemadiff/migrate/introspect"
)

// columnMove is one detected positional move. Ordinals are 1-based
// positions in the full column list of each table version.
type columnMove struct {
	nextName        string
	nextOrdinal     int
	previousName    string
	previousOrdinal int
}

// columnDefOrderDiffer reports columns whose definition order changed.
// Columns present on one side only are ignored.
type columnDefOrderDiffer struct{}

func (columnDefOrderDiffer) property() string {
	return columnDefOrderDiffKey
}

func (columnDefOrderDiffer) diff(o *options, next, previous *introspect.Table) *NextPreviousValue {
	if !o.checkColumnDefOrder {
		return nil
	}
	moves := detectColumnMoves(next.ColumnNames(), previous.ColumnNames())
	if len(moves) == 0 {
		return nil
	}
	nextEntries := make([]string, 0, len(moves))
	previousEntries := make([]string, 0, len(moves))
	for _, mv := range moves {
		n := fmt.Sprintf("%s(%d)", mv.nextName, mv.nextOrdinal)
		p := fmt.Sprintf("%s(%d)", mv.previousName, mv.previousOrdinal)
		nextEntries = append(nextEntries, n+":"+p)
		previousEntries = append(previousEntries, p+":"+n)
	}
	return NewNextPreviousValue(
		ptr(strings.Join(nextEntries, ", ")),
		ptr(strings.Join(previousEntries, ", ")),
	)
}

// detectColumnMoves drops columns that kept their position, then removes
// the first mismatching column pairwise until both orders agree. A swap of
// two columns is reported as one move.
func detectColumnMoves(nextNames, previousNames []string) []columnMove {
	nextOrdinals := ordinals(nextNames)
	previousOrdinals := ordinals(previousNames)

	nextCommon := commonNames(nextNames, previousOrdinals)
	previousCommon := commonNames(previousNames, nextOrdinals)

	var nextMoved, previousMoved []string
	for i := range nextCommon {
		if nextCommon[i] != previousCommon[i] {
			nextMoved = append(nextMoved, nextCommon[i])
			previousMoved = append(previousMoved, previousCommon[i])
		}
	}

	var moves []columnMove
	for {
		i := firstMismatch(nextMoved, previousMoved)
		if i < 0 {
			return moves
		}
		name := nextMoved[i]
		moves = append(moves, columnMove{
			nextName:        name,
			nextOrdinal:     nextOrdinals[name],
			previousName:    previousMoved[i],
			previousOrdinal: previousOrdinals[previousMoved[i]],
		})
		nextMoved = remove(nextMoved, name)
		previousMoved = remove(previousMoved, name)
	}
}

func ordinals(names []string) map[string]int {
	m := make(map[string]int, len(names))
	for i, name := range names {
		m[name] = i + 1
	}
	return m
}

func commonNames(names []string, other map[string]int) []string {
	var result []string
	for _, name := range names {
		if _, ok := other[name]; ok {
			result = append(result, name)
		}
	}
	return result
}

func firstMismatch(a, b []string) int {
	for i := range a {
		if a[i] != b[i] {
			return i
		}
	}
	return -1
}

func remove(names []string, name string) []string {
	return slices.DeleteFunc(names, func(s string) bool { return s == name })
}
