package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/schemadiff/migrate/introspect"
)

func TestDetectColumnMoves(t *testing.T) {
	tests := []struct {
		name     string
		next     []string
		previous []string
		expected []columnMove
	}{
		{
			name:     "same order",
			next:     []string{"ID", "NAME", "STATUS"},
			previous: []string{"ID", "NAME", "STATUS"},
		},
		{
			name:     "added and deleted columns are ignored",
			next:     []string{"ID", "BIRTHDATE", "NAME"},
			previous: []string{"ID", "NAME", "STATUS"},
		},
		{
			name:     "adjacent swap is one move",
			next:     []string{"ID", "B", "A", "C"},
			previous: []string{"ID", "A", "B", "C"},
			expected: []columnMove{
				{nextName: "B", nextOrdinal: 2, previousName: "A", previousOrdinal: 2},
			},
		},
		{
			name:     "column moved to the end",
			next:     []string{"ID", "B", "C", "A"},
			previous: []string{"ID", "A", "B", "C"},
			expected: []columnMove{
				{nextName: "B", nextOrdinal: 2, previousName: "A", previousOrdinal: 2},
				{nextName: "C", nextOrdinal: 3, previousName: "A", previousOrdinal: 2},
			},
		},
		{
			name:     "ordinals are positions in the full table",
			next:     []string{"NEW", "ID", "B", "A"},
			previous: []string{"ID", "A", "B"},
			expected: []columnMove{
				{nextName: "B", nextOrdinal: 3, previousName: "A", previousOrdinal: 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, detectColumnMoves(tt.next, tt.previous))
		})
	}
}

func TestColumnDefOrderDiffer(t *testing.T) {
	next := &introspect.Table{Name: "MEMBER", Columns: []introspect.Column{{Name: "ID"}, {Name: "B"}, {Name: "A"}}}
	previous := &introspect.Table{Name: "MEMBER", Columns: []introspect.Column{{Name: "ID"}, {Name: "A"}, {Name: "B"}}}

	t.Run("disabled", func(t *testing.T) {
		assert.Nil(t, columnDefOrderDiffer{}.diff(&options{}, next, previous))
	})

	t.Run("enabled", func(t *testing.T) {
		v := columnDefOrderDiffer{}.diff(&options{checkColumnDefOrder: true}, next, previous)
		require.NotNil(t, v)
		assert.Equal(t, "B(2):A(2)", *v.Next())
		assert.Equal(t, "A(2):B(2)", *v.Previous())
	})
}
