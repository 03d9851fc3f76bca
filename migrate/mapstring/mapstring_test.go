package mapstring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal(t *testing.T) {
	text, err := Marshal(map[string]any{
		"tableName": "MEMBER",
		"diffType":  "CHANGE",
		"empty":     map[string]any{},
	})
	require.NoError(t, err)
	assert.Equal(t, "map:{\n\t\"diffType\" = \"CHANGE\";\n\t\"empty\" = map:{};\n\t\"tableName\" = \"MEMBER\"\n}", text)

	_, err = Marshal(map[string]any{"count": 3})
	assert.ErrorIs(t, err, ErrUnsupportedValue)
}

func TestRoundTrip(t *testing.T) {
	original := map[string]any{
		"diffDate": "2024/03/15 10:30:45",
		"comment":  "line one\nline \"two\"; = {}",
		"tableDiff": map[string]any{
			"MEMBER": map[string]any{
				"tableName": "MEMBER",
				"diffType":  "CHANGE",
				"tableCommentDiff": map[string]any{
					"next":     `"会員"`,
					"previous": `""`,
				},
			},
		},
		"history": []any{"map", "list", map[string]any{"k": "v"}, []any{}},
	}

	text, err := Marshal(original)
	require.NoError(t, err)

	parsed, err := UnmarshalMap(text)
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

func TestUnmarshal(t *testing.T) {
	t.Run("compact form", func(t *testing.T) {
		m, err := UnmarshalMap(`map:{"a"="1";"b"=list:{"x";"y";};}`)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": "1", "b": []any{"x", "y"}}, m)
	})

	t.Run("list", func(t *testing.T) {
		l, err := UnmarshalList(`list:{ map:{ "a" = "1" } }`)
		require.NoError(t, err)
		assert.Equal(t, []any{map[string]any{"a": "1"}}, l)
	})

	t.Run("syntax errors", func(t *testing.T) {
		for _, text := range []string{
			`map:{"a"}`,
			`map:{"a"="1"`,
			`map:{a="1"}`,
			`dict:{}`,
		} {
			_, err := Unmarshal(text)
			assert.ErrorIs(t, err, ErrSyntax, text)
		}
	})

	t.Run("wrong top level", func(t *testing.T) {
		_, err := UnmarshalMap(`list:{}`)
		assert.ErrorIs(t, err, ErrSyntax)
		_, err = UnmarshalList(`"text"`)
		assert.ErrorIs(t, err, ErrSyntax)
	})
}
