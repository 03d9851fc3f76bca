package ui

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/schemadiff/migrate/diff"
	"github.com/satishbabariya/schemadiff/migrate/introspect"
)

type source struct {
	schema *introspect.DatabaseSchema
}

func (s source) Name() string                             { return "test" }
func (s source) Exists(ctx context.Context) (bool, error) { return true, nil }
func (s source) Load(ctx context.Context) (*introspect.DatabaseSchema, error) {
	return s.schema, nil
}

func analyzed(t *testing.T, previous, next *introspect.DatabaseSchema) *diff.SchemaDiff {
	t.Helper()
	ctx := context.Background()
	sd := diff.NewSchemaDiff(source{previous}, source{next}, diff.WithClock(func() time.Time {
		return time.Date(2024, 3, 15, 10, 30, 45, 0, time.Local)
	}))
	require.NoError(t, sd.LoadPreviousSchema(ctx))
	require.NoError(t, sd.LoadNextSchema(ctx))
	require.NoError(t, sd.AnalyzeDiff())
	return sd
}

func TestSummaryRows(t *testing.T) {
	previous := &introspect.DatabaseSchema{Tables: []introspect.Table{{
		Name:    "MEMBER",
		Columns: []introspect.Column{{Name: "MEMBER_ID", Type: "INTEGER"}},
	}}}
	next := &introspect.DatabaseSchema{Tables: []introspect.Table{{
		Name: "MEMBER",
		Columns: []introspect.Column{
			{Name: "MEMBER_ID", Type: "BIGINT"},
			{Name: "MEMBER_NAME", Type: "VARCHAR"},
		},
	}}}

	rows := SummaryRows(analyzed(t, previous, next))
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"table", "CHANGE", "MEMBER", ""}, rows[0])
	assert.Equal(t, []string{"column", "CHANGE", "MEMBER.MEMBER_ID", "DB Type: INTEGER → BIGINT"}, rows[1])
	assert.Equal(t, []string{"column", "ADD", "MEMBER.MEMBER_NAME", ""}, rows[2])
}

func TestPrintSchemaDiff_NoDifference(t *testing.T) {
	var buf bytes.Buffer
	Output = &buf
	t.Cleanup(func() { Output = os.Stdout })

	schema := &introspect.DatabaseSchema{Tables: []introspect.Table{{Name: "MEMBER"}}}
	require.NoError(t, PrintSchemaDiff(analyzed(t, schema, schema)))
	assert.Contains(t, buf.String(), "no difference")
}
