package migrate

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/schemadiff/migrate/diff"
	"github.com/satishbabariya/schemadiff/migrate/history"
	"github.com/satishbabariya/schemadiff/migrate/introspect"
)

type schemaSource struct {
	schema *introspect.DatabaseSchema
	err    error
}

func (s *schemaSource) Name() string { return "test" }

func (s *schemaSource) Exists(ctx context.Context) (bool, error) { return true, nil }

func (s *schemaSource) Load(ctx context.Context) (*introspect.DatabaseSchema, error) {
	return s.schema, s.err
}

func memberSchema(columns ...string) *introspect.DatabaseSchema {
	table := introspect.Table{Name: "MEMBER", Type: introspect.ObjectTypeTable}
	for _, name := range columns {
		table.Columns = append(table.Columns, introspect.Column{Name: name, Type: "INTEGER"})
	}
	return &introspect.DatabaseSchema{Tables: []introspect.Table{table}}
}

func newTestEngine(fs afero.Fs) *Engine {
	return NewEngine(
		history.NewSnapshotStore(fs, "schema/snapshot.json"),
		history.NewManager(fs, "schema/history.diffmap"),
	)
}

func TestEngine_Run(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	engine := newTestEngine(fs)

	// first run has no baseline
	first, err := engine.Run(ctx, &schemaSource{schema: memberSchema("MEMBER_ID")}, "")
	require.NoError(t, err)
	assert.True(t, first.FirstTime)
	assert.Nil(t, first.Diff)
	assert.False(t, first.HasDifference())
	require.NoError(t, engine.Promote(ctx, first.NextSchema))

	// unchanged schema records nothing
	same, err := engine.Run(ctx, &schemaSource{schema: memberSchema("MEMBER_ID")}, "")
	require.NoError(t, err)
	assert.False(t, same.FirstTime)
	assert.False(t, same.HasDifference())
	assert.False(t, same.Recorded)

	// added column is recorded with its comment
	changed, err := engine.Run(ctx, &schemaSource{schema: memberSchema("MEMBER_ID", "MEMBER_NAME")}, "add name")
	require.NoError(t, err)
	assert.True(t, changed.HasDifference())
	assert.True(t, changed.Recorded)
	require.Len(t, changed.Diff.ChangedTableDiffs(), 1)
	assert.Equal(t, []string{"MEMBER_NAME"}, columnNames(changed.Diff.ChangedTableDiffs()[0].AddedColumnDiffs()))

	records, err := engine.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].Comment)
	assert.Equal(t, "add name", *records[0].Comment)

	// rerunning the same diff does not record it twice
	repeated, err := engine.Run(ctx, &schemaSource{schema: memberSchema("MEMBER_ID", "MEMBER_NAME")}, "add name")
	require.NoError(t, err)
	assert.True(t, repeated.HasDifference())
	assert.False(t, repeated.Recorded)
	records, err = engine.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)

	// the baseline stays until promoted
	again, err := engine.Run(ctx, &schemaSource{schema: memberSchema("MEMBER_ID", "MEMBER_NAME")}, "")
	require.NoError(t, err)
	assert.True(t, again.HasDifference())
	require.NoError(t, engine.Promote(ctx, again.NextSchema))

	promoted, err := engine.Run(ctx, &schemaSource{schema: memberSchema("MEMBER_ID", "MEMBER_NAME")}, "")
	require.NoError(t, err)
	assert.False(t, promoted.HasDifference())

	records, err = engine.History(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestEngine_RunErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("next load failure on first run", func(t *testing.T) {
		engine := newTestEngine(afero.NewMemMapFs())
		_, err := engine.Run(ctx, &schemaSource{err: errors.New("connection refused")}, "")
		var loadErr *diff.SnapshotLoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, "test", loadErr.Source)
	})

	t.Run("corrupt baseline", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "schema/snapshot.json", []byte("{"), 0o644))
		_, err := newTestEngine(fs).Run(ctx, &schemaSource{schema: memberSchema("MEMBER_ID")}, "")
		var loadErr *diff.SnapshotLoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, "schema/snapshot.json", loadErr.Source)
	})

	t.Run("without history", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		store := history.NewSnapshotStore(fs, "snapshot.json")
		require.NoError(t, store.Save(ctx, memberSchema("MEMBER_ID")))
		engine := NewEngine(store, nil)

		result, err := engine.Run(ctx, &schemaSource{schema: memberSchema()}, "")
		require.NoError(t, err)
		assert.True(t, result.HasDifference())
		assert.False(t, result.Recorded)

		records, err := engine.History(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func columnNames(columns []*diff.ColumnDiff) []string {
	names := make([]string, 0, len(columns))
	for _, c := range columns {
		names = append(names, c.ColumnName())
	}
	return names
}
