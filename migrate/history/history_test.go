package history

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/schemadiff/migrate/diff"
	"github.com/satishbabariya/schemadiff/migrate/introspect"
)

func schemaWithColumns(columns ...string) *introspect.DatabaseSchema {
	table := introspect.Table{Name: "MEMBER", Type: introspect.ObjectTypeTable}
	for _, name := range columns {
		table.Columns = append(table.Columns, introspect.Column{Name: name, Type: "VARCHAR"})
	}
	return &introspect.DatabaseSchema{Tables: []introspect.Table{table}}
}

func analyzedDiff(t *testing.T, fs afero.Fs, at time.Time, previous, next *introspect.DatabaseSchema) *diff.SchemaDiff {
	t.Helper()
	ctx := context.Background()
	prevStore := NewSnapshotStore(fs, "snapshots/previous.json")
	nextStore := NewSnapshotStore(fs, "snapshots/next.json")
	require.NoError(t, prevStore.Save(ctx, previous))
	require.NoError(t, nextStore.Save(ctx, next))

	sd := diff.NewSchemaDiff(prevStore, nextStore, diff.WithClock(func() time.Time { return at }))
	require.NoError(t, sd.LoadPreviousSchema(ctx))
	require.NoError(t, sd.LoadNextSchema(ctx))
	require.NoError(t, sd.AnalyzeDiff())
	return sd
}

func TestSnapshotStore(t *testing.T) {
	ctx := context.Background()

	t.Run("save and load", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		store := NewSnapshotStore(fs, "schema/snapshot.json")

		exists, err := store.Exists(ctx)
		require.NoError(t, err)
		assert.False(t, exists)

		schema := schemaWithColumns("MEMBER_ID", "MEMBER_NAME")
		require.NoError(t, store.Save(ctx, schema))

		exists, err = store.Exists(ctx)
		require.NoError(t, err)
		assert.True(t, exists)

		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, schema, loaded)

		tmpExists, err := afero.Exists(fs, "schema/snapshot.json.tmp")
		require.NoError(t, err)
		assert.False(t, tmpExists)
	})

	t.Run("not found", func(t *testing.T) {
		store := NewSnapshotStore(afero.NewMemMapFs(), "missing.json")
		_, err := store.Load(ctx)
		assert.ErrorIs(t, err, ErrSnapshotNotFound)
	})

	t.Run("empty file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "empty.json", nil, 0o644))
		_, err := NewSnapshotStore(fs, "empty.json").Load(ctx)
		assert.ErrorIs(t, err, ErrEmptySnapshot)
	})

	t.Run("nil schema", func(t *testing.T) {
		store := NewSnapshotStore(afero.NewMemMapFs(), "nil.json")
		assert.Error(t, store.Save(ctx, nil))
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := NewSnapshotStore(afero.NewMemMapFs(), "x.json").Load(cancelled)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestManager(t *testing.T) {
	ctx := context.Background()
	first := time.Date(2024, 3, 15, 10, 30, 45, 0, time.Local)
	second := first.Add(time.Hour)

	t.Run("record and read newest first", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		manager := NewManager(fs, "history/schema-history.diffmap")

		records, err := manager.Records(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, records)

		older := analyzedDiff(t, fs, first, schemaWithColumns("MEMBER_ID"), schemaWithColumns("MEMBER_ID", "MEMBER_NAME"))
		older.SetComment("add member name")
		require.NoError(t, manager.Record(ctx, older))

		newer := analyzedDiff(t, fs, second, schemaWithColumns("MEMBER_ID", "MEMBER_NAME"), schemaWithColumns("MEMBER_ID"))
		require.NoError(t, manager.Record(ctx, newer))

		data, err := afero.ReadFile(fs, manager.Path())
		require.NoError(t, err)
		assert.Contains(t, string(data), "# schemadiff-history 1.1\nlist:{")
		assert.Contains(t, string(data), `"checksum" = "`)

		records, err = manager.Records(ctx, 0)
		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.True(t, second.Equal(records[0].DiffDate))
		assert.Nil(t, records[0].Comment)
		require.Len(t, records[0].Diff.DeletedTableDiffs(), 0)
		require.Len(t, records[0].Diff.ChangedTableDiffs(), 1)
		assert.Len(t, records[0].Checksum, 64)

		assert.True(t, first.Equal(records[1].DiffDate))
		require.NotNil(t, records[1].Comment)
		assert.Equal(t, "add member name", *records[1].Comment)
		assert.NotEqual(t, records[0].Checksum, records[1].Checksum)

		limited, err := manager.Records(ctx, 1)
		require.NoError(t, err)
		require.Len(t, limited, 1)
		assert.Equal(t, records[0].Checksum, limited[0].Checksum)
	})

	t.Run("same diff is recorded once", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		manager := NewManager(fs, "history.diffmap")
		previous, next := schemaWithColumns("MEMBER_ID"), schemaWithColumns("MEMBER_ID", "MEMBER_NAME")

		require.NoError(t, manager.Record(ctx, analyzedDiff(t, fs, first, previous, next)))
		assert.ErrorIs(t, manager.Record(ctx, analyzedDiff(t, fs, second, previous, next)), ErrAlreadyRecorded)

		commented := analyzedDiff(t, fs, second, previous, next)
		commented.SetComment("again")
		require.NoError(t, manager.Record(ctx, commented))

		records, err := manager.Records(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("edited entry fails the checksum", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		manager := NewManager(fs, "history.diffmap")
		sd := analyzedDiff(t, fs, first, schemaWithColumns("MEMBER_ID"), schemaWithColumns("MEMBER_ID", "MEMBER_NAME"))
		sd.SetComment("add member name")
		require.NoError(t, manager.Record(ctx, sd))

		data, err := afero.ReadFile(fs, manager.Path())
		require.NoError(t, err)
		edited := strings.Replace(string(data), `"add member name"`, `"edited"`, 1)
		require.NotEqual(t, string(data), edited)
		require.NoError(t, afero.WriteFile(fs, manager.Path(), []byte(edited), 0o644))

		_, err = manager.Records(ctx, 0)
		assert.ErrorIs(t, err, ErrChecksumMismatch)
	})

	t.Run("no difference", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		manager := NewManager(fs, "history.diffmap")
		sd := analyzedDiff(t, fs, first, schemaWithColumns("MEMBER_ID"), schemaWithColumns("MEMBER_ID"))
		assert.ErrorIs(t, manager.Record(ctx, sd), ErrNoDifference)

		exists, err := afero.Exists(fs, manager.Path())
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("unsupported format", func(t *testing.T) {
		for _, content := range []string{
			"# schemadiff-history 2.0\nlist:{}\n",
			"# schemadiff-history latest\nlist:{}\n",
			"list:{}\n",
		} {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "history.diffmap", []byte(content), 0o644))
			_, err := NewManager(fs, "history.diffmap").Records(ctx, 0)
			assert.ErrorIs(t, err, ErrUnsupportedFormat, content)
		}
	})

	t.Run("older minor format is readable", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		content := "# schemadiff-history 1.0.0\nlist:{\n\tmap:{\n\t\t\"diffDate\" = \"2024/03/15 10:30:45\"\n\t}\n}\n"
		require.NoError(t, afero.WriteFile(fs, "history.diffmap", []byte(content), 0o644))
		records, err := NewManager(fs, "history.diffmap").Records(ctx, 0)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.True(t, first.Equal(records[0].DiffDate))
		assert.False(t, records[0].Diff.HasDifference())
	})

	t.Run("malformed entry", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		content := "# schemadiff-history 1.0\nlist:{ map:{ \"comment\" = \"x\" } }\n"
		require.NoError(t, afero.WriteFile(fs, "history.diffmap", []byte(content), 0o644))
		_, err := NewManager(fs, "history.diffmap").Records(ctx, 0)
		var mapErr *diff.DiffMapError
		assert.ErrorAs(t, err, &mapErr)
	})
}
