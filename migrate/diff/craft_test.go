package diff

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/schemadiff/migrate/introspect"
)

func TestDefaultCraftFileNaming(t *testing.T) {
	tests := []struct {
		file      string
		title     string
		direction CraftDirection
		ok        bool
	}{
		{file: "craft-meta-member-status-next.tsv", title: "member-status", direction: CraftNext, ok: true},
		{file: "craft-meta-CODE-previous.tsv", title: "CODE", direction: CraftPrevious, ok: true},
		{file: "craft-meta-CODE-current.tsv"},
		{file: "craft-meta-next.tsv"},
		{file: "member-next.tsv"},
		{file: "craft-meta-CODE-next.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			title, direction, ok := DefaultCraftFileNaming{}.Parse(tt.file)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.title, title)
			assert.Equal(t, tt.direction, direction)
		})
	}
	assert.Equal(t, "craft-meta-CODE-next.tsv", CraftFileName("CODE", CraftNext))
}

func TestCraftDigest(t *testing.T) {
	short := strings.Repeat("a", 100)
	assert.False(t, NeedsToHash(short))
	assert.True(t, NeedsToHash(short+"b"))
	assert.True(t, NeedsToHash("first\nsecond"))

	long := strings.Repeat("x", 150)
	assert.Equal(t, ConvertToHash(long), ConvertToHash(strings.Repeat("x", 150)))
	assert.True(t, strings.HasPrefix(ConvertToHash(long), "1:150:"))
	assert.True(t, strings.HasPrefix(ConvertToHash("a\nb\nc"), "3:5:"))
	assert.NotEqual(t, ConvertToHash(long), ConvertToHash(strings.Repeat("x", 149)+"y"))
}

func writeCraft(t *testing.T, fs afero.Fs, title string, direction CraftDirection, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, "/craft/"+CraftFileName(title, direction), []byte(content), 0o644))
}

func analyzeCraft(t *testing.T, fs afero.Fs) (*SchemaDiff, error) {
	t.Helper()
	schema := &introspect.DatabaseSchema{}
	sd := NewSchemaDiff(
		&staticSource{name: "previous", schema: schema},
		&staticSource{name: "next", schema: schema},
		WithClock(fixedClock),
		WithCraftMetaDir(fs, "/craft", nil),
	)
	ctx := context.Background()
	require.NoError(t, sd.LoadPreviousSchema(ctx))
	require.NoError(t, sd.LoadNextSchema(ctx))
	return sd, sd.AnalyzeDiff()
}

func TestCraftDiff(t *testing.T) {
	t.Run("rows by key", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeCraft(t, fs, "CODE", CraftPrevious,
			"code\tname\tmemo\nPRV\tProvisional\tnull\nFML\tFormal\t\nWDL\tWithdrawal\t\n")
		writeCraft(t, fs, "CODE", CraftNext,
			"code\tname\tmemo\nPRV\tProvisional\tnull\nFML\tFormal Member\t\nPAY\tPaying\t\n")

		sd, err := analyzeCraft(t, fs)
		require.NoError(t, err)
		require.True(t, sd.HasDifference())
		require.Len(t, sd.CraftTitleDiffs(), 1)
		title := sd.CraftTitleDiffs()[0]
		assert.Equal(t, "CODE", title.CraftTitle())

		require.Len(t, title.ChangedCraftRowDiffs(), 1)
		changed := title.ChangedCraftRowDiffs()[0]
		assert.Equal(t, "FML", changed.CraftKeyName())
		assert.Equal(t, "Formal Member|", *changed.CraftValueDiff().Next())
		assert.Equal(t, "Formal|", *changed.CraftValueDiff().Previous())
		assert.True(t, changed.CraftValueDiff().QuoteOnDisplay())

		require.Len(t, title.AddedCraftRowDiffs(), 1)
		assert.Equal(t, "PAY", title.AddedCraftRowDiffs()[0].CraftKeyName())
		require.Len(t, title.DeletedCraftRowDiffs(), 1)
		assert.Equal(t, "WDL", title.DeletedCraftRowDiffs()[0].CraftKeyName())
	})

	t.Run("title on one side only is skipped", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeCraft(t, fs, "CODE", CraftNext, "code\tname\nPRV\tProvisional\n")

		sd, err := analyzeCraft(t, fs)
		require.NoError(t, err)
		assert.False(t, sd.HasDifference())
	})

	t.Run("missing directory", func(t *testing.T) {
		sd, err := analyzeCraft(t, afero.NewMemMapFs())
		require.NoError(t, err)
		assert.False(t, sd.HasDifference())
	})

	t.Run("literal null key", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeCraft(t, fs, "CODE", CraftPrevious, "code\tname\nnull\tnothing\n")
		writeCraft(t, fs, "CODE", CraftNext, "code\tname\nnull\tsomething\n")

		sd, err := analyzeCraft(t, fs)
		require.NoError(t, err)
		rows := sd.CraftTitleDiffs()[0].ChangedCraftRowDiffs()
		require.Len(t, rows, 1)
		assert.Equal(t, `"null"`, rows[0].CraftKeyName())
	})

	t.Run("long values are digested", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeCraft(t, fs, "DOC", CraftPrevious, "key\tbody\nREADME\t"+strings.Repeat("a", 120)+"\n")
		writeCraft(t, fs, "DOC", CraftNext, "key\tbody\nREADME\t"+strings.Repeat("a", 121)+"\n")

		sd, err := analyzeCraft(t, fs)
		require.NoError(t, err)
		row := sd.CraftTitleDiffs()[0].ChangedCraftRowDiffs()[0]
		assert.True(t, strings.HasPrefix(*row.CraftValueDiff().Next(), "1:121:"))
		assert.True(t, strings.HasPrefix(*row.CraftValueDiff().Previous(), "1:120:"))
	})

	t.Run("duplicate key", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeCraft(t, fs, "CODE", CraftNext, "code\tname\nPRV\tProvisional\nPRV\tAgain\n")

		_, err := analyzeCraft(t, fs)
		var dataErr *CraftDataError
		require.ErrorAs(t, err, &dataErr)
		assert.Equal(t, "/craft/craft-meta-CODE-next.tsv", dataErr.FilePath)
		assert.Equal(t, []string{"code", "name"}, dataErr.Header)
		assert.Equal(t, 3, dataErr.RowNumber)
		assert.Equal(t, "PRV\tAgain", dataErr.RowText)
	})

	t.Run("empty key", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeCraft(t, fs, "CODE", CraftPrevious, "code\tname\n\tNo key\n")

		_, err := analyzeCraft(t, fs)
		var dataErr *CraftDataError
		require.ErrorAs(t, err, &dataErr)
		assert.Equal(t, 2, dataErr.RowNumber)
	})

	t.Run("quotes are plain text", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeCraft(t, fs, "CODE", CraftPrevious, "code\tname\nK1\tX\n")
		writeCraft(t, fs, "CODE", CraftNext, "code\tname\r\nK1\t\"quoted\" text\r\nK2\tY\r\n")

		sd, err := analyzeCraft(t, fs)
		require.NoError(t, err)
		title := sd.CraftTitleDiffs()[0]
		require.Len(t, title.ChangedCraftRowDiffs(), 1)
		assert.Equal(t, `"quoted" text`, *title.ChangedCraftRowDiffs()[0].CraftValueDiff().Next())
		require.Len(t, title.AddedCraftRowDiffs(), 1)
		assert.Equal(t, "K2", title.AddedCraftRowDiffs()[0].CraftKeyName())
	})

	t.Run("failed analysis can be retried", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeCraft(t, fs, "CODE", CraftPrevious, "code\tname\nPRV\tProvisional\n")
		writeCraft(t, fs, "CODE", CraftNext, "code\tname\nPRV\tProvisional\nPRV\tAgain\n")

		previous := &introspect.DatabaseSchema{}
		next := &introspect.DatabaseSchema{Tables: []introspect.Table{{Name: "PURCHASE", Type: introspect.ObjectTypeTable}}}
		sd := NewSchemaDiff(
			&staticSource{name: "previous", schema: previous},
			&staticSource{name: "next", schema: next},
			WithClock(fixedClock),
			WithCraftMetaDir(fs, "/craft", nil),
		)
		ctx := context.Background()
		require.NoError(t, sd.LoadPreviousSchema(ctx))
		require.NoError(t, sd.LoadNextSchema(ctx))

		var dataErr *CraftDataError
		require.ErrorAs(t, sd.AnalyzeDiff(), &dataErr)
		assert.Empty(t, sd.TableDiffs())
		assert.Empty(t, sd.CraftTitleDiffs())

		writeCraft(t, fs, "CODE", CraftNext, "code\tname\nPRV\tProvisional\nPAY\tPaying\n")
		require.NoError(t, sd.AnalyzeDiff())
		require.Len(t, sd.TableDiffs(), 1)
		assert.Equal(t, "PURCHASE", sd.TableDiffs()[0].TableName())
		require.Len(t, sd.CraftTitleDiffs(), 1)

		tableMaps, ok := sd.CreateSchemaDiffMap()["tableDiff"].(map[string]any)
		require.True(t, ok)
		assert.Len(t, tableMaps, 1)
	})

	t.Run("round trip", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeCraft(t, fs, "CODE", CraftPrevious, "code\tname\nPRV\tProvisional\nFML\tFormal\n")
		writeCraft(t, fs, "CODE", CraftNext, "code\tname\nPRV\tprovisional\nPAY\tPaying\n")

		sd, err := analyzeCraft(t, fs)
		require.NoError(t, err)
		m := sd.CreateSchemaDiffMap()

		restored := NewSchemaDiffForSerializer()
		require.NoError(t, restored.AcceptSchemaDiffMap(m))
		assert.Equal(t, m, restored.CreateSchemaDiffMap())
		assert.Len(t, restored.CraftTitleDiffs()[0].CraftRowDiffs(), 3)
	})
}
