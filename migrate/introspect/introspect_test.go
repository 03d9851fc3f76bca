package introspect

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T, ddl ...string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// every connection of :memory: is a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	for _, stmt := range ddl {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return db
}

func TestSQLiteIntrospector(t *testing.T) {
	db := openSQLite(t,
		`CREATE TABLE MEMBER_STATUS (
			STATUS_CODE CHAR(3) NOT NULL PRIMARY KEY,
			STATUS_NAME VARCHAR(50) NOT NULL UNIQUE
		)`,
		`CREATE TABLE MEMBER (
			MEMBER_ID INTEGER PRIMARY KEY AUTOINCREMENT,
			MEMBER_NAME VARCHAR(200) NOT NULL,
			BALANCE DECIMAL(10, 2) DEFAULT 0,
			STATUS_CODE CHAR(3) DEFAULT 'PRV' REFERENCES MEMBER_STATUS(STATUS_CODE) ON DELETE CASCADE
		)`,
		`CREATE INDEX IX_MEMBER_NAME ON MEMBER (MEMBER_NAME, STATUS_CODE)`,
		`CREATE VIEW VW_MEMBER AS SELECT MEMBER_ID, MEMBER_NAME FROM MEMBER`,
	)

	intr, err := NewIntrospector(db, "sqlite", "")
	require.NoError(t, err)

	schema, err := intr.Introspect(context.Background())
	require.NoError(t, err)
	require.Len(t, schema.Tables, 3)
	assert.Empty(t, schema.Sequences)
	assert.Empty(t, schema.Procedures)

	member := schema.Tables[0]
	assert.Equal(t, "MEMBER", member.Name)
	assert.Equal(t, "main.MEMBER", member.UniqueName())
	assert.Equal(t, ObjectTypeTable, member.Type)
	assert.Equal(t, []string{"MEMBER_ID", "MEMBER_NAME", "BALANCE", "STATUS_CODE"}, member.ColumnNames())

	id := member.Columns[0]
	assert.Equal(t, "INTEGER", id.Type)
	assert.True(t, id.AutoIncrement)

	name := member.Columns[1]
	assert.Equal(t, "VARCHAR", name.Type)
	assert.Equal(t, "200", name.Size)
	assert.True(t, name.NotNull)

	balance := member.Columns[2]
	assert.Equal(t, "DECIMAL", balance.Type)
	assert.Equal(t, "10, 2", balance.Size)
	require.NotNil(t, balance.DefaultValue)
	assert.Equal(t, "0", *balance.DefaultValue)

	status := member.Columns[3]
	assert.False(t, status.NotNull)
	require.NotNil(t, status.DefaultValue)
	assert.Equal(t, "'PRV'", *status.DefaultValue)

	require.NotNil(t, member.PrimaryKey)
	assert.Empty(t, member.PrimaryKey.Name)
	assert.Equal(t, []string{"MEMBER_ID"}, member.PrimaryKey.Columns)

	require.Len(t, member.ForeignKeys, 1)
	fk := member.ForeignKeys[0]
	assert.Equal(t, "MEMBER_fk_0", fk.Name)
	assert.Equal(t, []string{"STATUS_CODE"}, fk.Columns)
	assert.Equal(t, "MEMBER_STATUS", fk.ReferencedTable)
	assert.Equal(t, []string{"STATUS_CODE"}, fk.ReferencedColumns)
	assert.Equal(t, "CASCADE", fk.OnDelete)

	require.Len(t, member.Indexes, 1)
	assert.Equal(t, Index{Name: "IX_MEMBER_NAME", Columns: []string{"MEMBER_NAME", "STATUS_CODE"}}, member.Indexes[0])
	assert.Empty(t, member.UniqueKeys)

	statusTable := schema.Tables[1]
	assert.Equal(t, "MEMBER_STATUS", statusTable.Name)
	require.NotNil(t, statusTable.PrimaryKey)
	assert.Equal(t, []string{"STATUS_CODE"}, statusTable.PrimaryKey.Columns)
	assert.False(t, statusTable.Columns[0].AutoIncrement)
	require.Len(t, statusTable.UniqueKeys, 1)
	assert.Equal(t, []string{"STATUS_NAME"}, statusTable.UniqueKeys[0].Columns)
	assert.Empty(t, statusTable.Indexes)

	view := schema.Tables[2]
	assert.Equal(t, "VW_MEMBER", view.Name)
	assert.Equal(t, ObjectTypeView, view.Type)
	assert.Equal(t, []string{"MEMBER_ID", "MEMBER_NAME"}, view.ColumnNames())
	assert.Nil(t, view.PrimaryKey)
}

func TestSQLiteIntrospector_QuotedNames(t *testing.T) {
	db := openSQLite(t, `CREATE TABLE "order item" ("item id" INTEGER NOT NULL, "note" TEXT)`)

	schema, err := NewSQLiteIntrospector(db).Introspect(context.Background())
	require.NoError(t, err)
	require.Len(t, schema.Tables, 1)
	assert.Equal(t, []string{"item id", "note"}, schema.Tables[0].ColumnNames())
	assert.Nil(t, schema.Tables[0].PrimaryKey)
}

func TestNewIntrospector_Unsupported(t *testing.T) {
	_, err := NewIntrospector(nil, "oracle", "")
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestNewProcedure(t *testing.T) {
	t.Run("with body", func(t *testing.T) {
		body := sql.NullString{String: "BEGIN\r\n  RETURN 1;\r\nEND", Valid: true}
		proc := newProcedure("public", "PROC_X", body, sql.NullString{String: "calc", Valid: true})
		assert.Equal(t, "public.PROC_X", proc.UniqueName())
		assert.Equal(t, 3, proc.SourceLine)
		assert.Equal(t, len("BEGIN\n  RETURN 1;\nEND"), proc.SourceSize)
		assert.Len(t, proc.SourceHash, 64)
		require.NotNil(t, proc.Comment)
		assert.Equal(t, "calc", *proc.Comment)

		unix := newProcedure("public", "PROC_X", sql.NullString{String: "BEGIN\n  RETURN 1;\nEND", Valid: true}, sql.NullString{})
		assert.Equal(t, proc.SourceHash, unix.SourceHash)
		assert.Nil(t, unix.Comment)
	})

	t.Run("without body", func(t *testing.T) {
		proc := newProcedure("", "PROC_Y", sql.NullString{}, sql.NullString{})
		assert.Equal(t, NoSourceMetadata, proc.SourceLine)
		assert.Equal(t, NoSourceMetadata, proc.SourceSize)
		assert.Equal(t, NoSourceHash, proc.SourceHash)
	})
}

func TestSplitArray(t *testing.T) {
	assert.Equal(t, []string{"a", "b c"}, splitArray(`{a,"b c"}`))
	assert.Nil(t, splitArray("{}"))
}

type failingIntrospector struct{}

func (failingIntrospector) Introspect(ctx context.Context) (*DatabaseSchema, error) {
	return nil, errors.New("connection refused")
}

func TestSource(t *testing.T) {
	ctx := context.Background()

	db := openSQLite(t, `CREATE TABLE T (ID INTEGER)`)
	src := NewSource("sqlite::memory:", NewSQLiteIntrospector(db))
	assert.Equal(t, "sqlite::memory:", src.Name())
	exists, err := src.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
	schema, err := src.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, schema.Tables, 1)

	_, err = NewSource("broken", failingIntrospector{}).Load(ctx)
	assert.ErrorIs(t, err, ErrIntrospectionFailed)
	assert.Contains(t, err.Error(), "connection refused")
}
