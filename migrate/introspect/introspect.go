// Package introspect reads database catalogs into a schema snapshot.
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Source metadata sentinels written when a procedure body could not be read.
const (
	NoSourceMetadata = -1
	NoSourceHash     = "-1"
)

// Object types of a table-like entity.
const (
	ObjectTypeTable = "TABLE"
	ObjectTypeView  = "VIEW"
)

// Introspector reads a database schema snapshot
type Introspector interface {
	Introspect(ctx context.Context) (*DatabaseSchema, error)
}

// DatabaseSchema is one materialized snapshot of a relational schema
type DatabaseSchema struct {
	Tables     []Table     `json:"tables"`
	Sequences  []Sequence  `json:"sequences,omitempty"`
	Procedures []Procedure `json:"procedures,omitempty"`
}

// Table represents a database table or view
type Table struct {
	Name        string       `json:"name"`
	Schema      string       `json:"schema,omitempty"`
	Type        string       `json:"type,omitempty"`
	Comment     *string      `json:"comment,omitempty"`
	Columns     []Column     `json:"columns"`
	PrimaryKey  *PrimaryKey  `json:"primaryKey,omitempty"`
	ForeignKeys []ForeignKey `json:"foreignKeys,omitempty"`
	UniqueKeys  []UniqueKey  `json:"uniqueKeys,omitempty"`
	Indexes     []Index      `json:"indexes,omitempty"`
}

// UniqueName returns the schema-qualified name of the table.
func (t *Table) UniqueName() string {
	return qualify(t.Schema, t.Name)
}

// ColumnNames returns the column names in definition order.
func (t *Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		names = append(names, col.Name)
	}
	return names
}

// Column represents a table column
type Column struct {
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	Size          string  `json:"size,omitempty"`
	DefaultValue  *string `json:"defaultValue,omitempty"`
	NotNull       bool    `json:"notNull,omitempty"`
	AutoIncrement bool    `json:"autoIncrement,omitempty"`
	Comment       *string `json:"comment,omitempty"`
}

// PrimaryKey represents a primary key constraint. Name is empty when the
// database does not expose a constraint name.
type PrimaryKey struct {
	Name    string   `json:"name,omitempty"`
	Columns []string `json:"columns"`
}

// ColumnList returns the comma-joined column names.
func (pk *PrimaryKey) ColumnList() string {
	return strings.Join(pk.Columns, ",")
}

// ForeignKey represents a foreign key constraint
type ForeignKey struct {
	Name              string   `json:"name,omitempty"`
	Columns           []string `json:"columns"`
	ReferencedTable   string   `json:"referencedTable"`
	ReferencedColumns []string `json:"referencedColumns"`
	OnDelete          string   `json:"onDelete,omitempty"`
	OnUpdate          string   `json:"onUpdate,omitempty"`
}

// ColumnList returns the comma-joined local column names.
func (fk *ForeignKey) ColumnList() string {
	return strings.Join(fk.Columns, ",")
}

// UniqueKey represents a unique constraint
type UniqueKey struct {
	Name    string   `json:"name,omitempty"`
	Columns []string `json:"columns"`
}

// ColumnList returns the comma-joined column names.
func (uq *UniqueKey) ColumnList() string {
	return strings.Join(uq.Columns, ",")
}

// Index represents a non-constraint database index
type Index struct {
	Name     string   `json:"name,omitempty"`
	Columns  []string `json:"columns"`
	IsUnique bool     `json:"isUnique,omitempty"`
}

// ColumnList returns the comma-joined column names.
func (idx *Index) ColumnList() string {
	return strings.Join(idx.Columns, ",")
}

// Sequence represents a database sequence
type Sequence struct {
	Name          string           `json:"name"`
	Schema        string           `json:"schema,omitempty"`
	MinimumValue  *decimal.Decimal `json:"minimumValue,omitempty"`
	MaximumValue  *decimal.Decimal `json:"maximumValue,omitempty"`
	IncrementSize *decimal.Decimal `json:"incrementSize,omitempty"`
	Comment       *string          `json:"comment,omitempty"`
}

// UniqueName returns the schema-qualified name of the sequence.
func (s *Sequence) UniqueName() string {
	return qualify(s.Schema, s.Name)
}

// Procedure represents a stored procedure or function. SourceLine,
// SourceSize and SourceHash hold NoSourceMetadata / NoSourceHash when the
// body is not available.
type Procedure struct {
	Name       string  `json:"name"`
	Schema     string  `json:"schema,omitempty"`
	Comment    *string `json:"comment,omitempty"`
	SourceLine int     `json:"sourceLine"`
	SourceSize int     `json:"sourceSize"`
	SourceHash string  `json:"sourceHash"`
}

// UniqueName returns the schema-qualified name of the procedure.
func (p *Procedure) UniqueName() string {
	return qualify(p.Schema, p.Name)
}

func qualify(schema, name string) string {
	if schema == "" {
		return name
	}
	return schema + "." + name
}

// NewIntrospector creates a new introspector for the given database.
// schema selects the PostgreSQL/CockroachDB schema and is ignored otherwise.
func NewIntrospector(db *sql.DB, provider, schema string) (Introspector, error) {
	switch provider {
	case "postgresql", "postgres":
		return NewPostgresIntrospector(db, schema), nil
	case "mysql":
		return NewMySQLIntrospector(db), nil
	case "sqlite", "sqlite3":
		return NewSQLiteIntrospector(db), nil
	case "cockroachdb":
		return NewCockroachDBIntrospector(db, schema), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}
}
