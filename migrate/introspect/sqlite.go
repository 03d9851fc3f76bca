package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// SQLite reports the declared type text, e.g. VARCHAR(200) or DECIMAL(10, 2).
var sqliteDeclaredType = regexp.MustCompile(`^\s*([^(]+?)\s*\(\s*([^)]*?)\s*\)\s*$`)

// SQLiteIntrospector implements introspection for SQLite. Every query drains
// its rows before the next one starts so that a single connection suffices.
type SQLiteIntrospector struct {
	db *sql.DB
}

// NewSQLiteIntrospector creates an introspector for the main database of db
func NewSQLiteIntrospector(db *sql.DB) *SQLiteIntrospector {
	return &SQLiteIntrospector{db: db}
}

// Introspect reads the SQLite database schema. SQLite has neither sequences
// nor stored procedures.
func (i *SQLiteIntrospector) Introspect(ctx context.Context) (*DatabaseSchema, error) {
	tables, err := i.introspectTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect tables: %w", err)
	}
	return &DatabaseSchema{Tables: tables}, nil
}

// introspectTables reads all tables and views
func (i *SQLiteIntrospector) introspectTables(ctx context.Context) ([]Table, error) {
	query := `
		SELECT name, type, sql
		FROM sqlite_master
		WHERE type IN ('table', 'view')
		  AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := i.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}

	var tables []Table
	var ddl []string
	for rows.Next() {
		table := Table{Schema: "main", Type: ObjectTypeTable}
		var objectType string
		var createSQL sql.NullString
		if err := rows.Scan(&table.Name, &objectType, &createSQL); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		if objectType == "view" {
			table.Type = ObjectTypeView
		}
		tables = append(tables, table)
		ddl = append(ddl, createSQL.String)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for idx := range tables {
		if err := i.introspectTable(ctx, &tables[idx], ddl[idx]); err != nil {
			return nil, err
		}
	}
	return tables, nil
}

func (i *SQLiteIntrospector) introspectTable(ctx context.Context, table *Table, createSQL string) error {
	columns, pkColumns, err := i.introspectColumns(ctx, table.Name)
	if err != nil {
		return fmt.Errorf("failed to introspect columns for %s: %w", table.Name, err)
	}
	table.Columns = columns
	if table.Type == ObjectTypeView {
		return nil
	}

	if len(pkColumns) > 0 {
		table.PrimaryKey = &PrimaryKey{Columns: pkColumns}
		if len(pkColumns) == 1 {
			markRowIDAlias(table, pkColumns[0], createSQL)
		}
	}

	if table.UniqueKeys, table.Indexes, err = i.introspectIndexes(ctx, table.Name); err != nil {
		return fmt.Errorf("failed to introspect indexes for %s: %w", table.Name, err)
	}
	if table.ForeignKeys, err = i.introspectForeignKeys(ctx, table.Name); err != nil {
		return fmt.Errorf("failed to introspect foreign keys for %s: %w", table.Name, err)
	}
	return nil
}

// introspectColumns reads all columns for a table using PRAGMA and returns
// the primary key columns in key order
func (i *SQLiteIntrospector) introspectColumns(ctx context.Context, tableName string) ([]Column, []string, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(tableName))

	rows, err := i.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []Column
	pkOrder := map[int]string{}
	for rows.Next() {
		var cid, notNull, pk int
		var col Column
		var declared string
		var dfltValue sql.NullString

		if err := rows.Scan(&cid, &col.Name, &declared, &notNull, &dfltValue, &pk); err != nil {
			return nil, nil, fmt.Errorf("failed to scan column: %w", err)
		}

		col.Type, col.Size = splitDeclaredType(declared)
		col.NotNull = notNull == 1
		col.DefaultValue = nullString(dfltValue)
		if pk > 0 {
			pkOrder[pk] = col.Name
		}

		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	keys := make([]int, 0, len(pkOrder))
	for k := range pkOrder {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	pkColumns := make([]string, 0, len(keys))
	for _, k := range keys {
		pkColumns = append(pkColumns, pkOrder[k])
	}
	return columns, pkColumns, nil
}

// markRowIDAlias flags a single INTEGER primary key column, which aliases
// the rowid and is assigned automatically.
func markRowIDAlias(table *Table, pkColumn, createSQL string) {
	for idx := range table.Columns {
		col := &table.Columns[idx]
		if col.Name != pkColumn {
			continue
		}
		col.AutoIncrement = strings.EqualFold(col.Type, "INTEGER") ||
			strings.Contains(strings.ToUpper(createSQL), "AUTOINCREMENT")
	}
}

type sqliteIndex struct {
	name   string
	unique bool
	origin string
}

// introspectIndexes reads the indexes of a table. Indexes created by a
// UNIQUE constraint are returned as unique keys, the primary key index is
// skipped.
func (i *SQLiteIntrospector) introspectIndexes(ctx context.Context, tableName string) ([]UniqueKey, []Index, error) {
	query := fmt.Sprintf("PRAGMA index_list(%s)", quoteIdent(tableName))

	rows, err := i.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query indexes: %w", err)
	}

	var list []sqliteIndex
	for rows.Next() {
		var seq, unique, partial int
		var idx sqliteIndex
		if err := rows.Scan(&seq, &idx.name, &unique, &idx.origin, &partial); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("failed to scan index: %w", err)
		}
		idx.unique = unique == 1
		list = append(list, idx)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	sort.Slice(list, func(a, b int) bool { return list[a].name < list[b].name })

	var uniqueKeys []UniqueKey
	var indexes []Index
	for _, idx := range list {
		if idx.origin == "pk" {
			continue
		}
		columns, err := i.indexColumns(ctx, idx.name)
		if err != nil {
			return nil, nil, err
		}
		if idx.origin == "u" {
			uniqueKeys = append(uniqueKeys, UniqueKey{Name: idx.name, Columns: columns})
			continue
		}
		indexes = append(indexes, Index{Name: idx.name, Columns: columns, IsUnique: idx.unique})
	}
	return uniqueKeys, indexes, nil
}

func (i *SQLiteIntrospector) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	query := fmt.Sprintf("PRAGMA index_info(%s)", quoteIdent(indexName))

	rows, err := i.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query index columns of %s: %w", indexName, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var seqno, cid int
		var name sql.NullString
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, fmt.Errorf("failed to scan index column: %w", err)
		}
		// expression columns have no name
		if name.Valid {
			columns = append(columns, name.String)
		}
	}
	return columns, rows.Err()
}

// introspectForeignKeys reads all foreign keys for a table. SQLite does not
// keep constraint names, so they are derived from the PRAGMA id.
func (i *SQLiteIntrospector) introspectForeignKeys(ctx context.Context, tableName string) ([]ForeignKey, error) {
	query := fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(tableName))

	rows, err := i.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer rows.Close()

	// one row per column, grouped by id
	fkMap := make(map[int]*ForeignKey)
	var ids []int

	for rows.Next() {
		var id, seq int
		var table, from string
		var to sql.NullString
		var onUpdate, onDelete, match string

		if err := rows.Scan(&id, &seq, &table, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}

		fk, exists := fkMap[id]
		if !exists {
			fk = &ForeignKey{
				Name:            fmt.Sprintf("%s_fk_%d", tableName, id),
				ReferencedTable: table,
				OnUpdate:        onUpdate,
				OnDelete:        onDelete,
			}
			fkMap[id] = fk
			ids = append(ids, id)
		}
		fk.Columns = append(fk.Columns, from)
		fk.ReferencedColumns = append(fk.ReferencedColumns, to.String)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Ints(ids)
	fks := make([]ForeignKey, 0, len(ids))
	for _, id := range ids {
		fks = append(fks, *fkMap[id])
	}
	return fks, nil
}

// splitDeclaredType separates the declared column type from its size
func splitDeclaredType(declared string) (string, string) {
	if m := sqliteDeclaredType.FindStringSubmatch(declared); m != nil {
		return strings.ToUpper(m[1]), m[2]
	}
	return strings.ToUpper(strings.TrimSpace(declared)), ""
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
