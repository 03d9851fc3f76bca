package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PostgresIntrospector implements introspection for PostgreSQL
type PostgresIntrospector struct {
	db     *sql.DB
	schema string
}

// NewPostgresIntrospector creates an introspector for one PostgreSQL schema,
// public when empty.
func NewPostgresIntrospector(db *sql.DB, schema string) *PostgresIntrospector {
	if schema == "" {
		schema = "public"
	}
	return &PostgresIntrospector{db: db, schema: schema}
}

// Introspect reads the PostgreSQL database schema
func (i *PostgresIntrospector) Introspect(ctx context.Context) (*DatabaseSchema, error) {
	tables, err := i.introspectTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect tables: %w", err)
	}

	sequences, err := i.introspectSequences(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect sequences: %w", err)
	}

	procedures, err := i.introspectProcedures(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect procedures: %w", err)
	}

	return &DatabaseSchema{
		Tables:     tables,
		Sequences:  sequences,
		Procedures: procedures,
	}, nil
}

// introspectTables reads all tables and views with their columns and constraints
func (i *PostgresIntrospector) introspectTables(ctx context.Context) ([]Table, error) {
	query := `
		SELECT
			t.table_schema,
			t.table_name,
			t.table_type,
			obj_description(c.oid, 'pg_class')
		FROM information_schema.tables t
		JOIN pg_namespace n ON n.nspname = t.table_schema
		JOIN pg_class c ON c.relname = t.table_name AND c.relnamespace = n.oid
		WHERE t.table_schema = $1
		  AND t.table_type IN ('BASE TABLE', 'VIEW')
		ORDER BY t.table_name
	`

	rows, err := i.db.QueryContext(ctx, query, i.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var table Table
		var tableType string
		var comment sql.NullString
		if err := rows.Scan(&table.Schema, &table.Name, &tableType, &comment); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		table.Type = ObjectTypeTable
		if tableType == "VIEW" {
			table.Type = ObjectTypeView
		}
		table.Comment = nullString(comment)
		tables = append(tables, table)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for idx := range tables {
		if err := i.introspectTable(ctx, &tables[idx]); err != nil {
			return nil, err
		}
	}
	return tables, nil
}

func (i *PostgresIntrospector) introspectTable(ctx context.Context, table *Table) error {
	var err error
	if table.Columns, err = i.introspectColumns(ctx, table.Schema, table.Name); err != nil {
		return fmt.Errorf("failed to introspect columns for %s: %w", table.Name, err)
	}
	if table.Type == ObjectTypeView {
		return nil
	}
	if table.PrimaryKey, err = i.introspectPrimaryKey(ctx, table.Schema, table.Name); err != nil {
		return fmt.Errorf("failed to introspect primary key for %s: %w", table.Name, err)
	}
	if table.UniqueKeys, err = i.introspectUniqueKeys(ctx, table.Schema, table.Name); err != nil {
		return fmt.Errorf("failed to introspect unique keys for %s: %w", table.Name, err)
	}
	if table.Indexes, err = i.introspectIndexes(ctx, table.Schema, table.Name); err != nil {
		return fmt.Errorf("failed to introspect indexes for %s: %w", table.Name, err)
	}
	if table.ForeignKeys, err = i.introspectForeignKeys(ctx, table.Schema, table.Name); err != nil {
		return fmt.Errorf("failed to introspect foreign keys for %s: %w", table.Name, err)
	}
	return nil
}

// introspectColumns reads all columns for a table
func (i *PostgresIntrospector) introspectColumns(ctx context.Context, schema, tableName string) ([]Column, error) {
	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.udt_name,
			c.is_nullable,
			c.column_default,
			c.character_maximum_length,
			c.numeric_precision,
			c.numeric_scale,
			c.is_identity,
			col_description(format('%I.%I', c.table_schema, c.table_name)::regclass, c.ordinal_position)
		FROM information_schema.columns c
		WHERE c.table_schema = $1
		  AND c.table_name = $2
		ORDER BY c.ordinal_position
	`

	rows, err := i.db.QueryContext(ctx, query, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var col Column
		var dataType, udtName, isNullable, isIdentity string
		var defaultValue, comment sql.NullString
		var maxLength, numPrecision, numScale sql.NullInt64

		err := rows.Scan(
			&col.Name,
			&dataType,
			&udtName,
			&isNullable,
			&defaultValue,
			&maxLength,
			&numPrecision,
			&numScale,
			&isIdentity,
			&comment,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}

		col.Type = mapPostgresType(dataType, udtName)
		col.Size = postgresColumnSize(dataType, maxLength, numPrecision, numScale)
		col.NotNull = isNullable == "NO"
		col.DefaultValue = nullString(defaultValue)
		col.AutoIncrement = isIdentity == "YES" || isAutoIncrement(defaultValue.String)
		col.Comment = nullString(comment)

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// introspectPrimaryKey reads the primary key for a table
func (i *PostgresIntrospector) introspectPrimaryKey(ctx context.Context, schema, tableName string) (*PrimaryKey, error) {
	query := `
		SELECT
			tc.constraint_name,
			array_agg(kcu.column_name ORDER BY kcu.ordinal_position)::text
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema = $1
		  AND tc.table_name = $2
		GROUP BY tc.constraint_name
	`

	var pk PrimaryKey
	var columnsArray string

	err := i.db.QueryRowContext(ctx, query, schema, tableName).Scan(&pk.Name, &columnsArray)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query primary key: %w", err)
	}
	pk.Columns = splitArray(columnsArray)

	return &pk, nil
}

// introspectUniqueKeys reads the unique constraints for a table
func (i *PostgresIntrospector) introspectUniqueKeys(ctx context.Context, schema, tableName string) ([]UniqueKey, error) {
	query := `
		SELECT
			tc.constraint_name,
			array_agg(kcu.column_name ORDER BY kcu.ordinal_position)::text
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		WHERE tc.constraint_type = 'UNIQUE'
		  AND tc.table_schema = $1
		  AND tc.table_name = $2
		GROUP BY tc.constraint_name
		ORDER BY tc.constraint_name
	`

	rows, err := i.db.QueryContext(ctx, query, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query unique keys: %w", err)
	}
	defer rows.Close()

	var uniqueKeys []UniqueKey
	for rows.Next() {
		var uq UniqueKey
		var columnsArray string
		if err := rows.Scan(&uq.Name, &columnsArray); err != nil {
			return nil, fmt.Errorf("failed to scan unique key: %w", err)
		}
		uq.Columns = splitArray(columnsArray)
		uniqueKeys = append(uniqueKeys, uq)
	}

	return uniqueKeys, rows.Err()
}

// introspectIndexes reads the indexes for a table that do not back a constraint
func (i *PostgresIntrospector) introspectIndexes(ctx context.Context, schema, tableName string) ([]Index, error) {
	query := `
		SELECT
			i.relname as index_name,
			array_agg(a.attname ORDER BY array_position(ix.indkey, a.attnum))::text as columns,
			ix.indisunique as is_unique
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE n.nspname = $1
		  AND t.relname = $2
		  AND NOT ix.indisprimary
		  AND NOT EXISTS (SELECT 1 FROM pg_constraint con WHERE con.conindid = ix.indexrelid)
		GROUP BY i.relname, ix.indisunique
		ORDER BY i.relname
	`

	rows, err := i.db.QueryContext(ctx, query, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query indexes: %w", err)
	}
	defer rows.Close()

	var indexes []Index
	for rows.Next() {
		var idx Index
		var columnsArray string
		if err := rows.Scan(&idx.Name, &columnsArray, &idx.IsUnique); err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}
		idx.Columns = splitArray(columnsArray)
		indexes = append(indexes, idx)
	}

	return indexes, rows.Err()
}

// introspectForeignKeys reads all foreign keys for a table
func (i *PostgresIntrospector) introspectForeignKeys(ctx context.Context, schema, tableName string) ([]ForeignKey, error) {
	query := `
		SELECT
			con.conname,
			ARRAY(
				SELECT a.attname FROM unnest(con.conkey) WITH ORDINALITY k(attnum, ord)
				JOIN pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = k.attnum
				ORDER BY k.ord
			)::text,
			ref.relname,
			ARRAY(
				SELECT a.attname FROM unnest(con.confkey) WITH ORDINALITY k(attnum, ord)
				JOIN pg_attribute a ON a.attrelid = con.confrelid AND a.attnum = k.attnum
				ORDER BY k.ord
			)::text,
			con.confupdtype,
			con.confdeltype
		FROM pg_constraint con
		JOIN pg_class t ON t.oid = con.conrelid
		JOIN pg_class ref ON ref.oid = con.confrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE con.contype = 'f'
		  AND n.nspname = $1
		  AND t.relname = $2
		ORDER BY con.conname
	`

	rows, err := i.db.QueryContext(ctx, query, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer rows.Close()

	var fks []ForeignKey
	for rows.Next() {
		var fk ForeignKey
		var columnsArray, refColumnsArray, onUpdate, onDelete string

		err := rows.Scan(
			&fk.Name,
			&columnsArray,
			&fk.ReferencedTable,
			&refColumnsArray,
			&onUpdate,
			&onDelete,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}

		fk.Columns = splitArray(columnsArray)
		fk.ReferencedColumns = splitArray(refColumnsArray)
		fk.OnUpdate = postgresReferentialAction(onUpdate)
		fk.OnDelete = postgresReferentialAction(onDelete)

		fks = append(fks, fk)
	}

	return fks, rows.Err()
}

// introspectSequences reads all sequences
func (i *PostgresIntrospector) introspectSequences(ctx context.Context) ([]Sequence, error) {
	query := `
		SELECT
			s.schemaname,
			s.sequencename,
			s.min_value,
			s.max_value,
			s.increment_by,
			obj_description(format('%I.%I', s.schemaname, s.sequencename)::regclass, 'pg_class')
		FROM pg_sequences s
		WHERE s.schemaname = $1
		ORDER BY s.sequencename
	`

	rows, err := i.db.QueryContext(ctx, query, i.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to query sequences: %w", err)
	}
	defer rows.Close()

	var sequences []Sequence
	for rows.Next() {
		var seq Sequence
		var minValue, maxValue, increment decimal.NullDecimal
		var comment sql.NullString
		if err := rows.Scan(&seq.Schema, &seq.Name, &minValue, &maxValue, &increment, &comment); err != nil {
			return nil, fmt.Errorf("failed to scan sequence: %w", err)
		}
		seq.MinimumValue = nullDecimal(minValue)
		seq.MaximumValue = nullDecimal(maxValue)
		seq.IncrementSize = nullDecimal(increment)
		seq.Comment = nullString(comment)
		sequences = append(sequences, seq)
	}

	return sequences, rows.Err()
}

// introspectProcedures reads functions and procedures with their source
func (i *PostgresIntrospector) introspectProcedures(ctx context.Context) ([]Procedure, error) {
	query := `
		SELECT
			n.nspname,
			p.proname,
			p.prosrc,
			obj_description(p.oid, 'pg_proc')
		FROM pg_proc p
		JOIN pg_namespace n ON n.oid = p.pronamespace
		WHERE n.nspname = $1
		  AND p.prokind IN ('f', 'p')
		ORDER BY p.proname
	`

	rows, err := i.db.QueryContext(ctx, query, i.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to query procedures: %w", err)
	}
	defer rows.Close()

	var procedures []Procedure
	for rows.Next() {
		var schema, name string
		var body, comment sql.NullString
		if err := rows.Scan(&schema, &name, &body, &comment); err != nil {
			return nil, fmt.Errorf("failed to scan procedure: %w", err)
		}
		procedures = append(procedures, newProcedure(schema, name, body, comment))
	}

	return procedures, rows.Err()
}

func nullDecimal(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

// mapPostgresType maps PostgreSQL data types to their catalog type names
func mapPostgresType(dataType, udtName string) string {
	switch dataType {
	case "integer", "int", "int4":
		return "INTEGER"
	case "bigint", "int8":
		return "BIGINT"
	case "smallint", "int2":
		return "SMALLINT"
	case "boolean", "bool":
		return "BOOLEAN"
	case "character varying", "varchar":
		return "VARCHAR"
	case "character", "char":
		return "CHAR"
	case "text":
		return "TEXT"
	case "numeric", "decimal":
		return "NUMERIC"
	case "real", "float4":
		return "REAL"
	case "double precision", "float8":
		return "DOUBLE PRECISION"
	case "timestamp without time zone", "timestamp":
		return "TIMESTAMP"
	case "timestamp with time zone", "timestamptz":
		return "TIMESTAMPTZ"
	case "date":
		return "DATE"
	case "time without time zone", "time":
		return "TIME"
	case "json":
		return "JSON"
	case "jsonb":
		return "JSONB"
	case "uuid":
		return "UUID"
	case "bytea":
		return "BYTEA"
	case "USER-DEFINED", "ARRAY":
		return udtName
	default:
		return strings.ToUpper(dataType)
	}
}

func postgresColumnSize(dataType string, maxLength, precision, scale sql.NullInt64) string {
	switch dataType {
	case "character varying", "varchar", "character", "char":
		if maxLength.Valid {
			return fmt.Sprintf("%d", maxLength.Int64)
		}
	case "numeric", "decimal":
		if precision.Valid && scale.Valid {
			return fmt.Sprintf("%d, %d", precision.Int64, scale.Int64)
		}
		if precision.Valid {
			return fmt.Sprintf("%d", precision.Int64)
		}
	}
	return ""
}

func postgresReferentialAction(code string) string {
	switch code {
	case "a":
		return "NO ACTION"
	case "r":
		return "RESTRICT"
	case "c":
		return "CASCADE"
	case "n":
		return "SET NULL"
	case "d":
		return "SET DEFAULT"
	default:
		return code
	}
}

// isAutoIncrement checks for a serial default drawing from a sequence
func isAutoIncrement(defaultValue string) bool {
	return strings.Contains(strings.ToLower(defaultValue), "nextval(")
}
