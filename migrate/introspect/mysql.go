package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
)

// MySQLIntrospector implements introspection for MySQL. MySQL has no
// sequences; auto increment lives on the column.
type MySQLIntrospector struct {
	db *sql.DB
}

// NewMySQLIntrospector creates an introspector for the current database of db
func NewMySQLIntrospector(db *sql.DB) *MySQLIntrospector {
	return &MySQLIntrospector{db: db}
}

// Introspect reads the MySQL database schema
func (i *MySQLIntrospector) Introspect(ctx context.Context) (*DatabaseSchema, error) {
	var dbName string
	if err := i.db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&dbName); err != nil {
		return nil, fmt.Errorf("failed to get database name: %w", err)
	}

	tables, err := i.introspectTables(ctx, dbName)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect tables: %w", err)
	}

	procedures, err := i.introspectProcedures(ctx, dbName)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect procedures: %w", err)
	}

	return &DatabaseSchema{Tables: tables, Procedures: procedures}, nil
}

// introspectTables reads all tables and views with their columns and constraints
func (i *MySQLIntrospector) introspectTables(ctx context.Context, dbName string) ([]Table, error) {
	query := `
		SELECT table_name, table_type, table_comment
		FROM information_schema.tables
		WHERE table_schema = ?
		  AND table_type IN ('BASE TABLE', 'VIEW')
		ORDER BY table_name
	`

	rows, err := i.db.QueryContext(ctx, query, dbName)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		table := Table{Schema: dbName, Type: ObjectTypeTable}
		var tableType string
		var comment sql.NullString
		if err := rows.Scan(&table.Name, &tableType, &comment); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		if tableType == "VIEW" {
			table.Type = ObjectTypeView
		} else if comment.Valid && comment.String != "" {
			table.Comment = &comment.String
		}
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

func (i *MySQLIntrospector) introspectTable(ctx context.Context, table *Table) error {
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
	if table.ForeignKeys, err = i.introspectForeignKeys(ctx, table.Schema, table.Name); err != nil {
		return fmt.Errorf("failed to introspect foreign keys for %s: %w", table.Name, err)
	}
	// MySQL creates an index for every unique and foreign key; those are
	// reported by their constraints.
	owned := make([]string, 0, len(table.UniqueKeys)+len(table.ForeignKeys))
	for _, uq := range table.UniqueKeys {
		owned = append(owned, uq.Name)
	}
	for _, fk := range table.ForeignKeys {
		owned = append(owned, fk.Name)
	}
	if table.Indexes, err = i.introspectIndexes(ctx, table.Schema, table.Name, owned); err != nil {
		return fmt.Errorf("failed to introspect indexes for %s: %w", table.Name, err)
	}
	return nil
}

// introspectColumns reads all columns for a table
func (i *MySQLIntrospector) introspectColumns(ctx context.Context, schema, tableName string) ([]Column, error) {
	query := `
		SELECT
			column_name,
			data_type,
			column_type,
			is_nullable,
			column_default,
			character_maximum_length,
			numeric_precision,
			numeric_scale,
			extra,
			column_comment
		FROM information_schema.columns
		WHERE table_schema = ?
		  AND table_name = ?
		ORDER BY ordinal_position
	`

	rows, err := i.db.QueryContext(ctx, query, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var col Column
		var dataType, columnType, isNullable, extra string
		var defaultValue, comment sql.NullString
		var maxLength, numPrecision, numScale sql.NullInt64

		err := rows.Scan(
			&col.Name,
			&dataType,
			&columnType,
			&isNullable,
			&defaultValue,
			&maxLength,
			&numPrecision,
			&numScale,
			&extra,
			&comment,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}

		col.Type = mapMySQLType(dataType, columnType)
		col.Size = mysqlColumnSize(dataType, maxLength, numPrecision, numScale)
		col.NotNull = isNullable == "NO"
		col.DefaultValue = nullString(defaultValue)
		col.AutoIncrement = strings.Contains(strings.ToLower(extra), "auto_increment")
		if comment.Valid && comment.String != "" {
			col.Comment = &comment.String
		}

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// introspectPrimaryKey reads the primary key for a table
func (i *MySQLIntrospector) introspectPrimaryKey(ctx context.Context, schema, tableName string) (*PrimaryKey, error) {
	query := `
		SELECT
			constraint_name,
			GROUP_CONCAT(column_name ORDER BY ordinal_position) as columns
		FROM information_schema.key_column_usage
		WHERE table_schema = ?
		  AND table_name = ?
		  AND constraint_name = 'PRIMARY'
		GROUP BY constraint_name
	`

	var pk PrimaryKey
	var columnsStr string

	err := i.db.QueryRowContext(ctx, query, schema, tableName).Scan(&pk.Name, &columnsStr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query primary key: %w", err)
	}

	pk.Columns = strings.Split(columnsStr, ",")
	return &pk, nil
}

// introspectUniqueKeys reads the unique constraints for a table
func (i *MySQLIntrospector) introspectUniqueKeys(ctx context.Context, schema, tableName string) ([]UniqueKey, error) {
	query := `
		SELECT
			tc.constraint_name,
			GROUP_CONCAT(kcu.column_name ORDER BY kcu.ordinal_position) as columns
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		WHERE tc.constraint_type = 'UNIQUE'
		  AND tc.table_schema = ?
		  AND tc.table_name = ?
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
		var columnsStr string
		if err := rows.Scan(&uq.Name, &columnsStr); err != nil {
			return nil, fmt.Errorf("failed to scan unique key: %w", err)
		}
		uq.Columns = strings.Split(columnsStr, ",")
		uniqueKeys = append(uniqueKeys, uq)
	}

	return uniqueKeys, rows.Err()
}

// introspectIndexes reads the indexes for a table except the primary key and
// the ones named in owned
func (i *MySQLIntrospector) introspectIndexes(ctx context.Context, schema, tableName string, owned []string) ([]Index, error) {
	query := `
		SELECT
			index_name,
			GROUP_CONCAT(column_name ORDER BY seq_in_index) as columns,
			MAX(non_unique) as is_non_unique
		FROM information_schema.statistics
		WHERE table_schema = ?
		  AND table_name = ?
		  AND index_name != 'PRIMARY'
		GROUP BY index_name
		ORDER BY index_name
	`

	rows, err := i.db.QueryContext(ctx, query, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query indexes: %w", err)
	}
	defer rows.Close()

	var indexes []Index
	for rows.Next() {
		var idx Index
		var columnsStr string
		var isNonUnique int

		if err := rows.Scan(&idx.Name, &columnsStr, &isNonUnique); err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}
		if slices.Contains(owned, idx.Name) {
			continue
		}

		idx.Columns = strings.Split(columnsStr, ",")
		idx.IsUnique = isNonUnique == 0

		indexes = append(indexes, idx)
	}

	return indexes, rows.Err()
}

// introspectForeignKeys reads all foreign keys for a table
func (i *MySQLIntrospector) introspectForeignKeys(ctx context.Context, schema, tableName string) ([]ForeignKey, error) {
	query := `
		SELECT
			kcu.constraint_name,
			GROUP_CONCAT(kcu.column_name ORDER BY kcu.ordinal_position) as columns,
			kcu.referenced_table_name,
			GROUP_CONCAT(kcu.referenced_column_name ORDER BY kcu.ordinal_position) as referenced_columns,
			rc.update_rule,
			rc.delete_rule
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.referential_constraints rc
			ON kcu.constraint_name = rc.constraint_name
			AND kcu.constraint_schema = rc.constraint_schema
		WHERE kcu.table_schema = ?
		  AND kcu.table_name = ?
		  AND kcu.referenced_table_name IS NOT NULL
		GROUP BY kcu.constraint_name, kcu.referenced_table_name, rc.update_rule, rc.delete_rule
		ORDER BY kcu.constraint_name
	`

	rows, err := i.db.QueryContext(ctx, query, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer rows.Close()

	var fks []ForeignKey
	for rows.Next() {
		var fk ForeignKey
		var columnsStr, refColumnsStr string

		err := rows.Scan(
			&fk.Name,
			&columnsStr,
			&fk.ReferencedTable,
			&refColumnsStr,
			&fk.OnUpdate,
			&fk.OnDelete,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}

		fk.Columns = strings.Split(columnsStr, ",")
		fk.ReferencedColumns = strings.Split(refColumnsStr, ",")

		fks = append(fks, fk)
	}

	return fks, rows.Err()
}

// introspectProcedures reads stored procedures and functions with their body
func (i *MySQLIntrospector) introspectProcedures(ctx context.Context, dbName string) ([]Procedure, error) {
	query := `
		SELECT routine_name, routine_definition, routine_comment
		FROM information_schema.routines
		WHERE routine_schema = ?
		ORDER BY routine_name
	`

	rows, err := i.db.QueryContext(ctx, query, dbName)
	if err != nil {
		return nil, fmt.Errorf("failed to query procedures: %w", err)
	}
	defer rows.Close()

	var procedures []Procedure
	for rows.Next() {
		var name string
		var body, comment sql.NullString
		if err := rows.Scan(&name, &body, &comment); err != nil {
			return nil, fmt.Errorf("failed to scan procedure: %w", err)
		}
		if comment.String == "" {
			comment.Valid = false
		}
		procedures = append(procedures, newProcedure(dbName, name, body, comment))
	}

	return procedures, rows.Err()
}

// mapMySQLType maps MySQL data types to catalog type names
func mapMySQLType(dataType, columnType string) string {
	lowerType := strings.ToLower(columnType)

	switch {
	case strings.HasPrefix(lowerType, "tinyint(1)"):
		return "BOOLEAN"
	case strings.HasPrefix(lowerType, "enum"), strings.HasPrefix(lowerType, "set"):
		return columnType
	case strings.HasSuffix(lowerType, "unsigned"):
		return strings.ToUpper(dataType) + " UNSIGNED"
	default:
		return strings.ToUpper(dataType)
	}
}

func mysqlColumnSize(dataType string, maxLength, precision, scale sql.NullInt64) string {
	switch strings.ToLower(dataType) {
	case "varchar", "char", "varbinary", "binary":
		if maxLength.Valid {
			return fmt.Sprintf("%d", maxLength.Int64)
		}
	case "decimal", "numeric":
		if precision.Valid && scale.Valid {
			return fmt.Sprintf("%d, %d", precision.Int64, scale.Int64)
		}
	}
	return ""
}
