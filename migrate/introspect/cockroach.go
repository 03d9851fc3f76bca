package introspect

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

// CockroachDBIntrospector implements introspection for CockroachDB. Tables
// are read through the PostgreSQL catalog; sequences come from
// information_schema because CockroachDB lacks pg_sequences.
type CockroachDBIntrospector struct {
	*PostgresIntrospector
}

// NewCockroachDBIntrospector creates a new CockroachDB introspector
func NewCockroachDBIntrospector(db *sql.DB, schema string) *CockroachDBIntrospector {
	return &CockroachDBIntrospector{PostgresIntrospector: NewPostgresIntrospector(db, schema)}
}

// Introspect introspects a CockroachDB database
func (i *CockroachDBIntrospector) Introspect(ctx context.Context) (*DatabaseSchema, error) {
	tables, err := i.introspectTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect CockroachDB tables: %w", err)
	}

	sequences, err := i.introspectSequences(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect CockroachDB sequences: %w", err)
	}

	procedures, err := i.introspectProcedures(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect CockroachDB procedures: %w", err)
	}

	return &DatabaseSchema{Tables: tables, Sequences: sequences, Procedures: procedures}, nil
}

func (i *CockroachDBIntrospector) introspectSequences(ctx context.Context) ([]Sequence, error) {
	query := `
		SELECT
			sequence_schema,
			sequence_name,
			minimum_value,
			maximum_value,
			increment
		FROM information_schema.sequences
		WHERE sequence_schema = $1
		ORDER BY sequence_name
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
		if err := rows.Scan(&seq.Schema, &seq.Name, &minValue, &maxValue, &increment); err != nil {
			return nil, fmt.Errorf("failed to scan sequence: %w", err)
		}
		seq.MinimumValue = nullDecimal(minValue)
		seq.MaximumValue = nullDecimal(maxValue)
		seq.IncrementSize = nullDecimal(increment)
		sequences = append(sequences, seq)
	}

	return sequences, rows.Err()
}
