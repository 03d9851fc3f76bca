package introspect

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/satishbabariya/schemadiff/internal/debug"
)

// Source exposes a live database as a schema snapshot source.
type Source struct {
	name         string
	introspector Introspector
}

// NewSource creates a snapshot source reading through the given introspector.
// name identifies the database in error messages (never the full DSN).
func NewSource(name string, introspector Introspector) *Source {
	return &Source{name: name, introspector: introspector}
}

// Name returns the source identity.
func (s *Source) Name() string {
	return s.name
}

// Exists is always true for a live database.
func (s *Source) Exists(ctx context.Context) (bool, error) {
	return true, nil
}

// Load introspects the database.
func (s *Source) Load(ctx context.Context) (*DatabaseSchema, error) {
	start := time.Now()
	schema, err := s.introspector.Introspect(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrIntrospectionFailed, s.name, err)
	}
	debug.Debug("introspected database",
		slog.String("source", s.name),
		slog.Int("tables", len(schema.Tables)),
		slog.Int("sequences", len(schema.Sequences)),
		slog.Int("procedures", len(schema.Procedures)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return schema, nil
}
