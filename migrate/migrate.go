// Package migrate runs schema diffs against a stored baseline snapshot and
// keeps the diff history.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/satishbabariya/schemadiff/internal/debug"
	"github.com/satishbabariya/schemadiff/migrate/diff"
	"github.com/satishbabariya/schemadiff/migrate/history"
	"github.com/satishbabariya/schemadiff/migrate/introspect"
)

// Engine compares a next schema with the baseline snapshot
type Engine struct {
	snapshots *history.SnapshotStore
	history   *history.Manager
	diffOpts  []diff.Option
	log       *slog.Logger
}

// NewEngine creates a new engine. hist may be nil to skip recording.
func NewEngine(snapshots *history.SnapshotStore, hist *history.Manager, opts ...diff.Option) *Engine {
	return &Engine{
		snapshots: snapshots,
		history:   hist,
		diffOpts:  opts,
		log:       debug.Logger(),
	}
}

// RunResult is the outcome of one run
type RunResult struct {
	// Diff is nil on the first run.
	Diff *diff.SchemaDiff
	// FirstTime is set when no baseline snapshot existed.
	FirstTime bool
	// Recorded is set when the diff was appended to the history.
	Recorded bool
	// NextSchema is the schema that can be promoted to the new baseline.
	NextSchema *introspect.DatabaseSchema
}

// HasDifference reports whether the run found a difference
func (r *RunResult) HasDifference() bool {
	return r.Diff != nil && (r.Diff.HasDifference() || r.Diff.HasTableCountDifference())
}

// Run loads the baseline and the next schema, analyzes the difference and
// records it in the history. comment is attached to the recorded diff.
func (e *Engine) Run(ctx context.Context, next diff.SchemaSource, comment string) (*RunResult, error) {
	sd := diff.NewSchemaDiff(e.snapshots, next, e.diffOpts...)
	if err := sd.LoadPreviousSchema(ctx); err != nil {
		return nil, err
	}

	if sd.IsFirstTime() {
		schema, err := next.Load(ctx)
		if err != nil {
			return nil, &diff.SnapshotLoadError{Source: next.Name(), Err: err}
		}
		e.log.Info("no baseline snapshot", slog.String("path", e.snapshots.Name()))
		return &RunResult{FirstTime: true, NextSchema: schema}, nil
	}

	if err := sd.LoadNextSchema(ctx); err != nil {
		return nil, err
	}
	if err := sd.AnalyzeDiff(); err != nil {
		return nil, fmt.Errorf("failed to analyze schema diff: %w", err)
	}
	sd.SetComment(comment)

	result := &RunResult{Diff: sd, NextSchema: sd.NextSchema()}
	if e.history == nil {
		return result, nil
	}
	switch err := e.history.Record(ctx, sd); {
	case err == nil:
		result.Recorded = true
	case errors.Is(err, history.ErrNoDifference):
		e.log.Debug("no schema difference", slog.String("source", next.Name()))
	case errors.Is(err, history.ErrAlreadyRecorded):
		e.log.Debug("schema diff already recorded", slog.String("source", next.Name()))
	default:
		return nil, fmt.Errorf("failed to record schema diff: %w", err)
	}
	return result, nil
}

// Promote saves schema as the new baseline snapshot
func (e *Engine) Promote(ctx context.Context, schema *introspect.DatabaseSchema) error {
	if err := e.snapshots.Save(ctx, schema); err != nil {
		return fmt.Errorf("failed to promote snapshot: %w", err)
	}
	e.log.Info("promoted baseline snapshot",
		slog.String("path", e.snapshots.Name()),
		slog.Int("tables", len(schema.Tables)),
	)
	return nil
}

// History returns the recorded diffs, newest first
func (e *Engine) History(ctx context.Context, limit int) ([]*history.Record, error) {
	if e.history == nil {
		return nil, nil
	}
	return e.history.Records(ctx, limit)
}
