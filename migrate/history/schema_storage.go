// Package history stores the previous schema snapshot and the history of
// schema diffs.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/satishbabariya/schemadiff/migrate/introspect"
)

var (
	// ErrSnapshotNotFound is returned by Load when no snapshot was saved.
	ErrSnapshotNotFound = errors.New("schema snapshot not found")
	// ErrEmptySnapshot is returned by Load for an empty snapshot file.
	ErrEmptySnapshot = errors.New("schema snapshot is empty")
)

// SerializeSchema serializes a DatabaseSchema to indented JSON
func SerializeSchema(schema *introspect.DatabaseSchema) ([]byte, error) {
	if schema == nil {
		return nil, errors.New("failed to serialize schema: schema is nil")
	}
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize schema: %w", err)
	}
	return data, nil
}

// DeserializeSchema deserializes JSON to a DatabaseSchema
func DeserializeSchema(data []byte) (*introspect.DatabaseSchema, error) {
	if len(data) == 0 {
		return nil, ErrEmptySnapshot
	}
	var schema introspect.DatabaseSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("failed to deserialize schema: %w", err)
	}
	return &schema, nil
}

// SnapshotStore keeps one schema snapshot in a JSON file. It serves as the
// previous side of a schema diff.
type SnapshotStore struct {
	fs   afero.Fs
	path string
}

// NewSnapshotStore creates a store for the snapshot file at path
func NewSnapshotStore(fs afero.Fs, path string) *SnapshotStore {
	return &SnapshotStore{fs: fs, path: path}
}

// Name returns the snapshot file path
func (s *SnapshotStore) Name() string {
	return s.path
}

// Exists reports whether a snapshot was saved
func (s *SnapshotStore) Exists(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return afero.Exists(s.fs, s.path)
}

// Load reads the snapshot
func (s *SnapshotStore) Load(ctx context.Context) (*introspect.DatabaseSchema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, afero.ErrFileNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, s.path)
		}
		return nil, fmt.Errorf("failed to read snapshot %s: %w", s.path, err)
	}
	return DeserializeSchema(data)
}

// Save replaces the snapshot. The file is written next to the target and
// renamed so that a failed write keeps the old snapshot.
func (s *SnapshotStore) Save(ctx context.Context, schema *introspect.DatabaseSchema) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := SerializeSchema(schema)
	if err != nil {
		return err
	}
	return writeFileAtomic(s.fs, s.path, data)
}

func writeFileAtomic(fs afero.Fs, path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	tmp := path + ".tmp"
	if err := afero.WriteFile(fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := fs.Rename(tmp, path); err != nil {
		_ = fs.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
