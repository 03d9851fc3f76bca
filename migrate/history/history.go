package history

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/go-version"
	"github.com/spf13/afero"

	"github.com/satishbabariya/schemadiff/internal/debug"
	"github.com/satishbabariya/schemadiff/migrate/diff"
	"github.com/satishbabariya/schemadiff/migrate/mapstring"
)

// FormatVersion is the version written to new history files. Since 1.1
// every entry carries the checksum of its diff map.
const FormatVersion = "1.1"

const (
	headerPrefix   = "# schemadiff-history "
	checksumKey    = "checksum"
	schemaDiffKey  = "schemaDiff"
	diffDateMapKey = "diffDate"
)

// Files written by any 1.x release are readable.
var supportedFormats = version.MustConstraints(version.NewConstraint(">= 1.0, < 2.0"))

var (
	// ErrUnsupportedFormat is returned for a history file written by an
	// incompatible release.
	ErrUnsupportedFormat = errors.New("unsupported history format")
	// ErrNoDifference is returned when recording a diff without difference.
	ErrNoDifference = errors.New("schema diff has no difference")
	// ErrAlreadyRecorded is returned when the newest entry holds the same
	// diff apart from its date.
	ErrAlreadyRecorded = errors.New("schema diff is already recorded")
	// ErrChecksumMismatch is returned for an entry whose diff map no longer
	// matches the checksum written with it.
	ErrChecksumMismatch = errors.New("history entry checksum mismatch")
)

// Record is one recorded schema diff.
type Record struct {
	DiffDate time.Time
	Comment  *string
	// Checksum is the SHA-256 of the serialized diff map, verified on read.
	Checksum string
	Diff     *diff.SchemaDiff
}

// Manager manages the schema diff history file. The newest diff comes
// first.
type Manager struct {
	fs   afero.Fs
	path string
	log  *slog.Logger
}

// NewManager creates a history manager for the file at path
func NewManager(fs afero.Fs, path string) *Manager {
	return &Manager{
		fs:   fs,
		path: path,
		log:  debug.Logger(),
	}
}

// Path returns the history file path
func (m *Manager) Path() string {
	return m.path
}

// Record prepends an analyzed schema diff to the history
func (m *Manager) Record(ctx context.Context, sd *diff.SchemaDiff) error {
	if !sd.HasDifference() && !sd.HasTableCountDifference() {
		return ErrNoDifference
	}
	entries, err := m.readEntries(ctx)
	if err != nil {
		return err
	}
	diffMap := sd.CreateSchemaDiffMap()
	if len(entries) > 0 {
		newest, _, err := unwrapEntry(entries[0])
		if err != nil {
			return fmt.Errorf("invalid history entry 0 of %s: %w", m.path, err)
		}
		same, err := sameDiff(newest, diffMap)
		if err != nil {
			return err
		}
		if same {
			return ErrAlreadyRecorded
		}
	}
	sum, err := checksum(diffMap)
	if err != nil {
		return err
	}
	entries = append([]any{map[string]any{checksumKey: sum, schemaDiffKey: diffMap}}, entries...)

	body, err := mapstring.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	content := headerPrefix + FormatVersion + "\n" + body + "\n"
	if err := writeFileAtomic(m.fs, m.path, []byte(content)); err != nil {
		return err
	}
	m.log.Debug("recorded schema diff",
		slog.String("path", m.path),
		slog.Int("count", len(entries)),
	)
	return nil
}

// Records returns up to limit recorded diffs, newest first. A limit of zero
// or less returns all of them.
func (m *Manager) Records(ctx context.Context, limit int) ([]*Record, error) {
	entries, err := m.readEntries(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	records := make([]*Record, 0, len(entries))
	for i, entry := range entries {
		diffMap, stored, err := unwrapEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid history entry %d of %s: %w", i, m.path, err)
		}
		sum, err := checksum(diffMap)
		if err != nil {
			return nil, fmt.Errorf("failed to encode history entry %d: %w", i, err)
		}
		if stored != "" && stored != sum {
			return nil, fmt.Errorf("%w: entry %d of %s", ErrChecksumMismatch, i, m.path)
		}
		sd := diff.NewSchemaDiffForSerializer()
		if err := sd.AcceptSchemaDiffMap(diffMap); err != nil {
			return nil, fmt.Errorf("invalid history entry %d of %s: %w", i, m.path, err)
		}
		records = append(records, &Record{
			DiffDate: sd.DiffDate(),
			Comment:  sd.Comment(),
			Checksum: sum,
			Diff:     sd,
		})
	}
	return records, nil
}

// unwrapEntry returns the diff map of an entry and its stored checksum.
// Entries written before format 1.1 are bare diff maps without checksum.
func unwrapEntry(entry any) (map[string]any, string, error) {
	m, ok := entry.(map[string]any)
	if !ok {
		return nil, "", fmt.Errorf("%w: entry is not a map", mapstring.ErrSyntax)
	}
	raw, wrapped := m[schemaDiffKey]
	if !wrapped {
		return m, "", nil
	}
	diffMap, ok := raw.(map[string]any)
	if !ok {
		return nil, "", fmt.Errorf("%w: %s is not a map", mapstring.ErrSyntax, schemaDiffKey)
	}
	sum, ok := m[checksumKey].(string)
	if !ok || sum == "" {
		return nil, "", fmt.Errorf("%w: missing %s", mapstring.ErrSyntax, checksumKey)
	}
	return diffMap, sum, nil
}

func checksum(diffMap map[string]any) (string, error) {
	text, err := mapstring.Marshal(diffMap)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:]), nil
}

// sameDiff compares two diff maps ignoring their date.
func sameDiff(a, b map[string]any) (bool, error) {
	ta, err := mapstring.Marshal(withoutDate(a))
	if err != nil {
		return false, err
	}
	tb, err := mapstring.Marshal(withoutDate(b))
	if err != nil {
		return false, err
	}
	return ta == tb, nil
}

func withoutDate(m map[string]any) map[string]any {
	c := make(map[string]any, len(m))
	for k, v := range m {
		if k != diffDateMapKey {
			c[k] = v
		}
	}
	return c
}

func (m *Manager) readEntries(ctx context.Context) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(m.fs, m.path)
	if err != nil {
		if errors.Is(err, afero.ErrFileNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history %s: %w", m.path, err)
	}
	header, body, err := splitHeader(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.path, err)
	}
	if err := checkFormat(header); err != nil {
		return nil, fmt.Errorf("%s: %w", m.path, err)
	}
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}
	entries, err := mapstring.UnmarshalList(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse history %s: %w", m.path, err)
	}
	return entries, nil
}

func splitHeader(content string) (string, string, error) {
	scanner := bufio.NewScanner(strings.NewReader(content))
	if !scanner.Scan() {
		return "", "", fmt.Errorf("%w: missing header", ErrUnsupportedFormat)
	}
	first := scanner.Text()
	if !strings.HasPrefix(first, headerPrefix) {
		return "", "", fmt.Errorf("%w: missing header", ErrUnsupportedFormat)
	}
	return strings.TrimPrefix(first, headerPrefix), content[len(first):], nil
}

func checkFormat(header string) error {
	v, err := version.NewVersion(strings.TrimSpace(header))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, header)
	}
	if !supportedFormats.Check(v) {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, v)
	}
	return nil
}
