package diff

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	craftTitleKey          = "craftTitle"
	craftRowDiffMapKey     = "craftRowDiff"
	craftKeyNameKey        = "craftKeyName"
	craftValueDiffKey      = "craftValueDiff"
	craftNullToken         = "null"
	craftValueDelimiter    = "|"
	craftHashThreshold     = 100
	craftMaxLineSize       = 16 * 1024 * 1024
	craftMetaFilePrefix    = "craft-meta-"
	craftMetaFileSuffix    = ".tsv"
	craftDirectionNext     = "next"
	craftDirectionPrevious = "previous"
)

// CraftDirection tells whether a craft meta file belongs to the next or
// the previous side.
type CraftDirection int

const (
	CraftNext CraftDirection = iota + 1
	CraftPrevious
)

func (d CraftDirection) String() string {
	switch d {
	case CraftNext:
		return craftDirectionNext
	case CraftPrevious:
		return craftDirectionPrevious
	default:
		return fmt.Sprintf("CraftDirection(%d)", int(d))
	}
}

// CraftFileNaming recognizes craft meta files by name.
type CraftFileNaming interface {
	// Parse returns the craft title and direction of the file, ok is false
	// for files that are not craft meta.
	Parse(fileName string) (title string, direction CraftDirection, ok bool)
}

// DefaultCraftFileNaming recognizes craft-meta-<title>-<next|previous>.tsv.
type DefaultCraftFileNaming struct{}

func (DefaultCraftFileNaming) Parse(fileName string) (string, CraftDirection, bool) {
	if !strings.HasPrefix(fileName, craftMetaFilePrefix) || !strings.HasSuffix(fileName, craftMetaFileSuffix) {
		return "", 0, false
	}
	body := strings.TrimSuffix(strings.TrimPrefix(fileName, craftMetaFilePrefix), craftMetaFileSuffix)
	i := strings.LastIndex(body, "-")
	if i <= 0 {
		return "", 0, false
	}
	title, direction := body[:i], body[i+1:]
	switch direction {
	case craftDirectionNext:
		return title, CraftNext, true
	case craftDirectionPrevious:
		return title, CraftPrevious, true
	default:
		return "", 0, false
	}
}

// CraftFileName builds the file name DefaultCraftFileNaming recognizes.
func CraftFileName(title string, direction CraftDirection) string {
	return craftMetaFilePrefix + title + "-" + direction.String() + craftMetaFileSuffix
}

// NeedsToHash reports whether a craft value is replaced by its digest
// before comparison.
func NeedsToHash(value string) bool {
	return utf8.RuneCountInString(value) > craftHashThreshold || strings.ContainsAny(value, "\r\n")
}

// ConvertToHash returns lineCount:charLength:hashHex of the value.
func ConvertToHash(value string) string {
	lines := strings.Count(value, "\n") + 1
	return fmt.Sprintf("%d:%d:%x", lines, utf8.RuneCountInString(value), xxhash.Sum64String(value))
}

// craftRows holds the rows of one title in file order.
type craftRows struct {
	keys   []string
	values map[string]string
}

// craftMeta is title -> rows for one direction.
type craftMeta struct {
	titles []string
	rows   map[string]*craftRows
}

func newCraftMeta() *craftMeta {
	return &craftMeta{rows: make(map[string]*craftRows)}
}

func (m *craftMeta) put(title string, rows *craftRows) {
	if _, ok := m.rows[title]; !ok {
		m.titles = append(m.titles, title)
		m.rows[title] = &craftRows{values: make(map[string]string)}
	}
	existing := m.rows[title]
	for _, key := range rows.keys {
		if _, ok := existing.values[key]; !ok {
			existing.keys = append(existing.keys, key)
		}
		existing.values[key] = rows.values[key]
	}
}

// craftLoader reads craft meta files from one directory.
type craftLoader struct {
	fs     afero.Fs
	dir    string
	naming CraftFileNaming
	log    *slog.Logger
}

// load returns the next and previous craft meta. A missing directory is
// treated as empty.
func (l *craftLoader) load() (next, previous *craftMeta, err error) {
	next, previous = newCraftMeta(), newCraftMeta()
	infos, err := afero.ReadDir(l.fs, l.dir)
	if err != nil {
		if errors.Is(err, afero.ErrFileNotFound) {
			return next, previous, nil
		}
		return nil, nil, fmt.Errorf("failed to read craft meta directory %s: %w", l.dir, err)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		title, direction, ok := l.naming.Parse(info.Name())
		if !ok {
			continue
		}
		filePath := path.Join(l.dir, info.Name())
		rows, err := l.loadFile(filePath)
		if err != nil {
			return nil, nil, err
		}
		l.log.Debug("loaded craft meta",
			slog.String("file", filePath),
			slog.String("title", title),
			slog.String("direction", direction.String()),
			slog.Int("count", len(rows.keys)),
		)
		if direction == CraftNext {
			next.put(title, rows)
		} else {
			previous.put(title, rows)
		}
	}
	return next, previous, nil
}

// loadFile reads one craft meta file. Cells are plain tab-separated text,
// quotes carry no meaning.
func (l *craftLoader) loadFile(filePath string) (*craftRows, error) {
	f, err := l.fs.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open craft meta %s: %w", filePath, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(transform.NewReader(f, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	scanner.Buffer(make([]byte, 0, 64*1024), craftMaxLineSize)

	rows := &craftRows{values: make(map[string]string)}
	var header []string
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		record := strings.Split(line, "\t")
		if header == nil {
			header = record
			continue
		}
		integrityError := func(reason string) error {
			return &CraftDataError{
				FilePath:  filePath,
				Header:    header,
				RowNumber: lineNumber,
				RowText:   line,
				Reason:    reason,
			}
		}
		if record[0] == "" {
			return nil, integrityError("the craft key is null")
		}
		key := escapeCraftNull(record[0])
		if _, ok := rows.values[key]; ok {
			return nil, integrityError(fmt.Sprintf("duplicate craft key %s", key))
		}
		fields := make([]string, 0, len(record)-1)
		for _, field := range record[1:] {
			fields = append(fields, escapeCraftNull(field))
		}
		value := strings.Join(fields, craftValueDelimiter)
		if NeedsToHash(value) {
			value = ConvertToHash(value)
		}
		rows.keys = append(rows.keys, key)
		rows.values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read craft meta %s: %w", filePath, err)
	}
	return rows, nil
}

// escapeCraftNull quotes a literal null so it is not read as no value.
func escapeCraftNull(s string) string {
	if s == craftNullToken {
		return quote(craftNullToken)
	}
	return s
}

var craftTitleAttributes []attribute

var craftRowAttributes = []attribute{
	{key: craftValueDiffKey, title: "Craft Value", quoted: true},
}

var craftTitleNestedHandlers = []nestedHandler[*CraftTitleDiff]{
	nested(craftRowDiffMapKey, func(t *CraftTitleDiff) *nestedDiffs[*CraftRowDiff] { return &t.rows }, parseCraftRowDiff),
}

// CraftTitleDiff is the difference of one craft title.
type CraftTitleDiff struct {
	entityDiff

	rows nestedDiffs[*CraftRowDiff]
}

func newCraftTitleDiff(title string, diffType DiffType) *CraftTitleDiff {
	return &CraftTitleDiff{entityDiff: newEntityDiff(craftTitleKey, craftTitleAttributes, title, diffType)}
}

func parseCraftTitleDiff(m map[string]any) (*CraftTitleDiff, error) {
	base, err := parseEntityDiff(craftTitleKey, craftTitleAttributes, m)
	if err != nil {
		return nil, err
	}
	t := &CraftTitleDiff{entityDiff: base}
	if err := readNested(t, craftTitleNestedHandlers, m); err != nil {
		return nil, err
	}
	return t, nil
}

func (d *CraftTitleDiff) CraftTitle() string { return d.identity }

func (d *CraftTitleDiff) CraftRowDiffs() []*CraftRowDiff        { return d.rows.all }
func (d *CraftTitleDiff) AddedCraftRowDiffs() []*CraftRowDiff   { return d.rows.added }
func (d *CraftTitleDiff) ChangedCraftRowDiffs() []*CraftRowDiff { return d.rows.changed }
func (d *CraftTitleDiff) DeletedCraftRowDiffs() []*CraftRowDiff { return d.rows.deleted }

// HasDifference also considers the nested row diffs.
func (d *CraftTitleDiff) HasDifference() bool {
	return d.entityDiff.HasDifference() || d.rows.hasDifference()
}

// DiffMap returns the serialized form including row diffs.
func (d *CraftTitleDiff) DiffMap() map[string]any {
	m := d.baseDiffMap()
	writeNested(d, craftTitleNestedHandlers, m)
	return m
}

// CraftRowDiff is the difference of one craft row.
type CraftRowDiff struct {
	entityDiff
}

func newCraftRowDiff(key string, diffType DiffType) *CraftRowDiff {
	return &CraftRowDiff{entityDiff: newEntityDiff(craftKeyNameKey, craftRowAttributes, key, diffType)}
}

func parseCraftRowDiff(m map[string]any) (*CraftRowDiff, error) {
	base, err := parseEntityDiff(craftKeyNameKey, craftRowAttributes, m)
	if err != nil {
		return nil, err
	}
	return &CraftRowDiff{entityDiff: base}, nil
}

func (d *CraftRowDiff) CraftKeyName() string { return d.identity }

func (d *CraftRowDiff) CraftValueDiff() *NextPreviousValue { return d.values[craftValueDiffKey] }

// DiffMap returns the serialized form.
func (d *CraftRowDiff) DiffMap() map[string]any {
	return d.baseDiffMap()
}

// diffCraft compares titles present on both sides only. A title new on one
// side has nothing to compare with.
func diffCraft(target *SchemaDiff, next, previous *craftMeta) {
	for _, title := range next.titles {
		previousRows, ok := previous.rows[title]
		if !ok {
			continue
		}
		nextRows := next.rows[title]
		d := newCraftTitleDiff(title, Changed)
		for _, key := range nextRows.keys {
			nextValue := nextRows.values[key]
			previousValue, ok := previousRows.values[key]
			if !ok {
				d.rows.add(newCraftRowDiff(key, Added))
				continue
			}
			if nextValue == previousValue {
				continue
			}
			row := newCraftRowDiff(key, Changed)
			row.set(craftValueDiffKey, NewNextPreviousValue(ptr(nextValue), ptr(previousValue)))
			d.rows.add(row)
		}
		for _, key := range previousRows.keys {
			if _, ok := nextRows.values[key]; !ok {
				d.rows.add(newCraftRowDiff(key, Deleted))
			}
		}
		if d.HasDifference() {
			target.craftTitles.add(d)
		}
	}
}
