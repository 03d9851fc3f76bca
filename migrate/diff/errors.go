package diff

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrIllegalState marks misuse of the SchemaDiff life cycle or an internal
// consistency fault. It is raised with panic.
var ErrIllegalState = errors.New("illegal state")

func illegalState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIllegalState, fmt.Sprintf(format, args...))
}

// DiffMapError reports a missing or malformed key in a persisted diff map.
type DiffMapError struct {
	Key    string
	Reason string
	Map    map[string]any
}

func (e *DiffMapError) Error() string {
	return fmt.Sprintf("invalid diff map: key %q %s: %s", e.Key, e.Reason, dumpMap(e.Map))
}

// SnapshotLoadError wraps a failure to read a schema snapshot.
type SnapshotLoadError struct {
	Source string
	Err    error
}

func (e *SnapshotLoadError) Error() string {
	return fmt.Sprintf("failed to load schema snapshot %s: %v", e.Source, e.Err)
}

func (e *SnapshotLoadError) Unwrap() error {
	return e.Err
}

// CraftDataError reports an integrity problem in a craft meta file.
type CraftDataError struct {
	FilePath  string
	Header    []string
	RowNumber int
	RowText   string
	Reason    string
}

func (e *CraftDataError) Error() string {
	var sb strings.Builder
	sb.WriteString("craft meta integrity error: ")
	sb.WriteString(e.Reason)
	fmt.Fprintf(&sb, "\n  file: %s", e.FilePath)
	fmt.Fprintf(&sb, "\n  header: %s", strings.Join(e.Header, "\t"))
	fmt.Fprintf(&sb, "\n  row %d: %s", e.RowNumber, e.RowText)
	return sb.String()
}

func requireString(m map[string]any, key string) (string, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return "", &DiffMapError{Key: key, Reason: "is required", Map: m}
	}
	s, ok := raw.(string)
	if !ok {
		return "", &DiffMapError{Key: key, Reason: fmt.Sprintf("must be a string but was %T", raw), Map: m}
	}
	return s, nil
}

func optionalString(m map[string]any, key string) (*string, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return nil, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, &DiffMapError{Key: key, Reason: fmt.Sprintf("must be a string but was %T", raw), Map: m}
	}
	return &s, nil
}

func optionalMap(m map[string]any, key string) (map[string]any, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return nil, nil
	}
	sub, ok := raw.(map[string]any)
	if !ok {
		return nil, &DiffMapError{Key: key, Reason: fmt.Sprintf("must be a map but was %T", raw), Map: m}
	}
	return sub, nil
}

func requireDiffType(m map[string]any) (DiffType, error) {
	s, err := requireString(m, diffTypeKey)
	if err != nil {
		return 0, err
	}
	t, err := ParseDiffType(s)
	if err != nil {
		return 0, &DiffMapError{Key: diffTypeKey, Reason: err.Error(), Map: m}
	}
	return t, nil
}

// dumpMap renders a map with sorted keys for error messages.
func dumpMap(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(k)
		sb.WriteString("=")
		if sub, ok := m[k].(map[string]any); ok {
			sb.WriteString(dumpMap(sub))
		} else {
			fmt.Fprintf(&sb, "%v", m[k])
		}
	}
	sb.WriteString("}")
	return sb.String()
}
