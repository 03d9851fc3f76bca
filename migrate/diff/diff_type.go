package diff

import "fmt"

// DiffType tags every entity-level diff.
type DiffType int

const (
	Added DiffType = iota + 1
	Changed
	Deleted
)

// String returns the persisted literal.
func (t DiffType) String() string {
	switch t {
	case Added:
		return "ADD"
	case Changed:
		return "CHANGE"
	case Deleted:
		return "DELETE"
	default:
		return fmt.Sprintf("DiffType(%d)", int(t))
	}
}

// ParseDiffType parses ADD, CHANGE or DELETE.
func ParseDiffType(s string) (DiffType, error) {
	switch s {
	case "ADD":
		return Added, nil
	case "CHANGE":
		return Changed, nil
	case "DELETE":
		return Deleted, nil
	default:
		return 0, fmt.Errorf("unknown diff type: %q", s)
	}
}
