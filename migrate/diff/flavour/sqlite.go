package flavour

import (
	"regexp"
	"strings"
)

// The SQLite introspector names foreign keys <table>_fk_<id> from PRAGMA ids.
var sqliteForeignKeyAutoName = regexp.MustCompile(`_fk_\d+$`)

// SQLiteFlavour implements DifferFlavour for SQLite
type SQLiteFlavour struct{}

// NewSQLiteFlavour creates a new SQLite flavour
func NewSQLiteFlavour() DifferFlavour {
	return &SQLiteFlavour{}
}

func (f *SQLiteFlavour) Name() string { return "sqlite" }

func (f *SQLiteFlavour) IsSystemSequence(name string) bool {
	return name == "sqlite_sequence"
}

// IsAutoGeneratedName detects sqlite_autoindex_* indexes and PRAGMA-derived
// foreign key names
func (f *SQLiteFlavour) IsAutoGeneratedName(kind ConstraintKind, name string) bool {
	if name == "" {
		return true
	}
	switch kind {
	case ForeignKey:
		return sqliteForeignKeyAutoName.MatchString(name)
	case Index, UniqueKey, PrimaryKey:
		return strings.HasPrefix(name, "sqlite_autoindex_")
	}
	return false
}

func (f *SQLiteFlavour) IsSequenceAutoDefault(defaultValue string) bool {
	return false
}
