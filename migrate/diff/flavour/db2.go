package flavour

import (
	"regexp"
	"strings"
)

// DB2 assigns SQL<timestamp> names to unnamed objects.
var db2AutoName = regexp.MustCompile(`^SQL\d+`)

// DB2Flavour implements DifferFlavour for IBM DB2
type DB2Flavour struct{}

// NewDB2Flavour creates a new DB2 flavour
func NewDB2Flavour() DifferFlavour {
	return &DB2Flavour{}
}

func (f *DB2Flavour) Name() string { return "db2" }

// IsSystemSequence matches SQL* sequences created for identity columns
func (f *DB2Flavour) IsSystemSequence(name string) bool {
	return strings.HasPrefix(strings.ToUpper(name), "SQL")
}

func (f *DB2Flavour) IsAutoGeneratedName(kind ConstraintKind, name string) bool {
	return name == "" || db2AutoName.MatchString(strings.ToUpper(name))
}

func (f *DB2Flavour) IsSequenceAutoDefault(defaultValue string) bool {
	return false
}
