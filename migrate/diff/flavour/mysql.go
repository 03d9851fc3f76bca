package flavour

import "regexp"

// InnoDB names foreign keys <table>_ibfk_<n> when no name is given.
var mysqlForeignKeyAutoName = regexp.MustCompile(`_ibfk_\d+$`)

// MySQLFlavour implements DifferFlavour for MySQL
type MySQLFlavour struct{}

// NewMySQLFlavour creates a new MySQL flavour
func NewMySQLFlavour() DifferFlavour {
	return &MySQLFlavour{}
}

func (f *MySQLFlavour) Name() string { return "mysql" }

// IsSystemSequence returns false: MySQL has no sequences
func (f *MySQLFlavour) IsSystemSequence(name string) bool {
	return false
}

// IsAutoGeneratedName detects InnoDB generated foreign key names
func (f *MySQLFlavour) IsAutoGeneratedName(kind ConstraintKind, name string) bool {
	if name == "" {
		return true
	}
	if kind == ForeignKey {
		return mysqlForeignKeyAutoName.MatchString(name)
	}
	return false
}

// IsSequenceAutoDefault returns false: AUTO_INCREMENT is not a default
func (f *MySQLFlavour) IsSequenceAutoDefault(defaultValue string) bool {
	return false
}
