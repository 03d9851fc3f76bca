package flavour

import "strings"

// PostgresFlavour implements DifferFlavour for PostgreSQL and CockroachDB
type PostgresFlavour struct{}

// NewPostgresFlavour creates a new PostgreSQL flavour
func NewPostgresFlavour() DifferFlavour {
	return &PostgresFlavour{}
}

func (f *PostgresFlavour) Name() string { return "postgresql" }

// IsSystemSequence returns false: serial sequences are owned by user columns
// and are part of the schema.
func (f *PostgresFlavour) IsSystemSequence(name string) bool {
	return false
}

// IsAutoGeneratedName returns true only for unnamed constraints.
// Default names such as orders_member_id_fkey are derived from table and
// columns and are stable across reloads.
func (f *PostgresFlavour) IsAutoGeneratedName(kind ConstraintKind, name string) bool {
	return name == ""
}

// IsSequenceAutoDefault matches nextval('..._seq'::regclass)
func (f *PostgresFlavour) IsSequenceAutoDefault(defaultValue string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(defaultValue)), "nextval(")
}
