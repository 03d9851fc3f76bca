// Package flavour provides provider-specific naming rules used by the schema differ
package flavour

import (
	"fmt"
	"strings"
)

// ConstraintKind identifies the constraint-like object a name belongs to
type ConstraintKind int

const (
	PrimaryKey ConstraintKind = iota
	ForeignKey
	UniqueKey
	Index
)

func (k ConstraintKind) String() string {
	switch k {
	case PrimaryKey:
		return "primary key"
	case ForeignKey:
		return "foreign key"
	case UniqueKey:
		return "unique key"
	case Index:
		return "index"
	default:
		return fmt.Sprintf("ConstraintKind(%d)", int(k))
	}
}

// DifferFlavour provides provider-specific knowledge for schema comparison
type DifferFlavour interface {
	// Name returns the provider name
	Name() string

	// IsSystemSequence reports whether a sequence was generated by the
	// database itself and should not be treated as user schema
	IsSystemSequence(name string) bool

	// IsAutoGeneratedName reports whether a constraint name was assigned by
	// the database and carries no stable identity across reloads
	IsAutoGeneratedName(kind ConstraintKind, name string) bool

	// IsSequenceAutoDefault reports whether a column default is the
	// expression the database writes for an identity/sequence column
	IsSequenceAutoDefault(defaultValue string) bool
}

// ForProvider returns the flavour for the given provider name
func ForProvider(provider string) (DifferFlavour, error) {
	switch strings.ToLower(provider) {
	case "postgresql", "postgres", "cockroachdb":
		return NewPostgresFlavour(), nil
	case "mysql":
		return NewMySQLFlavour(), nil
	case "sqlite", "sqlite3":
		return NewSQLiteFlavour(), nil
	case "h2":
		return NewH2Flavour(), nil
	case "db2":
		return NewDB2Flavour(), nil
	case "", "generic":
		return NewGenericFlavour(), nil
	default:
		return nil, fmt.Errorf("unknown differ flavour: %q", provider)
	}
}

// GenericFlavour knows no vendor conventions
type GenericFlavour struct{}

// NewGenericFlavour creates the vendor-neutral flavour
func NewGenericFlavour() DifferFlavour {
	return &GenericFlavour{}
}

func (f *GenericFlavour) Name() string { return "generic" }

func (f *GenericFlavour) IsSystemSequence(name string) bool { return false }

func (f *GenericFlavour) IsAutoGeneratedName(kind ConstraintKind, name string) bool {
	return name == ""
}

func (f *GenericFlavour) IsSequenceAutoDefault(defaultValue string) bool { return false }
