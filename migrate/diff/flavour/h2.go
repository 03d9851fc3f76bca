package flavour

import (
	"regexp"
	"strings"
)

var (
	h2ConstraintAutoName = regexp.MustCompile(`^(CONSTRAINT|PRIMARY_KEY|FK|UK)_[0-9A-F]+$`)
	h2IndexAutoName      = regexp.MustCompile(`_INDEX_[0-9A-F]+$`)
)

// H2Flavour implements DifferFlavour for the H2 database
type H2Flavour struct{}

// NewH2Flavour creates a new H2 flavour
func NewH2Flavour() DifferFlavour {
	return &H2Flavour{}
}

func (f *H2Flavour) Name() string { return "h2" }

// IsSystemSequence matches SYSTEM_SEQUENCE_* generated for identity columns
func (f *H2Flavour) IsSystemSequence(name string) bool {
	return strings.HasPrefix(strings.ToUpper(name), "SYSTEM_SEQUENCE")
}

func (f *H2Flavour) IsAutoGeneratedName(kind ConstraintKind, name string) bool {
	if name == "" {
		return true
	}
	upper := strings.ToUpper(name)
	if kind == Index {
		return h2IndexAutoName.MatchString(upper) || h2ConstraintAutoName.MatchString(upper)
	}
	return h2ConstraintAutoName.MatchString(upper)
}

// IsSequenceAutoDefault matches (NEXT VALUE FOR PUBLIC.SYSTEM_SEQUENCE_...)
func (f *H2Flavour) IsSequenceAutoDefault(defaultValue string) bool {
	v := strings.ToUpper(strings.TrimSpace(defaultValue))
	v = strings.TrimPrefix(v, "(")
	return strings.HasPrefix(v, "NEXT VALUE FOR") && strings.Contains(v, "SYSTEM_SEQUENCE")
}
