package introspect

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"strings"
	"unicode/utf8"
)

// newProcedure fills the source metadata of a procedure from its body. A
// body the catalog does not expose gets the sentinels, which never produce
// a difference.
func newProcedure(schema, name string, body sql.NullString, comment sql.NullString) Procedure {
	proc := Procedure{
		Name:       name,
		Schema:     schema,
		Comment:    nullString(comment),
		SourceLine: NoSourceMetadata,
		SourceSize: NoSourceMetadata,
		SourceHash: NoSourceHash,
	}
	if !body.Valid {
		return proc
	}
	source := strings.ReplaceAll(body.String, "\r\n", "\n")
	sum := sha256.Sum256([]byte(source))
	proc.SourceLine = strings.Count(source, "\n") + 1
	proc.SourceSize = utf8.RuneCountInString(source)
	proc.SourceHash = strings.ToUpper(hex.EncodeToString(sum[:]))
	return proc
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// splitArray parses the text form of a PostgreSQL array such as {a,b}.
func splitArray(s string) []string {
	s = strings.Trim(s, "{}")
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.Trim(p, `"`)
	}
	return parts
}
