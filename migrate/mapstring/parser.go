// Package mapstring encodes nested diff maps as text:
//
//	map:{
//		"diffDate" = "2024/03/15 10:30:45";
//		"tableDiff" = map:{
//			"MEMBER" = map:{ ... }
//		}
//	}
//
// Values are quoted strings, maps or lists (list:{ "a"; "b" }).
package mapstring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	// ErrSyntax is returned for text that is not a valid map string.
	ErrSyntax = errors.New("map string syntax error")
	// ErrUnsupportedValue is returned when marshaling a value other than
	// string, map or list.
	ErrUnsupportedValue = errors.New("unsupported map string value")
)

var mapStringLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Keyword", Pattern: `\b(map|list)\b`},
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Punct", Pattern: `[:{};=]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

type rawValue struct {
	Map  *rawMap  `  @@`
	List *rawList `| @@`
	Str  *string  `| @String`
}

type rawMap struct {
	Entries []*rawEntry `"map":Keyword ":" "{" ( @@ ";"? )* "}"`
}

type rawEntry struct {
	Key   string    `@String "="`
	Value *rawValue `@@`
}

type rawList struct {
	Items []*rawValue `"list":Keyword ":" "{" ( @@ ";"? )* "}"`
}

var parser = participle.MustBuild[rawValue](
	participle.Lexer(mapStringLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
)

// Unmarshal parses text into a string, a map[string]any or a []any.
func Unmarshal(text string) (any, error) {
	raw, err := parser.ParseString("", text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	return raw.value(), nil
}

// UnmarshalMap parses text that must hold a map.
func UnmarshalMap(text string) (map[string]any, error) {
	v, err := Unmarshal(text)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a map but found %T", ErrSyntax, v)
	}
	return m, nil
}

// UnmarshalList parses text that must hold a list.
func UnmarshalList(text string) ([]any, error) {
	v, err := Unmarshal(text)
	if err != nil {
		return nil, err
	}
	l, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a list but found %T", ErrSyntax, v)
	}
	return l, nil
}

func (v *rawValue) value() any {
	switch {
	case v.Map != nil:
		m := make(map[string]any, len(v.Map.Entries))
		for _, e := range v.Map.Entries {
			m[e.Key] = e.Value.value()
		}
		return m
	case v.List != nil:
		l := make([]any, 0, len(v.List.Items))
		for _, item := range v.List.Items {
			l = append(l, item.value())
		}
		return l
	case v.Str != nil:
		return *v.Str
	default:
		return nil
	}
}

// Marshal renders a string, map[string]any or []any. Map keys are sorted.
func Marshal(v any) (string, error) {
	var sb strings.Builder
	if err := write(&sb, v, 0); err != nil {
		return "", err
	}
	return sb.String(), nil
}
