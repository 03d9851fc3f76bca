package mapstring

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

func write(sb *strings.Builder, v any, depth int) error {
	switch x := v.(type) {
	case string:
		sb.WriteString(strconv.Quote(x))
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString("map:{")
		for i, k := range keys {
			newline(sb, depth+1)
			sb.WriteString(strconv.Quote(k))
			sb.WriteString(" = ")
			if err := write(sb, x[k], depth+1); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			if i < len(keys)-1 {
				sb.WriteString(";")
			}
		}
		if len(keys) > 0 {
			newline(sb, depth)
		}
		sb.WriteString("}")
	case []map[string]any:
		items := make([]any, len(x))
		for i := range x {
			items[i] = x[i]
		}
		return write(sb, items, depth)
	case []any:
		sb.WriteString("list:{")
		for i, item := range x {
			newline(sb, depth+1)
			if err := write(sb, item, depth+1); err != nil {
				return err
			}
			if i < len(x)-1 {
				sb.WriteString(";")
			}
		}
		if len(x) > 0 {
			newline(sb, depth)
		}
		sb.WriteString("}")
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
	return nil
}

func newline(sb *strings.Builder, depth int) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("\t", depth))
}
