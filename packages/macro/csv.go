package macro

import (
	"context"
	"io"
	"strings"
)

// ExpandCSV splits line on commas and expands every field with x, in order.
//
// A blank line yields nil rather than an empty slice. Fields are split strictly on
// ',' with no quoting or escaping, and trailing empty fields are dropped, so "a,b,"
// has two fields and "," none. Errors from the expander are returned unchanged;
// cancellation of ctx is checked before each field.
func ExpandCSV(ctx context.Context, x Expander, build *Build, listener io.Writer, line string) ([]string, error) {
	if strings.TrimSpace(line) == "" {
		return nil, nil
	}

	items := splitFields(line)
	values := make([]string, len(items))
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		value, err := x.Expand(ctx, build, listener, item)
		if err != nil {
			return nil, err
		}
		values[i] = value
	}
	return values, nil
}

// splitFields splits on commas and drops trailing empty fields. Leading and inner
// empty fields are kept.
func splitFields(line string) []string {
	items := strings.Split(line, ",")
	n := len(items)
	for n > 0 && items[n-1] == "" {
		n--
	}
	return items[:n]
}
