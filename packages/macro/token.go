package macro

import (
	"regexp"
	"strings"
)

var (
	namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
	argPattern  = regexp.MustCompile(`^\w+$`)
)

// token is one parsed macro reference such as ${ENV,var="HOME"}.
type token struct {
	name string
	args map[string]string
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}

// closingBrace returns the index of the '}' ending a macro body that starts at
// start, skipping braces inside double-quoted arguments, or -1.
func closingBrace(s string, start int) int {
	inQuote := false
	for i := start; i < len(s); i++ {
		switch c := s[i]; {
		case inQuote && c == '\\':
			i++
		case c == '"':
			inQuote = !inQuote
		case !inQuote && c == '}':
			return i
		}
	}
	return -1
}

// splitArgs splits on commas outside double quotes.
func splitArgs(s string) []string {
	var parts []string
	inQuote := false
	last := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case inQuote && c == '\\':
			i++
		case c == '"':
			inQuote = !inQuote
		case !inQuote && c == ',':
			parts = append(parts, s[last:i])
			last = i + 1
		}
	}
	return append(parts, s[last:])
}

// parseToken parses the body of a braced macro: NAME[,key=value...].
func parseToken(raw, body string) (*token, error) {
	parts := splitArgs(body)

	name := strings.TrimSpace(parts[0])
	if !namePattern.MatchString(name) {
		return nil, &EvaluationError{Macro: raw, Reason: "invalid macro name"}
	}

	tok := &token{name: name}
	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, &EvaluationError{Macro: raw, Reason: "empty argument"}
		}

		key, value, hasValue := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		if !argPattern.MatchString(key) {
			return nil, &EvaluationError{Macro: raw, Reason: "invalid argument name " + key}
		}
		if !hasValue {
			// A bare argument is a flag
			value = "true"
		} else {
			var err error
			value, err = parseValue(strings.TrimSpace(value))
			if err != nil {
				return nil, &EvaluationError{Macro: raw, Reason: "argument " + key + ": " + err.Error()}
			}
		}

		if tok.args == nil {
			tok.args = make(map[string]string)
		}
		tok.args[key] = value
	}
	return tok, nil
}

type syntaxError string

func (e syntaxError) Error() string { return string(e) }

func parseValue(v string) (string, error) {
	if v == "" {
		return "", syntaxError("missing value")
	}
	if v[0] != '"' {
		if strings.ContainsAny(v, `" `) {
			return "", syntaxError("unquoted value contains quote or space")
		}
		return v, nil
	}
	if len(v) < 2 || v[len(v)-1] != '"' {
		return "", syntaxError("unterminated string")
	}

	var b strings.Builder
	inner := v[1 : len(v)-1]
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c == '"' {
			return "", syntaxError("unescaped quote in string")
		}
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(inner) {
			return "", syntaxError("dangling escape")
		}
		switch inner[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		default:
			b.WriteByte(inner[i])
		}
	}
	return b.String(), nil
}
