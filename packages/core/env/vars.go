package env

import (
	"os"
	"regexp"
	"sort"
	"strings"
)

var variablePattern = regexp.MustCompile(`\$([A-Za-z0-9_]+|\{[A-Za-z0-9_.]+\})`)

// Vars is a set of environment variables. Later writes win.
type Vars map[string]string

// Expand replaces $NAME and ${NAME} references with their values. References to
// undefined variables are left untouched.
func (v Vars) Expand(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	return variablePattern.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(match[1:], "{"), "}")
		if val, ok := v[name]; ok {
			return val
		}
		return match
	})
}

// Put sets name to value. It is a no-op on a nil map so Vars can serve as an
// optional Builder.
func (v Vars) Put(name, value string) {
	if v == nil {
		return
	}
	v[name] = value
}

// Overlay copies other into v, overwriting existing keys.
func (v Vars) Overlay(other map[string]string) Vars {
	for k, val := range other {
		v[k] = val
	}
	return v
}

func (v Vars) Clone() Vars {
	clone := make(Vars, len(v))
	for k, val := range v {
		clone[k] = val
	}
	return clone
}

// Keys returns the variable names sorted.
func (v Vars) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MergeVars merges sources left to right into a new map.
func MergeVars(sources ...map[string]string) Vars {
	result := make(Vars)
	for _, src := range sources {
		result.Overlay(src)
	}
	return result
}

// LoadSystemEnv returns the process environment, optionally restricted to keys
// starting with prefix (which is stripped).
func LoadSystemEnv(prefix string) Vars {
	result := make(Vars)
	for _, e := range os.Environ() {
		key, value, ok := strings.Cut(e, "=")
		if !ok {
			continue
		}
		if prefix == "" {
			result[key] = value
		} else if len(key) > len(prefix) && strings.HasPrefix(key, prefix) {
			result[key[len(prefix):]] = value
		}
	}
	return result
}
