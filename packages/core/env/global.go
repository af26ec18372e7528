package env

// PropertySet is a named set of environment variables from the host configuration.
type PropertySet struct {
	Name      string            `json:"name,omitempty" yaml:"name,omitempty"`
	Variables map[string]string `json:"variables" yaml:"variables"`
}

// Source exposes the globally configured environment property sets.
type Source interface {
	EnvironmentProperties() []PropertySet
}

// Global returns a copy of the first configured property set's variables. The
// result is empty, never nil, when src is nil or has no property sets.
func Global(src Source) Vars {
	if src == nil {
		return Vars{}
	}
	props := src.EnvironmentProperties()
	if len(props) == 0 {
		return Vars{}
	}
	return Vars(props[0].Variables).Clone()
}

// ExpandGlobal expands $VAR references in s with the global variables.
func ExpandGlobal(src Source, s string) string {
	return Global(src).Expand(s)
}

// Sources chains several sources; their property sets are concatenated in order.
type Sources []Source

func (s Sources) EnvironmentProperties() []PropertySet {
	var props []PropertySet
	for _, src := range s {
		if src == nil {
			continue
		}
		props = append(props, src.EnvironmentProperties()...)
	}
	return props
}
