package env

import "sync"

// Contribution is a single variable to add to a build environment when it is
// materialized.
type Contribution struct {
	Name  string
	Value string
}

// Builder receives contributions when a build environment is materialized.
type Builder interface {
	Put(name, value string)
}

// Contributions is an append-only list of pending contributions.
type Contributions struct {
	mu    sync.Mutex
	items []Contribution
}

// Export records name=value for the next materialization.
func (c *Contributions) Export(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, Contribution{Name: name, Value: value})
}

// Items returns a copy of the recorded contributions in export order.
func (c *Contributions) Items() []Contribution {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Contribution(nil), c.items...)
}

// BuildEnv applies every contribution to b in export order, so a later export of
// the same name wins. A nil builder is ignored.
func (c *Contributions) BuildEnv(b Builder) {
	if b == nil {
		return
	}
	if vars, ok := b.(Vars); ok && vars == nil {
		return
	}
	for _, item := range c.Items() {
		b.Put(item.Name, item.Value)
	}
}

// WriteDotEnv materializes the contributions into the dotenv file at path, keeping
// variables already present in it.
func (c *Contributions) WriteDotEnv(path string) error {
	vars, err := readOptionalDotEnv(path)
	if err != nil {
		return err
	}
	c.BuildEnv(vars)
	return WriteDotEnv(path, vars)
}
