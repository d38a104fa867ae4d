package driver

import "database/sql"

// Parameter is one bound value. Position is 1-based; Name is empty for
// positional parameters.
type Parameter struct {
	Position int
	Name     string
	Value    any
}

// ParameterContainer is the ordered bag of values bound to a statement.
type ParameterContainer struct {
	params []Parameter
	names  map[string]int // name -> index into params
}

// NewParameterContainer returns an empty container.
func NewParameterContainer() *ParameterContainer {
	return &ParameterContainer{names: make(map[string]int)}
}

// Offset appends a value. An empty name appends a positional parameter.
// Setting a name that is already present replaces its value in place.
func (c *ParameterContainer) Offset(name string, value any) {
	if c.names == nil {
		c.names = make(map[string]int)
	}
	if name != "" {
		if i, ok := c.names[name]; ok {
			c.params[i].Value = value
			return
		}
		c.names[name] = len(c.params)
	}
	c.params = append(c.params, Parameter{
		Position: len(c.params) + 1,
		Name:     name,
		Value:    value,
	})
}

// Len returns the number of bound parameters.
func (c *ParameterContainer) Len() int {
	return len(c.params)
}

// Get returns the value bound to name.
func (c *ParameterContainer) Get(name string) (any, bool) {
	i, ok := c.names[name]
	if !ok {
		return nil, false
	}
	return c.params[i].Value, true
}

// Parameters returns a copy of the bound parameters in bind order.
func (c *ParameterContainer) Parameters() []Parameter {
	out := make([]Parameter, len(c.params))
	copy(out, c.params)
	return out
}

// Values returns the bound values in bind order.
func (c *ParameterContainer) Values() []any {
	out := make([]any, len(c.params))
	for i, p := range c.params {
		out[i] = p.Value
	}
	return out
}

// Names returns the parameter names in bind order; positional entries
// contribute an empty string.
func (c *ParameterContainer) Names() []string {
	out := make([]string, len(c.params))
	for i, p := range c.params {
		out[i] = p.Name
	}
	return out
}

// Args returns the values as database/sql arguments. Named parameters are
// wrapped with sql.Named.
func (c *ParameterContainer) Args() []any {
	out := make([]any, len(c.params))
	for i, p := range c.params {
		if p.Name != "" {
			out[i] = sql.Named(p.Name, p.Value)
			continue
		}
		out[i] = p.Value
	}
	return out
}

// Reset removes all parameters.
func (c *ParameterContainer) Reset() {
	c.params = nil
	c.names = make(map[string]int)
}
