package nodes

// Table represents the UPDATE target. Name may be schema-qualified
// ("public.users"); Alias is optional.
type Table struct {
	Name  string
	Alias string
}

// NewTable creates a table reference.
func NewTable(name string) *Table {
	return &Table{Name: name}
}

func (t *Table) Accept(v Visitor) string { return v.VisitTable(t) }

// As returns a copy of the table with the given alias.
func (t *Table) As(alias string) *Table {
	return &Table{Name: t.Name, Alias: alias}
}

// Ref returns the name other clauses use to refer to the table: the
// alias when set, otherwise the table name.
func (t *Table) Ref() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// Col creates a column reference qualified by Ref, e.g. "u"."id".
func (t *Table) Col(name string) *Column {
	return NewColumn(t.Ref() + "." + name)
}

// Column is a column identifier, optionally dot-qualified ("u.id").
type Column struct {
	Name string
}

// NewColumn creates a column reference.
func NewColumn(name string) *Column {
	return &Column{Name: name}
}

func (c *Column) Accept(v Visitor) string { return v.VisitColumn(c) }
