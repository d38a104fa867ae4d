package nodes

// AssignmentNode represents a column = value pair in the SET clause.
type AssignmentNode struct {
	Column *Column
	Value  ValueNode
}

func (n *AssignmentNode) Accept(v Visitor) string { return v.VisitAssignment(n) }

// UpdateStatement represents UPDATE ... SET ... WHERE.
type UpdateStatement struct {
	Table       *Table
	Assignments []*AssignmentNode
	Where       *Where
}

// NewUpdateStatement returns a statement with an empty predicate set.
func NewUpdateStatement() *UpdateStatement {
	return &UpdateStatement{Where: NewWhere()}
}

func (n *UpdateStatement) Accept(v Visitor) string { return v.VisitUpdateStatement(n) }

// Assign sets col to val. Assigning a column that is already present
// replaces its value and keeps its original position.
func (n *UpdateStatement) Assign(col string, val ValueNode) {
	for _, a := range n.Assignments {
		if a.Column.Name == col {
			a.Value = val
			return
		}
	}
	n.Assignments = append(n.Assignments, &AssignmentNode{Column: NewColumn(col), Value: val})
}

// Assignment returns the value assigned to col.
func (n *UpdateStatement) Assignment(col string) (ValueNode, bool) {
	for _, a := range n.Assignments {
		if a.Column.Name == col {
			return a.Value, true
		}
	}
	return nil, false
}

// Clone returns a deep copy: assignments and the predicate tree are copied,
// so mutating the copy never affects n.
func (n *UpdateStatement) Clone() *UpdateStatement {
	c := &UpdateStatement{}
	if n.Table != nil {
		t := *n.Table
		c.Table = &t
	}
	if n.Assignments != nil {
		c.Assignments = make([]*AssignmentNode, len(n.Assignments))
		for i, a := range n.Assignments {
			c.Assignments[i] = &AssignmentNode{Column: NewColumn(a.Column.Name), Value: cloneValue(a.Value)}
		}
	}
	if n.Where != nil {
		c.Where = n.Where.Clone()
	} else {
		c.Where = NewWhere()
	}
	return c
}
