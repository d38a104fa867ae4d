package nodes

import "strings"

// Predicate is the closed set of WHERE tree nodes: *ExpressionNode,
// *OperatorNode, *UnaryNode, *InNode and *Where.
type Predicate interface {
	Node
	isPredicate()
}

// Placeholder marks a substitution point in an ExpressionNode template.
const Placeholder = "?"

// ExpressionNode is a SQL fragment with positional "?" placeholders, each
// substituted by the corresponding value. With no values the template is
// emitted verbatim, including any "?" it contains.
type ExpressionNode struct {
	Template string
	Values   []ValueNode
}

// NewExpression normalizes values and checks that their count matches the
// placeholders in template.
func NewExpression(template string, values ...any) (*ExpressionNode, error) {
	if strings.TrimSpace(template) == "" {
		return nil, invalidPredicate(template, "empty expression")
	}
	n := &ExpressionNode{Template: template}
	if len(values) == 0 {
		return n, nil
	}
	if got := len(SplitTemplate(template)) - 1; got != len(values) {
		return nil, invalidPredicate(template, "expression %q has %d placeholders, got %d values", template, got, len(values))
	}
	n.Values = make([]ValueNode, len(values))
	for i, val := range values {
		v, err := NormalizeValue(val)
		if err != nil {
			return nil, err
		}
		n.Values[i] = v
	}
	return n, nil
}

func (n *ExpressionNode) Accept(v Visitor) string { return v.VisitExpression(n) }
func (*ExpressionNode) isPredicate()              {}

// SplitTemplate splits template around "?" placeholders that are not
// inside single-quoted strings or double-quoted identifiers. A template
// with k placeholders yields k+1 segments.
func SplitTemplate(template string) []string {
	var segments []string
	var inSingle, inDouble bool
	start := 0
	for i := 0; i < len(template); i++ {
		switch template[i] {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case '?':
			if !inSingle && !inDouble {
				segments = append(segments, template[start:i])
				start = i + 1
			}
		}
	}
	return append(segments, template[start:])
}

// ComparisonOp represents a binary comparison operator.
type ComparisonOp int

const (
	OpEq ComparisonOp = iota
	OpNotEq
	OpLt
	OpLtEq
	OpGt
	OpGtEq
	OpLike
	OpNotLike
)

var comparisonOpSQL = [...]string{
	OpEq:      "=",
	OpNotEq:   "<>",
	OpLt:      "<",
	OpLtEq:    "<=",
	OpGt:      ">",
	OpGtEq:    ">=",
	OpLike:    "LIKE",
	OpNotLike: "NOT LIKE",
}

func (op ComparisonOp) String() string {
	if op < 0 || int(op) >= len(comparisonOpSQL) {
		return "?"
	}
	return comparisonOpSQL[op]
}

// ParseComparisonOp maps an operator token ("=", "!=", "like", ...) to a
// ComparisonOp. Keywords are case-insensitive and inner whitespace is
// collapsed.
func ParseComparisonOp(s string) (ComparisonOp, bool) {
	token := strings.ToUpper(strings.Join(strings.Fields(s), " "))
	switch token {
	case "=", "==":
		return OpEq, true
	case "<>", "!=":
		return OpNotEq, true
	case "<":
		return OpLt, true
	case "<=":
		return OpLtEq, true
	case ">":
		return OpGt, true
	case ">=":
		return OpGtEq, true
	case "LIKE":
		return OpLike, true
	case "NOT LIKE":
		return OpNotLike, true
	}
	return 0, false
}

// OperatorNode is "Left Op Right".
type OperatorNode struct {
	Left  *Column
	Op    ComparisonOp
	Right ValueNode
}

// NewOperator builds "col op val" with a normalized value.
func NewOperator(col string, op ComparisonOp, val any) (*OperatorNode, error) {
	if col == "" {
		return nil, invalidPredicate(col, "%s", ErrEmptyIdentifier)
	}
	v, err := NormalizeValue(val)
	if err != nil {
		return nil, err
	}
	return &OperatorNode{Left: NewColumn(col), Op: op, Right: v}, nil
}

func (n *OperatorNode) Accept(v Visitor) string { return v.VisitOperator(n) }
func (*OperatorNode) isPredicate()              {}

// UnaryOp represents a unary postfix operator.
type UnaryOp int

const (
	OpIsNull UnaryOp = iota
	OpIsNotNull
)

// UnaryNode represents a unary predicate: Expr IS NULL / IS NOT NULL.
type UnaryNode struct {
	Expr *Column
	Op   UnaryOp
}

// IsNull builds "col IS NULL".
func IsNull(col string) *UnaryNode {
	return &UnaryNode{Expr: NewColumn(col), Op: OpIsNull}
}

// IsNotNull builds "col IS NOT NULL".
func IsNotNull(col string) *UnaryNode {
	return &UnaryNode{Expr: NewColumn(col), Op: OpIsNotNull}
}

func (n *UnaryNode) Accept(v Visitor) string { return v.VisitUnary(n) }
func (*UnaryNode) isPredicate()              {}

// InNode represents an IN or NOT IN set predicate.
type InNode struct {
	Expr   *Column
	Vals   []ValueNode
	Negate bool
}

// NewIn builds "col IN (...)" from a slice or array of values.
// An empty list is rejected since "IN ()" is not valid SQL.
func NewIn(col string, values any) (*InNode, error) {
	if col == "" {
		return nil, invalidPredicate(col, "%s", ErrEmptyIdentifier)
	}
	vals, err := NormalizeValues(values)
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, invalidPredicate(values, "empty value list for IN on %q", col)
	}
	return &InNode{Expr: NewColumn(col), Vals: vals}, nil
}

// NewNotIn builds "col NOT IN (...)".
func NewNotIn(col string, values any) (*InNode, error) {
	n, err := NewIn(col, values)
	if err != nil {
		return nil, err
	}
	n.Negate = true
	return n, nil
}

func (n *InNode) Accept(v Visitor) string { return v.VisitIn(n) }
func (*InNode) isPredicate()              {}

func clonePredicate(p Predicate, parent *Where) Predicate {
	switch n := p.(type) {
	case *Where:
		return n.clone(parent)
	case *ExpressionNode:
		c := &ExpressionNode{Template: n.Template}
		if n.Values != nil {
			c.Values = make([]ValueNode, len(n.Values))
			for i, v := range n.Values {
				c.Values[i] = cloneValue(v)
			}
		}
		return c
	case *OperatorNode:
		return &OperatorNode{Left: NewColumn(n.Left.Name), Op: n.Op, Right: cloneValue(n.Right)}
	case *UnaryNode:
		return &UnaryNode{Expr: NewColumn(n.Expr.Name), Op: n.Op}
	case *InNode:
		vals := make([]ValueNode, len(n.Vals))
		for i, v := range n.Vals {
			vals[i] = cloneValue(v)
		}
		return &InNode{Expr: NewColumn(n.Expr.Name), Vals: vals, Negate: n.Negate}
	default:
		panic("sqlupdate: unknown predicate type")
	}
}
