package visitors

import (
	"strings"

	"github.com/bawdo/sqlupdate/nodes"
)

// FormattingVisitor wraps any nodes.Visitor (dialect visitor) and produces
// human-readable multi-line SQL. VisitUpdateStatement renders each clause
// on its own line; every other node is delegated to the inner visitor, so
// quoting and parameter binding are unchanged.
type FormattingVisitor struct {
	inner nodes.Visitor
}

var _ nodes.Visitor = (*FormattingVisitor)(nil)
var _ nodes.Parameterizer = (*FormattingVisitor)(nil)

// NewFormattingVisitor constructs a FormattingVisitor wrapping the given
// dialect visitor.
func NewFormattingVisitor(inner nodes.Visitor) *FormattingVisitor {
	if inner == nil {
		panic("sqlupdate: FormattingVisitor requires a non-nil inner visitor")
	}
	return &FormattingVisitor{inner: inner}
}

// Params delegates to the inner visitor if it implements nodes.Parameterizer,
// otherwise returns nil.
func (f *FormattingVisitor) Params() []any {
	if p, ok := f.inner.(nodes.Parameterizer); ok {
		return p.Params()
	}
	return nil
}

// Reset delegates to the inner visitor if it implements nodes.Parameterizer.
func (f *FormattingVisitor) Reset() {
	if p, ok := f.inner.(nodes.Parameterizer); ok {
		p.Reset()
	}
}

// --- Delegation methods ---

func (f *FormattingVisitor) VisitTable(node *nodes.Table) string { return f.inner.VisitTable(node) }

func (f *FormattingVisitor) VisitColumn(node *nodes.Column) string { return f.inner.VisitColumn(node) }

func (f *FormattingVisitor) VisitLiteral(node *nodes.LiteralNode) string {
	return f.inner.VisitLiteral(node)
}

func (f *FormattingVisitor) VisitSqlLiteral(node *nodes.SqlLiteral) string {
	return f.inner.VisitSqlLiteral(node)
}

func (f *FormattingVisitor) VisitNull(node nodes.NullNode) string { return f.inner.VisitNull(node) }

func (f *FormattingVisitor) VisitExpression(node *nodes.ExpressionNode) string {
	return f.inner.VisitExpression(node)
}

func (f *FormattingVisitor) VisitOperator(node *nodes.OperatorNode) string {
	return f.inner.VisitOperator(node)
}

func (f *FormattingVisitor) VisitUnary(node *nodes.UnaryNode) string { return f.inner.VisitUnary(node) }

func (f *FormattingVisitor) VisitIn(node *nodes.InNode) string { return f.inner.VisitIn(node) }

func (f *FormattingVisitor) VisitWhere(node *nodes.Where) string { return f.inner.VisitWhere(node) }

func (f *FormattingVisitor) VisitAssignment(node *nodes.AssignmentNode) string {
	return f.inner.VisitAssignment(node)
}

// VisitUpdateStatement renders UPDATE with each clause on its own line,
// leading-comma style for multiple SET assignments and one top-level
// predicate per WHERE line.
func (f *FormattingVisitor) VisitUpdateStatement(n *nodes.UpdateStatement) string {
	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(n.Table.Accept(f.inner))

	if len(n.Assignments) > 0 {
		sb.WriteString("\nSET ")
		for i, a := range n.Assignments {
			if i > 0 {
				sb.WriteString("\n\t,")
			}
			sb.WriteString(a.Accept(f.inner))
		}
	}

	if n.Where != nil && !n.Where.IsEmpty() {
		sb.WriteString("\nWHERE ")
		first := true
		for _, e := range n.Where.Entries() {
			var part string
			if nested, ok := e.Predicate.(*nodes.Where); ok {
				if nested.IsEmpty() {
					continue
				}
				part = "(" + nested.Accept(f.inner) + ")"
			} else {
				part = e.Predicate.Accept(f.inner)
			}
			if !first {
				sb.WriteString("\n\t")
				sb.WriteString(e.Combinator.String())
				sb.WriteString(" ")
			}
			sb.WriteString(part)
			first = false
		}
	}

	return sb.String()
}
