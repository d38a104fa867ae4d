// Package visitors renders UPDATE statements to SQL by walking the AST.
//
// A visitor runs in one of two modes. In parameterized mode (the default)
// literal values become driver placeholders and are collected in a
// driver.ParameterContainer. With WithoutParams they are quoted and inlined.
// Raw SQL fragments and NULL are inlined in both modes.
package visitors

import (
	sqldriver "database/sql/driver"
	"fmt"
	"strings"

	"github.com/bawdo/sqlupdate/driver"
	"github.com/bawdo/sqlupdate/nodes"
	"github.com/bawdo/sqlupdate/platform"
)

// Option configures a visitor at construction time.
type Option func(*baseVisitor)

// WithParams enables parameterized mode. It is the default; the option
// exists to undo an earlier WithoutParams.
func WithParams() Option {
	return func(b *baseVisitor) {
		b.parameterize = true
	}
}

// WithoutParams disables parameterized mode.
//
// ⚠️ WARNING: Disables SQL injection protection. Literal values are
// interpolated into the SQL string with platform escaping only. Use it for
// debugging or for statements built from trusted values.
func WithoutParams() Option {
	return func(b *baseVisitor) {
		b.parameterize = false
	}
}

// WithDriver selects the placeholder convention and enables parameterized mode.
func WithDriver(d driver.Driver) Option {
	return func(b *baseVisitor) {
		b.driver = d
		b.parameterize = true
	}
}

// baseVisitor implements the shared SQL generation logic used by all dialects.
// Dialect-specific visitors embed *baseVisitor and set the outer field to
// themselves, enabling correct virtual dispatch through the Visitor interface.
type baseVisitor struct {
	// outer is the concrete dialect visitor. All recursive Accept calls
	// go through outer so that dialect overrides are respected.
	outer nodes.Visitor

	platform platform.Platform

	// parameterize enables bind-parameter mode.
	parameterize bool

	// driver formats placeholders in parameterized mode.
	driver driver.Driver

	// params accumulates bind parameters during SQL generation.
	params *driver.ParameterContainer

	// paramIndex tracks the last parameter number (1-based).
	paramIndex int
}

func newBaseVisitor(outer nodes.Visitor, p platform.Platform, d driver.Driver, opts []Option) *baseVisitor {
	if p == nil {
		p = platform.SQL92{}
	}
	b := &baseVisitor{
		outer:        outer,
		platform:     p,
		parameterize: true,
		driver:       d,
		params:       driver.NewParameterContainer(),
	}
	for _, o := range opts {
		o(b)
	}
	if b.driver == nil {
		b.driver = driver.QuestionMark{}
	}
	return b
}

// Params returns the bound values collected by the last SQL generation.
func (b *baseVisitor) Params() []any {
	return b.params.Values()
}

// ParameterContainer returns the parameters collected by the last SQL
// generation, with names for named drivers.
func (b *baseVisitor) ParameterContainer() *driver.ParameterContainer {
	return b.params
}

// Reset clears collected parameters for reuse.
func (b *baseVisitor) Reset() {
	b.params = driver.NewParameterContainer()
	b.paramIndex = 0
}

// Parameterized reports whether the visitor binds literal values.
func (b *baseVisitor) Parameterized() bool {
	return b.parameterize
}

// Platform returns the quoting platform.
func (b *baseVisitor) Platform() platform.Platform {
	return b.platform
}

// Driver returns the placeholder driver.
func (b *baseVisitor) Driver() driver.Driver {
	return b.driver
}

func (b *baseVisitor) VisitTable(n *nodes.Table) string {
	name := b.platform.QuoteIdentifierChain(n.Name)
	if n.Alias != "" {
		return name + " AS " + b.platform.QuoteIdentifier(n.Alias)
	}
	return name
}

func (b *baseVisitor) VisitColumn(n *nodes.Column) string {
	return b.platform.QuoteIdentifierChain(n.Name)
}

func (b *baseVisitor) VisitLiteral(n *nodes.LiteralNode) string {
	if b.parameterize {
		return b.bind(n.Value)
	}
	if v, ok := n.Value.(sqldriver.Valuer); ok {
		if dv, err := v.Value(); err == nil && dv == nil {
			return "NULL"
		}
	}
	return b.platform.QuoteValue(literalString(n.Value))
}

// bind records val as the next parameter and returns its placeholder.
func (b *baseVisitor) bind(val any) string {
	b.paramIndex++
	token := b.driver.FormatParameterName(b.paramIndex)
	name := ""
	if b.driver.PrepareType() == driver.Named {
		name = driver.BareName(token)
	}
	b.params.Offset(name, val)
	return token
}

func (b *baseVisitor) VisitSqlLiteral(n *nodes.SqlLiteral) string {
	return n.Raw
}

// NULL always renders as the keyword, never as a parameter.
func (b *baseVisitor) VisitNull(nodes.NullNode) string {
	return "NULL"
}

func (b *baseVisitor) VisitExpression(n *nodes.ExpressionNode) string {
	if len(n.Values) == 0 {
		return n.Template
	}
	segments := nodes.SplitTemplate(n.Template)
	if len(segments)-1 != len(n.Values) {
		panic(fmt.Sprintf("sqlupdate: expression %q has %d placeholders, got %d values",
			n.Template, len(segments)-1, len(n.Values)))
	}
	var sb strings.Builder
	sb.WriteString(segments[0])
	for i, v := range n.Values {
		sb.WriteString(v.Accept(b.outer))
		sb.WriteString(segments[i+1])
	}
	return sb.String()
}

func (b *baseVisitor) VisitOperator(n *nodes.OperatorNode) string {
	left := n.Left.Accept(b.outer)
	right := n.Right.Accept(b.outer)
	return left + " " + n.Op.String() + " " + right
}

func (b *baseVisitor) VisitUnary(n *nodes.UnaryNode) string {
	expr := n.Expr.Accept(b.outer)
	switch n.Op {
	case nodes.OpIsNull:
		return expr + " IS NULL"
	case nodes.OpIsNotNull:
		return expr + " IS NOT NULL"
	default:
		return expr
	}
}

func (b *baseVisitor) VisitIn(n *nodes.InNode) string {
	expr := n.Expr.Accept(b.outer)
	vals := make([]string, len(n.Vals))
	for i, v := range n.Vals {
		vals[i] = v.Accept(b.outer)
	}
	keyword := "IN"
	if n.Negate {
		keyword = "NOT IN"
	}
	return expr + " " + keyword + " (" + strings.Join(vals, ", ") + ")"
}

// VisitWhere renders the set's entries in order. The combinator keyword
// goes between predicates only; nested sets are parenthesized and empty
// nested sets are skipped.
func (b *baseVisitor) VisitWhere(n *nodes.Where) string {
	var sb strings.Builder
	first := true
	for _, e := range n.Entries() {
		var part string
		if nested, ok := e.Predicate.(*nodes.Where); ok {
			if nested.IsEmpty() {
				continue
			}
			part = "(" + nested.Accept(b.outer) + ")"
		} else {
			part = e.Predicate.Accept(b.outer)
		}
		if !first {
			sb.WriteString(" ")
			sb.WriteString(e.Combinator.String())
			sb.WriteString(" ")
		}
		sb.WriteString(part)
		first = false
	}
	return sb.String()
}

func (b *baseVisitor) VisitAssignment(n *nodes.AssignmentNode) string {
	left := n.Column.Accept(b.outer)
	right := n.Value.Accept(b.outer)
	return left + " = " + right
}

func (b *baseVisitor) VisitUpdateStatement(n *nodes.UpdateStatement) string {
	var sb strings.Builder

	sb.WriteString("UPDATE ")
	sb.WriteString(n.Table.Accept(b.outer))

	// SET
	if len(n.Assignments) > 0 {
		sb.WriteString(" SET ")
		assigns := make([]string, len(n.Assignments))
		for i, a := range n.Assignments {
			assigns[i] = a.Accept(b.outer)
		}
		sb.WriteString(strings.Join(assigns, ", "))
	}

	// WHERE
	if n.Where != nil && !n.Where.IsEmpty() {
		sb.WriteString(" WHERE ")
		sb.WriteString(n.Where.Accept(b.outer))
	}

	return sb.String()
}
