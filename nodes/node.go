// Package nodes defines the AST node types used to represent an UPDATE
// statement: its table target, column assignments and WHERE predicate tree.
package nodes

// Node is the interface that all AST nodes implement.
type Node interface {
	Accept(visitor Visitor) string
}

// Visitor defines the interface for walking the AST and producing output.
// The node set is closed: every concrete node type has exactly one method here.
type Visitor interface {
	VisitTable(node *Table) string
	VisitColumn(node *Column) string
	VisitLiteral(node *LiteralNode) string
	VisitSqlLiteral(node *SqlLiteral) string
	VisitNull(node NullNode) string
	VisitExpression(node *ExpressionNode) string
	VisitOperator(node *OperatorNode) string
	VisitUnary(node *UnaryNode) string
	VisitIn(node *InNode) string
	VisitWhere(node *Where) string
	VisitAssignment(node *AssignmentNode) string
	VisitUpdateStatement(node *UpdateStatement) string
}

// Parameterizer is implemented by visitors that support parameterized queries.
// Callers use type assertion to extract collected parameters after SQL generation.
type Parameterizer interface {
	Params() []any
	Reset()
}
