// Package testutil provides shared test helpers for the sqlupdate project.
package testutil

import "github.com/bawdo/sqlupdate/nodes"

// StubVisitor implements nodes.Visitor with minimal return values for testing.
// Methods return meaningful short strings to aid in test assertions.
type StubVisitor struct{}

var _ nodes.Visitor = StubVisitor{}

func (sv StubVisitor) VisitTable(n *nodes.Table) string           { return n.Name }
func (sv StubVisitor) VisitColumn(n *nodes.Column) string         { return n.Name }
func (sv StubVisitor) VisitLiteral(n *nodes.LiteralNode) string   { return "lit" }
func (sv StubVisitor) VisitSqlLiteral(n *nodes.SqlLiteral) string { return n.Raw }
func (sv StubVisitor) VisitNull(nodes.NullNode) string            { return "null" }
func (sv StubVisitor) VisitExpression(n *nodes.ExpressionNode) string {
	return "expr"
}
func (sv StubVisitor) VisitOperator(n *nodes.OperatorNode) string {
	return n.Left.Accept(sv) + n.Op.String() + n.Right.Accept(sv)
}
func (sv StubVisitor) VisitUnary(n *nodes.UnaryNode) string { return "unary" }
func (sv StubVisitor) VisitIn(n *nodes.InNode) string       { return "in" }
func (sv StubVisitor) VisitWhere(n *nodes.Where) string     { return "where" }
func (sv StubVisitor) VisitAssignment(n *nodes.AssignmentNode) string {
	return n.Column.Accept(sv) + "=" + n.Value.Accept(sv)
}
func (sv StubVisitor) VisitUpdateStatement(n *nodes.UpdateStatement) string { return "update" }
