package visitors

import (
	"fmt"
	"strings"

	"github.com/bawdo/sqlupdate/nodes"
)

// Color constants for DOT node categories.
const (
	colorTable      = "#6CA6CD" // blue: tables
	colorColumn     = "#B0D4E8" // light blue: columns
	colorComparison = "#FFB347" // orange: predicates
	colorLogical    = "#FFEB80" // yellow: predicate sets
	colorLiteral    = "#D3D3D3" // grey: values
	colorAssignment = "#FF6961" // red: statement, assignments
)

// dotNode represents a single node in the DOT graph.
type dotNode struct {
	id    string
	label string
	color string
}

// dotEdge represents a directed edge between two nodes in the DOT graph.
type dotEdge struct {
	from  string
	to    string
	label string
}

// DotVisitor walks the AST and produces Graphviz DOT output.
// It implements nodes.Visitor; the returned strings are node IDs.
type DotVisitor struct {
	nextID    int
	nodes     []dotNode
	edges     []dotEdge
	parentID  string
	edgeLabel string
}

var _ nodes.Visitor = (*DotVisitor)(nil)

// NewDotVisitor creates a new DotVisitor ready to walk an AST.
func NewDotVisitor() *DotVisitor {
	return &DotVisitor{}
}

// addNode creates a new DOT node with the given label and color, returning its ID.
func (dv *DotVisitor) addNode(label, color string) string {
	id := fmt.Sprintf("n%d", dv.nextID)
	dv.nextID++
	dv.nodes = append(dv.nodes, dotNode{id: id, label: label, color: color})
	return id
}

// visitChild saves and restores the parent context, sets the edge label,
// and calls child.Accept to recursively visit the child node.
func (dv *DotVisitor) visitChild(parentID, label string, child nodes.Node) string {
	savedParent := dv.parentID
	savedLabel := dv.edgeLabel
	dv.parentID = parentID
	dv.edgeLabel = label
	result := child.Accept(dv)
	dv.parentID = savedParent
	dv.edgeLabel = savedLabel
	return result
}

// connectToParent adds an edge from the current parentID to nodeID if a parent exists.
func (dv *DotVisitor) connectToParent(nodeID string) {
	if dv.parentID != "" {
		dv.edges = append(dv.edges, dotEdge{from: dv.parentID, to: nodeID, label: dv.edgeLabel})
	}
}

// NodeCount returns the number of nodes accumulated so far.
func (dv *DotVisitor) NodeCount() int {
	return len(dv.nodes)
}

// ToDot returns the accumulated graph in DOT syntax.
func (dv *DotVisitor) ToDot() string {
	var sb strings.Builder

	sb.WriteString("digraph AST {\n")
	sb.WriteString("  rankdir=TB;\n")
	sb.WriteString("  node [shape=box, style=filled, fontname=\"Helvetica\"];\n")
	sb.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n")

	for _, n := range dv.nodes {
		fmt.Fprintf(&sb, "  %s [label=\"%s\", fillcolor=\"%s\"];\n", n.id, escapeLabel(n.label), n.color)
	}
	for _, e := range dv.edges {
		if e.label != "" {
			fmt.Fprintf(&sb, "  %s -> %s [label=\"%s\"];\n", e.from, e.to, e.label)
		} else {
			fmt.Fprintf(&sb, "  %s -> %s;\n", e.from, e.to)
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

// escapeLabel escapes double quotes in DOT labels.
// Backslash sequences like \n are intentional DOT line breaks and are preserved.
func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "\\\"")
}

// --- Visitor interface implementation ---

func (dv *DotVisitor) VisitTable(n *nodes.Table) string {
	label := "Table\\n" + n.Name
	if n.Alias != "" {
		label += " AS " + n.Alias
	}
	id := dv.addNode(label, colorTable)
	dv.connectToParent(id)
	return id
}

func (dv *DotVisitor) VisitColumn(n *nodes.Column) string {
	id := dv.addNode("Column\\n"+n.Name, colorColumn)
	dv.connectToParent(id)
	return id
}

func (dv *DotVisitor) VisitLiteral(n *nodes.LiteralNode) string {
	id := dv.addNode(fmt.Sprintf("Literal\\n%v", n.Value), colorLiteral)
	dv.connectToParent(id)
	return id
}

func (dv *DotVisitor) VisitSqlLiteral(n *nodes.SqlLiteral) string {
	id := dv.addNode("Raw\\n"+n.Raw, colorLiteral)
	dv.connectToParent(id)
	return id
}

func (dv *DotVisitor) VisitNull(nodes.NullNode) string {
	id := dv.addNode("NULL", colorLiteral)
	dv.connectToParent(id)
	return id
}

func (dv *DotVisitor) VisitExpression(n *nodes.ExpressionNode) string {
	id := dv.addNode("Expression\\n"+n.Template, colorComparison)
	dv.connectToParent(id)
	for i, v := range n.Values {
		dv.visitChild(id, fmt.Sprintf("ARG[%d]", i), v)
	}
	return id
}

func (dv *DotVisitor) VisitOperator(n *nodes.OperatorNode) string {
	id := dv.addNode("Operator\\n"+n.Op.String(), colorComparison)
	dv.connectToParent(id)
	dv.visitChild(id, "LEFT", n.Left)
	dv.visitChild(id, "RIGHT", n.Right)
	return id
}

func (dv *DotVisitor) VisitUnary(n *nodes.UnaryNode) string {
	var label string
	switch n.Op {
	case nodes.OpIsNull:
		label = "Unary\\nIS NULL"
	case nodes.OpIsNotNull:
		label = "Unary\\nIS NOT NULL"
	default:
		label = "Unary"
	}
	id := dv.addNode(label, colorComparison)
	dv.connectToParent(id)
	dv.visitChild(id, "EXPR", n.Expr)
	return id
}

func (dv *DotVisitor) VisitIn(n *nodes.InNode) string {
	label := "IN"
	if n.Negate {
		label = "NOT IN"
	}
	id := dv.addNode(label, colorComparison)
	dv.connectToParent(id)
	dv.visitChild(id, "EXPR", n.Expr)
	for i, v := range n.Vals {
		dv.visitChild(id, fmt.Sprintf("VAL[%d]", i), v)
	}
	return id
}

// VisitWhere draws one node per set; edges are labelled with the entry's
// combinator, the first one with its index only.
func (dv *DotVisitor) VisitWhere(n *nodes.Where) string {
	id := dv.addNode("Where", colorLogical)
	dv.connectToParent(id)
	for i, e := range n.Entries() {
		label := fmt.Sprintf("[%d]", i)
		if i > 0 {
			label = e.Combinator.String() + label
		}
		dv.visitChild(id, label, e.Predicate)
	}
	return id
}

func (dv *DotVisitor) VisitAssignment(n *nodes.AssignmentNode) string {
	id := dv.addNode("Assignment\\n=", colorAssignment)
	dv.connectToParent(id)
	dv.visitChild(id, "COLUMN", n.Column)
	dv.visitChild(id, "VALUE", n.Value)
	return id
}

func (dv *DotVisitor) VisitUpdateStatement(n *nodes.UpdateStatement) string {
	id := dv.addNode("UpdateStatement", colorAssignment)
	dv.connectToParent(id)

	if n.Table != nil {
		dv.visitChild(id, "TABLE", n.Table)
	}
	for i, a := range n.Assignments {
		dv.visitChild(id, fmt.Sprintf("SET[%d]", i), a)
	}
	if n.Where != nil && n.Where.Len() > 0 {
		dv.visitChild(id, "WHERE", n.Where)
	}
	return id
}
