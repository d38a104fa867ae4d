// Package sqlupdate builds SQL UPDATE statements.
//
// This package re-exports commonly used types and functions from subpackages
// for convenience. Advanced users can import subpackages directly:
//   - github.com/bawdo/sqlupdate/managers (the UPDATE builder)
//   - github.com/bawdo/sqlupdate/nodes (values, predicates, predicate sets)
//   - github.com/bawdo/sqlupdate/visitors (SQL generation)
//   - github.com/bawdo/sqlupdate/driver (placeholder styles, prepared statements)
//   - github.com/bawdo/sqlupdate/plugins (statement transformers)
package sqlupdate

import (
	"github.com/bawdo/sqlupdate/driver"
	"github.com/bawdo/sqlupdate/managers"
	"github.com/bawdo/sqlupdate/nodes"
	"github.com/bawdo/sqlupdate/platform"
	"github.com/bawdo/sqlupdate/visitors"
)

// --- Builder ---

// UpdateManager provides a fluent API for building UPDATE statements.
type UpdateManager = managers.UpdateManager

// NewUpdate creates an UpdateManager targeting table, optionally aliased.
func NewUpdate(table string, alias ...string) *managers.UpdateManager {
	return managers.NewUpdateManager().Table(table, alias...)
}

// --- Values and predicates ---

// Where is an ordered, nestable set of predicates.
type Where = nodes.Where

// Pairs is an ordered column/value mapping.
type Pairs = nodes.Pairs

// Combinator joins a predicate to the one before it.
type Combinator = nodes.Combinator

const (
	And = nodes.And
	Or  = nodes.Or
)

// KV builds a single column/value pair.
func KV(key, value any) nodes.Pair {
	return nodes.KV(key, value)
}

// Raw marks expr as trusted SQL emitted verbatim.
func Raw(expr string) *nodes.SqlLiteral {
	return nodes.Raw(expr)
}

// NewWhere creates an empty predicate set.
func NewWhere() *nodes.Where {
	return nodes.NewWhere()
}

// Expression builds a template predicate with ? placeholders.
func Expression(template string, values ...any) (*nodes.ExpressionNode, error) {
	return nodes.NewExpression(template, values...)
}

// In builds "col IN (...)".
func In(col string, values any) (*nodes.InNode, error) {
	return nodes.NewIn(col, values)
}

// NotIn builds "col NOT IN (...)".
func NotIn(col string, values any) (*nodes.InNode, error) {
	return nodes.NewNotIn(col, values)
}

// IsNull builds "col IS NULL".
func IsNull(col string) *nodes.UnaryNode {
	return nodes.IsNull(col)
}

// IsNotNull builds "col IS NOT NULL".
func IsNotNull(col string) *nodes.UnaryNode {
	return nodes.IsNotNull(col)
}

// --- Visitor Constructors ---

// NewSQLiteVisitor creates a new SQLite visitor.
func NewSQLiteVisitor(opts ...visitors.Option) *visitors.SQLiteVisitor {
	return visitors.NewSQLiteVisitor(opts...)
}

// NewPostgresVisitor creates a new PostgreSQL visitor.
func NewPostgresVisitor(opts ...visitors.Option) *visitors.PostgresVisitor {
	return visitors.NewPostgresVisitor(opts...)
}

// NewMySQLVisitor creates a new MySQL visitor.
func NewMySQLVisitor(opts ...visitors.Option) *visitors.MySQLVisitor {
	return visitors.NewMySQLVisitor(opts...)
}

// --- Visitor Options ---

// WithoutParams inlines values as quoted literals instead of binding them.
//
// Only use this for display or for values you trust.
func WithoutParams() visitors.Option {
	return visitors.WithoutParams()
}

// WithNamedParams renders placeholders as :p1, :p2, ...
func WithNamedParams() visitors.Option {
	return visitors.WithDriver(driver.NamedParams{})
}

// --- Prepared statements ---

// Prepare renders m for the given platform and placeholder driver.
func Prepare(m *managers.UpdateManager, d driver.Driver, p platform.Platform) (*driver.Statement, error) {
	stmt := driver.NewStatement()
	if err := m.PrepareStatement(d, p, stmt); err != nil {
		return nil, err
	}
	return stmt, nil
}
