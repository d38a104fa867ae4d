package plugins

import "github.com/bawdo/sqlupdate/nodes"

// TableRef describes the table an UPDATE targets. Relation builds column
// references (preserving the alias); Name is the underlying table name
// used for matching and filtering.
type TableRef struct {
	Relation *nodes.Table
	Name     string
}

// TargetTable returns the statement's table. ok is false when no table
// has been set.
func TargetTable(stmt *nodes.UpdateStatement) (ref TableRef, ok bool) {
	if stmt == nil || stmt.Table == nil {
		return TableRef{}, false
	}
	return TableRef{Relation: stmt.Table, Name: stmt.Table.Name}, true
}

// AppendAnd appends p to the statement's WHERE so that it constrains every
// row the existing clause matches. A clause containing a top-level OR is
// wrapped in parentheses first.
func AppendAnd(stmt *nodes.UpdateStatement, p nodes.Predicate) {
	if stmt.Where == nil {
		stmt.Where = nodes.NewWhere()
	}
	if hasTopLevelOr(stmt.Where) {
		wrapped := nodes.NewWhere()
		wrapped.AddPredicate(stmt.Where, nodes.And)
		stmt.Where = wrapped
	}
	stmt.Where.AddPredicate(p, nodes.And)
}

func hasTopLevelOr(w *nodes.Where) bool {
	for i, e := range w.Entries() {
		if i > 0 && e.Combinator == nodes.Or {
			return true
		}
	}
	return false
}
