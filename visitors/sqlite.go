package visitors

import (
	"github.com/bawdo/sqlupdate/driver"
	"github.com/bawdo/sqlupdate/platform"
)

// SQLiteVisitor generates SQLite-dialect SQL.
// Identifiers are quoted with double quotes: "table"."column" (ANSI SQL).
type SQLiteVisitor struct {
	*baseVisitor
}

// NewSQLiteVisitor creates a SQLiteVisitor ready for use.
// Pass WithDriver(driver.NamedParams{}) to bind by name (:p1, :p2, ...).
func NewSQLiteVisitor(opts ...Option) *SQLiteVisitor {
	v := &SQLiteVisitor{}
	v.baseVisitor = newBaseVisitor(v, platform.SQLite{}, driver.QuestionMark{}, opts)
	return v
}
