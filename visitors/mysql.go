package visitors

import (
	"github.com/bawdo/sqlupdate/driver"
	"github.com/bawdo/sqlupdate/platform"
)

// MySQLVisitor generates MySQL-dialect SQL.
// Identifiers are quoted with backticks: `table`.`column`.
// String literals escape backslashes as well as quotes.
type MySQLVisitor struct {
	*baseVisitor
}

// NewMySQLVisitor creates a MySQLVisitor ready for use.
// Parameterized mode is enabled by default for SQL injection protection.
func NewMySQLVisitor(opts ...Option) *MySQLVisitor {
	v := &MySQLVisitor{}
	v.baseVisitor = newBaseVisitor(v, platform.MySQL{}, driver.QuestionMark{}, opts)
	return v
}
