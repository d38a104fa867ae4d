package visitors

import (
	"github.com/bawdo/sqlupdate/driver"
	"github.com/bawdo/sqlupdate/platform"
)

// PostgresVisitor generates PostgreSQL-dialect SQL.
// Identifiers are quoted with double quotes and parameters use $1, $2, ...
type PostgresVisitor struct {
	*baseVisitor
}

// NewPostgresVisitor creates a PostgresVisitor ready for use.
// Parameterized mode is on by default; pass WithoutParams() for literal SQL.
func NewPostgresVisitor(opts ...Option) *PostgresVisitor {
	v := &PostgresVisitor{}
	v.baseVisitor = newBaseVisitor(v, platform.Postgres{}, driver.Dollar{}, opts)
	return v
}
