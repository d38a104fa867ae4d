package visitors

import (
	"github.com/bawdo/sqlupdate/driver"
	"github.com/bawdo/sqlupdate/platform"
)

// SQLVisitor renders for any platform/driver pair. Quoting comes from the
// platform, placeholders from the driver (positional "?" unless
// WithDriver says otherwise).
type SQLVisitor struct {
	*baseVisitor
}

// New creates a visitor for the given platform. A nil platform means SQL92.
func New(p platform.Platform, opts ...Option) *SQLVisitor {
	v := &SQLVisitor{}
	v.baseVisitor = newBaseVisitor(v, p, driver.QuestionMark{}, opts)
	return v
}
