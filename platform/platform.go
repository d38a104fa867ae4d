// Package platform supplies identifier quoting and value escaping for the
// SQL platforms the builder renders for.
package platform

import (
	"fmt"
	"sort"

	"github.com/bawdo/sqlupdate/internal/quoting"
)

// Platform quotes identifiers and string literals for one SQL dialect.
type Platform interface {
	// Name returns the platform name, e.g. "PostgreSQL".
	Name() string

	// QuoteIdentifier quotes a single identifier.
	QuoteIdentifier(name string) string

	// QuoteIdentifierChain quotes a possibly dot-qualified identifier
	// segment by segment.
	QuoteIdentifierChain(name string) string

	// QuoteValue escapes and single-quotes a literal value.
	QuoteValue(value string) string
}

// SQL92 is the default ANSI platform: double-quoted identifiers and
// single-quoted values with doubled single quotes.
type SQL92 struct{}

func (SQL92) Name() string                            { return "SQL92" }
func (SQL92) QuoteIdentifier(name string) string      { return quoting.DoubleQuote(name) }
func (SQL92) QuoteIdentifierChain(name string) string { return quoting.Chain(name, quoting.DoubleQuote) }
func (SQL92) QuoteValue(value string) string {
	return quoting.SingleQuote(quoting.EscapeString(value))
}

// Postgres quotes like SQL92. Backslashes are literal under
// standard_conforming_strings, which is the server default.
type Postgres struct{ SQL92 }

func (Postgres) Name() string { return "PostgreSQL" }

// SQLite quotes like SQL92.
type SQLite struct{ SQL92 }

func (SQLite) Name() string { return "SQLite" }

// MySQL quotes identifiers with backticks and escapes backslashes in values.
type MySQL struct{}

func (MySQL) Name() string                            { return "MySQL" }
func (MySQL) QuoteIdentifier(name string) string      { return quoting.Backtick(name) }
func (MySQL) QuoteIdentifierChain(name string) string { return quoting.Chain(name, quoting.Backtick) }
func (MySQL) QuoteValue(value string) string {
	return quoting.SingleQuote(quoting.EscapeStringBackslash(value))
}

var byEngine = map[string]Platform{
	"sql92":    SQL92{},
	"postgres": Postgres{},
	"mysql":    MySQL{},
	"sqlite":   SQLite{},
}

// ForEngine returns the platform registered for an engine name
// ("sql92", "postgres", "mysql", "sqlite").
func ForEngine(engine string) (Platform, error) {
	p, ok := byEngine[engine]
	if !ok {
		return nil, fmt.Errorf("no platform for engine %q", engine)
	}
	return p, nil
}

// Engines lists the engine names known to ForEngine, sorted.
func Engines() []string {
	names := make([]string, 0, len(byEngine))
	for name := range byEngine {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
