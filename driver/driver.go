// Package driver describes the prepared-statement collaborator: how a
// database driver wants its bind placeholders formatted and how bound
// values are handed over.
package driver

import (
	"strconv"
	"strings"
)

// PrepareType is the placeholder convention a driver expects.
type PrepareType int

const (
	// Positional placeholders bind by position (?, $1).
	Positional PrepareType = iota
	// Named placeholders bind by name (:p1, @p1).
	Named
)

func (t PrepareType) String() string {
	switch t {
	case Positional:
		return "positional"
	case Named:
		return "named"
	default:
		return "unknown"
	}
}

// Driver formats bind placeholders for a database driver.
type Driver interface {
	PrepareType() PrepareType

	// FormatParameterName returns the placeholder token for the n-th
	// (1-based) bound parameter of a statement.
	FormatParameterName(n int) string
}

// QuestionMark is the positional "?" convention (MySQL, SQLite).
type QuestionMark struct{}

func (QuestionMark) PrepareType() PrepareType        { return Positional }
func (QuestionMark) FormatParameterName(int) string { return "?" }

// Dollar is the positional "$n" convention (PostgreSQL).
type Dollar struct{}

func (Dollar) PrepareType() PrepareType { return Positional }
func (Dollar) FormatParameterName(n int) string {
	return "$" + strconv.Itoa(n)
}

// NamedParams renders named placeholders as Sigil + Stem + n, e.g. ":p1".
// The zero value uses ":" and "p".
type NamedParams struct {
	Sigil string
	Stem  string
}

func (NamedParams) PrepareType() PrepareType { return Named }
func (d NamedParams) FormatParameterName(n int) string {
	sigil, stem := d.Sigil, d.Stem
	if sigil == "" {
		sigil = ":"
	}
	if stem == "" {
		stem = "p"
	}
	return sigil + stem + strconv.Itoa(n)
}

// BareName strips the leading sigil from a named placeholder token, giving
// the name database/sql expects in sql.Named.
func BareName(token string) string {
	return strings.TrimLeft(token, ":@$")
}
