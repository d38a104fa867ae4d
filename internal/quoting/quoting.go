// Package quoting provides shared identifier and string-literal quoting utilities.
package quoting

import "strings"

// DoubleQuote quotes a SQL identifier using double quotes (PostgreSQL, SQLite, ANSI SQL).
// Internal double quotes are escaped by doubling them.
func DoubleQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Backtick quotes a SQL identifier using backticks (MySQL).
// Internal backticks are escaped by doubling them.
func Backtick(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

// Chain quotes each dot-separated segment of name with quote.
// A "*" segment is left bare so that "t.*" stays a qualified star.
func Chain(name string, quote func(string) string) string {
	if !strings.Contains(name, ".") {
		return quote(name)
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if p == "*" {
			continue
		}
		parts[i] = quote(p)
	}
	return strings.Join(parts, ".")
}

// EscapeString escapes a string literal for ANSI SQL by doubling single quotes.
//
// SECURITY: This escaping is intended for literal (non-parameterized) rendering
// only. Production code should bind user-provided values as parameters.
func EscapeString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// EscapeStringBackslash escapes a string literal for MySQL by escaping
// backslashes and doubling single quotes.
//
// MySQL with non-default character sets (GBK, SJIS) may have multi-byte
// sequences where a trailing byte coincides with backslash or quote;
// parameterized statements avoid this class of attack entirely.
func EscapeStringBackslash(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", "''")
}

// SingleQuote wraps an already escaped string in single quotes.
func SingleQuote(escaped string) string {
	return "'" + escaped + "'"
}
