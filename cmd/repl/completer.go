package main

import (
	"sort"
	"strings"
)

// completionContext describes what kind of completion is appropriate.
type completionContext int

const (
	contextCommand      completionContext = iota // start of line or partial command
	contextTableName                             // after update/columns
	contextColumnRef                             // after set/where/and/or
	contextEngine                                // after engine
	contextPlugin                                // after plugin
	contextPluginOff                             // after plugin off
	contextOperator                              // after a column in a condition
	contextPlaceholders                          // after placeholders
	contextNone                                  // nothing to offer
)

var placeholderStyles = []string{"named", "positional"}
var operators = []string{
	"!=", "<", "<=", "<>", "=", ">", ">=",
	"in", "is", "like", "not",
}

// replCompleter implements readline's AutoCompleter interface.
type replCompleter struct {
	sess *Session
}

// Do returns completion candidates for the current line/cursor position.
// length is the number of chars from end of line[:pos] that form the prefix being completed.
// newLine contains the suffixes to append for each candidate.
func (c *replCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	lineStr := string(line[:pos])
	ctx, prefix := c.parseContext(lineStr)

	var candidates []string
	switch ctx {
	case contextCommand:
		candidates = filterPrefix(c.sess.commandNames(), prefix)
	case contextTableName:
		candidates = c.completeTableNames(prefix)
	case contextColumnRef:
		candidates = c.completeColumnRef(prefix)
	case contextEngine:
		candidates = filterPrefix(engineNames(), prefix)
	case contextPlugin:
		candidates = filterPrefix(append([]string{"off"}, c.sess.pluginNames()...), prefix)
	case contextPluginOff:
		candidates = filterPrefix(c.sess.plugins.names(), prefix)
	case contextOperator:
		candidates = filterPrefix(operators, prefix)
	case contextPlaceholders:
		candidates = filterPrefix(placeholderStyles, prefix)
	}

	for _, cand := range candidates {
		suffix := cand[len(prefix):]
		newLine = append(newLine, []rune(suffix+" "))
	}
	length = len([]rune(prefix))
	return
}

// parseContext examines the line up to cursor and determines what kind of
// completion is needed and the current prefix being typed.
func (c *replCompleter) parseContext(line string) (completionContext, string) {
	lower := strings.ToLower(line)
	for _, cmd := range c.sess.commands {
		if !strings.HasSuffix(cmd.prefix, " ") {
			continue // exact-match commands have no arg completion
		}
		if strings.HasPrefix(lower, cmd.prefix) && cmd.completer != nil {
			return cmd.completer(line[len(cmd.prefix):])
		}
	}
	return contextCommand, strings.TrimSpace(line)
}

// completeTableNames returns the target table and database tables matching prefix.
func (c *replCompleter) completeTableNames(prefix string) []string {
	var names []string
	if u := c.sess.update; u != nil && u.Statement.Table != nil {
		names = append(names, u.Statement.Table.Name)
	}
	names = append(names, c.sess.schema.tables...)
	names = dedup(names)
	sort.Strings(names)
	return filterPrefix(names, prefix)
}

// completeColumnRef completes columns of the target table, or of the named
// table after a dot.
func (c *replCompleter) completeColumnRef(prefix string) []string {
	if table, _, ok := strings.Cut(prefix, "."); ok {
		var candidates []string
		for _, col := range c.sess.schema.cached(table) {
			candidates = append(candidates, table+"."+col)
		}
		return filterPrefix(candidates, prefix)
	}
	var candidates []string
	if u := c.sess.update; u != nil && u.Statement.Table != nil {
		candidates = append(candidates, c.sess.schema.cached(u.Statement.Table.Name)...)
		for _, a := range u.Statement.Assignments {
			candidates = append(candidates, a.Column.Name)
		}
	}
	candidates = dedup(candidates)
	sort.Strings(candidates)
	return filterPrefix(candidates, prefix)
}

func engineNames() []string {
	return []string{"mysql", "postgres", "sqlite"}
}

// filterPrefix returns items that start with prefix (case-insensitive).
func filterPrefix(items []string, prefix string) []string {
	if prefix == "" {
		result := make([]string, len(items))
		copy(result, items)
		return result
	}
	lowerPrefix := strings.ToLower(prefix)
	var result []string
	for _, item := range items {
		if strings.HasPrefix(strings.ToLower(item), lowerPrefix) {
			result = append(result, item)
		}
	}
	return result
}

// dedup removes duplicate strings.
func dedup(items []string) []string {
	seen := make(map[string]bool, len(items))
	var result []string
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}

// lastToken returns the last whitespace-separated token, handling commas.
func lastToken(s string) string {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ' ' || s[i] == ',' || s[i] == '\t' {
			return s[i+1:]
		}
	}
	return s
}
