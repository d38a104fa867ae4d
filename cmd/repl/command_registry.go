package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bawdo/sqlupdate/nodes"
)

// commandEntry maps a REPL prefix to its handler and optional tab-completer.
type commandEntry struct {
	prefix    string
	handler   func(args string) error
	completer func(args string) (completionContext, string) // nil = no arg completion
	hidden    bool                                          // excluded from commandNames()
}

// initCommands builds the command registry and sorts by prefix length descending.
func (s *Session) initCommands() {
	s.commands = []commandEntry{
		// --- display ---
		{prefix: "sql", handler: func(_ string) error { return s.cmdSQL() }},
		{prefix: "tosql", handler: func(_ string) error { return s.cmdSQL() }, hidden: true},
		{prefix: "pretty", handler: func(_ string) error { return s.cmdPretty() }},
		{prefix: "ast", handler: func(_ string) error { return s.cmdAST() }},
		{prefix: "dot ", handler: func(a string) error { return s.cmdDot(a) }},
		{prefix: "dot", handler: func(_ string) error { return fmt.Errorf("usage: dot <filepath>") }},
		{prefix: "reset", handler: func(_ string) error { return s.cmdReset() }},
		{prefix: "help", handler: func(_ string) error { s.cmdHelp(); return nil }},

		// --- statement building ---
		{prefix: "update ", handler: func(a string) error { return s.cmdUpdate(a) }, completer: completeTableArgs},
		{prefix: "set ", handler: func(a string) error { return s.cmdSet(a) }, completer: completeColumnArgs},
		{prefix: "unset ", handler: func(a string) error { return s.cmdUnset(a) }, completer: completeColumnArgs},
		{prefix: "where ", handler: func(a string) error { return s.cmdWhere(a, nodes.And) }, completer: completeConditionArgs},
		{prefix: "and ", handler: func(a string) error { return s.cmdWhere(a, nodes.And) }, completer: completeConditionArgs},
		{prefix: "or group ", handler: func(a string) error { return s.cmdGroup(a, nodes.Or) }, completer: completeConditionArgs},
		{prefix: "or ", handler: func(a string) error { return s.cmdWhere(a, nodes.Or) }, completer: completeConditionArgs},
		{prefix: "group ", handler: func(a string) error { return s.cmdGroup(a, nodes.And) }, completer: completeConditionArgs},
		{prefix: "load ", handler: func(a string) error { return s.cmdLoad(a) }},

		// --- database connectivity ---
		{prefix: "connect ", handler: func(a string) error { return s.cmdConnect(a) }},
		{prefix: "connect", handler: func(_ string) error { return s.cmdConnect("") }},
		{prefix: "disconnect", handler: func(_ string) error { return s.cmdDisconnect() }},
		{prefix: "exec", handler: func(_ string) error { return s.cmdExec() }},
		{prefix: "run", handler: func(_ string) error { return s.cmdExec() }},
		{prefix: "tables", handler: func(_ string) error { return s.cmdTables() }},
		{prefix: "columns ", handler: func(a string) error { return s.cmdColumns(a) }, completer: completeTableArgs},
		{prefix: "columns", handler: func(_ string) error { return s.cmdColumns("") }},

		// --- rendering mode ---
		{prefix: "parameterize", handler: func(_ string) error { return s.cmdParameterize() }},
		{prefix: "params", handler: func(_ string) error { return s.cmdParameterize() }},
		{prefix: "placeholders ", handler: func(a string) error { return s.cmdPlaceholders(a) }, completer: completePlaceholderArgs},

		// --- engine / plugins ---
		{prefix: "engine ", handler: func(a string) error { return s.cmdEngine(a) }, completer: completeEngineArgs},
		{prefix: "plugin ", handler: func(a string) error { return s.cmdPlugin(a) }, completer: completePluginArgs},
		{prefix: "plugins", handler: func(_ string) error { s.cmdPlugins(); return nil }},
		{prefix: "opa status", handler: func(_ string) error { s.cmdOPAStatus(); return nil }},
		{prefix: "opa inputs ", handler: func(a string) error { return s.cmdOPAInputs(a) }, completer: completeTableArgs},
		{prefix: "opa inputs", handler: func(_ string) error { return s.cmdOPAInputs("") }},
	}

	// Sort by prefix length descending so longest prefixes match first.
	sort.SliceStable(s.commands, func(i, j int) bool {
		return len(s.commands[i].prefix) > len(s.commands[j].prefix)
	})
}

// commandNames derives the command name list from the registry for tab completion.
func (s *Session) commandNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, cmd := range s.commands {
		if cmd.hidden {
			continue
		}
		name := strings.TrimRight(cmd.prefix, " ")
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	// exit/quit are handled by the REPL loop, not Execute().
	for _, extra := range []string{"exit", "quit"} {
		if !seen[extra] {
			names = append(names, extra)
		}
	}
	sort.Strings(names)
	return names
}

// --- Shared completion helpers ---

// completeTableArgs handles completion for commands taking a table name.
func completeTableArgs(args string) (completionContext, string) {
	arg := strings.TrimSpace(args)
	if strings.Contains(arg, " ") {
		return contextNone, ""
	}
	return contextTableName, arg
}

// completeColumnArgs handles completion for comma-separated column commands
// (set, unset): columns at the start of each assignment.
func completeColumnArgs(args string) (completionContext, string) {
	if strings.HasSuffix(args, " ") {
		return contextNone, ""
	}
	return contextColumnRef, lastToken(args)
}

// completeConditionArgs handles completion for where/and/or: a column,
// then an operator after it.
func completeConditionArgs(args string) (completionContext, string) {
	fields := strings.Fields(args)
	if strings.HasSuffix(args, " ") {
		if len(fields) == 1 {
			return contextOperator, ""
		}
		return contextNone, ""
	}
	if len(fields) <= 1 {
		return contextColumnRef, strings.TrimSpace(args)
	}
	if len(fields) == 2 {
		return contextOperator, fields[1]
	}
	return contextNone, ""
}

// completeEngineArgs handles completion for the engine command.
func completeEngineArgs(args string) (completionContext, string) {
	return contextEngine, strings.TrimSpace(args)
}

// completePlaceholderArgs handles completion for the placeholders command.
func completePlaceholderArgs(args string) (completionContext, string) {
	return contextPlaceholders, strings.TrimSpace(args)
}

// completePluginArgs handles completion for the plugin command:
// plugin names, or after "off" the names of enabled plugins.
func completePluginArgs(args string) (completionContext, string) {
	if strings.HasPrefix(strings.ToLower(args), "off ") {
		return contextPluginOff, strings.TrimSpace(args[4:])
	}
	arg := strings.TrimSpace(args)
	if !strings.Contains(arg, " ") {
		return contextPlugin, arg
	}
	return contextNone, ""
}
