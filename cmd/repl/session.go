package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ergochat/readline"

	"github.com/bawdo/sqlupdate/adapter"
	"github.com/bawdo/sqlupdate/driver"
	"github.com/bawdo/sqlupdate/managers"
	"github.com/bawdo/sqlupdate/nodes"
	"github.com/bawdo/sqlupdate/plugins"
	"github.com/bawdo/sqlupdate/visitors"
)

var errNoUpdate = errors.New("no update defined (use 'update <table>' first)")

// Session holds the REPL state: the statement being built, the active
// engine, enabled plugins and the optional database connection.
type Session struct {
	update       *managers.UpdateManager
	engine       string
	plugins      pluginRegistry     // enabled plugins
	configurers  []pluginConfigurer // all known plugins
	opaConfig    *opaPluginRef      // nil when OPA is disabled
	parameterize bool
	named        bool           // named placeholders instead of the engine default
	commands     []commandEntry // command registry (sorted by prefix length desc)
	conn         *adapter.Adapter
	dsn          string
	lastDSN      string // remembers the previous DSN for reconnect
	schema       schemaCache
	rl           *readline.Instance
	out          io.Writer // destination for REPL output (default os.Stdout)
}

// NewSession creates a session for the given engine. Unknown engines fall
// back to postgres.
func NewSession(engine string, rl *readline.Instance) *Session {
	s := &Session{
		parameterize: true,
		rl:           rl,
		out:          os.Stdout,
	}
	s.configurers = []pluginConfigurer{
		{name: "opa", configure: configureOPA},
		{name: "softdelete", configure: configureSoftdelete},
	}
	s.setEngine(engine)
	s.initCommands()
	return s
}

// pluginNames returns the names of all known plugins (for tab completion).
func (s *Session) pluginNames() []string {
	names := make([]string, len(s.configurers))
	for i, c := range s.configurers {
		names[i] = c.name
	}
	return names
}

func (s *Session) setEngine(engine string) {
	if !isValidEngine(engine) {
		engine = "postgres"
	}
	s.engine = engine
}

// newVisitor returns a fresh dialect visitor for the current engine.
func (s *Session) newVisitor(parameterize bool) nodes.Visitor {
	return newDialectVisitor(s.engine, parameterize, s.named)
}

// newDialectVisitor builds the visitor for engine. Visitors collect
// parameters, so every render gets its own.
func newDialectVisitor(engine string, parameterize, named bool) nodes.Visitor {
	var opts []visitors.Option
	switch {
	case !parameterize:
		opts = append(opts, visitors.WithoutParams())
	case named:
		opts = append(opts, visitors.WithDriver(driver.NamedParams{}))
	}
	switch engine {
	case "mysql":
		return visitors.NewMySQLVisitor(opts...)
	case "sqlite":
		return visitors.NewSQLiteVisitor(opts...)
	default:
		return visitors.NewPostgresVisitor(opts...)
	}
}

// current returns a copy of the statement with the enabled plugins attached.
func (s *Session) current() (*managers.UpdateManager, error) {
	if s.update == nil {
		return nil, errNoUpdate
	}
	m := s.update.Clone()
	s.plugins.applyTo(func(t plugins.Transformer) { m.Use(t) })
	return m, nil
}

// GenerateSQL renders the current statement in the session's mode.
func (s *Session) GenerateSQL() (string, []any, error) {
	m, err := s.current()
	if err != nil {
		return "", nil, err
	}
	return m.ToSQL(s.newVisitor(s.parameterize))
}

// Execute dispatches one input line.
func (s *Session) Execute(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	lower := strings.ToLower(line)

	for _, cmd := range s.commands {
		if strings.HasSuffix(cmd.prefix, " ") {
			if strings.HasPrefix(lower, cmd.prefix) {
				return cmd.handler(line[len(cmd.prefix):])
			}
		} else if lower == cmd.prefix {
			return cmd.handler("")
		}
	}

	word := strings.Fields(line)[0]
	return fmt.Errorf("unknown command: %s (type 'help' for commands)", word)
}

// edit applies fn to a copy of the statement and keeps the copy only when
// fn records no error, so a typo never poisons the statement.
func (s *Session) edit(fn func(m *managers.UpdateManager)) error {
	if s.update == nil {
		return errNoUpdate
	}
	m := s.update.Clone()
	fn(m)
	if err := m.Err(); err != nil {
		return err
	}
	s.update = m
	return nil
}

// --- Command handlers ---

func (s *Session) cmdUpdate(args string) error {
	parts := strings.Fields(args)
	switch {
	case len(parts) == 1:
	case len(parts) == 2:
	case len(parts) == 3 && strings.EqualFold(parts[1], "as"):
		parts = []string{parts[0], parts[2]}
	default:
		return errors.New("usage: update <table> [[as] alias]")
	}
	m := managers.NewUpdateManager().Table(parts[0], parts[1:]...)
	if err := m.Err(); err != nil {
		return err
	}
	s.update = m
	if len(parts) == 2 {
		_, _ = fmt.Fprintf(s.out, "  Updating %s AS %s\n", parts[0], parts[1])
	} else {
		_, _ = fmt.Fprintf(s.out, "  Updating %s\n", parts[0])
	}
	return nil
}

func (s *Session) cmdSet(args string) error {
	pairs, err := parseAssignments(args)
	if err != nil {
		return err
	}
	if err := s.edit(func(m *managers.UpdateManager) { m.SetPairs(pairs) }); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  %d assignment(s)\n", len(s.update.Statement.Assignments))
	return nil
}

func (s *Session) cmdUnset(args string) error {
	cols := strings.Fields(strings.ReplaceAll(args, ",", " "))
	if len(cols) == 0 {
		return errors.New("usage: unset <col> [col ...]")
	}
	if s.update == nil {
		return errNoUpdate
	}
	drop := make(map[string]bool, len(cols))
	for _, c := range cols {
		drop[c] = true
	}
	kept := s.update.Statement.Assignments[:0]
	for _, a := range s.update.Statement.Assignments {
		if !drop[a.Column.Name] {
			kept = append(kept, a)
		}
	}
	s.update.Statement.Assignments = kept
	_, _ = fmt.Fprintf(s.out, "  %d assignment(s)\n", len(kept))
	return nil
}

func (s *Session) cmdWhere(args string, c nodes.Combinator) error {
	input, err := parseCondition(args)
	if err != nil {
		return err
	}
	if err := s.edit(func(m *managers.UpdateManager) { m.Where(input, c) }); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  %d condition(s)\n", s.update.Statement.Where.Len())
	return nil
}

// cmdGroup adds a parenthesized group of conditions separated by ';'. The
// first condition inside the group is always joined with AND; later ones
// may start with "or ".
func (s *Session) cmdGroup(args string, c nodes.Combinator) error {
	parts := strings.Split(args, ";")
	group := nodes.NewWhere()
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		comb := nodes.And
		lower := strings.ToLower(part)
		switch {
		case strings.HasPrefix(lower, "or "):
			comb, part = nodes.Or, strings.TrimSpace(part[3:])
		case strings.HasPrefix(lower, "and "):
			part = strings.TrimSpace(part[4:])
		}
		input, err := parseCondition(part)
		if err != nil {
			return err
		}
		if err := group.Add(input, comb); err != nil {
			return err
		}
	}
	if group.Len() == 0 {
		return errors.New("usage: [or] group <cond>; [or] <cond>; ...")
	}
	if err := s.edit(func(m *managers.UpdateManager) { m.Where(group, c) }); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  %d condition(s)\n", s.update.Statement.Where.Len())
	return nil
}

func (s *Session) cmdSQL() error {
	sql, params, err := s.GenerateSQL()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  %s;\n", sql)
	if len(params) > 0 {
		_, _ = fmt.Fprintf(s.out, "  Params: %v\n", params)
	}
	return nil
}

// cmdPretty prints the statement one clause per line.
func (s *Session) cmdPretty() error {
	m, err := s.current()
	if err != nil {
		return err
	}
	sql, params, err := m.ToSQL(visitors.NewFormattingVisitor(s.newVisitor(s.parameterize)))
	if err != nil {
		return err
	}
	for _, line := range strings.Split(sql, "\n") {
		_, _ = fmt.Fprintf(s.out, "  %s\n", strings.ReplaceAll(line, "\t", "    "))
	}
	if len(params) > 0 {
		_, _ = fmt.Fprintf(s.out, "  Params: %v\n", params)
	}
	return nil
}

// cmdAST displays a summary of the statement being built.
func (s *Session) cmdAST() error {
	if s.update == nil {
		return errNoUpdate
	}
	stmt := s.update.Statement
	_, _ = fmt.Fprintf(s.out, "  Engine: %s\n", s.engine)
	if stmt.Table != nil {
		table := stmt.Table.Name
		if stmt.Table.Alias != "" {
			table += " AS " + stmt.Table.Alias
		}
		_, _ = fmt.Fprintf(s.out, "  TABLE:  %s\n", table)
	}
	for i, a := range stmt.Assignments {
		_, _ = fmt.Fprintf(s.out, "  SET[%d]: %s = %s\n", i, a.Column.Name, valueSummary(a.Value))
	}
	if n := stmt.Where.Len(); n > 0 {
		_, _ = fmt.Fprintf(s.out, "  WHERE:  %d condition(s)\n", n)
	}
	for _, entry := range s.plugins.entries {
		_, _ = fmt.Fprintf(s.out, "  Plugin: %s (%s)\n", entry.name, entry.status())
	}
	if !s.parameterize {
		_, _ = fmt.Fprintln(s.out, "  Parameterize: off")
	}
	if s.conn != nil {
		_, _ = fmt.Fprintf(s.out, "  Connected: %s (%s)\n", adapter.SanitizeDSN(s.dsn), s.conn.Engine())
	}
	return nil
}

// cmdDot exports the statement, with plugins applied, as a Graphviz DOT file.
func (s *Session) cmdDot(args string) error {
	fpath := strings.TrimSpace(args)
	if fpath == "" {
		return errors.New("usage: dot <filepath>")
	}
	m, err := s.current()
	if err != nil {
		return err
	}
	dv := visitors.NewDotVisitor()
	if _, _, err := m.ToSQL(dv); err != nil {
		return err
	}
	if err := os.WriteFile(fpath, []byte(dv.ToDot()), 0600); err != nil {
		return fmt.Errorf("failed to write DOT file: %w", err)
	}
	_, _ = fmt.Fprintf(s.out, "  Wrote DOT to %s\n", fpath)
	return nil
}

func (s *Session) cmdLoad(args string) error {
	fpath := strings.TrimSpace(args)
	if fpath == "" {
		return errors.New("usage: load <file.yaml>")
	}
	f, err := os.Open(fpath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	doc, err := decodeDocument(f)
	if err != nil {
		return fmt.Errorf("load %s: %w", fpath, err)
	}
	m, err := doc.build()
	if err != nil {
		return fmt.Errorf("load %s: %w", fpath, err)
	}
	if doc.Engine != "" {
		s.setEngine(doc.Engine)
	}
	s.update = m
	_, _ = fmt.Fprintf(s.out, "  Loaded %s\n", fpath)
	return nil
}

func (s *Session) cmdReset() error {
	s.update = nil
	_, _ = fmt.Fprintln(s.out, "  Statement cleared")
	return nil
}

func (s *Session) cmdEngine(args string) error {
	name := strings.TrimSpace(strings.ToLower(args))
	if !isValidEngine(name) {
		return fmt.Errorf("unknown engine %q (choose: %s)", name, strings.Join(adapter.Engines(), ", "))
	}
	s.setEngine(name)
	_, _ = fmt.Fprintf(s.out, "  Engine set to %s\n", s.engine)
	return nil
}

// cmdPlugin routes plugin sub-commands: enables a plugin by name, or
// dispatches to cmdPluginOff for disabling.
func (s *Session) cmdPlugin(args string) error {
	parts := strings.Fields(strings.TrimSpace(args))
	if len(parts) == 0 {
		return errors.New("usage: plugin <name> [args] | plugin off [name]")
	}
	name := strings.ToLower(parts[0])
	if name == "off" {
		return s.cmdPluginOff(parts[1:])
	}
	for _, c := range s.configurers {
		if c.name == name {
			return c.configure(s, strings.TrimSpace(strings.TrimSpace(args)[len(parts[0]):]))
		}
	}
	return fmt.Errorf("unknown plugin: %s", name)
}

func (s *Session) cmdPluginOff(parts []string) error {
	if len(parts) == 0 {
		s.plugins.deregisterAll()
		s.opaConfig = nil
		_, _ = fmt.Fprintln(s.out, "  All plugins disabled")
		return nil
	}
	name := strings.ToLower(parts[0])
	if !s.plugins.deregister(name) {
		return fmt.Errorf("plugin %q is not enabled", name)
	}
	if name == "opa" {
		s.opaConfig = nil
	}
	_, _ = fmt.Fprintf(s.out, "  %s disabled\n", name)
	return nil
}

func (s *Session) cmdPlugins() {
	_, _ = fmt.Fprintln(s.out, "  Available plugins:")
	for _, c := range s.configurers {
		if entry, ok := s.plugins.get(c.name); ok {
			_, _ = fmt.Fprintf(s.out, "    %-14s on   (%s)\n", c.name, entry.status())
		} else {
			_, _ = fmt.Fprintf(s.out, "    %-14s off\n", c.name)
		}
	}
}

func (s *Session) cmdParameterize() error {
	s.parameterize = !s.parameterize
	if s.parameterize {
		_, _ = fmt.Fprintln(s.out, "  Parameterized queries enabled")
	} else {
		_, _ = fmt.Fprintln(s.out, "  Parameterized queries disabled")
	}
	return nil
}

func (s *Session) cmdPlaceholders(args string) error {
	switch strings.TrimSpace(strings.ToLower(args)) {
	case "named":
		s.named = true
	case "positional":
		s.named = false
	default:
		return errors.New("usage: placeholders named|positional")
	}
	_, _ = fmt.Fprintf(s.out, "  Placeholders: %s\n", strings.TrimSpace(strings.ToLower(args)))
	return nil
}

func (s *Session) cmdConnect(args string) error {
	dsn := strings.TrimSpace(args)
	if s.conn != nil {
		return fmt.Errorf("already connected to %s (use 'disconnect' first)", adapter.SanitizeDSN(s.dsn))
	}
	if dsn != "" {
		return s.connectWithDSN(dsn)
	}
	if s.lastDSN != "" {
		choice := ask(s.rl, fmt.Sprintf("Reconnect to %s? (y/n/setup)", adapter.SanitizeDSN(s.lastDSN)), "y")
		switch strings.ToLower(choice) {
		case "y", "yes":
			return s.connectWithDSN(s.lastDSN)
		case "s", "setup":
		default:
			_, _ = fmt.Fprintln(s.out, "  Connect cancelled")
			return nil
		}
	}
	if s.rl == nil {
		return errors.New("usage: connect <dsn>")
	}
	dsn = buildDSN(s.rl, s.engine)
	if dsn == "" {
		_, _ = fmt.Fprintln(s.out, "  No connection configured")
		return nil
	}
	return s.connectWithDSN(dsn)
}

func (s *Session) connectWithDSN(dsn string) error {
	conn, err := adapter.Open(context.Background(), s.engine, dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	s.attach(conn, dsn)
	_, _ = fmt.Fprintf(s.out, "  Connected to %s (%s)\n", adapter.SanitizeDSN(dsn), s.engine)
	return nil
}

// attach installs conn as the session's connection and loads the schema
// cache used by tab completion.
func (s *Session) attach(conn *adapter.Adapter, dsn string) {
	s.conn = conn
	s.dsn = dsn
	s.lastDSN = dsn
	if err := s.schema.load(context.Background(), conn); err != nil {
		_, _ = fmt.Fprintf(s.out, "  Note: schema introspection failed: %v\n", err)
	}
}

func (s *Session) cmdDisconnect() error {
	if s.conn == nil {
		return errors.New("not connected")
	}
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	s.conn = nil
	s.schema = schemaCache{}
	_, _ = fmt.Fprintf(s.out, "  Disconnected from %s\n", adapter.SanitizeDSN(s.dsn))
	return nil
}

// cmdExec runs the statement against the connection. Execution is always
// parameterized, whatever the display mode.
func (s *Session) cmdExec() error {
	if s.conn == nil {
		return errors.New("not connected (use 'connect <dsn>' first)")
	}
	if s.conn.Engine() != s.engine {
		_, _ = fmt.Fprintf(s.out, "  Warning: connected to %s but engine is set to %s\n", s.conn.Engine(), s.engine)
	}
	m, err := s.current()
	if err != nil {
		return err
	}
	stmt, err := s.conn.Prepare(m)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  %s;\n", stmt.SQL())
	if args := stmt.Args(); len(args) > 0 {
		_, _ = fmt.Fprintf(s.out, "  Params: %v\n", args)
	}
	n, err := s.conn.Exec(context.Background(), m)
	if err != nil {
		return err
	}
	if n == 1 {
		_, _ = fmt.Fprintln(s.out, "  (1 row affected)")
	} else {
		_, _ = fmt.Fprintf(s.out, "  (%d rows affected)\n", n)
	}
	return nil
}

func (s *Session) cmdTables() error {
	if s.conn == nil {
		return errors.New("not connected (use 'connect <dsn>' first)")
	}
	tables, err := listTables(context.Background(), s.conn)
	if err != nil {
		return err
	}
	s.schema.tables = tables
	rows := make([][]string, len(tables))
	for i, t := range tables {
		rows[i] = []string{t}
	}
	_, _ = fmt.Fprint(s.out, formatTable([]string{"table"}, rows))
	return nil
}

func (s *Session) cmdColumns(args string) error {
	table := strings.TrimSpace(args)
	if table == "" && s.update != nil && s.update.Statement.Table != nil {
		table = s.update.Statement.Table.Name
	}
	if table == "" {
		return errors.New("usage: columns <table>")
	}
	if s.conn == nil {
		return errors.New("not connected (use 'connect <dsn>' first)")
	}
	cols := s.schema.columnsFor(context.Background(), s.conn, table)
	rows := make([][]string, len(cols))
	for i, c := range cols {
		rows[i] = []string{c}
	}
	_, _ = fmt.Fprint(s.out, formatTable([]string{"column"}, rows))
	return nil
}

func (s *Session) close() {
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}

func (s *Session) cmdHelp() {
	_, _ = fmt.Fprintln(s.out, `
  Building:
    update <table> [[as] alias]      Start a new UPDATE statement
    set <col> = <val>[, ...]         Add or replace SET assignments
    unset <col> [col ...]            Drop SET assignments
    where <condition>                Add a condition joined with AND
    and <condition>                  Same as where
    or <condition>                   Add a condition joined with OR
    group <cond>; [or] <cond>; ...   Add a parenthesized group with AND
    or group <cond>; [or] <cond>     Add a parenthesized group with OR
    load <file.yaml>                 Replace the statement from a YAML file
    reset                            Clear the statement

  Conditions:
    col = 1, col >= 'x', col like 'a%', col not like 'a%'
    col is null, col is not null, col in (1, 2), col not in ('a', 'b')
    Anything else is added verbatim as a SQL expression.

  Values:
    'text', 42, 1.5, true, false, null; anything else is raw SQL (NOW())

  Output:
    sql                              Print the generated SQL
    pretty                           Print the SQL one clause per line
    ast                              Summarize the statement
    dot <file>                       Write the AST as a Graphviz DOT file
    parameterize | params            Toggle bind parameters
    placeholders named|positional    Choose the placeholder style

  Engine and plugins:
    engine <postgres|mysql|sqlite>   Switch the SQL dialect
    plugin softdelete [col] [on t ...]  Append col IS NULL (default deleted_at)
    plugin softdelete t.col, ...     Per-table soft-delete columns
    plugin opa <url> <policy> [a.b=v ...]  AND an OPA row policy onto WHERE
    opa status                       Show the OPA server, policy and inputs
    opa inputs [table]               List the input fields the policy reads
    plugin off [name]                Disable one or all plugins
    plugins                          List plugins

  Database:
    connect [dsn]                    Connect (prompts when dsn is omitted)
    disconnect                       Close the connection
    exec | run                       Execute the statement, print rows affected
    tables                           List tables
    columns [table]                  List columns (default: the target table)

    help                             Show this help
    exit | quit                      Leave the REPL`)
}

// valueSummary returns a concise label for an assigned value.
func valueSummary(v nodes.ValueNode) string {
	switch n := v.(type) {
	case *nodes.LiteralNode:
		if str, ok := n.Value.(string); ok {
			return fmt.Sprintf("%q", str)
		}
		return fmt.Sprintf("%v", n.Value)
	case *nodes.SqlLiteral:
		return n.Raw
	case nodes.NullNode:
		return "NULL"
	default:
		return fmt.Sprintf("%T", v)
	}
}
