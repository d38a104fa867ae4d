package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/bawdo/sqlupdate/adapter"
)

// schemaCache remembers introspected table and column names for completion.
type schemaCache struct {
	tables  []string
	columns map[string][]string // table name -> column names
}

func (c *schemaCache) load(ctx context.Context, conn *adapter.Adapter) error {
	c.columns = make(map[string][]string)
	tables, err := listTables(ctx, conn)
	if err != nil {
		return err
	}
	c.tables = tables
	return nil
}

// columnsFor returns the columns of table, querying and caching them on
// first use. Lookup failures yield nil.
func (c *schemaCache) columnsFor(ctx context.Context, conn *adapter.Adapter, table string) []string {
	if cols, ok := c.columns[table]; ok {
		return cols
	}
	cols, err := listColumns(ctx, conn, table)
	if err != nil {
		return nil
	}
	if c.columns == nil {
		c.columns = make(map[string][]string)
	}
	c.columns[table] = cols
	return cols
}

// cached returns the columns already known for table without querying.
func (c *schemaCache) cached(table string) []string {
	return c.columns[table]
}

// listTables returns the tables visible to conn, sorted by name.
func listTables(ctx context.Context, conn *adapter.Adapter) ([]string, error) {
	var query string
	switch conn.Engine() {
	case "postgres":
		query = "SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' ORDER BY table_name"
	case "mysql":
		query = "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() ORDER BY table_name"
	case "sqlite":
		query = "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
	default:
		return nil, fmt.Errorf("unsupported engine: %s", conn.Engine())
	}
	return queryStrings(ctx, conn, query)
}

// listColumns returns the columns of table in ordinal order.
func listColumns(ctx context.Context, conn *adapter.Adapter, table string) ([]string, error) {
	var query string
	switch conn.Engine() {
	case "postgres":
		query = "SELECT column_name FROM information_schema.columns WHERE table_schema = 'public' AND table_name = $1 ORDER BY ordinal_position"
	case "mysql":
		query = "SELECT column_name FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ? ORDER BY ordinal_position"
	case "sqlite":
		query = "SELECT name FROM pragma_table_info(?)"
	default:
		return nil, fmt.Errorf("unsupported engine: %s", conn.Engine())
	}
	return queryStrings(ctx, conn, query, table)
}

func queryStrings(ctx context.Context, conn *adapter.Adapter, query string, params ...any) ([]string, error) {
	rows, err := conn.DB().QueryContext(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var result []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func formatTable(columns []string, rows [][]string) string {
	if len(columns) == 0 {
		return "(0 rows)\n"
	}

	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = len(c)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	sep := buildSeparator(widths)

	b.WriteString(sep)
	b.WriteByte('|')
	for i, c := range columns {
		fmt.Fprintf(&b, " %-*s |", widths[i], c)
	}
	b.WriteByte('\n')
	b.WriteString(sep)

	for _, row := range rows {
		b.WriteByte('|')
		for i, cell := range row {
			fmt.Fprintf(&b, " %-*s |", widths[i], cell)
		}
		b.WriteByte('\n')
	}
	b.WriteString(sep)

	if n := len(rows); n == 1 {
		b.WriteString("(1 row)\n")
	} else {
		fmt.Fprintf(&b, "(%d rows)\n", n)
	}
	return b.String()
}

func buildSeparator(widths []int) string {
	var b strings.Builder
	b.WriteByte('+')
	for _, w := range widths {
		b.WriteString(strings.Repeat("-", w+2))
		b.WriteByte('+')
	}
	b.WriteByte('\n')
	return b.String()
}
