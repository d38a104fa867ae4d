// Package softdelete provides a Transformer that restricts UPDATE
// statements to rows that have not been soft-deleted.
//
// By default it appends "deleted_at" IS NULL, qualified by the target
// table (or its alias), to the WHERE clause with AND. An existing clause
// that contains a top-level OR is parenthesized first, so the guard
// applies to every branch.
//
// # Basic usage
//
//	m := managers.NewUpdateManager().Table("users").Set("name", "Bob").Where("id = 1")
//	m.Use(softdelete.New())
//	// UPDATE "users" SET "name" = ? WHERE id = 1 AND "users"."deleted_at" IS NULL
//
// # Custom column
//
//	sd := softdelete.New(softdelete.WithColumn("removed_at"))
//	// ... AND "users"."removed_at" IS NULL
//
// # Restrict to specific tables
//
//	sd := softdelete.New(softdelete.WithTables("users"))
//	// Updates against other tables are left unchanged.
//
// # Per-table columns
//
//	sd := softdelete.New(
//	    softdelete.WithTableColumn("users", "deleted_at"),
//	    softdelete.WithTableColumn("posts", "removed_at"),
//	)
//
// # REPL usage
//
//	sqlupdate> plugin softdelete
//	sqlupdate> plugin softdelete removed_at
//	sqlupdate> plugin softdelete removed_at on users posts
//	sqlupdate> plugin off softdelete
package softdelete

import (
	"sort"

	"github.com/bawdo/sqlupdate/nodes"
	"github.com/bawdo/sqlupdate/plugins"
)

// SoftDelete is a Transformer that appends an IS NULL guard for a
// soft-delete column on the target table.
type SoftDelete struct {
	plugins.BaseTransformer
	Column  string
	Columns map[string]string // per-table column overrides (table name → column name)
	tables  map[string]bool   // nil means apply to all tables
}

// Option configures a SoftDelete transformer.
type Option func(*SoftDelete)

// WithColumn sets the soft-delete column name. Default is "deleted_at".
func WithColumn(name string) Option {
	return func(sd *SoftDelete) { sd.Column = name }
}

// WithTables restricts the plugin to only the named tables.
// By default, the plugin applies to every table.
func WithTables(names ...string) Option {
	return func(sd *SoftDelete) {
		sd.tables = make(map[string]bool, len(names))
		for _, n := range names {
			sd.tables[n] = true
		}
	}
}

// WithTableColumn sets a per-table column override. The table is
// automatically added to the whitelist, restricting the plugin's scope.
func WithTableColumn(table, column string) Option {
	return func(sd *SoftDelete) {
		if sd.Columns == nil {
			sd.Columns = make(map[string]string)
		}
		sd.Columns[table] = column
		if sd.tables == nil {
			sd.tables = make(map[string]bool)
		}
		sd.tables[table] = true
	}
}

// New creates a SoftDelete transformer with the given options.
func New(opts ...Option) *SoftDelete {
	sd := &SoftDelete{Column: "deleted_at"}
	for _, o := range opts {
		o(sd)
	}
	return sd
}

// TransformUpdate appends "column IS NULL" for the target table when the
// plugin applies to it.
func (sd *SoftDelete) TransformUpdate(stmt *nodes.UpdateStatement) (*nodes.UpdateStatement, error) {
	ref, ok := plugins.TargetTable(stmt)
	if !ok || !sd.appliesTo(ref.Name) {
		return stmt, nil
	}
	col := ref.Relation.Col(sd.columnFor(ref.Name))
	plugins.AppendAnd(stmt, nodes.IsNull(col.Name))
	return stmt, nil
}

// Tables returns the whitelisted table names sorted, or nil when the plugin
// applies to every table.
func (sd *SoftDelete) Tables() []string {
	if sd.tables == nil {
		return nil
	}
	out := make([]string, 0, len(sd.tables))
	for name := range sd.tables {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (sd *SoftDelete) appliesTo(tableName string) bool {
	if sd.tables == nil {
		return true
	}
	return sd.tables[tableName]
}

// columnFor returns the column name to use for the given table.
// It checks Columns for a per-table override, falling back to Column.
func (sd *SoftDelete) columnFor(tableName string) string {
	if sd.Columns != nil {
		if col, ok := sd.Columns[tableName]; ok {
			return col
		}
	}
	return sd.Column
}
