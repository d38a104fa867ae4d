package managers

import (
	"errors"
	"fmt"
	"sort"

	"github.com/bawdo/sqlupdate/driver"
	"github.com/bawdo/sqlupdate/nodes"
	"github.com/bawdo/sqlupdate/platform"
	"github.com/bawdo/sqlupdate/plugins"
	"github.com/bawdo/sqlupdate/visitors"
)

var (
	// ErrMissingTable is returned when rendering an update with no table.
	ErrMissingTable = errors.New("sqlupdate: update has no table")

	// ErrNoAssignments is returned when rendering an update with an empty SET clause.
	ErrNoAssignments = errors.New("sqlupdate: update has no assignments")
)

// SetMode controls how SetPairs treats existing assignments.
type SetMode int

const (
	// SetMerge adds to the existing assignments; repeated columns keep
	// their position and take the new value.
	SetMerge SetMode = iota
	// SetReplace drops the existing assignments first.
	SetReplace
)

// UpdateManager provides a fluent API for building UPDATE statements.
//
// Builder methods mutate the manager and return it for chaining. A manager
// is not safe for concurrent mutation; rendering never mutates it, so a
// fully built manager may be rendered from several goroutines.
type UpdateManager struct {
	treeManager
	Statement *nodes.UpdateStatement
	err       error
}

// NewUpdateManager creates an empty UpdateManager.
func NewUpdateManager() *UpdateManager {
	return &UpdateManager{Statement: nodes.NewUpdateStatement()}
}

// Table sets the target table, optionally with an alias.
func (m *UpdateManager) Table(name string, alias ...string) *UpdateManager {
	if name == "" {
		return m.fail(fmt.Errorf("sqlupdate: table: %w", nodes.ErrEmptyIdentifier))
	}
	t := nodes.NewTable(name)
	if len(alias) > 0 {
		t = t.As(alias[0])
	}
	m.Statement.Table = t
	return m
}

// Set assigns val to col. val may be any value NormalizeValue accepts,
// including nodes.Raw for trusted SQL and nil for NULL.
func (m *UpdateManager) Set(col string, val any) *UpdateManager {
	if col == "" {
		return m.fail(fmt.Errorf("sqlupdate: set: %w", nodes.ErrEmptyIdentifier))
	}
	v, err := nodes.NormalizeValue(val)
	if err != nil {
		return m.fail(fmt.Errorf("sqlupdate: set %q: %w", col, err))
	}
	m.Statement.Assign(col, v)
	return m
}

// SetPairs assigns every pair in order. Keys must be strings. With
// SetReplace the existing assignments are discarded first.
func (m *UpdateManager) SetPairs(pairs nodes.Pairs, mode ...SetMode) *UpdateManager {
	if len(mode) > 0 && mode[0] == SetReplace {
		m.Statement.Assignments = nil
	}
	for _, p := range pairs {
		col, ok := p.Key.(string)
		if !ok {
			return m.fail(fmt.Errorf("sqlupdate: set: column key %v (%T) is not a string", p.Key, p.Key))
		}
		m.Set(col, p.Value)
	}
	return m
}

// SetMap assigns every entry of values in sorted column order.
func (m *UpdateManager) SetMap(values map[string]any) *UpdateManager {
	cols := make([]string, 0, len(values))
	for col := range values {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		m.Set(col, values[col])
	}
	return m
}

// Where appends predicates resolved from input; see nodes.ResolvePredicates
// for the accepted shapes. The combinator attaches the first resulting
// predicate and defaults to AND. An unrecognized input is recorded and
// reported by Err and by every render method.
func (m *UpdateManager) Where(input any, combinator ...nodes.Combinator) *UpdateManager {
	if err := m.Statement.Where.Add(input, combinator...); err != nil {
		return m.fail(err)
	}
	return m
}

// OrWhere is Where with the OR combinator.
func (m *UpdateManager) OrWhere(input any) *UpdateManager {
	return m.Where(input, nodes.Or)
}

// WhereClause returns the top-level predicate set for fluent building.
func (m *UpdateManager) WhereClause() *nodes.Where {
	return m.Statement.Where
}

// Use registers a transformer plugin.
func (m *UpdateManager) Use(t plugins.Transformer) *UpdateManager {
	m.addTransformer(t)
	return m
}

// Clone returns a deep copy. Mutating the clone never affects m.
func (m *UpdateManager) Clone() *UpdateManager {
	return &UpdateManager{
		treeManager: m.cloneTransformers(),
		Statement:   m.Statement.Clone(),
		err:         m.err,
	}
}

// Err returns the first error recorded while building.
func (m *UpdateManager) Err() error {
	if m.err != nil {
		return m.err
	}
	return m.Statement.Where.Err()
}

// SQLString renders the statement with values quoted and inlined. A nil
// platform means SQL92.
func (m *UpdateManager) SQLString(p platform.Platform) (string, error) {
	sql, _, err := m.ToSQL(visitors.New(p, visitors.WithoutParams()))
	return sql, err
}

// ToSQL applies transformers and generates SQL with parameters.
// Returns SQL string, parameter values (if parameterised), and any error.
func (m *UpdateManager) ToSQL(v nodes.Visitor) (string, []any, error) {
	return toSQLParams(v, m.toSQLCore)
}

// PrepareStatement renders with placeholders formatted by d and hands the
// SQL and bound parameters to stmt. Parameters already held by stmt are
// replaced.
func (m *UpdateManager) PrepareStatement(d driver.Driver, p platform.Platform, stmt driver.StatementContainer) error {
	v := visitors.New(p, visitors.WithDriver(d))
	sql, _, err := m.ToSQL(v)
	if err != nil {
		return err
	}
	stmt.SetSQL(sql)
	params := stmt.ParameterContainer()
	params.Reset()
	for _, param := range v.ParameterContainer().Parameters() {
		params.Offset(param.Name, param.Value)
	}
	return nil
}

// toSQLCore checks preconditions, applies transformers and generates SQL.
func (m *UpdateManager) toSQLCore(v nodes.Visitor) (string, error) {
	if err := m.Err(); err != nil {
		return "", err
	}
	stmt := m.Statement.Clone()
	for _, t := range m.transformers {
		var err error
		stmt, err = t.TransformUpdate(stmt)
		if err != nil {
			return "", fmt.Errorf("sqlupdate: transform: %w", err)
		}
	}
	if stmt.Table == nil {
		return "", ErrMissingTable
	}
	if len(stmt.Assignments) == 0 {
		return "", ErrNoAssignments
	}
	return stmt.Accept(v), nil
}

func (m *UpdateManager) fail(err error) *UpdateManager {
	if m.err == nil {
		m.err = err
	}
	return m
}
