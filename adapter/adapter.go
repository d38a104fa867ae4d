// Package adapter hosts rendered UPDATE statements on a database/sql
// handle. An Adapter pairs the handle with the platform that quotes for
// its engine and the driver that formats its bind placeholders.
package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/bawdo/sqlupdate/driver"
	"github.com/bawdo/sqlupdate/managers"
	"github.com/bawdo/sqlupdate/platform"
)

type engine struct {
	sqlDriver string
	platform  platform.Platform
	driver    driver.Driver
}

var engines = map[string]engine{
	"postgres": {sqlDriver: "pgx", platform: platform.Postgres{}, driver: driver.Dollar{}},
	"mysql":    {sqlDriver: "mysql", platform: platform.MySQL{}, driver: driver.QuestionMark{}},
	"sqlite":   {sqlDriver: "sqlite", platform: platform.SQLite{}, driver: driver.QuestionMark{}},
}

// Engines lists the supported engine names, sorted.
func Engines() []string {
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithDriver overrides the engine's placeholder driver, e.g. to bind
// SQLite parameters by name.
func WithDriver(d driver.Driver) Option {
	return func(a *Adapter) { a.driver = d }
}

// WithPlatform overrides the engine's quoting platform.
func WithPlatform(p platform.Platform) Option {
	return func(a *Adapter) { a.platform = p }
}

// Adapter executes UPDATE statements against one database.
type Adapter struct {
	db       *sql.DB
	engine   string
	platform platform.Platform
	driver   driver.Driver
}

// Open connects to dsn with the database/sql driver registered for engine
// and verifies the connection.
func Open(ctx context.Context, engineName, dsn string, opts ...Option) (*Adapter, error) {
	e, ok := engines[engineName]
	if !ok {
		return nil, fmt.Errorf("no driver for engine %q", engineName)
	}
	db, err := sql.Open(e.sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return New(engineName, db, opts...)
}

// New wraps an existing handle.
func New(engineName string, db *sql.DB, opts ...Option) (*Adapter, error) {
	e, ok := engines[engineName]
	if !ok {
		return nil, fmt.Errorf("no driver for engine %q", engineName)
	}
	a := &Adapter{db: db, engine: engineName, platform: e.platform, driver: e.driver}
	for _, o := range opts {
		o(a)
	}
	return a, nil
}

// DB returns the underlying handle.
func (a *Adapter) DB() *sql.DB { return a.db }

// Engine returns the engine name.
func (a *Adapter) Engine() string { return a.engine }

// Platform returns the quoting platform.
func (a *Adapter) Platform() platform.Platform { return a.platform }

// Driver returns the placeholder driver.
func (a *Adapter) Driver() driver.Driver { return a.driver }

// Close closes the underlying handle.
func (a *Adapter) Close() error { return a.db.Close() }

// SQLString renders u with values inlined, quoted for this engine.
func (a *Adapter) SQLString(u *managers.UpdateManager) (string, error) {
	return u.SQLString(a.platform)
}

// Prepare renders u into a statement with placeholders and bound parameters.
func (a *Adapter) Prepare(u *managers.UpdateManager) (*driver.Statement, error) {
	stmt := driver.NewStatement()
	if err := u.PrepareStatement(a.driver, a.platform, stmt); err != nil {
		return nil, err
	}
	return stmt, nil
}

// Exec prepares u and executes it, returning the number of affected rows.
func (a *Adapter) Exec(ctx context.Context, u *managers.UpdateManager) (int64, error) {
	stmt, err := a.Prepare(u)
	if err != nil {
		return 0, err
	}
	res, err := a.db.ExecContext(ctx, stmt.SQL(), stmt.Args()...)
	if err != nil {
		return 0, fmt.Errorf("exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
