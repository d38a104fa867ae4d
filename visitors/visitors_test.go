package visitors

import (
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	sqldriver "github.com/bawdo/sqlupdate/driver"
	"github.com/bawdo/sqlupdate/internal/testutil"
	"github.com/bawdo/sqlupdate/nodes"
	"github.com/bawdo/sqlupdate/platform"
)

// literal returns a non-parameterized SQL92 visitor.
func literal() *SQLVisitor {
	return New(nil, WithoutParams())
}

func mustExpr(t *testing.T, template string, values ...any) *nodes.ExpressionNode {
	t.Helper()
	e, err := nodes.NewExpression(template, values...)
	testutil.AssertNoError(t, err)
	return e
}

func mustOp(t *testing.T, col string, op nodes.ComparisonOp, val any) *nodes.OperatorNode {
	t.Helper()
	o, err := nodes.NewOperator(col, op, val)
	testutil.AssertNoError(t, err)
	return o
}

func mustIn(t *testing.T, col string, vals any) *nodes.InNode {
	t.Helper()
	in, err := nodes.NewIn(col, vals)
	testutil.AssertNoError(t, err)
	return in
}

type nullValuer struct{}

func (nullValuer) Value() (driver.Value, error) { return nil, nil }

type failingValuer struct{}

func (failingValuer) Value() (driver.Value, error) { return nil, errors.New("no value") }

type status string

// --- Table / Column ---

func TestVisitTable(t *testing.T) {
	t.Parallel()
	users := nodes.NewTable("users")
	testutil.AssertSQL(t, NewPostgresVisitor(WithoutParams()), users, `"users"`)
	testutil.AssertSQL(t, NewMySQLVisitor(WithoutParams()), users, "`users`")
	testutil.AssertSQL(t, NewSQLiteVisitor(WithoutParams()), users, `"users"`)
	testutil.AssertSQL(t, literal(), nodes.NewTable("public.users"), `"public"."users"`)
}

func TestVisitTableAlias(t *testing.T) {
	t.Parallel()
	u := nodes.NewTable("users").As("u")
	testutil.AssertSQL(t, NewPostgresVisitor(WithoutParams()), u, `"users" AS "u"`)
	testutil.AssertSQL(t, NewMySQLVisitor(WithoutParams()), u, "`users` AS `u`")
}

func TestVisitColumn(t *testing.T) {
	t.Parallel()
	testutil.AssertSQL(t, literal(), nodes.NewColumn("name"), `"name"`)
	testutil.AssertSQL(t, literal(), nodes.NewColumn("u.name"), `"u"."name"`)
	testutil.AssertSQL(t, literal(), nodes.NewColumn(`we"ird`), `"we""ird"`)
	testutil.AssertSQL(t, NewMySQLVisitor(), nodes.NewColumn("u.name"), "`u`.`name`")
}

// --- Values ---

func TestVisitLiteralQuotesEverything(t *testing.T) {
	t.Parallel()
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	tsFrac := time.Date(2024, 3, 1, 12, 30, 0, 500000000, time.UTC)
	n := 7
	tests := []struct {
		name string
		val  any
		want string
	}{
		{"string", "val1", `'val1'`},
		{"quote", "it's", `'it''s'`},
		{"int", 1, `'1'`},
		{"negative", int64(-42), `'-42'`},
		{"uint", uint8(3), `'3'`},
		{"float", 1.5, `'1.5'`},
		{"float32", float32(0.25), `'0.25'`},
		{"true", true, `'1'`},
		{"false", false, `'0'`},
		{"bytes", []byte("raw"), `'raw'`},
		{"time", ts, `'2024-03-01 12:30:00'`},
		{"time fraction", tsFrac, `'2024-03-01 12:30:00.5'`},
		{"named string", status("active"), `'active'`},
		{"pointer", &n, `'7'`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			testutil.AssertSQL(t, literal(), &nodes.LiteralNode{Value: tc.val}, tc.want)
		})
	}
}

func TestVisitLiteralValuer(t *testing.T) {
	t.Parallel()
	testutil.AssertSQL(t, literal(), &nodes.LiteralNode{Value: nullValuer{}}, `NULL`)

	defer func() {
		if recover() == nil {
			t.Error("expected panic for a failing Valuer")
		}
	}()
	(&nodes.LiteralNode{Value: failingValuer{}}).Accept(literal())
}

func TestVisitLiteralUnsupportedPanics(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unsupported literal")
		}
	}()
	(&nodes.LiteralNode{Value: struct{}{}}).Accept(literal())
}

func TestVisitRawAndNull(t *testing.T) {
	t.Parallel()
	for _, v := range []nodes.Visitor{literal(), New(nil), NewPostgresVisitor()} {
		testutil.AssertSQL(t, v, nodes.Raw("NOW()"), `NOW()`)
		testutil.AssertSQL(t, v, nodes.Null, `NULL`)
	}
	v := NewPostgresVisitor()
	nodes.Null.Accept(v)
	nodes.Raw("NOW()").Accept(v)
	if len(v.Params()) != 0 {
		t.Errorf("expected no params, got %v", v.Params())
	}
}

func TestVisitLiteralMySQLEscaping(t *testing.T) {
	t.Parallel()
	testutil.AssertSQL(t, NewMySQLVisitor(WithoutParams()), nodes.Literal(`a\'b`), `'a\\''b'`)
	testutil.AssertSQL(t, NewPostgresVisitor(WithoutParams()), nodes.Literal(`a\'b`), `'a\''b'`)
}

// --- Parameter binding ---

func TestBindPositionalQuestionMark(t *testing.T) {
	t.Parallel()
	v := New(nil)
	testutil.AssertSQL(t, v, mustOp(t, "a", nodes.OpEq, "x"), `"a" = ?`)
	testutil.AssertSQL(t, v, mustIn(t, "b", []int{1, 2}), `"b" IN (?, ?)`)
	params := v.Params()
	if len(params) != 3 || params[0] != "x" || params[1] != 1 || params[2] != 2 {
		t.Errorf("unexpected params %v", params)
	}
	for _, name := range v.ParameterContainer().Names() {
		if name != "" {
			t.Errorf("expected positional parameters to be unnamed, got %q", name)
		}
	}
}

func TestBindPositionalDollar(t *testing.T) {
	t.Parallel()
	v := NewPostgresVisitor()
	testutil.AssertSQL(t, v, mustExpr(t, "a BETWEEN ? AND ?", 1, 10), `a BETWEEN $1 AND $2`)
	testutil.AssertSQL(t, v, mustOp(t, "c", nodes.OpGt, 3), `"c" > $3`)
	testutil.AssertEqual(t, len(v.Params()), 3)

	v.Reset()
	testutil.AssertSQL(t, v, mustOp(t, "c", nodes.OpGt, 3), `"c" > $1`)
	testutil.AssertEqual(t, len(v.Params()), 1)
}

func TestBindNamed(t *testing.T) {
	t.Parallel()
	v := NewSQLiteVisitor(WithDriver(sqldriver.NamedParams{}))
	w := nodes.NewWhere().EqualTo("id", 1).EqualTo("id", 2)
	testutil.AssertSQL(t, v, w, `"id" = :p1 AND "id" = :p2`)

	pc := v.ParameterContainer()
	testutil.AssertEqual(t, pc.Len(), 2)
	if got := pc.Names(); got[0] != "p1" || got[1] != "p2" {
		t.Errorf("unexpected names %v", got)
	}
	val, ok := pc.Get("p2")
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, val, any(2))
}

func TestBindNamedCustomSigil(t *testing.T) {
	t.Parallel()
	v := New(platform.SQL92{}, WithDriver(sqldriver.NamedParams{Sigil: "@", Stem: "arg"}))
	testutil.AssertSQL(t, v, mustOp(t, "a", nodes.OpEq, "x"), `"a" = @arg1`)
	testutil.AssertEqual(t, v.ParameterContainer().Names()[0], "arg1")
}

func TestOptionsOrder(t *testing.T) {
	t.Parallel()
	if New(nil, WithoutParams(), WithParams()).Parameterized() != true {
		t.Error("expected WithParams to re-enable binding")
	}
	if New(nil, WithDriver(sqldriver.Dollar{}), WithoutParams()).Parameterized() {
		t.Error("expected WithoutParams to win when last")
	}
	testutil.AssertEqual(t, New(nil).Platform().Name(), "SQL92")
	testutil.AssertEqual(t, NewPostgresVisitor().Platform().Name(), "PostgreSQL")
	testutil.AssertEqual(t, NewMySQLVisitor().Driver().FormatParameterName(4), "?")
	testutil.AssertEqual(t, NewPostgresVisitor().Driver().FormatParameterName(4), "$4")
}

// --- Predicates ---

func TestVisitExpression(t *testing.T) {
	t.Parallel()
	testutil.AssertSQL(t, literal(), mustExpr(t, "x = y"), `x = y`)
	testutil.AssertSQL(t, literal(), mustExpr(t, "id = ?", 1), `id = '1'`)
	testutil.AssertSQL(t, literal(), mustExpr(t, "a = ? OR b = ?", "x", nodes.Raw("NOW()")), `a = 'x' OR b = NOW()`)
	testutil.AssertSQL(t, literal(), mustExpr(t, "a = '?' AND b = ?", nil), `a = '?' AND b = NULL`)
	testutil.AssertSQL(t, literal(), mustExpr(t, "a IS ?"), `a IS ?`)
}

func TestVisitExpressionMismatchPanics(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Error("expected panic for mismatched expression")
		}
	}()
	bad := &nodes.ExpressionNode{Template: "a = ?", Values: []nodes.ValueNode{nodes.Null, nodes.Null}}
	bad.Accept(literal())
}

func TestVisitOperator(t *testing.T) {
	t.Parallel()
	tests := []struct {
		op   nodes.ComparisonOp
		want string
	}{
		{nodes.OpEq, `"a" = '1'`},
		{nodes.OpNotEq, `"a" <> '1'`},
		{nodes.OpLt, `"a" < '1'`},
		{nodes.OpLtEq, `"a" <= '1'`},
		{nodes.OpGt, `"a" > '1'`},
		{nodes.OpGtEq, `"a" >= '1'`},
		{nodes.OpLike, `"a" LIKE '1'`},
		{nodes.OpNotLike, `"a" NOT LIKE '1'`},
	}
	for _, tc := range tests {
		testutil.AssertSQL(t, literal(), mustOp(t, "a", tc.op, 1), tc.want)
	}
	testutil.AssertSQL(t, literal(), mustOp(t, "a", nodes.OpEq, nodes.Raw(`"b"`)), `"a" = "b"`)
}

func TestVisitUnary(t *testing.T) {
	t.Parallel()
	testutil.AssertSQL(t, literal(), nodes.IsNull("c1"), `"c1" IS NULL`)
	testutil.AssertSQL(t, literal(), nodes.IsNotNull("c3"), `"c3" IS NOT NULL`)
}

func TestVisitIn(t *testing.T) {
	t.Parallel()
	testutil.AssertSQL(t, literal(), mustIn(t, "col", []int{1, 2, 3}), `"col" IN ('1', '2', '3')`)
	notIn, err := nodes.NewNotIn("col", []any{"a", nil})
	testutil.AssertNoError(t, err)
	testutil.AssertSQL(t, literal(), notIn, `"col" NOT IN ('a', NULL)`)
}

// --- Where ---

func TestVisitWhereCombinators(t *testing.T) {
	t.Parallel()
	w := nodes.NewWhere()
	w.EqualTo("a", 1).Or().EqualTo("b", 2).EqualTo("c", 3)
	testutil.AssertSQL(t, literal(), w, `"a" = '1' OR "b" = '2' AND "c" = '3'`)
}

func TestVisitWhereFirstCombinatorIgnored(t *testing.T) {
	t.Parallel()
	w := nodes.NewWhere()
	w.Or().EqualTo("a", 1)
	testutil.AssertSQL(t, literal(), w, `"a" = '1'`)
}

func TestVisitWhereNested(t *testing.T) {
	t.Parallel()
	w := nodes.NewWhere()
	w.EqualTo("a", 1).
		Or().Nest().
		EqualTo("b", 2).
		Nest().IsNull("c").Or().IsNotNull("d").Unnest().
		Unnest().
		GreaterThan("e", 5)
	testutil.AssertNoError(t, w.Err())
	testutil.AssertSQL(t, literal(), w,
		`"a" = '1' OR ("b" = '2' AND ("c" IS NULL OR "d" IS NOT NULL)) AND "e" > '5'`)
}

func TestVisitWhereSkipsEmptyNested(t *testing.T) {
	t.Parallel()
	w := nodes.NewWhere()
	w.Nest()
	w.EqualTo("a", 1)
	w.Nest()
	testutil.AssertSQL(t, literal(), w, `"a" = '1'`)
}

// --- Update statement ---

func TestVisitUpdateStatement(t *testing.T) {
	t.Parallel()
	stmt := nodes.NewUpdateStatement()
	stmt.Table = nodes.NewTable("foo")
	stmt.Assign("bar", nodes.Literal("baz"))
	stmt.Assign("boo", nodes.Raw("NOW()"))
	stmt.Assign("bam", nodes.Null)
	testutil.AssertNoError(t, stmt.Where.Add("x = y"))

	testutil.AssertSQL(t, literal(), stmt, `UPDATE "foo" SET "bar" = 'baz', "boo" = NOW(), "bam" = NULL WHERE x = y`)

	v := New(nil)
	testutil.AssertSQL(t, v, stmt, `UPDATE "foo" SET "bar" = ?, "boo" = NOW(), "bam" = NULL WHERE x = y`)
	params := v.Params()
	if len(params) != 1 || params[0] != "baz" {
		t.Errorf("expected exactly one bound value baz, got %v", params)
	}
}

func TestVisitUpdateStatementWithoutWhere(t *testing.T) {
	t.Parallel()
	stmt := nodes.NewUpdateStatement()
	stmt.Table = nodes.NewTable("foo")
	stmt.Assign("bar", nodes.Literal("baz"))
	testutil.AssertSQL(t, literal(), stmt, `UPDATE "foo" SET "bar" = 'baz'`)

	stmt.Where = nil
	testutil.AssertSQL(t, literal(), stmt, `UPDATE "foo" SET "bar" = 'baz'`)
}

func TestVisitAssignment(t *testing.T) {
	t.Parallel()
	a := &nodes.AssignmentNode{Column: nodes.NewColumn("n"), Value: nodes.Literal(1)}
	testutil.AssertSQL(t, literal(), a, `"n" = '1'`)
	testutil.AssertSQL(t, NewPostgresVisitor(), a, `"n" = $1`)
}
