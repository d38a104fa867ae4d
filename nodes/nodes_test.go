package nodes

import (
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// --- Table / Column ---

func TestTableCol(t *testing.T) {
	t.Parallel()
	users := NewTable("users")
	if got := users.Col("id").Name; got != "users.id" {
		t.Errorf("expected users.id, got %q", got)
	}
	u := users.As("u")
	if u == users {
		t.Error("expected As to return a copy")
	}
	if got := u.Col("id").Name; got != "u.id" {
		t.Errorf("expected u.id, got %q", got)
	}
	if users.Alias != "" {
		t.Error("expected original table to stay unaliased")
	}
}

// --- Value normalization ---

type celsius float64

func TestNormalizeValueScalars(t *testing.T) {
	t.Parallel()
	n := 3
	ts := time.Now()
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"string", "a", "a"},
		{"int", 1, 1},
		{"float", 2.5, 2.5},
		{"bool", true, true},
		{"bytes", []byte("x"), nil},
		{"time", ts, ts},
		{"named float", celsius(21.5), celsius(21.5)},
		{"pointer", &n, 3},
		{"uuid valuer", id, id},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			v, err := NormalizeValue(tc.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			lit, ok := v.(*LiteralNode)
			if !ok {
				t.Fatalf("expected *LiteralNode, got %T", v)
			}
			if tc.want != nil && lit.Value != tc.want {
				t.Errorf("expected %v, got %v", tc.want, lit.Value)
			}
		})
	}
}

func TestNormalizeValueNull(t *testing.T) {
	t.Parallel()
	var p *int
	for _, in := range []any{nil, p, Null} {
		v, err := NormalizeValue(in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != Null {
			t.Errorf("expected Null for %#v, got %#v", in, v)
		}
	}
}

func TestNormalizeValuePassesValueNodes(t *testing.T) {
	t.Parallel()
	raw := Raw("NOW()")
	v, err := NormalizeValue(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != raw {
		t.Error("expected raw value to pass through untouched")
	}
}

func TestNormalizeValueRejects(t *testing.T) {
	t.Parallel()
	for _, in := range []any{
		map[string]int{"a": 1},
		struct{ A int }{1},
		[]int{1, 2},
		make(chan int),
		func() {},
	} {
		_, err := NormalizeValue(in)
		if !errors.Is(err, ErrUnsupportedValue) {
			t.Errorf("expected ErrUnsupportedValue for %T, got %v", in, err)
		}
		var te *TypeError
		if !errors.As(err, &te) {
			t.Errorf("expected *TypeError for %T", in)
		}
	}
}

type errValuer struct{ err error }

func (v errValuer) Value() (driver.Value, error) { return nil, v.err }

type chanValuer struct{}

func (chanValuer) Value() (driver.Value, error) { return make(chan int), nil }

func TestNormalizeValueEvaluatesValuer(t *testing.T) {
	t.Parallel()
	cause := errors.New("boom")
	_, err := NormalizeValue(errValuer{err: cause})
	if !errors.Is(err, ErrUnsupportedValue) || !errors.Is(err, cause) {
		t.Errorf("expected ErrUnsupportedValue wrapping the cause, got %v", err)
	}
	if _, err := NormalizeValue(&errValuer{err: cause}); !errors.Is(err, cause) {
		t.Errorf("expected pointer Valuer to be evaluated, got %v", err)
	}
	if _, err := NormalizeValue(chanValuer{}); !errors.Is(err, ErrUnsupportedValue) {
		t.Errorf("expected non-driver result to fail, got %v", err)
	}

	v, err := NormalizeValue(errValuer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lit, ok := v.(*LiteralNode); !ok || lit.Value != (errValuer{}) {
		t.Errorf("expected the Valuer to be kept for binding, got %#v", v)
	}
}

func TestNormalizeValues(t *testing.T) {
	t.Parallel()
	vals, err := NormalizeValues([]any{1, nil, Raw("x"), "s"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vals) != 4 {
		t.Fatalf("expected 4 values, got %d", len(vals))
	}
	if vals[1] != Null {
		t.Error("expected second value to be Null")
	}
	if _, ok := vals[2].(*SqlLiteral); !ok {
		t.Errorf("expected raw third value, got %T", vals[2])
	}

	ids, err := NormalizeValues([]uuid.UUID{uuid.New(), uuid.New()})
	if err != nil || len(ids) != 2 {
		t.Fatalf("expected two uuid values, got %v (%v)", ids, err)
	}

	if _, err := NormalizeValues("abc"); !errors.Is(err, ErrUnsupportedValue) {
		t.Errorf("expected scalar input to be rejected, got %v", err)
	}
	if _, err := NormalizeValues([]any{[]int{1}}); !errors.Is(err, ErrUnsupportedValue) {
		t.Errorf("expected nested list to be rejected, got %v", err)
	}
}

func TestLiteral(t *testing.T) {
	t.Parallel()
	if Literal(nil) != Null {
		t.Error("expected nil to become Null")
	}
	raw := Raw("1")
	if Literal(raw) != raw {
		t.Error("expected ValueNode to pass through")
	}
	if lit, ok := Literal(5).(*LiteralNode); !ok || lit.Value != 5 {
		t.Errorf("unexpected literal %#v", Literal(5))
	}
}

// --- Predicates ---

func TestNewExpression(t *testing.T) {
	t.Parallel()
	e, err := NewExpression("x = y")
	if err != nil || e.Template != "x = y" || len(e.Values) != 0 {
		t.Fatalf("unexpected expression %#v (%v)", e, err)
	}

	e, err = NewExpression("a = ? AND b = ?", 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(e.Values) != 2 || e.Values[1] != Null {
		t.Errorf("unexpected values %#v", e.Values)
	}

	if _, err := NewExpression("a = ?", 1, 2); !errors.Is(err, ErrInvalidPredicate) {
		t.Errorf("expected count mismatch error, got %v", err)
	}
	if _, err := NewExpression("  "); !errors.Is(err, ErrInvalidPredicate) {
		t.Errorf("expected empty expression error, got %v", err)
	}
	if _, err := NewExpression("a = ?", map[int]int{}); !errors.Is(err, ErrUnsupportedValue) {
		t.Errorf("expected unsupported value error, got %v", err)
	}
}

func TestSplitTemplate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want int
	}{
		{"x = y", 1},
		{"a = ?", 2},
		{"a = ? AND b = ?", 3},
		{"a = '?' AND b = ?", 2},
		{`"we?rd" = ?`, 2},
		{"a = 'it''s ?' OR b = ?", 2},
	}
	for _, tc := range tests {
		if got := len(SplitTemplate(tc.in)); got != tc.want {
			t.Errorf("SplitTemplate(%q): expected %d segments, got %d", tc.in, tc.want, got)
		}
	}
}

func TestParseComparisonOp(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want ComparisonOp
	}{
		{"=", OpEq},
		{"==", OpEq},
		{"!=", OpNotEq},
		{"<>", OpNotEq},
		{"<", OpLt},
		{"<=", OpLtEq},
		{">", OpGt},
		{">=", OpGtEq},
		{"like", OpLike},
		{"Not   Like", OpNotLike},
	}
	for _, tc := range tests {
		got, ok := ParseComparisonOp(tc.in)
		if !ok || got != tc.want {
			t.Errorf("ParseComparisonOp(%q): expected %v, got %v (%v)", tc.in, tc.want, got, ok)
		}
	}
	if _, ok := ParseComparisonOp("~"); ok {
		t.Error("expected unknown operator to fail")
	}
	if ComparisonOp(99).String() != "?" {
		t.Error("expected unknown operator to stringify as ?")
	}
}

func TestNewOperator(t *testing.T) {
	t.Parallel()
	op, err := NewOperator("age", OpGtEq, 18)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if op.Left.Name != "age" || op.Op != OpGtEq {
		t.Errorf("unexpected operator %#v", op)
	}
	if _, err := NewOperator("", OpEq, 1); !errors.Is(err, ErrInvalidPredicate) {
		t.Errorf("expected empty column error, got %v", err)
	}
}

func TestNewIn(t *testing.T) {
	t.Parallel()
	in, err := NewIn("id", []int{1, 2, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(in.Vals) != 3 || in.Negate {
		t.Errorf("unexpected in %#v", in)
	}
	notIn, err := NewNotIn("id", [2]string{"a", "b"})
	if err != nil || !notIn.Negate || len(notIn.Vals) != 2 {
		t.Errorf("unexpected not in %#v (%v)", notIn, err)
	}
	if _, err := NewIn("id", []int{}); !errors.Is(err, ErrInvalidPredicate) {
		t.Errorf("expected empty list error, got %v", err)
	}
	if _, err := NewIn("id", 5); !errors.Is(err, ErrUnsupportedValue) {
		t.Errorf("expected scalar to be rejected, got %v", err)
	}
}

// --- Update statement ---

func TestUpdateStatementAssign(t *testing.T) {
	t.Parallel()
	s := NewUpdateStatement()
	s.Assign("a", Literal(1))
	s.Assign("b", Literal(2))
	s.Assign("a", Null)
	if len(s.Assignments) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(s.Assignments))
	}
	if s.Assignments[0].Column.Name != "a" || s.Assignments[0].Value != Null {
		t.Errorf("expected a to be replaced in place, got %#v", s.Assignments[0])
	}
	if _, ok := s.Assignment("c"); ok {
		t.Error("expected c to be unassigned")
	}
}

func TestUpdateStatementCloneIsDeep(t *testing.T) {
	t.Parallel()
	s := NewUpdateStatement()
	s.Table = NewTable("t")
	s.Assign("a", Literal(1))
	s.Where.EqualTo("id", 1).Nest().EqualTo("x", 2)

	c := s.Clone()
	c.Table.Name = "other"
	c.Assign("a", Literal(9))
	c.Assignments[0].Column.Name = "z"
	c.Where.Entries()[1].Predicate.(*Where).EqualTo("y", 3)
	c.Where.Entries()[0].Predicate.(*OperatorNode).Right.(*LiteralNode).Value = 100

	if s.Table.Name != "t" {
		t.Error("table aliased between clone and original")
	}
	if s.Assignments[0].Column.Name != "a" || s.Assignments[0].Value.(*LiteralNode).Value != 1 {
		t.Error("assignments aliased between clone and original")
	}
	if s.Where.Entries()[1].Predicate.(*Where).Len() != 1 {
		t.Error("nested predicate set aliased between clone and original")
	}
	if s.Where.Entries()[0].Predicate.(*OperatorNode).Right.(*LiteralNode).Value != 1 {
		t.Error("operator value aliased between clone and original")
	}
}

func TestUpdateStatementCloneNilWhere(t *testing.T) {
	t.Parallel()
	c := (&UpdateStatement{}).Clone()
	if c.Where == nil || c.Table != nil {
		t.Errorf("unexpected clone %#v", c)
	}
}
