package plugins

import (
	"testing"

	"github.com/bawdo/sqlupdate/internal/testutil"
	"github.com/bawdo/sqlupdate/nodes"
	"github.com/bawdo/sqlupdate/visitors"
)

// --- TargetTable ---

func TestTargetTable(t *testing.T) {
	t.Parallel()
	stmt := newStatement("users")
	stmt.Table = stmt.Table.As("u")
	ref, ok := TargetTable(stmt)
	if !ok {
		t.Fatal("expected a table")
	}
	testutil.AssertEqual(t, ref.Name, "users")
	testutil.AssertEqual(t, ref.Relation.Ref(), "u")
}

func TestTargetTableMissing(t *testing.T) {
	t.Parallel()
	if _, ok := TargetTable(nodes.NewUpdateStatement()); ok {
		t.Error("expected no table")
	}
	if _, ok := TargetTable(nil); ok {
		t.Error("expected no table for nil statement")
	}
}

// --- AppendAnd ---

func TestAppendAnd(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		build func(w *nodes.Where)
		want  string
	}{
		{
			name:  "empty where",
			build: func(*nodes.Where) {},
			want:  `"flag" IS NULL`,
		},
		{
			name:  "and chain is extended",
			build: func(w *nodes.Where) { w.Literal("a = 1").Literal("b = 2") },
			want:  `a = 1 AND b = 2 AND "flag" IS NULL`,
		},
		{
			name:  "or chain is wrapped",
			build: func(w *nodes.Where) { w.Literal("a = 1").Or().Literal("b = 2") },
			want:  `(a = 1 OR b = 2) AND "flag" IS NULL`,
		},
		{
			name:  "or inside a group is not wrapped again",
			build: func(w *nodes.Where) { w.Nest().Literal("a = 1").Or().Literal("b = 2") },
			want:  `(a = 1 OR b = 2) AND "flag" IS NULL`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			stmt := newStatement("users")
			tc.build(stmt.Where)
			AppendAnd(stmt, nodes.IsNull("flag"))
			testutil.AssertSQL(t, visitors.New(nil, visitors.WithoutParams()), stmt.Where, tc.want)
		})
	}
}

func TestAppendAndNilWhere(t *testing.T) {
	t.Parallel()
	stmt := &nodes.UpdateStatement{Table: nodes.NewTable("users")}
	AppendAnd(stmt, nodes.IsNull("flag"))
	testutil.AssertEqual(t, stmt.Where.Len(), 1)
}
